package worker

import (
	"runtime"
	"sync"
)

// Func は1ワーカーが実行する処理。id はワーカー番号（0始まり）
type Func func(id int) error

// Group は固定数のワーカーを並列実行し、完了を待ち合わせる
type Group struct {
	numWorkers int
}

// NewGroup は新しいGroupを作成する
// numWorkers が 0 以下の場合は CPU 数を使用
func NewGroup(numWorkers int) *Group {
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}
	return &Group{numWorkers: numWorkers}
}

// Run は fn をワーカー数ぶんのゴルーチンで同時に実行する
// 返り値はワーカー番号順のエラースライス（成功したワーカーは nil）
func (g *Group) Run(fn Func) []error {
	errs := make([]error, g.numWorkers)
	var wg sync.WaitGroup

	for i := 0; i < g.numWorkers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			errs[id] = fn(id)
		}(i)
	}

	wg.Wait()
	return errs
}

// NumWorkers はワーカー数を返す
func (g *Group) NumWorkers() int {
	return g.numWorkers
}
