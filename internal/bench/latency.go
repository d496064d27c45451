package bench

import (
	"fmt"
	"sync/atomic"
	"time"

	"kvbench/internal/proto"
	"kvbench/internal/worker"
)

// livenessCommand はレイテンシ計測に使う軽量コマンド
const livenessCommand = "PING"

// Latency は複数の独立した接続で同時にPINGを発行し、
// 往復レイテンシをミリ秒単位で計測するベンチマーク
type Latency struct {
	// OnOp は操作が1つ完了するたびに全ワーカー累計の完了数とともに呼ばれる（任意）
	OnOp func(completed int)

	host string
	port int
}

// NewLatency は新しいレイテンシベンチマークを作成する
func NewLatency(host string, port int) *Latency {
	return &Latency{host: host, port: port}
}

// Run は totalOps を workers で等分し、各ワーカーのサンプルを統合して返す
// 端数の操作は意図的に切り捨てる（ワーカー間で再配分しない）ため、
// サンプル数は workers × (totalOps / workers) になる
//
// ワーカーは完全に独立しており、失敗したワーカーの部分サンプルも統合に
// 含まれる。ワーカーごとのエラーは第2返り値で報告される
func (l *Latency) Run(totalOps, workers int) ([]float64, []error, error) {
	if totalOps <= 0 {
		return nil, nil, fmt.Errorf("bench latency: total operations must be positive, got %d", totalOps)
	}
	if workers <= 0 {
		return nil, nil, fmt.Errorf("bench latency: worker count must be positive, got %d", workers)
	}

	perWorker := totalOps / workers
	results := make([][]float64, workers)
	var completed atomic.Int64

	g := worker.NewGroup(workers)
	errs := g.Run(func(id int) error {
		c, err := proto.Dial(l.host, l.port)
		if err != nil {
			return fmt.Errorf("worker %d: %w", id, err)
		}
		defer c.Close()

		// 計測ループ中はローカルに蓄積するだけ（ロックなし）
		samples := make([]float64, 0, perWorker)
		for _i := 0; _i < perWorker; _i++ {
			start := time.Now()
			if _, err := c.Send(livenessCommand); err != nil {
				results[id] = samples
				return fmt.Errorf("worker %d: %w", id, err)
			}
			samples = append(samples, float64(time.Since(start))/float64(time.Millisecond))
			if l.OnOp != nil {
				l.OnOp(int(completed.Add(1)))
			}
		}
		results[id] = samples
		return nil
	})

	merged := make([]float64, 0, perWorker*workers)
	for _, r := range results {
		merged = append(merged, r...)
	}

	var workerErrs []error
	for _, err := range errs {
		if err != nil {
			workerErrs = append(workerErrs, err)
		}
	}
	return merged, workerErrs, nil
}
