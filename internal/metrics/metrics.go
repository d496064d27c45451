package metrics

import (
	"errors"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/montanaflynn/stats"
)

// ErrNoSamples はサンプルが1つもない状態での集計を表す
var ErrNoSamples = errors.New("metrics: no samples")

// Collector はベンチマーク実行中の計測値を収集する
type Collector struct {
	totalOps  atomic.Uint64
	failedOps atomic.Uint64

	mu        sync.Mutex
	samples   []float64 // ミリ秒単位のレイテンシサンプル
	startTime time.Time
}

// NewCollector は新しいCollectorを作成する
func NewCollector() *Collector {
	return &Collector{
		startTime: time.Now(),
	}
}

// RecordOps は完了した操作数を加算する
func (c *Collector) RecordOps(n uint64) {
	c.totalOps.Add(n)
}

// RecordFailure は失敗した操作を記録する
func (c *Collector) RecordFailure() {
	c.failedOps.Add(1)
}

// AddSamples はワーカーのローカルサンプルを統合する
// ワーカーのjoin後に呼び出すこと（計測ループ中はロック不要）
func (c *Collector) AddSamples(samples []float64) {
	if len(samples) == 0 {
		return
	}
	c.mu.Lock()
	c.samples = append(c.samples, samples...)
	c.mu.Unlock()
	c.totalOps.Add(uint64(len(samples)))
}

// TotalOps は総操作数を返す
func (c *Collector) TotalOps() uint64 {
	return c.totalOps.Load()
}

// FailedOps は失敗した操作数を返す
func (c *Collector) FailedOps() uint64 {
	return c.failedOps.Load()
}

// Samples は収集済みサンプルのコピーを返す
func (c *Collector) Samples() []float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]float64, len(c.samples))
	copy(out, c.samples)
	return out
}

// Elapsed は収集開始からの経過時間を返す
func (c *Collector) Elapsed() time.Duration {
	return time.Since(c.startTime)
}

// Summary はレイテンシサンプルの要約統計（ミリ秒単位）
type Summary struct {
	Count  int     `json:"count"`
	Min    float64 `json:"min_ms"`
	Max    float64 `json:"max_ms"`
	Mean   float64 `json:"mean_ms"`
	Median float64 `json:"median_ms"`
	P95    float64 `json:"p95_ms"`
}

// Summarize は全サンプルから要約統計を計算する
func Summarize(samples []float64) (Summary, error) {
	if len(samples) == 0 {
		return Summary{}, ErrNoSamples
	}

	data := stats.Float64Data(samples)
	min, err := stats.Min(data)
	if err != nil {
		return Summary{}, err
	}
	max, err := stats.Max(data)
	if err != nil {
		return Summary{}, err
	}
	mean, err := stats.Mean(data)
	if err != nil {
		return Summary{}, err
	}
	median, err := stats.Median(data)
	if err != nil {
		return Summary{}, err
	}

	return Summary{
		Count:  len(samples),
		Min:    min,
		Max:    max,
		Mean:   mean,
		Median: median,
		P95:    percentile95(samples),
	}, nil
}

// percentile95 は昇順ソート済み列の floor(0.95*n) 番目の値を返す
// 切り捨てインデックスは過去の計測結果との互換のため意図的に維持する
func percentile95(samples []float64) float64 {
	sorted := make([]float64, len(samples))
	copy(sorted, samples)
	sort.Float64s(sorted)

	idx := int(float64(len(sorted)) * 0.95)
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}
