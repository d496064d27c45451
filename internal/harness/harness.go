package harness

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"

	"kvbench/internal/bench"
	"kvbench/internal/cleanup"
	"kvbench/internal/events"
	"kvbench/internal/logger"
	"kvbench/internal/metrics"
	"kvbench/internal/proto"
)

// progressEventInterval は進捗イベントを発行する間隔(オペレーション数)
const progressEventInterval = 100

// Config はベンチマーク実行の設定
type Config struct {
	Name        string // 設定名
	Description string // 説明

	Host      string // 対象サーバーのホスト
	Port      int    // 対象サーバーのポート
	Namespace string // ベンチマークキーのプレフィックス

	Iterations int // 各スループットベンチマークの反復回数
	LatencyOps int // レイテンシベンチマークの総オペレーション数
	Workers    int // レイテンシベンチマークのワーカー数

	Progress bool // 進捗バーを表示
}

// DefaultConfig はデフォルト設定を返す
func DefaultConfig() Config {
	return Config{
		Name:        "standard",
		Description: "Standard benchmark run",
		Host:        "127.0.0.1",
		Port:        6379,
		Namespace:   "benchmark",
		Iterations:  1000,
		LatencyOps:  1000,
		Workers:     10,
	}
}

// Validate は設定値を検証する
func (c Config) Validate() error {
	if c.Host == "" {
		return fmt.Errorf("host must not be empty")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	if c.Iterations <= 0 {
		return fmt.Errorf("iterations must be positive, got %d", c.Iterations)
	}
	if c.LatencyOps <= 0 {
		return fmt.Errorf("latency ops must be positive, got %d", c.LatencyOps)
	}
	if c.Workers <= 0 {
		return fmt.Errorf("workers must be positive, got %d", c.Workers)
	}
	if c.Namespace == "" {
		return fmt.Errorf("namespace must not be empty")
	}
	return nil
}

// PhaseResult は単一ベンチマークフェーズの結果
type PhaseResult struct {
	Name       string  // フェーズ名
	Iterations int     // 反復回数
	Throughput float64 // スループット(req/sec)
	Err        error   // フェーズ失敗時のエラー
}

// Result はベンチマーク実行全体の結果
type Result struct {
	ConfigName string
	StartTime  time.Time
	EndTime    time.Time
	Duration   time.Duration

	// スループットフェーズ
	Phases []PhaseResult

	// レイテンシ統計
	LatencyWorkers int
	LatencySamples []float64
	LatencySummary metrics.Summary
	LatencyErr     error
	WorkerErrors   []error

	// クリーンアップ統計
	CleanupDeleted int

	// 全フェーズ合算
	TotalOps  uint64
	FailedOps uint64
}

// FailedPhases は失敗したフェーズ数を返す
func (r *Result) FailedPhases() int {
	n := 0
	for _, p := range r.Phases {
		if p.Err != nil {
			n++
		}
	}
	if r.LatencyErr != nil {
		n++
	}
	return n
}

// Harness はベンチマーク実行エンジン
type Harness struct {
	config   Config
	eventBus *events.Bus
	log      *logger.Logger

	collector *metrics.Collector

	mu      sync.RWMutex
	running bool
}

// New は新しいHarnessを作成する
func New(config Config) *Harness {
	return &Harness{
		config: config,
		log:    logger.Default,
	}
}

// SetEventBus はイベントバスを設定する
func (h *Harness) SetEventBus(bus *events.Bus) {
	h.eventBus = bus
}

// SetLogger はロガーを設定する
func (h *Harness) SetLogger(log *logger.Logger) {
	h.log = log
}

// Running は実行中かどうかを返す
func (h *Harness) Running() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.running
}

// Probe はサーバーの生存確認を行う
// PINGを送信し、応答にPONGが含まれることを検証する
func (h *Harness) Probe() error {
	c, err := proto.Dial(h.config.Host, h.config.Port)
	if err != nil {
		return fmt.Errorf("server unreachable at %s:%d: %w", h.config.Host, h.config.Port, err)
	}
	defer c.Close()

	raw, err := c.Send("PING")
	if err != nil {
		return fmt.Errorf("liveness probe failed: %w", err)
	}
	if !strings.Contains(raw, "PONG") {
		return fmt.Errorf("unexpected liveness reply: %q", raw)
	}
	return nil
}

// Run はベンチマーク一式を実行する
// 生存確認に失敗した場合のみエラーを返す。個々のフェーズの失敗は
// Resultに記録され、後続フェーズは常に実行される。キャンセルは
// フェーズ境界でのみ確認される
func (h *Harness) Run(ctx context.Context) (*Result, error) {
	h.mu.Lock()
	if h.running {
		h.mu.Unlock()
		return nil, fmt.Errorf("benchmark is already running")
	}
	h.running = true
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		h.running = false
		h.mu.Unlock()
	}()

	if err := h.Probe(); err != nil {
		return nil, err
	}
	h.log.Info("", "Server is responsive at %s:%d", h.config.Host, h.config.Port)

	h.collector = metrics.NewCollector()
	h.publish(events.NewRunStartEvent())

	h.log.Info("", "=== Benchmark '%s' started ===", h.config.Name)
	if h.config.Description != "" {
		h.log.Info("", "Description: %s", h.config.Description)
	}

	result := &Result{
		ConfigName:     h.config.Name,
		StartTime:      time.Now(),
		LatencyWorkers: h.config.Workers,
	}

	ns := h.config.Namespace
	benches := []*bench.Sequential{
		bench.NewSet(h.config.Host, h.config.Port, ns),
		bench.NewGet(h.config.Host, h.config.Port, ns),
		bench.NewLPush(h.config.Host, h.config.Port, ns),
		bench.NewMixed(h.config.Host, h.config.Port, ns),
	}

	cancelled := false
	for _, b := range benches {
		if ctx.Err() != nil {
			h.log.Warn("", "Run cancelled, skipping remaining benchmarks")
			cancelled = true
			break
		}
		h.runSequential(b, result)
	}

	if !cancelled && ctx.Err() == nil {
		h.runLatency(result)
	}

	// クリーンアップはキャンセル後も実行し、残留キーを削除する
	h.runCleanup(result)

	result.EndTime = time.Now()
	result.Duration = result.EndTime.Sub(result.StartTime)
	result.TotalOps = h.collector.TotalOps()
	result.FailedOps = h.collector.FailedOps()

	h.publish(events.NewRunCompleteEvent(result.CleanupDeleted))
	h.log.Info("", "=== Benchmark '%s' completed ===", h.config.Name)

	return result, nil
}

// runSequential は単一のスループットベンチマークを実行する
func (h *Harness) runSequential(b *bench.Sequential, result *Result) {
	iters := h.config.Iterations

	h.log.Info(b.Name, "Starting benchmark (%d iterations)", iters)
	h.publish(events.NewPhaseStartEvent(b.Name, iters))

	bar := h.newBar(b.Name, iters)
	b.OnOp = h.onOp(b.Name, iters, bar)

	throughput, err := b.Run(iters)
	h.finishBar(bar)

	pr := PhaseResult{Name: b.Name, Iterations: iters, Throughput: throughput, Err: err}
	if err != nil {
		h.collector.RecordFailure()
		h.log.Error(b.Name, "Benchmark failed: %v", err)
		h.publish(events.NewPhaseFailedEvent(b.Name, err))
	} else {
		h.collector.RecordOps(uint64(iters))
		h.log.Info(b.Name, "%d iterations, %.2f req/sec", iters, throughput)
		h.publish(events.NewPhaseCompleteEvent(b.Name, throughput))
	}
	result.Phases = append(result.Phases, pr)
}

// runLatency はレイテンシベンチマークを実行する
func (h *Harness) runLatency(result *Result) {
	totalOps := h.config.LatencyOps
	workers := h.config.Workers
	effective := (totalOps / workers) * workers

	h.log.Info("PING", "Starting latency benchmark (%d ops, %d workers)", totalOps, workers)
	h.publish(events.NewPhaseStartEvent("PING", effective))

	bar := h.newBar("PING", effective)
	l := bench.NewLatency(h.config.Host, h.config.Port)
	l.OnOp = h.onOp("PING", effective, bar)

	samples, workerErrs, err := l.Run(totalOps, workers)
	h.finishBar(bar)

	result.LatencySamples = samples
	result.WorkerErrors = workerErrs
	for _, we := range workerErrs {
		h.log.Warn("PING", "Worker failed: %v", we)
	}

	if err != nil {
		result.LatencyErr = err
		h.collector.RecordFailure()
		h.log.Error("PING", "Latency benchmark failed: %v", err)
		h.publish(events.NewPhaseFailedEvent("PING", err))
		return
	}

	h.collector.AddSamples(samples)

	summary, err := metrics.Summarize(samples)
	if err != nil {
		result.LatencyErr = err
		h.collector.RecordFailure()
		h.log.Error("PING", "Latency summary failed: %v", err)
		h.publish(events.NewPhaseFailedEvent("PING", err))
		return
	}

	result.LatencySummary = summary
	h.log.Info("PING", "%d samples, median %.2fms, p95 %.2fms",
		summary.Count, summary.Median, summary.P95)
	h.publish(events.NewPhaseCompleteEvent("PING", 0))
}

// runCleanup はベンチマークキーのクリーンアップを実行する
// 失敗しても警告のみで、実行全体は成功扱いとなる
func (h *Harness) runCleanup(result *Result) {
	sc := cleanup.New(h.config.Host, h.config.Port, h.config.Namespace+":")
	sc.SetLogger(h.log)
	result.CleanupDeleted = sc.Cleanup()
	h.log.Info("cleanup", "Deleted %d benchmark keys", result.CleanupDeleted)
}

// newBar は進捗バーを作成する。無効時はnilを返す
func (h *Harness) newBar(name string, total int) *progressbar.ProgressBar {
	if !h.config.Progress {
		return nil
	}
	return progressbar.NewOptions(total,
		progressbar.OptionSetDescription(name),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)
}

func (h *Harness) finishBar(bar *progressbar.ProgressBar) {
	if bar != nil {
		_ = bar.Finish()
	}
}

// onOp は各オペレーション完了時のフックを返す
func (h *Harness) onOp(phase string, total int, bar *progressbar.ProgressBar) func(int) {
	return func(completed int) {
		if bar != nil {
			_ = bar.Set(completed)
		}
		if h.eventBus != nil && (completed%progressEventInterval == 0 || completed == total) {
			h.eventBus.Publish(events.NewProgressEvent(phase, completed, total))
		}
	}
}

func (h *Harness) publish(ev events.Event) {
	if h.eventBus != nil {
		h.eventBus.Publish(ev)
	}
}

// Report は結果をフォーマットして返す
func (r *Result) Report() string {
	var sb strings.Builder

	fmt.Fprintf(&sb, `
================================================================================
                        BENCHMARK REPORT: %s
================================================================================

EXECUTION SUMMARY
-----------------
  Start Time:     %s
  End Time:       %s
  Duration:       %v
  Total Ops:      %d
  Failed Phases:  %d

THROUGHPUT
----------
`,
		r.ConfigName,
		r.StartTime.Format("2006-01-02 15:04:05"),
		r.EndTime.Format("2006-01-02 15:04:05"),
		r.Duration.Round(time.Millisecond),
		r.TotalOps,
		r.FailedPhases(),
	)

	for _, p := range r.Phases {
		if p.Err != nil {
			fmt.Fprintf(&sb, "  %-8s %d iterations, FAILED: %v\n", p.Name, p.Iterations, p.Err)
		} else {
			fmt.Fprintf(&sb, "  %-8s %d iterations, %.2f req/sec\n", p.Name, p.Iterations, p.Throughput)
		}
	}

	sb.WriteString("\nLATENCY (PING)\n--------------\n")
	switch {
	case r.LatencyErr != nil:
		fmt.Fprintf(&sb, "  FAILED: %v\n", r.LatencyErr)
	case r.LatencySummary.Count == 0:
		sb.WriteString("  (not run)\n")
	default:
		s := r.LatencySummary
		fmt.Fprintf(&sb, "  Workers:  %d\n", r.LatencyWorkers)
		fmt.Fprintf(&sb, "  Samples:  %d\n", s.Count)
		fmt.Fprintf(&sb, "  Min:      %.3f ms\n", s.Min)
		fmt.Fprintf(&sb, "  Mean:     %.3f ms\n", s.Mean)
		fmt.Fprintf(&sb, "  Median:   %.3f ms\n", s.Median)
		fmt.Fprintf(&sb, "  P95:      %.3f ms\n", s.P95)
		fmt.Fprintf(&sb, "  Max:      %.3f ms\n", s.Max)
	}
	if len(r.WorkerErrors) > 0 {
		fmt.Fprintf(&sb, "  Worker Errors: %d\n", len(r.WorkerErrors))
	}

	fmt.Fprintf(&sb, `
CLEANUP
-------
  Deleted Keys:   %d

================================================================================
`, r.CleanupDeleted)

	return sb.String()
}
