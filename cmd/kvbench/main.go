// Package main is the entry point for kvbench.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"kvbench/internal/api"
	"kvbench/internal/config"
	"kvbench/internal/harness"
	"kvbench/internal/logger"
	"kvbench/internal/metrics"
)

var (
	version = "dev"
)

func main() {
	// フラグ定義
	var (
		configFile  = flag.String("config", "", "設定ファイルパス (YAML/JSON)")
		presetName  = flag.String("preset", "", "プリセット名 (quick, standard, stress, soak)")
		host        = flag.String("host", "", "対象サーバーのホスト")
		port        = flag.Int("port", 0, "対象サーバーのポート")
		iterations  = flag.Int("iterations", 0, "各ベンチマークの反復回数")
		latencyOps  = flag.Int("ops", 0, "レイテンシベンチマークの総オペレーション数")
		workers     = flag.Int("workers", 0, "レイテンシベンチマークのワーカー数")
		namespace   = flag.String("namespace", "", "ベンチマークキーのプレフィックス")
		progress    = flag.Bool("progress", false, "進捗バーを表示")
		hist        = flag.Bool("hist", false, "レイテンシのヒストグラムを表示")
		bins        = flag.Int("bins", 0, "ヒストグラムのビン数")
		verbose     = flag.Bool("verbose", false, "デバッグログを出力")
		listPresets = flag.Bool("list-presets", false, "利用可能なプリセットを表示")
		showVersion = flag.Bool("version", false, "バージョンを表示")
		serverMode  = flag.Bool("server", false, "Web UI サーバーモードで起動")
		serverAddr  = flag.String("addr", ":8080", "サーバーアドレス (例: :8080, 0.0.0.0:3000)")
	)

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, `kvbench - KVS Benchmark Client

Usage:
  kvbench [options]

Options:
`)
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  # デフォルト設定で実行 (127.0.0.1:6379)
  kvbench

  # プリセットで実行
  kvbench --preset stress

  # 設定ファイルから実行
  kvbench --config bench.yaml

  # フラグでカスタマイズ
  kvbench --host 10.0.0.5 --port 6380 --iterations 5000

  # レイテンシヒストグラム付きで実行
  kvbench --hist

  # プリセット一覧を表示
  kvbench --list-presets

  # Web UIサーバーモードで起動
  kvbench --server --addr :3000
`)
	}

	flag.Parse()

	// バージョン表示
	if *showVersion {
		fmt.Printf("kvbench version %s\n", version)
		return
	}

	// プリセット一覧表示
	if *listPresets {
		printPresets()
		return
	}

	if *verbose {
		logger.Default.SetLevel(logger.LevelDebug)
	}

	// ベンチマーク設定の決定
	cfg, err := buildConfig(
		*configFile, *presetName, *host, *port,
		*iterations, *latencyOps, *workers, *namespace, *progress,
	)
	if err != nil {
		logger.Error("", "設定エラー: %v", err)
		os.Exit(1)
	}

	// Web UIサーバーモード
	if *serverMode {
		if err := runServer(*serverAddr, cfg); err != nil {
			logger.Error("", "サーバーエラー: %v", err)
			os.Exit(1)
		}
		return
	}

	// ベンチマーク実行
	if err := runBenchmark(cfg, *hist, *bins); err != nil {
		logger.Error("", "ベンチマーク実行エラー: %v", err)
		os.Exit(1)
	}
}

// buildConfig はベンチマーク設定を構築する
// 優先順位: 設定ファイル > プリセット > デフォルト。フラグは常に上書きする
func buildConfig(
	configFile, presetName, host string, port int,
	iterations, latencyOps, workers int,
	namespace string, progress bool,
) (harness.Config, error) {
	var cfg harness.Config

	// 1. 設定ファイルから読み込み
	if configFile != "" {
		fileConfig, err := config.LoadFile(configFile)
		if err != nil {
			return cfg, fmt.Errorf("設定ファイル読み込みエラー: %w", err)
		}
		cfg, err = fileConfig.ToHarnessConfig()
		if err != nil {
			return cfg, fmt.Errorf("設定変換エラー: %w", err)
		}
	} else if presetName != "" {
		// 2. プリセットから読み込み
		preset, ok := harness.GetPreset(presetName)
		if !ok {
			return cfg, fmt.Errorf("不明なプリセット: %s (利用可能: %v)", presetName, harness.ListPresets())
		}
		cfg = preset
	} else {
		// 3. デフォルト
		cfg = harness.DefaultConfig()
	}

	// フラグでオーバーライド
	if host != "" {
		cfg.Host = host
	}
	if port > 0 {
		cfg.Port = port
	}
	if iterations > 0 {
		cfg.Iterations = iterations
	}
	if latencyOps > 0 {
		cfg.LatencyOps = latencyOps
	}
	if workers > 0 {
		cfg.Workers = workers
	}
	if namespace != "" {
		cfg.Namespace = namespace
	}
	if progress {
		cfg.Progress = true
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}

	return cfg, nil
}

// runBenchmark はベンチマーク一式を実行する
// 個々のフェーズの失敗は終了コードに影響しない。サーバーに到達
// できない場合のみエラーを返す
func runBenchmark(cfg harness.Config, hist bool, bins int) error {
	fmt.Println("kvbench - KVS Benchmark Client")
	fmt.Println("==============================")
	fmt.Printf("Target: %s:%d\n", cfg.Host, cfg.Port)
	fmt.Printf("Config: %s (%d iterations, %d latency ops, %d workers)\n",
		cfg.Name, cfg.Iterations, cfg.LatencyOps, cfg.Workers)
	fmt.Println("==============================")
	fmt.Println()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// シグナルハンドリング
	// キャンセルはフェーズ境界で反映され、実行中のフェーズは完走する
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		fmt.Println("\n中断シグナルを受信、残りのフェーズをスキップします...")
		cancel()
	}()

	h := harness.New(cfg)
	result, err := h.Run(ctx)
	if err != nil {
		return err
	}

	// レポート出力
	fmt.Println(result.Report())

	if hist && len(result.LatencySamples) > 0 {
		fmt.Println("LATENCY HISTOGRAM (ms)")
		if err := metrics.WriteHistogram(os.Stdout, result.LatencySamples, bins); err != nil {
			logger.Warn("", "ヒストグラム出力エラー: %v", err)
		}
		fmt.Println()
	}

	return nil
}

// printPresets は利用可能なプリセットを表示する
func printPresets() {
	fmt.Println("利用可能なプリセット:")
	fmt.Println()

	for _, name := range harness.ListPresets() {
		cfg, _ := harness.GetPreset(name)
		fmt.Printf("  %-10s %s (%d iterations, %d workers)\n",
			name, cfg.Description, cfg.Iterations, cfg.Workers)
	}

	fmt.Println()
	fmt.Println("使用例: kvbench --preset quick")
}

// runServer はWeb UIサーバーを起動する
func runServer(addr string, base harness.Config) error {
	fmt.Println("kvbench - Web UI Server")
	fmt.Println("=======================")
	fmt.Printf("Starting server on http://%s\n", addr)
	fmt.Printf("Default target: %s:%d\n", base.Host, base.Port)
	fmt.Println("Press Ctrl+C to stop")
	fmt.Println()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// シグナルハンドリング
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		fmt.Println("\n中断シグナルを受信、サーバーを終了中...")
		cancel()
	}()

	server := api.NewServer(addr, base)
	return server.Start(ctx)
}
