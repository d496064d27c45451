package api

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"golang.org/x/net/websocket"

	"kvbench/internal/events"
	"kvbench/internal/harness"
	"kvbench/internal/logger"
	"kvbench/internal/metrics"
)

//go:embed static/*
var staticFiles embed.FS

// Server はAPIサーバー
// HTTPでベンチマークの開始と結果照会を提供し、WebSocketで
// 実行中のイベントをリアルタイム配信する
type Server struct {
	addr string
	base harness.Config
	bus  *events.Bus

	mu         sync.RWMutex
	running    bool
	runName    string
	lastResult *harness.Result

	wsClients map[*websocket.Conn]bool
	server    *http.Server
}

// NewServer は新しいAPIサーバーを作成する
// base は /api/run がプリセット指定なしで使う既定の設定
func NewServer(addr string, base harness.Config) *Server {
	return &Server{
		addr:      addr,
		base:      base,
		bus:       events.NewBus(),
		wsClients: make(map[*websocket.Conn]bool),
	}
}

// Start はサーバーを開始する
func (s *Server) Start(ctx context.Context) error {
	mux := http.NewServeMux()

	// API routes
	mux.HandleFunc("/api/status", s.handleStatus)
	mux.HandleFunc("/api/run", s.handleRun)
	mux.HandleFunc("/api/result", s.handleResult)
	mux.HandleFunc("/api/presets", s.handlePresets)

	// WebSocket
	mux.Handle("/ws", websocket.Handler(s.handleWebSocket))

	// Static files
	staticFS, err := fs.Sub(staticFiles, "static")
	if err != nil {
		return fmt.Errorf("failed to get static files: %w", err)
	}
	mux.Handle("/", http.FileServer(http.FS(staticFS)))

	s.server = &http.Server{
		Addr:    s.addr,
		Handler: mux,
	}

	// バックグラウンドでイベント配信
	go s.forwardEvents(ctx)

	logger.Info("", "API Server starting on http://%s", s.addr)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
		s.bus.Close()
	}()

	if err := s.server.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}

// StatusResponse はステータスレスポンス
type StatusResponse struct {
	Running   bool   `json:"running"`
	RunName   string `json:"run_name,omitempty"`
	HasResult bool   `json:"has_result"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	resp := StatusResponse{
		Running:   s.running,
		HasResult: s.lastResult != nil,
	}
	if s.running {
		resp.RunName = s.runName
	}

	s.writeJSON(w, resp)
}

// RunRequest はベンチマーク開始リクエスト
type RunRequest struct {
	Preset     string `json:"preset,omitempty"`
	Host       string `json:"host,omitempty"`
	Port       int    `json:"port,omitempty"`
	Iterations int    `json:"iterations,omitempty"`
	LatencyOps int    `json:"latency_ops,omitempty"`
	Workers    int    `json:"workers,omitempty"`
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req RunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		http.Error(w, "Benchmark already running", http.StatusConflict)
		return
	}

	config := s.base
	if req.Preset != "" {
		if preset, ok := harness.GetPreset(req.Preset); ok {
			preset.Host = config.Host
			preset.Port = config.Port
			preset.Namespace = config.Namespace
			config = preset
		}
	}

	// オーバーライド
	if req.Host != "" {
		config.Host = req.Host
	}
	if req.Port > 0 {
		config.Port = req.Port
	}
	if req.Iterations > 0 {
		config.Iterations = req.Iterations
	}
	if req.LatencyOps > 0 {
		config.LatencyOps = req.LatencyOps
	}
	if req.Workers > 0 {
		config.Workers = req.Workers
	}
	// 進捗バーはCLI専用
	config.Progress = false

	if err := config.Validate(); err != nil {
		s.mu.Unlock()
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	h := harness.New(config)
	h.SetEventBus(s.bus)
	s.running = true
	s.runName = config.Name
	s.mu.Unlock()

	// バックグラウンドで実行
	go func() {
		result, err := h.Run(context.Background())

		s.mu.Lock()
		s.running = false
		if result != nil {
			s.lastResult = result
		}
		s.mu.Unlock()

		if err != nil {
			logger.Error("", "Benchmark failed: %v", err)
			s.broadcast(map[string]interface{}{
				"type":  "run_error",
				"error": err.Error(),
			})
			return
		}

		logger.Info("", "Benchmark completed: %d ops", result.TotalOps)
		s.broadcast(map[string]interface{}{
			"type":   "run_result",
			"result": newResultView(result),
		})
	}()

	s.writeJSON(w, map[string]string{"status": "started", "name": config.Name})
}

// PhaseView はフェーズ結果のJSON表現
type PhaseView struct {
	Name       string  `json:"name"`
	Iterations int     `json:"iterations"`
	Throughput float64 `json:"throughput"`
	Error      string  `json:"error,omitempty"`
}

// ResultView は実行結果のJSON表現
type ResultView struct {
	ConfigName     string           `json:"config_name"`
	StartTime      time.Time        `json:"start_time"`
	EndTime        time.Time        `json:"end_time"`
	DurationMs     int64            `json:"duration_ms"`
	Phases         []PhaseView      `json:"phases"`
	Latency        *metrics.Summary `json:"latency,omitempty"`
	LatencyWorkers int              `json:"latency_workers"`
	LatencyError   string           `json:"latency_error,omitempty"`
	WorkerErrors   int              `json:"worker_errors"`
	CleanupDeleted int              `json:"cleanup_deleted"`
	TotalOps       uint64           `json:"total_ops"`
}

// newResultView はharness.ResultをJSONにできる形へ変換する
// errorフィールドは文字列化する
func newResultView(r *harness.Result) ResultView {
	view := ResultView{
		ConfigName:     r.ConfigName,
		StartTime:      r.StartTime,
		EndTime:        r.EndTime,
		DurationMs:     r.Duration.Milliseconds(),
		LatencyWorkers: r.LatencyWorkers,
		WorkerErrors:   len(r.WorkerErrors),
		CleanupDeleted: r.CleanupDeleted,
		TotalOps:       r.TotalOps,
	}

	for _, p := range r.Phases {
		pv := PhaseView{
			Name:       p.Name,
			Iterations: p.Iterations,
			Throughput: p.Throughput,
		}
		if p.Err != nil {
			pv.Error = p.Err.Error()
		}
		view.Phases = append(view.Phases, pv)
	}

	if r.LatencyErr != nil {
		view.LatencyError = r.LatencyErr.Error()
	} else if r.LatencySummary.Count > 0 {
		summary := r.LatencySummary
		view.Latency = &summary
	}

	return view
}

func (s *Server) handleResult(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	s.mu.RLock()
	result := s.lastResult
	s.mu.RUnlock()

	if result == nil {
		http.Error(w, "No result available", http.StatusNotFound)
		return
	}

	s.writeJSON(w, newResultView(result))
}

// PresetInfo はプリセット情報
type PresetInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (s *Server) handlePresets(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var presets []PresetInfo
	for _, name := range harness.ListPresets() {
		cfg, _ := harness.GetPreset(name)
		presets = append(presets, PresetInfo{Name: name, Description: cfg.Description})
	}

	s.writeJSON(w, presets)
}

// WebSocket handling
func (s *Server) handleWebSocket(ws *websocket.Conn) {
	s.mu.Lock()
	s.wsClients[ws] = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.wsClients, ws)
		s.mu.Unlock()
		_ = ws.Close()
	}()

	// Keep connection alive
	for {
		var msg string
		if err := websocket.Message.Receive(ws, &msg); err != nil {
			break
		}
	}
}

func (s *Server) broadcast(data interface{}) {
	s.mu.RLock()
	clients := make([]*websocket.Conn, 0, len(s.wsClients))
	for ws := range s.wsClients {
		clients = append(clients, ws)
	}
	s.mu.RUnlock()

	jsonData, err := json.Marshal(data)
	if err != nil {
		return
	}

	for _, ws := range clients {
		_ = websocket.Message.Send(ws, string(jsonData))
	}
}

// forwardEvents はイベントバスの通知をWebSocketクライアントへ転送する
func (s *Server) forwardEvents(ctx context.Context) {
	sub := s.bus.Subscribe()
	defer s.bus.Unsubscribe(sub)

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-sub:
			if !ok {
				return
			}
			s.broadcast(map[string]interface{}{
				"type":  "event",
				"event": ev,
			})
		}
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("", "Failed to encode JSON: %v", err)
	}
}
