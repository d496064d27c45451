package harness

// QuickConfig はクイックテスト用設定を返す
// 短時間での動作確認用
func QuickConfig() Config {
	c := DefaultConfig()
	c.Name = "quick"
	c.Description = "Quick smoke run for verification"
	c.Iterations = 200
	c.LatencyOps = 200
	c.Workers = 5
	return c
}

// StandardConfig は標準ベンチマーク設定を返す
func StandardConfig() Config {
	return DefaultConfig()
}

// StressConfig は高負荷設定を返す
// 多数のワーカーと大量の反復
func StressConfig() Config {
	c := DefaultConfig()
	c.Name = "stress"
	c.Description = "High load stress run"
	c.Iterations = 10000
	c.LatencyOps = 10000
	c.Workers = 50
	return c
}

// SoakConfig は長時間実行用の設定を返す
func SoakConfig() Config {
	c := DefaultConfig()
	c.Name = "soak"
	c.Description = "Long running soak test"
	c.Iterations = 100000
	c.LatencyOps = 50000
	c.Workers = 20
	return c
}

// GetPreset は名前からプリセット設定を取得する
func GetPreset(name string) (Config, bool) {
	presets := map[string]func() Config{
		"quick":    QuickConfig,
		"standard": StandardConfig,
		"stress":   StressConfig,
		"soak":     SoakConfig,
	}

	if fn, ok := presets[name]; ok {
		return fn(), true
	}
	return Config{}, false
}

// ListPresets は利用可能なプリセット名を返す
func ListPresets() []string {
	return []string{"quick", "standard", "stress", "soak"}
}
