// Package config はベンチマーク設定ファイルの読み込みを提供する
// 拡張子によってYAMLとJSONを使い分ける
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"kvbench/internal/harness"
)

// FileConfig は設定ファイルの構造
type FileConfig struct {
	Benchmark BenchmarkConfig `yaml:"benchmark" json:"benchmark"`
}

// BenchmarkConfig はベンチマーク設定
type BenchmarkConfig struct {
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description" json:"description"`

	Target TargetConfig `yaml:"target" json:"target"`

	Iterations int  `yaml:"iterations" json:"iterations"`
	LatencyOps int  `yaml:"latency_ops" json:"latency_ops"`
	Workers    int  `yaml:"workers" json:"workers"`
	Progress   bool `yaml:"progress" json:"progress"`
}

// TargetConfig は対象サーバーの設定
type TargetConfig struct {
	Host      string `yaml:"host" json:"host"`
	Port      int    `yaml:"port" json:"port"`
	Namespace string `yaml:"namespace" json:"namespace"`
}

// LoadFile は設定ファイルを読み込む
func LoadFile(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config FileConfig
	ext := strings.ToLower(filepath.Ext(path))

	switch ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse YAML: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse JSON: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}

	return &config, nil
}

// ToHarnessConfig はFileConfigをharness.Configに変換する
// 未指定の項目はデフォルト値を維持する
func (f *FileConfig) ToHarnessConfig() (harness.Config, error) {
	bc := f.Benchmark

	config := harness.DefaultConfig()

	if bc.Name != "" {
		config.Name = bc.Name
	}
	if bc.Description != "" {
		config.Description = bc.Description
	}

	if bc.Target.Host != "" {
		config.Host = bc.Target.Host
	}
	if bc.Target.Port > 0 {
		config.Port = bc.Target.Port
	}
	if bc.Target.Namespace != "" {
		config.Namespace = bc.Target.Namespace
	}

	if bc.Iterations > 0 {
		config.Iterations = bc.Iterations
	}
	if bc.LatencyOps > 0 {
		config.LatencyOps = bc.LatencyOps
	}
	if bc.Workers > 0 {
		config.Workers = bc.Workers
	}
	config.Progress = bc.Progress

	if err := config.Validate(); err != nil {
		return config, fmt.Errorf("invalid benchmark config: %w", err)
	}

	return config, nil
}
