package bench

import (
	"fmt"
	"time"

	"kvbench/internal/proto"
)

// Sequential は単一接続上で固定回数のコマンドを逐次実行するベンチマーク
type Sequential struct {
	// Name はレポートに表示されるベンチマーク名
	Name string

	// OnOp は操作が1つ完了するたびに累計完了数とともに呼ばれる（任意）
	OnOp func(completed int)

	host string
	port int

	// commands はステップ i で発行するコマンド列を生成する
	commands func(i int) []string
	// stride は1ステップで消費するイテレーション数（mixedは2）
	stride int
}

// NewSet は書き込みベンチマークを作成する
// イテレーションごとに新しいキーを書き込む
func NewSet(host string, port int, namespace string) *Sequential {
	return &Sequential{
		Name: "SET",
		host: host,
		port: port,
		commands: func(i int) []string {
			return []string{fmt.Sprintf("SET %s:key:%d value%d", namespace, i, i)}
		},
		stride: 1,
	}
}

// NewGet は読み込みベンチマークを作成する
// 先行するSET実行が書いたキーを読む。未書き込みキーのmiss応答は正常とみなす
func NewGet(host string, port int, namespace string) *Sequential {
	return &Sequential{
		Name: "GET",
		host: host,
		port: port,
		commands: func(i int) []string {
			return []string{fmt.Sprintf("GET %s:key:%d", namespace, i)}
		},
		stride: 1,
	}
}

// NewLPush はリスト挿入ベンチマークを作成する
// 単一の共有リストキーに挿入し続ける（実行中は無制限に伸びる）
func NewLPush(host string, port int, namespace string) *Sequential {
	return &Sequential{
		Name: "LPUSH",
		host: host,
		port: port,
		commands: func(i int) []string {
			return []string{fmt.Sprintf("LPUSH %s:list item%d", namespace, i)}
		},
		stride: 1,
	}
}

// NewMixed は読み書き混在ベンチマークを作成する
// iterations/2 回のループでSETとGETを交互に発行する。スループットの分母には
// 渡された iterations をそのまま使う（他のベンチマークとの比較可能性を維持）
func NewMixed(host string, port int, namespace string) *Sequential {
	return &Sequential{
		Name: "Mixed (50% SET, 50% GET)",
		host: host,
		port: port,
		commands: func(i int) []string {
			return []string{
				fmt.Sprintf("SET mixed:key:%d value%d", i, i),
				fmt.Sprintf("GET %s:key:%d", namespace, i),
			}
		},
		stride: 2,
	}
}

// Run は iterations 回の操作を逐次実行し、スループット（ops/sec）を返す
// コマンド i の完全な応答を受信してから i+1 を送信する（パイプラインなし）
// 転送エラーは実行を中断し、そのまま呼び出し元へ返す
func (s *Sequential) Run(iterations int) (float64, error) {
	if iterations <= 0 {
		return 0, fmt.Errorf("bench %s: iterations must be positive, got %d", s.Name, iterations)
	}

	c, err := proto.Dial(s.host, s.port)
	if err != nil {
		return 0, fmt.Errorf("bench %s: %w", s.Name, err)
	}
	defer c.Close()

	completed := 0
	steps := iterations / s.stride

	start := time.Now()
	for i := 0; i < steps; i++ {
		for _, cmd := range s.commands(i) {
			if _, err := c.Send(cmd); err != nil {
				return 0, fmt.Errorf("bench %s: operation %d: %w", s.Name, completed, err)
			}
			completed++
			if s.OnOp != nil {
				s.OnOp(completed)
			}
		}
	}
	elapsed := time.Since(start)

	return float64(iterations) / elapsed.Seconds(), nil
}
