package cleanup

import (
	"strings"

	"kvbench/internal/logger"
	"kvbench/internal/proto"
)

const (
	// DefaultPrefix はベンチマークが作成するキーの名前空間プレフィックス
	DefaultPrefix = "benchmark:"

	// DeleteLimit は1回のクリーンアップで削除するキー数の上限
	DeleteLimit = 100

	logTag = "cleanup"
)

// Scanner はベンチマークの合成キーを列挙して削除する
type Scanner struct {
	host   string
	port   int
	prefix string
	limit  int
	log    *logger.Logger
}

// New は新しいScannerを作成する
// prefix が空の場合は DefaultPrefix を使用する
func New(host string, port int, prefix string) *Scanner {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Scanner{
		host:   host,
		port:   port,
		prefix: prefix,
		limit:  DeleteLimit,
		log:    logger.Default,
	}
}

// SetLogger は警告の出力先ロガーを差し替える
func (s *Scanner) SetLogger(l *logger.Logger) {
	if l != nil {
		s.log = l
	}
}

// Cleanup はプレフィックスに一致するキーを列挙し、上限数まで削除する
// 実際に削除したキー数を返す。失敗は警告としてログに記録されるだけで、
// 呼び出し元へは決して伝播しない
func (s *Scanner) Cleanup() int {
	c, err := proto.Dial(s.host, s.port)
	if err != nil {
		s.log.Warn(logTag, "cleanup skipped: %v", err)
		return 0
	}
	defer c.Close()

	// キー一覧は複数要素の配列応答なので、終端スキャンではなく
	// 宣言された要素数に従う読み取りを使う
	reply, err := c.Do("KEYS")
	if err != nil {
		s.log.Warn(logTag, "key listing failed: %v", err)
		return 0
	}
	if reply.IsError() {
		s.log.Warn(logTag, "key listing rejected: %s", reply.Value)
		return 0
	}

	keys := s.matchKeys(reply)
	if len(keys) > s.limit {
		keys = keys[:s.limit]
	}

	deleted := 0
	for _, key := range keys {
		if _, err := c.Send("DEL " + key); err != nil {
			s.log.Warn(logTag, "delete %s failed: %v", key, err)
			break
		}
		deleted++
	}
	return deleted
}

// matchKeys は応答からプレフィックスに一致するキーを取り出す
func (s *Scanner) matchKeys(reply *proto.Reply) []string {
	var keys []string
	for _, k := range reply.BulkStrings() {
		if strings.HasPrefix(k, s.prefix) {
			keys = append(keys, k)
		}
	}
	return keys
}
