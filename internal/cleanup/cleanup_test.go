package cleanup

import (
	"bufio"
	"fmt"
	"net"
	"strings"
	"sync"
	"testing"

	"kvbench/internal/logger"
)

// startListingServer serves a KEYS reply listing the given keys as a
// multi-bulk array, answers DEL with :1 and records every DEL target.
func startListingServer(t *testing.T, keys []string) (*deletions, string, int) {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}
	t.Cleanup(func() { _ = ln.Close() })

	d := &deletions{}

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go func(conn net.Conn) {
				defer conn.Close()
				r := bufio.NewReader(conn)
				for {
					line, err := r.ReadString('\n')
					if err != nil {
						return
					}
					cmd := strings.TrimSuffix(line, "\r\n")
					switch {
					case cmd == "KEYS":
						var b strings.Builder
						fmt.Fprintf(&b, "*%d\r\n", len(keys))
						for _, k := range keys {
							fmt.Fprintf(&b, "$%d\r\n%s\r\n", len(k), k)
						}
						_, _ = conn.Write([]byte(b.String()))
					case strings.HasPrefix(cmd, "DEL "):
						d.record(strings.TrimPrefix(cmd, "DEL "))
						_, _ = conn.Write([]byte(":1\r\n"))
					default:
						_, _ = conn.Write([]byte("-ERR unknown command\r\n"))
					}
				}
			}(conn)
		}
	}()

	addr := ln.Addr().(*net.TCPAddr)
	return d, "127.0.0.1", addr.Port
}

type deletions struct {
	mu   sync.Mutex
	keys []string
}

func (d *deletions) record(key string) {
	d.mu.Lock()
	d.keys = append(d.keys, key)
	d.mu.Unlock()
}

func (d *deletions) Keys() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]string, len(d.keys))
	copy(out, d.keys)
	return out
}

func TestCleanupDeletesMatchingKeys(t *testing.T) {
	keys := []string{
		"benchmark:key:0",
		"mixed:key:0",
		"benchmark:list",
		"unrelated",
	}
	d, host, port := startListingServer(t, keys)

	s := New(host, port, "")
	deleted := s.Cleanup()

	if deleted != 2 {
		t.Errorf("expected 2 deletions, got %d", deleted)
	}
	got := d.Keys()
	if len(got) != 2 || got[0] != "benchmark:key:0" || got[1] != "benchmark:list" {
		t.Errorf("unexpected deletion targets %v", got)
	}
}

func TestCleanupBoundedAtLimit(t *testing.T) {
	// 150 matching keys: exactly 100 deletions, never more
	keys := make([]string, 150)
	for i := range keys {
		keys[i] = fmt.Sprintf("benchmark:key:%d", i)
	}
	d, host, port := startListingServer(t, keys)

	s := New(host, port, "")
	deleted := s.Cleanup()

	if deleted != DeleteLimit {
		t.Errorf("expected %d deletions, got %d", DeleteLimit, deleted)
	}
	if got := len(d.Keys()); got != DeleteLimit {
		t.Errorf("expected %d DEL commands, got %d", DeleteLimit, got)
	}
}

func TestCleanupNoMatches(t *testing.T) {
	d, host, port := startListingServer(t, []string{"other:key", "another"})

	s := New(host, port, "")
	if deleted := s.Cleanup(); deleted != 0 {
		t.Errorf("expected 0 deletions, got %d", deleted)
	}
	if got := len(d.Keys()); got != 0 {
		t.Errorf("expected no DEL commands, got %d", got)
	}
}

func TestCleanupCustomPrefix(t *testing.T) {
	d, host, port := startListingServer(t, []string{"load:key:1", "benchmark:key:1"})

	s := New(host, port, "load:")
	if deleted := s.Cleanup(); deleted != 1 {
		t.Errorf("expected 1 deletion, got %d", deleted)
	}
	if got := d.Keys(); len(got) != 1 || got[0] != "load:key:1" {
		t.Errorf("unexpected deletion targets %v", got)
	}
}

func TestCleanupConnectFailureIsNonFatal(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}
	port := ln.Addr().(*net.TCPAddr).Port
	_ = ln.Close()

	var buf strings.Builder
	s := New("127.0.0.1", port, "")
	s.SetLogger(logger.New(&buf, logger.LevelWarn))

	// Must not panic or propagate; reports zero deletions
	if deleted := s.Cleanup(); deleted != 0 {
		t.Errorf("expected 0 deletions, got %d", deleted)
	}
	if !strings.Contains(buf.String(), "cleanup skipped") {
		t.Errorf("expected warning log, got %q", buf.String())
	}
}

func TestCleanupListingErrorIsNonFatal(t *testing.T) {
	// Server rejects KEYS with an error reply
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}
	t.Cleanup(func() { _ = ln.Close() })

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		r := bufio.NewReader(conn)
		if _, err := r.ReadString('\n'); err != nil {
			return
		}
		_, _ = conn.Write([]byte("-ERR listing unavailable\r\n"))
	}()

	var buf strings.Builder
	port := ln.Addr().(*net.TCPAddr).Port
	s := New("127.0.0.1", port, "")
	s.SetLogger(logger.New(&buf, logger.LevelWarn))

	if deleted := s.Cleanup(); deleted != 0 {
		t.Errorf("expected 0 deletions, got %d", deleted)
	}
	if !strings.Contains(buf.String(), "key listing rejected") {
		t.Errorf("expected warning log, got %q", buf.String())
	}
}
