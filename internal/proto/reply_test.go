package proto

import (
	"bufio"
	"errors"
	"net"
	"reflect"
	"testing"
)

// doAgainst dials a mock server that answers one command with raw,
// issues cmd via Do and returns the parsed reply.
func doAgainst(t *testing.T, raw, cmd string) (*Reply, error) {
	t.Helper()

	host, port := startMockServer(t, func(conn net.Conn) {
		defer conn.Close()
		r := bufio.NewReader(conn)
		if _, err := r.ReadString('\n'); err != nil {
			return
		}
		_, _ = conn.Write([]byte(raw))
	})

	c, err := Dial(host, port)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer c.Close()

	return c.Do(cmd)
}

func TestDoSimpleString(t *testing.T) {
	reply, err := doAgainst(t, "+PONG\r\n", "PING")
	if err != nil {
		t.Fatalf("Do failed: %v", err)
	}
	if reply.Type != TypeSimple || reply.Value != "PONG" {
		t.Errorf("expected simple PONG, got type %q value %q", reply.Type, reply.Value)
	}
}

func TestDoErrorReply(t *testing.T) {
	reply, err := doAgainst(t, "-ERR usage: GET key\r\n", "GET")
	if err != nil {
		t.Fatalf("Do failed: %v", err)
	}
	if !reply.IsError() {
		t.Error("expected IsError to be true")
	}
	if reply.Value != "ERR usage: GET key" {
		t.Errorf("unexpected error text %q", reply.Value)
	}
}

func TestDoInteger(t *testing.T) {
	reply, err := doAgainst(t, ":3\r\n", "LPUSH benchmark:list item0")
	if err != nil {
		t.Fatalf("Do failed: %v", err)
	}
	if reply.Type != TypeInteger || reply.Value != "3" {
		t.Errorf("expected integer 3, got type %q value %q", reply.Type, reply.Value)
	}
}

func TestDoBulkString(t *testing.T) {
	reply, err := doAgainst(t, "$6\r\nvalue0\r\n", "GET benchmark:key:0")
	if err != nil {
		t.Fatalf("Do failed: %v", err)
	}
	if reply.Type != TypeBulk || reply.Value != "value0" {
		t.Errorf("expected bulk value0, got type %q value %q", reply.Type, reply.Value)
	}
}

func TestDoBulkWithEmbeddedTerminatorLookalike(t *testing.T) {
	// Bulk payload length is authoritative, not terminator scanning
	reply, err := doAgainst(t, "$4\r\nab\r\n\r\n", "GET k")
	if err != nil {
		t.Fatalf("Do failed: %v", err)
	}
	if reply.Value != "ab\r\n" {
		t.Errorf("expected payload %q, got %q", "ab\r\n", reply.Value)
	}
}

func TestDoNullBulk(t *testing.T) {
	reply, err := doAgainst(t, "$-1\r\n", "GET missing")
	if err != nil {
		t.Fatalf("Do failed: %v", err)
	}
	if reply.Type != TypeBulk || !reply.Null {
		t.Errorf("expected null bulk, got %+v", reply)
	}
}

func TestDoArrayOfBulks(t *testing.T) {
	raw := "*3\r\n$15\r\nbenchmark:key:0\r\n$11\r\nmixed:key:0\r\n$14\r\nbenchmark:list\r\n"
	reply, err := doAgainst(t, raw, "KEYS")
	if err != nil {
		t.Fatalf("Do failed: %v", err)
	}
	if reply.Type != TypeArray || len(reply.Elements) != 3 {
		t.Fatalf("expected 3-element array, got %+v", reply)
	}

	want := []string{"benchmark:key:0", "mixed:key:0", "benchmark:list"}
	if got := reply.BulkStrings(); !reflect.DeepEqual(got, want) {
		t.Errorf("BulkStrings() = %v, want %v", got, want)
	}
}

func TestDoEmptyArray(t *testing.T) {
	reply, err := doAgainst(t, "*0\r\n", "KEYS")
	if err != nil {
		t.Fatalf("Do failed: %v", err)
	}
	if reply.Type != TypeArray || len(reply.Elements) != 0 || reply.Null {
		t.Errorf("expected empty array, got %+v", reply)
	}
	if got := reply.BulkStrings(); len(got) != 0 {
		t.Errorf("expected no bulk strings, got %v", got)
	}
}

func TestDoMalformed(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"unknown marker", "?what\r\n"},
		{"bad bulk length", "$abc\r\n"},
		{"bad array length", "*xyz\r\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := doAgainst(t, tt.raw, "KEYS")
			if !errors.Is(err, ErrMalformedReply) {
				t.Errorf("expected ErrMalformedReply, got %v", err)
			}
		})
	}
}

func TestBulkStringsSkipsNullElements(t *testing.T) {
	raw := "*3\r\n$1\r\na\r\n$-1\r\n$1\r\nb\r\n"
	reply, err := doAgainst(t, raw, "KEYS")
	if err != nil {
		t.Fatalf("Do failed: %v", err)
	}

	want := []string{"a", "b"}
	if got := reply.BulkStrings(); !reflect.DeepEqual(got, want) {
		t.Errorf("BulkStrings() = %v, want %v", got, want)
	}
}
