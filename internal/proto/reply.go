package proto

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// 応答タイプのマーカーバイト
const (
	TypeSimple  = '+'
	TypeError   = '-'
	TypeInteger = ':'
	TypeBulk    = '$'
	TypeArray   = '*'
)

// ErrMalformedReply はプロトコルに従わない応答を表す
var ErrMalformedReply = errors.New("proto: malformed reply")

// Reply は1つの完全なプロトコル応答
type Reply struct {
	Type     byte    // '+', '-', ':', '$', '*'
	Value    string  // simple/error/integerのテキスト、またはbulkのペイロード
	Null     bool    // null bulk ($-1) / null array (*-1)
	Elements []Reply // 配列応答の要素
}

// IsError はエラー応答かどうかを返す
func (r *Reply) IsError() bool {
	return r.Type == TypeError
}

// BulkStrings は配列応答に含まれるbulk文字列要素を順に返す
// 配列以外の応答に対しては（bulkであれば）自身の値を返す
func (r *Reply) BulkStrings() []string {
	if r.Type == TypeBulk && !r.Null {
		return []string{r.Value}
	}
	if r.Type != TypeArray || r.Null {
		return nil
	}
	out := make([]string, 0, len(r.Elements))
	for i := range r.Elements {
		e := &r.Elements[i]
		if e.Type == TypeBulk && !e.Null {
			out = append(out, e.Value)
		}
	}
	return out
}

// readReply は1つの完全な応答を読み取る
// 配列応答は宣言された要素数に従って再帰的に読み取る
func (c *Client) readReply() (*Reply, error) {
	line, err := c.readLine()
	if err != nil {
		return nil, err
	}
	if len(line) == 0 {
		return nil, fmt.Errorf("%w: empty reply line", ErrMalformedReply)
	}

	marker := line[0]
	rest := line[1:]

	switch marker {
	case TypeSimple, TypeError, TypeInteger:
		return &Reply{Type: marker, Value: rest}, nil

	case TypeBulk:
		n, err := strconv.Atoi(rest)
		if err != nil {
			return nil, fmt.Errorf("%w: bad bulk length %q", ErrMalformedReply, rest)
		}
		if n < 0 {
			return &Reply{Type: TypeBulk, Null: true}, nil
		}
		// ペイロードと末尾の終端を読み切る
		payload := make([]byte, n+len(Terminator))
		if _, err := io.ReadFull(c.br, payload); err != nil {
			return nil, fmt.Errorf("read bulk payload: %w", err)
		}
		if !strings.HasSuffix(string(payload), Terminator) {
			return nil, fmt.Errorf("%w: bulk payload not terminated", ErrMalformedReply)
		}
		return &Reply{Type: TypeBulk, Value: string(payload[:n])}, nil

	case TypeArray:
		n, err := strconv.Atoi(rest)
		if err != nil {
			return nil, fmt.Errorf("%w: bad array length %q", ErrMalformedReply, rest)
		}
		if n < 0 {
			return &Reply{Type: TypeArray, Null: true}, nil
		}
		elems := make([]Reply, 0, n)
		for i := 0; i < n; i++ {
			e, err := c.readReply()
			if err != nil {
				return nil, err
			}
			elems = append(elems, *e)
		}
		return &Reply{Type: TypeArray, Elements: elems}, nil

	default:
		return nil, fmt.Errorf("%w: unknown type marker %q", ErrMalformedReply, marker)
	}
}

// readLine は終端までの1行を読み取り、終端を取り除いて返す
func (c *Client) readLine() (string, error) {
	line, err := c.br.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("read reply line: %w", err)
	}
	if !strings.HasSuffix(line, Terminator) {
		return "", fmt.Errorf("%w: line not terminated by CRLF", ErrMalformedReply)
	}
	return strings.TrimSuffix(line, Terminator), nil
}
