package proto

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
)

// Terminator はプロトコルの行終端
const Terminator = "\r\n"

// readChunkSize は1回のreadで読み込む最大バイト数
const readChunkSize = 4096

var (
	// ErrNotConnected は閉じられた接続への操作を表す
	ErrNotConnected = errors.New("proto: not connected")
)

// Client は単一のTCP接続を所有するプロトコルクライアント
// ゴルーチン間で共有してはならない
type Client struct {
	conn net.Conn
	br   *bufio.Reader
}

// Dial は host:port へのTCP接続を確立する
func Dial(host string, port int) (*Client, error) {
	addr := net.JoinHostPort(host, strconv.Itoa(port))
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("connect to %s: %w", addr, err)
	}
	return &Client{
		conn: conn,
		br:   bufio.NewReader(conn),
	}, nil
}

// Send はコマンドを送信し、最初の行終端までの生の応答を返す
// 相手がストリームを閉じた場合、蓄積済みのバッファをそのまま返す
// （不完全な応答はエラーではなく既知の制限）
func (c *Client) Send(cmd string) (string, error) {
	if c.conn == nil {
		return "", ErrNotConnected
	}

	if _, err := c.conn.Write([]byte(cmd + Terminator)); err != nil {
		return "", fmt.Errorf("send command: %w", err)
	}

	var acc []byte
	chunk := make([]byte, readChunkSize)
	for !bytes.Contains(acc, []byte(Terminator)) {
		n, err := c.br.Read(chunk)
		if n > 0 {
			acc = append(acc, chunk[:n]...)
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return "", fmt.Errorf("read reply: %w", err)
		}
	}
	return string(acc), nil
}

// Do はコマンドを送信し、完全な応答を1つだけ読み取って返す
func (c *Client) Do(cmd string) (*Reply, error) {
	if c.conn == nil {
		return nil, ErrNotConnected
	}

	if _, err := c.conn.Write([]byte(cmd + Terminator)); err != nil {
		return nil, fmt.Errorf("send command: %w", err)
	}
	return c.readReply()
}

// Close は接続を解放する。複数回呼び出しても安全
func (c *Client) Close() error {
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	c.br = nil
	return err
}
