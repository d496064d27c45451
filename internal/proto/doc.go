// Package proto implements a minimal client for the line-delimited
// key-value wire protocol.
//
// A Client owns exactly one TCP connection and must not be shared across
// goroutines. Commands are plain text terminated by \r\n.
//
// Two read paths are provided:
//
//   - Send writes a command and scans incoming chunks for the first \r\n.
//     This is correct for simple single-line replies (liveness checks,
//     SET/GET/LPUSH acknowledgements) but returns only the first fragment
//     of a multi-bulk array reply. It is the documented fast path for
//     benchmark loops.
//   - Do writes a command and reads exactly one complete reply using the
//     declared type marker and byte/element counts, recursing into array
//     elements. Callers that need structured replies (key listings) must
//     use this path.
//
// # Basic Usage
//
//	c, err := proto.Dial("127.0.0.1", 6379)
//	if err != nil {
//	    return err
//	}
//	defer c.Close()
//
//	raw, err := c.Send("PING")          // "+PONG\r\n"
//	reply, err := c.Do("KEYS")          // parsed array reply
package proto
