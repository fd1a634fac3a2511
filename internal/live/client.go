package live

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
)

// Watch connects to a change feed and copies its events to w, one per line
// (indented when pretty is set), until the server hangs up or ctx ends.
// Lines that are not JSON are copied as they are.
func Watch(ctx context.Context, addr string, w io.Writer, pretty bool) error {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("dial %s: %w", addr, err)
	}
	defer conn.Close()
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	sc := bufio.NewScanner(conn)
	for sc.Scan() {
		line := sc.Bytes()
		if pretty {
			var obj map[string]any
			if err := json.Unmarshal(line, &obj); err == nil {
				if b, err := json.MarshalIndent(obj, "", "  "); err == nil {
					line = b
				}
			}
		}
		if _, err := fmt.Fprintln(w, string(line)); err != nil {
			return err
		}
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("read feed: %w", err)
	}
	return io.EOF
}
