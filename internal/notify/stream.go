package notify

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
)

// StreamDial adapts an HTTP endpoint that emits newline-delimited messages
// into a DialFunc. The request carries the dial context, so cancelling it
// tears the stream down.
func StreamDial(url string) DialFunc {
	client := &http.Client{}
	return func(ctx context.Context) (Conn, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}

		resp, err := client.Do(req)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return nil, fmt.Errorf("stream returned status %d", resp.StatusCode)
		}

		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		return &httpStream{body: resp.Body, scanner: scanner}, nil
	}
}

type httpStream struct {
	body    io.ReadCloser
	scanner *bufio.Scanner
}

func (s *httpStream) Receive(_ context.Context) ([]byte, error) {
	for s.scanner.Scan() {
		line := bytes.TrimSpace(s.scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		msg := make([]byte, len(line))
		copy(msg, line)
		return msg, nil
	}
	if err := s.scanner.Err(); err != nil {
		return nil, err
	}
	return nil, io.EOF
}

func (s *httpStream) Close() error {
	return s.body.Close()
}
