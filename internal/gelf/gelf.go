// Package gelf ships log lines to a Graylog-compatible endpoint over UDP.
package gelf

import (
	"encoding/json"
	"net"
	"os"
	"strings"
	"time"
)

// Syslog severity levels used in GELF payloads.
const (
	levelError = 3
	levelWarn  = 4
	levelInfo  = 6
)

// Writer sends one GELF message per Write call and implements io.Writer so
// it can back log.SetOutput via io.MultiWriter.
type Writer struct {
	conn     net.Conn
	hostname string
	service  string
}

// New creates a GELF UDP writer connected to addr (e.g. "172.17.0.1:12201").
func New(addr, service string) (*Writer, error) {
	conn, err := net.Dial("udp", addr)
	if err != nil {
		return nil, err
	}

	hostname, _ := os.Hostname()
	if hostname == "" {
		hostname = service
	}

	return &Writer{conn: conn, hostname: hostname, service: service}, nil
}

// Write implements io.Writer. The standard log package writes lines like
// "2026/02/19 18:43:52 message\n"; the date prefix (exactly 20 characters
// when present) and trailing newline are stripped for a clean short_message.
func (w *Writer) Write(p []byte) (int, error) {
	msg := strings.TrimRight(string(p), "\n")

	short := msg
	if len(msg) > 20 && msg[4] == '/' && msg[7] == '/' && msg[10] == ' ' && msg[13] == ':' {
		short = msg[20:]
	}

	payload, err := json.Marshal(map[string]interface{}{
		"version":       "1.1",
		"host":          w.hostname,
		"short_message": short,
		"timestamp":     float64(time.Now().UnixNano()) / 1e9,
		"level":         severity(short),
		"_service":      w.service,
	})
	if err != nil {
		return len(p), nil // don't fail the log call
	}

	// Fire-and-forget
	w.conn.Write(payload)
	return len(p), nil
}

// Close releases the UDP socket.
func (w *Writer) Close() error {
	return w.conn.Close()
}

func severity(short string) int {
	switch {
	case strings.Contains(short, "PANIC:") || strings.Contains(short, "Fatal") || strings.HasPrefix(short, "Error:"):
		return levelError
	case strings.HasPrefix(short, "Warning:"):
		return levelWarn
	default:
		return levelInfo
	}
}
