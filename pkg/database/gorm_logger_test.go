package database

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func lastEntry(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	var entry map[string]interface{}
	if err := json.Unmarshal([]byte(lines[len(lines)-1]), &entry); err != nil {
		t.Fatalf("bad log line %q: %v", buf.String(), err)
	}
	return entry
}

func TestGormLoggerTrace(t *testing.T) {
	query := func() (string, int64) { return "SELECT * FROM products", 3 }

	tests := []struct {
		name      string
		level     logger.LogLevel
		began     time.Duration
		err       error
		wantLevel string
		wantMsg   string
	}{
		{"query error", logger.Warn, 0, errors.New("relation does not exist"), "error", "Query failed"},
		{"slow query", logger.Warn, 2 * time.Second, nil, "warn", "Slow query"},
		{"fast query in debug mode", logger.Info, 0, nil, "info", "Query"},
		{"fast query", logger.Warn, 0, nil, "", ""},
		{"record not found", logger.Warn, 0, gorm.ErrRecordNotFound, "", ""},
		{"silent", logger.Silent, 0, errors.New("boom"), "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			l := newGormLogger(zerolog.New(&buf), tt.level, time.Second)

			l.Trace(context.Background(), time.Now().Add(-tt.began), query, tt.err)

			if tt.wantMsg == "" {
				if buf.Len() != 0 {
					t.Errorf("unexpected log output: %s", buf.String())
				}
				return
			}
			entry := lastEntry(t, &buf)
			if entry["level"] != tt.wantLevel || entry["message"] != tt.wantMsg {
				t.Errorf("entry = %v", entry)
			}
			if entry["sql"] != "SELECT * FROM products" {
				t.Errorf("sql = %v", entry["sql"])
			}
		})
	}
}

func TestGormLoggerLogMode(t *testing.T) {
	var buf bytes.Buffer
	base := newGormLogger(zerolog.New(&buf), logger.Warn, time.Second)

	base.LogMode(logger.Silent).Error(context.Background(), "dropped %d", 1)
	if buf.Len() != 0 {
		t.Errorf("silent clone logged: %s", buf.String())
	}

	base.Warn(context.Background(), "pool nearly exhausted: %d", 95)
	if entry := lastEntry(t, &buf); entry["level"] != "warn" || entry["message"] != "pool nearly exhausted: 95" {
		t.Errorf("entry = %v", entry)
	}
}
