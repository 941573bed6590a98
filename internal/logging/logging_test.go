package logging

import (
	"bufio"
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"
)

func TestSetup(t *testing.T) {
	var buf bytes.Buffer
	logger := Setup("debug", true, &buf)
	if logger.GetLevel() != log.DebugLevel {
		t.Errorf("level = %v", logger.GetLevel())
	}
	logger.WithField("k", "v").Debug("hello")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected JSON output, got %q: %v", buf.String(), err)
	}
	if entry["msg"] != "hello" || entry["k"] != "v" {
		t.Errorf("unexpected entry: %v", entry)
	}
}

func TestSetupTextAndBadLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := Setup("loud", false, &buf)
	if logger.GetLevel() != log.InfoLevel {
		t.Errorf("unknown level should fall back to info, got %v", logger.GetLevel())
	}
	logger.Info("started")
	if !strings.Contains(buf.String(), "msg=started") {
		t.Errorf("expected text formatter output, got %q", buf.String())
	}
}

func TestAuditLoggerWritesJSONLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.log")
	a, err := NewAuditLogger(path)
	if err != nil {
		t.Fatalf("NewAuditLogger: %v", err)
	}

	a.Log(AuditEntry{Tool: "execute", Database: "shop", Query: "SELECT 1", Duration: 12 * time.Millisecond, RowCount: 1, Success: true})
	a.Log(AuditEntry{Tool: "execute", Query: "SELECT * FROM nope", Error: "Table 'shop.nope' doesn't exist"})
	if err := a.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	var lines []map[string]any
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var m map[string]any
		if err := json.Unmarshal(sc.Bytes(), &m); err != nil {
			t.Fatalf("line is not JSON: %q", sc.Text())
		}
		lines = append(lines, m)
	}
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	if lines[0]["database"] != "shop" || lines[0]["success"] != true || lines[0]["duration_ms"] != float64(12) {
		t.Errorf("unexpected first entry: %v", lines[0])
	}
	if lines[1]["success"] != false || lines[1]["error"] == nil {
		t.Errorf("unexpected second entry: %v", lines[1])
	}
	if _, ok := lines[1]["database"]; ok {
		t.Errorf("empty database should be omitted: %v", lines[1])
	}
}

func TestAuditLoggerDisabled(t *testing.T) {
	a, err := NewAuditLogger("")
	if err != nil {
		t.Fatal(err)
	}
	a.Log(AuditEntry{Tool: "x"})
	if err := a.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}

	var nilLogger *AuditLogger
	nilLogger.Log(AuditEntry{Tool: "x"})
}

func TestQueryTimer(t *testing.T) {
	var buf bytes.Buffer
	logger := Setup("info", true, &buf)

	NewQueryTimer(logger, "execute").LogSuccess(3, "SELECT * FROM users")
	NewQueryTimer(logger, "execute").LogError("boom", strings.Repeat("x", 300))

	out := buf.String()
	if !strings.Contains(out, `"row_count":3`) || !strings.Contains(out, `"query":"SELECT * FROM users"`) {
		t.Errorf("success line missing fields: %s", out)
	}
	if strings.Contains(out, strings.Repeat("x", 300)) {
		t.Error("long query should not be logged")
	}
	if !strings.Contains(out, `"error":"boom"`) {
		t.Errorf("error line missing: %s", out)
	}
}
