package diag

import (
	"bytes"
	"strings"
	"testing"

	"github.com/locriacyber/ante/internal/surfacir"
)

func TestReportRoundTripsThroughErrorChain(t *testing.T) {
	r := New("infer", TMI001, "expected Int, got Bool", &surfacir.Pos{File: "a.an", Line: 3, Column: 5}, nil)
	wrapped := WrapReport(r)
	if wrapped == nil {
		t.Fatal("expected non-nil error")
	}
	got, ok := AsReport(wrapped)
	if !ok {
		t.Fatal("expected AsReport to recover the Report")
	}
	if got.Code != TMI001 {
		t.Fatalf("expected code %s, got %s", TMI001, got.Code)
	}
}

func TestReportToJSONIsDeterministic(t *testing.T) {
	r := New("mono", MON001, "cache cycle", nil, map[string]any{"b": 1, "a": 2})
	first, err := r.ToJSON(true)
	if err != nil {
		t.Fatalf("ToJSON: %v", err)
	}
	second, err := r.ToJSON(true)
	if err != nil {
		t.Fatalf("ToJSON: %v", err)
	}
	if first != second {
		t.Fatalf("expected identical JSON across calls, got %q and %q", first, second)
	}
	if !strings.Contains(first, `"code":"MON001"`) {
		t.Fatalf("expected code field in JSON, got %s", first)
	}
}

func TestReportsShareOneSessionID(t *testing.T) {
	a := New("infer", TMI001, "a", nil, nil)
	b := New("mono", MON001, "b", nil, nil)
	if a.Session == "" {
		t.Fatal("expected a non-empty session id")
	}
	if a.Session != b.Session {
		t.Fatalf("expected reports from the same process to share a session id, got %q and %q", a.Session, b.Session)
	}
}

func TestRenderLineIncludesPositionAndFix(t *testing.T) {
	r := New("refine", SMT004, "given clause is impure", &surfacir.Pos{File: "b.an", Line: 1, Column: 1}, nil).
		WithFix("remove the effectful call from the given clause", 0.6)
	var buf bytes.Buffer
	RenderLine(&buf, r)
	out := buf.String()
	if !strings.Contains(out, "b.an:1:1") {
		t.Fatalf("expected source position in rendered line, got %q", out)
	}
	if !strings.Contains(out, "remove the effectful call") {
		t.Fatalf("expected fix suggestion in rendered line, got %q", out)
	}
}
