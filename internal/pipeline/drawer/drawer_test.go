package drawer

import (
	"bytes"
	"strings"
	"testing"

	"github.com/prismql/prism/internal/pipeline"
)

func TestDOT(t *testing.T) {
	p := pipeline.Pipeline{
		pipeline.Ident("document.Parse"),
		pipeline.Group{pipeline.Ident("document.Validate")},
		pipeline.Step{ID: pipeline.Ident("document.Execute")},
	}

	var buf bytes.Buffer
	if err := DOT(p, &buf); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "digraph") {
		t.Error("expected a directed graph")
	}
	for _, label := range []string{"document.Parse", "document.Validate", "document.Execute"} {
		if !strings.Contains(out, label) {
			t.Errorf("expected output to contain %q", label)
		}
	}
	if !strings.Contains(out, "->") {
		t.Error("expected at least one edge")
	}
}

func TestDOT_DuplicatePhases(t *testing.T) {
	p := pipeline.Pipeline{
		pipeline.Ident("hook.Audit"),
		pipeline.Ident("document.Parse"),
		pipeline.Ident("hook.Audit"),
	}

	var buf bytes.Buffer
	if err := DOT(p, &buf); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := strings.Count(buf.String(), `"hook.Audit"`); got != 2 {
		t.Errorf("expected 2 labelled audit vertices, got %d", got)
	}
}
