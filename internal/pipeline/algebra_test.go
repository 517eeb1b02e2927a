package pipeline

import (
	"reflect"
	"regexp"
	"testing"
)

var (
	phaseA = Ident("test.A")
	phaseB = Ident("test.B")
	phaseC = Ident("test.C")
	phaseD = Ident("test.D")
)

func TestFlatten_Nested(t *testing.T) {
	p := Pipeline{phaseA, Group{phaseB, Group{phaseC}}, phaseD}

	flat := Flatten(p)
	want := Pipeline{phaseA, phaseB, phaseC, phaseD}
	if !reflect.DeepEqual(flat, want) {
		t.Errorf("expected %v, got %v", want, flat)
	}
}

func TestFlatten_Idempotent(t *testing.T) {
	p := Pipeline{phaseA, Group{phaseB, phaseC}}

	once := Flatten(p)
	twice := Flatten(once)
	if !reflect.DeepEqual(once, twice) {
		t.Errorf("expected %v, got %v", once, twice)
	}
}

func TestMatches_Exact(t *testing.T) {
	if !matches(phaseA, phaseA) {
		t.Error("bare ident should match itself")
	}
	if !matches(phaseA, Step{ID: phaseA, Options: map[string]any{"x": 1}}) {
		t.Error("configured step should match its ident")
	}
	if matches(phaseA, phaseB) {
		t.Error("different idents must not match")
	}
	if matches(Ident("test."), phaseA) {
		t.Error("prefix must not match")
	}
	if matches(phaseA, Group{phaseA}) {
		t.Error("group must never match")
	}
}

func TestBefore(t *testing.T) {
	p := Pipeline{phaseA, phaseB, phaseC}

	got, err := Before(p, phaseC)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := Pipeline{phaseA, phaseB}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestBefore_FirstElement(t *testing.T) {
	got, err := Before(Pipeline{phaseA, phaseB}, phaseA)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected empty prefix, got %v", got)
	}
}

func TestBefore_NotFound(t *testing.T) {
	_, err := Before(Pipeline{phaseA, phaseB}, phaseD)
	if err == nil {
		t.Fatal("expected error for absent phase")
	}
	if !IsNotFound(err) {
		t.Errorf("expected NotFoundError, got %T", err)
	}
}

func TestFrom(t *testing.T) {
	p := Pipeline{phaseA, phaseB, phaseC}

	got, err := From(p, phaseB)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := Pipeline{phaseB, phaseC}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestFrom_NotFound(t *testing.T) {
	// An absent target and an empty pipeline report the same condition.
	for _, p := range []Pipeline{{phaseA, phaseB}, {}} {
		_, err := From(p, phaseD)
		if !IsNotFound(err) {
			t.Errorf("pipeline %v: expected NotFoundError, got %v", p, err)
		}
	}
}

func TestBeforePlusFromIsFlatten(t *testing.T) {
	p := Pipeline{phaseA, Group{phaseB, phaseC}, Step{ID: phaseD}}

	for _, target := range []Ident{phaseA, phaseB, phaseC, phaseD} {
		before, err := Before(p, target)
		if err != nil {
			t.Fatalf("before %s: %v", target, err)
		}
		from, err := From(p, target)
		if err != nil {
			t.Fatalf("from %s: %v", target, err)
		}
		got := append(append(Pipeline{}, before...), from...)
		if !reflect.DeepEqual(got, Flatten(p)) {
			t.Errorf("target %s: before ++ from = %v, want %v", target, got, Flatten(p))
		}
	}
}

func TestUpto(t *testing.T) {
	p := Pipeline{phaseA, phaseB, phaseC}

	got, err := Upto(p, phaseB)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := Pipeline{phaseA, phaseB}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}

	before, _ := Before(p, phaseB)
	if len(got) != len(before)+1 {
		t.Errorf("upto should have exactly one more element than before")
	}
}

func TestUpto_FetchesFromOriginal(t *testing.T) {
	// The extra element is read from the unflattened pipeline, so a group
	// at the boundary is appended whole.
	p := Pipeline{phaseA, Group{phaseB, phaseC}, phaseD}

	got, err := Upto(p, phaseB)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := Pipeline{phaseA, Group{phaseB, phaseC}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestUpto_IndexPastOriginal(t *testing.T) {
	// The prefix computed over the flattened pipeline can be longer than
	// the nested original; the prefix is returned unchanged.
	p := Pipeline{Group{phaseA, phaseB}, phaseC}

	got, err := Upto(p, phaseC)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := Pipeline{phaseA, phaseB}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestUpto_NotFound(t *testing.T) {
	_, err := Upto(Pipeline{phaseA}, phaseD)
	if !IsNotFound(err) {
		t.Errorf("expected NotFoundError, got %v", err)
	}
}

func TestWithout_KeepsMatches(t *testing.T) {
	// Without retains the matching steps, not the others.
	p := Pipeline{phaseA, Step{ID: phaseB}, phaseA, phaseC}

	got := Without(p, phaseA)
	want := Pipeline{phaseA, phaseA}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestInsertBefore(t *testing.T) {
	p := Pipeline{phaseA, phaseB, phaseC}

	got, err := InsertBefore(p, phaseB, phaseD)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := Pipeline{phaseA, phaseD, phaseB, phaseC}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestInsertBefore_Duplicates(t *testing.T) {
	// The split index tracks the first occurrence; later duplicates stay in
	// the remainder.
	p := Pipeline{phaseA, phaseB, phaseA, phaseC}

	got, err := InsertBefore(p, phaseB, phaseD)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := Pipeline{phaseA, phaseD, phaseB, phaseA, phaseC}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestInsertBefore_NotFound(t *testing.T) {
	_, err := InsertBefore(Pipeline{phaseA}, phaseD, phaseB)
	if !IsNotFound(err) {
		t.Errorf("expected NotFoundError, got %v", err)
	}
}

func TestInsertAfter(t *testing.T) {
	p := Pipeline{phaseA, phaseB, phaseC}

	got, err := InsertAfter(p, phaseB, Step{ID: phaseD, Options: map[string]any{"n": 1}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := Pipeline{phaseA, phaseB, Step{ID: phaseD, Options: map[string]any{"n": 1}}, phaseC}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestInsertAfter_LastElement(t *testing.T) {
	got, err := InsertAfter(Pipeline{phaseA, phaseB}, phaseB, phaseC)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := Pipeline{phaseA, phaseB, phaseC}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestReject(t *testing.T) {
	p := Pipeline{
		Ident("document.Parse"),
		Step{ID: Ident("document.Validate")},
		Ident("result.Format"),
	}

	got := Reject(p, regexp.MustCompile(`^document\.`))
	want := Pipeline{Ident("result.Format")}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestReject_PreservesOrder(t *testing.T) {
	p := Pipeline{phaseA, phaseB, phaseC, phaseD}

	got := Reject(p, regexp.MustCompile(`\.B$`))
	want := Pipeline{phaseA, phaseC, phaseD}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestAlgebra_DoesNotMutateInput(t *testing.T) {
	p := Pipeline{phaseA, phaseB, phaseC}
	snapshot := append(Pipeline{}, p...)

	if _, err := InsertBefore(p, phaseB, phaseD); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	Reject(p, regexp.MustCompile("A"))
	Without(p, phaseA)

	if !reflect.DeepEqual(p, snapshot) {
		t.Errorf("input pipeline mutated: %v", p)
	}
}
