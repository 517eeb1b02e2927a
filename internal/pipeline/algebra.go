package pipeline

import (
	"regexp"
)

// Flatten expands nested groups into a single-level ordered sequence of
// bare and configured steps. Flattening is idempotent.
func Flatten(p Pipeline) Pipeline {
	out := make(Pipeline, 0, len(p))
	for _, e := range p {
		if g, ok := e.(Group); ok {
			out = append(out, Flatten(Pipeline(g))...)
			continue
		}
		out = append(out, e)
	}
	return out
}

// Before returns the longest prefix of the flattened pipeline whose entries
// do not match target. If target never occurs, it returns a NotFoundError
// rather than the whole pipeline.
func Before(p Pipeline, target Ident) (Pipeline, error) {
	flat := Flatten(p)
	for i, e := range flat {
		if matches(target, e) {
			return append(Pipeline{}, flat[:i]...), nil
		}
	}
	return nil, &NotFoundError{Phase: target}
}

// From returns the suffix of the flattened pipeline starting at the first
// entry matching target, inclusive. An empty result is always reported as a
// NotFoundError; an empty input pipeline is indistinguishable from a missing
// target.
func From(p Pipeline, target Ident) (Pipeline, error) {
	flat := Flatten(p)
	for i, e := range flat {
		if matches(target, e) {
			return append(Pipeline{}, flat[i:]...), nil
		}
	}
	return nil, &NotFoundError{Phase: target}
}

// Upto returns Before(p, target) plus one more element: the entry at the
// index immediately following the prefix, read from the original pipeline
// rather than the flattened prefix. When p contains nesting at that
// boundary the extra element can therefore be a whole Group. If the index
// falls past the end of the original pipeline the prefix is returned as is.
func Upto(p Pipeline, target Ident) (Pipeline, error) {
	prefix, err := Before(p, target)
	if err != nil {
		return nil, err
	}
	if idx := len(prefix); idx < len(p) {
		prefix = append(prefix, p[idx])
	}
	return prefix, nil
}

// Without returns only the entries of the flattened pipeline that match
// target. Note that despite the name, the entries removed are the
// non-matching ones.
func Without(p Pipeline, target Ident) Pipeline {
	flat := Flatten(p)
	out := make(Pipeline, 0, len(flat))
	for _, e := range flat {
		if matches(target, e) {
			out = append(out, e)
		}
	}
	return out
}

// InsertBefore returns the flattened pipeline with entry spliced in
// immediately before the first occurrence of target. Duplicate steps are
// handled by tracking the split index over the flattened pipeline, so the
// prefix removed from the remainder is exactly the prefix produced by
// Before.
func InsertBefore(p Pipeline, target Ident, entry Entry) (Pipeline, error) {
	flat := Flatten(p)
	prefix, err := Before(flat, target)
	if err != nil {
		return nil, err
	}
	k := len(prefix)
	out := make(Pipeline, 0, len(flat)+1)
	out = append(out, flat[:k]...)
	out = append(out, entry)
	out = append(out, flat[k:]...)
	return out, nil
}

// InsertAfter returns the flattened pipeline with entry spliced in
// immediately after the first occurrence of target, inclusive of the
// matched step.
func InsertAfter(p Pipeline, target Ident, entry Entry) (Pipeline, error) {
	flat := Flatten(p)
	prefix, err := Before(flat, target)
	if err != nil {
		return nil, err
	}
	k := len(prefix) + 1
	out := make(Pipeline, 0, len(flat)+1)
	out = append(out, flat[:k]...)
	out = append(out, entry)
	out = append(out, flat[k:]...)
	return out, nil
}

// Reject removes every entry whose ident rendering matches pattern,
// checking both bare idents and the ident half of configured steps.
// Remaining entries keep their original relative order.
func Reject(p Pipeline, pattern *regexp.Regexp) Pipeline {
	flat := Flatten(p)
	out := make(Pipeline, 0, len(flat))
	for _, e := range flat {
		id, _, ok := resolve(e)
		if ok && pattern.MatchString(id.String()) {
			continue
		}
		out = append(out, e)
	}
	return out
}
