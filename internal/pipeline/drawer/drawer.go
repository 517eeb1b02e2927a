// Package drawer renders a pipeline as a DOT graph for inspection.
package drawer

import (
	"fmt"
	"io"

	"github.com/dominikbraun/graph"
	"github.com/dominikbraun/graph/draw"

	"github.com/prismql/prism/internal/pipeline"
)

// DOT writes the flattened pipeline to w in Graphviz DOT format: one vertex
// per step in execution order, with an edge from each step to its successor.
// Vertices are keyed by position so duplicate phases stay distinct.
func DOT(p pipeline.Pipeline, w io.Writer) error {
	g := graph.New(graph.StringHash, graph.Directed())

	flat := pipeline.Flatten(p)
	keys := make([]string, 0, len(flat))

	for i, e := range flat {
		id, ok := pipeline.EntryIdent(e)
		if !ok {
			continue
		}
		key := fmt.Sprintf("%d:%s", i, id)
		if err := g.AddVertex(key, graph.VertexAttribute("label", id.String())); err != nil {
			return fmt.Errorf("add vertex %s: %w", key, err)
		}
		keys = append(keys, key)
	}

	for i := 1; i < len(keys); i++ {
		if err := g.AddEdge(keys[i-1], keys[i]); err != nil {
			return fmt.Errorf("add edge %s -> %s: %w", keys[i-1], keys[i], err)
		}
	}

	if err := draw.DOT(g, w); err != nil {
		return fmt.Errorf("render dot: %w", err)
	}
	return nil
}
