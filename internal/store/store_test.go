package store_test

import (
	"testing"

	"github.com/dominikbraun/graph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askiada/go-stages/internal/store"
)

func newStore(t *testing.T, vertices ...string) store.CustomStore[string, string] {
	t.Helper()

	st := store.NewOrderedStore[string, string]()
	for _, v := range vertices {
		require.NoError(t, st.AddVertex(v, v, graph.VertexProperties{}))
	}

	return st
}

func TestOrderedStoreVertices(t *testing.T) {
	t.Parallel()

	st := newStore(t, "start", "Setup", "Build", "end")
	require.ErrorIs(t, st.AddVertex("Build", "Build", graph.VertexProperties{}), graph.ErrVertexAlreadyExists)

	vertices, err := st.ListVertices()
	require.NoError(t, err)
	assert.Equal(t, []string{"start", "Setup", "Build", "end"}, vertices)

	count, err := st.VertexCount()
	require.NoError(t, err)
	assert.Equal(t, 4, count)

	require.NoError(t, st.UpdateVertex("Build", func(p *graph.VertexProperties) {
		p.Attributes["color"] = "red"
	}))
	_, props, err := st.Vertex("Build")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"color": "red"}, props.Attributes)

	require.ErrorIs(t, st.UpdateVertex("Unknown"), graph.ErrVertexNotFound)
	_, _, err = st.Vertex("Unknown")
	require.ErrorIs(t, err, graph.ErrVertexNotFound)

	require.NoError(t, st.RemoveVertex("Setup"))
	vertices, err = st.ListVertices()
	require.NoError(t, err)
	assert.Equal(t, []string{"start", "Build", "end"}, vertices)
}

func TestOrderedStoreEdges(t *testing.T) {
	t.Parallel()

	st := newStore(t, "a", "b", "c")

	require.NoError(t, st.AddEdge("a", "c", graph.Edge[string]{Source: "a", Target: "c"}))
	require.NoError(t, st.AddEdge("a", "b", graph.Edge[string]{Source: "a", Target: "b"}))
	require.NoError(t, st.AddEdge("b", "c", graph.Edge[string]{Source: "b", Target: "c"}))
	require.ErrorIs(t, st.AddEdge("a", "b", graph.Edge[string]{Source: "a", Target: "b"}), graph.ErrEdgeAlreadyExists)

	out, err := st.OutEdges("a")
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "c", out[0].Target)
	assert.Equal(t, "b", out[1].Target)

	_, err = st.OutEdges("z")
	require.ErrorIs(t, err, graph.ErrVertexNotFound)

	require.ErrorIs(t, st.RemoveVertex("b"), graph.ErrVertexHasEdges)

	edge, err := st.Edge("a", "b")
	require.NoError(t, err)
	edge.Properties.Attributes["label"] = "1s"
	require.NoError(t, st.UpdateEdge("a", "b", edge))

	edge, err = st.Edge("a", "b")
	require.NoError(t, err)
	assert.Equal(t, "1s", edge.Properties.Attributes["label"])

	require.ErrorIs(t, st.UpdateEdge("b", "a", edge), graph.ErrEdgeNotFound)

	all, err := st.ListEdges()
	require.NoError(t, err)
	targets := []string{}
	for _, e := range all {
		targets = append(targets, e.Source+"->"+e.Target)
	}
	assert.Equal(t, []string{"a->c", "a->b", "b->c"}, targets)

	require.NoError(t, st.RemoveEdge("a", "b"))
	_, err = st.Edge("a", "b")
	require.ErrorIs(t, err, graph.ErrEdgeNotFound)
}
