// Package store provides a graph.Store that remembers insertion order,
// so that anything rendered from it comes out in stage order.
package store

import (
	"sync"

	"github.com/dominikbraun/graph"
)

type CustomStore[K comparable, T any] interface {
	graph.Store[K, T]
	UpdateVertex(k K, options ...func(*graph.VertexProperties)) error
	OutEdges(k K) ([]graph.Edge[K], error)
}

type OrderedStore[K comparable, T any] struct {
	lock             sync.RWMutex
	order            []K
	vertices         map[K]T
	vertexProperties map[K]*graph.VertexProperties

	// outEdges keeps the targets of every source in the order the edges were added.
	outEdges map[K][]graph.Edge[K]
	inEdges  map[K]map[K]struct{}
}

func NewOrderedStore[K comparable, T any]() CustomStore[K, T] {
	return &OrderedStore[K, T]{
		vertices:         make(map[K]T),
		vertexProperties: make(map[K]*graph.VertexProperties),
		outEdges:         make(map[K][]graph.Edge[K]),
		inEdges:          make(map[K]map[K]struct{}),
	}
}

func (s *OrderedStore[K, T]) AddVertex(k K, t T, p graph.VertexProperties) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	if _, ok := s.vertices[k]; ok {
		return graph.ErrVertexAlreadyExists
	}

	if p.Attributes == nil {
		p.Attributes = make(map[string]string)
	}

	s.vertices[k] = t
	s.vertexProperties[k] = &p
	s.order = append(s.order, k)

	return nil
}

// ListVertices returns the vertex hashes in insertion order.
func (s *OrderedStore[K, T]) ListVertices() ([]K, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	hashes := make([]K, len(s.order))
	copy(hashes, s.order)

	return hashes, nil
}

func (s *OrderedStore[K, T]) VertexCount() (int, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	return len(s.vertices), nil
}

func (s *OrderedStore[K, T]) Vertex(k K) (T, graph.VertexProperties, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	v, ok := s.vertices[k]
	if !ok {
		return v, graph.VertexProperties{}, graph.ErrVertexNotFound
	}

	return v, *s.vertexProperties[k], nil
}

func (s *OrderedStore[K, T]) UpdateVertex(k K, options ...func(*graph.VertexProperties)) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	props, ok := s.vertexProperties[k]
	if !ok {
		return graph.ErrVertexNotFound
	}

	for _, opt := range options {
		opt(props)
	}

	return nil
}

func (s *OrderedStore[K, T]) RemoveVertex(k K) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	if _, ok := s.vertices[k]; !ok {
		return graph.ErrVertexNotFound
	}

	if len(s.inEdges[k]) > 0 || len(s.outEdges[k]) > 0 {
		return graph.ErrVertexHasEdges
	}

	delete(s.inEdges, k)
	delete(s.outEdges, k)
	delete(s.vertices, k)
	delete(s.vertexProperties, k)

	for idx, hash := range s.order {
		if hash == k {
			s.order = append(s.order[:idx], s.order[idx+1:]...)

			break
		}
	}

	return nil
}

func (s *OrderedStore[K, T]) AddEdge(sourceHash, targetHash K, edge graph.Edge[K]) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	if _, ok := s.inEdges[targetHash][sourceHash]; ok {
		return graph.ErrEdgeAlreadyExists
	}

	if edge.Properties.Attributes == nil {
		edge.Properties.Attributes = make(map[string]string)
	}

	s.outEdges[sourceHash] = append(s.outEdges[sourceHash], edge)

	if _, ok := s.inEdges[targetHash]; !ok {
		s.inEdges[targetHash] = make(map[K]struct{})
	}

	s.inEdges[targetHash][sourceHash] = struct{}{}

	return nil
}

func (s *OrderedStore[K, T]) UpdateEdge(sourceHash, targetHash K, edge graph.Edge[K]) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	for idx, existing := range s.outEdges[sourceHash] {
		if existing.Target == targetHash {
			s.outEdges[sourceHash][idx] = edge

			return nil
		}
	}

	return graph.ErrEdgeNotFound
}

func (s *OrderedStore[K, T]) RemoveEdge(sourceHash, targetHash K) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	delete(s.inEdges[targetHash], sourceHash)

	edges := s.outEdges[sourceHash]
	for idx, existing := range edges {
		if existing.Target == targetHash {
			s.outEdges[sourceHash] = append(edges[:idx], edges[idx+1:]...)

			break
		}
	}

	return nil
}

func (s *OrderedStore[K, T]) Edge(sourceHash, targetHash K) (graph.Edge[K], error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	for _, edge := range s.outEdges[sourceHash] {
		if edge.Target == targetHash {
			return edge, nil
		}
	}

	return graph.Edge[K]{}, graph.ErrEdgeNotFound
}

// OutEdges returns the edges leaving k in the order they were added.
func (s *OrderedStore[K, T]) OutEdges(k K) ([]graph.Edge[K], error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	if _, ok := s.vertices[k]; !ok {
		return nil, graph.ErrVertexNotFound
	}

	res := make([]graph.Edge[K], len(s.outEdges[k]))
	copy(res, s.outEdges[k])

	return res, nil
}

// ListEdges returns every edge, grouped by source in vertex insertion order.
func (s *OrderedStore[K, T]) ListEdges() ([]graph.Edge[K], error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	res := make([]graph.Edge[K], 0)
	for _, source := range s.order {
		res = append(res, s.outEdges[source]...)
	}

	return res, nil
}
