package domain

import (
	"fmt"
	"sort"
	"strings"

	ybgraph "github.com/yourbasic/graph"
	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/encoding"
	"gonum.org/v1/gonum/graph/encoding/dot"
	"gonum.org/v1/gonum/graph/simple"

	"github.com/babydessy/mutest-rs/internal/model/hir"
)

// CallEdge is one caller to callee edge, labelled with the smallest call
// distance it was discovered at.
type CallEdge struct {
	Caller   hir.DefID
	Callee   hir.DefID
	Distance int
	Unsafe   bool
}

type callGraphNode struct {
	id   int64
	def  hir.DefID
	test bool
}

func (n *callGraphNode) ID() int64 { return n.id }

func (n *callGraphNode) DOTID() string { return string(n.def) }

func (n *callGraphNode) Attributes() []encoding.Attribute {
	if n.test {
		return []encoding.Attribute{{Key: "shape", Value: "box"}}
	}

	return nil
}

type callGraphEdge struct {
	from, to *callGraphNode
	distance int
	unsafe   bool
}

func (e *callGraphEdge) From() graph.Node { return e.from }
func (e *callGraphEdge) To() graph.Node   { return e.to }

func (e *callGraphEdge) ReversedEdge() graph.Edge {
	return &callGraphEdge{from: e.to, to: e.from, distance: e.distance, unsafe: e.unsafe}
}

func (e *callGraphEdge) Attributes() []encoding.Attribute {
	attrs := []encoding.Attribute{{Key: "label", Value: fmt.Sprintf("%d", e.distance)}}
	if e.unsafe {
		attrs = append(attrs, encoding.Attribute{Key: "color", Value: "red"})
	}

	return attrs
}

// CallGraph is the explicit caller/callee structure discovered during
// reachability analysis.
type CallGraph struct {
	g     *simple.DirectedGraph
	nodes []*callGraphNode
	ids   map[hir.DefID]int64
	// self-recursive definitions, which the directed graph cannot hold
	recursive map[hir.DefID]bool
}

// NewCallGraph creates an empty call graph.
func NewCallGraph() *CallGraph {
	return &CallGraph{
		g:         simple.NewDirectedGraph(),
		ids:       make(map[hir.DefID]int64),
		recursive: make(map[hir.DefID]bool),
	}
}

func (c *CallGraph) node(def hir.DefID) *callGraphNode {
	if id, ok := c.ids[def]; ok {
		return c.nodes[id]
	}

	n := &callGraphNode{id: int64(len(c.nodes)), def: def}
	c.nodes = append(c.nodes, n)
	c.ids[def] = n.id
	c.g.AddNode(n)

	return n
}

// AddTest registers a test entry point.
func (c *CallGraph) AddTest(def hir.DefID) {
	c.node(def).test = true
}

// AddCall records a call edge, keeping the smallest distance and remembering
// whether any discovery of it was unsafe.
func (c *CallGraph) AddCall(caller, callee hir.DefID, distance int, unsafe bool) {
	from, to := c.node(caller), c.node(callee)

	if from.id == to.id {
		c.recursive[caller] = true
		return
	}

	if existing, ok := c.g.Edge(from.id, to.id).(*callGraphEdge); ok {
		existing.distance = min(existing.distance, distance)
		existing.unsafe = existing.unsafe || unsafe

		return
	}

	c.g.SetEdge(&callGraphEdge{from: from, to: to, distance: distance, unsafe: unsafe})
}

// Len returns the number of definitions in the graph.
func (c *CallGraph) Len() int {
	return len(c.nodes)
}

// Callees returns the callees of def, sorted.
func (c *CallGraph) Callees(def hir.DefID) []hir.DefID {
	id, ok := c.ids[def]
	if !ok {
		return nil
	}

	var out []hir.DefID

	it := c.g.From(id)
	for it.Next() {
		out = append(out, it.Node().(*callGraphNode).def)
	}

	if c.recursive[def] {
		out = append(out, def)
	}

	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })

	return out
}

// Edges returns every edge ordered by distance, caller and callee.
func (c *CallGraph) Edges() []CallEdge {
	var out []CallEdge

	it := c.g.Edges()
	for it.Next() {
		e := it.Edge().(*callGraphEdge)
		out = append(out, CallEdge{Caller: e.from.def, Callee: e.to.def, Distance: e.distance, Unsafe: e.unsafe})
	}

	for def := range c.recursive {
		out = append(out, CallEdge{Caller: def, Callee: def, Distance: -1})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Distance != out[j].Distance {
			return out[i].Distance < out[j].Distance
		}

		if out[i].Caller != out[j].Caller {
			return out[i].Caller < out[j].Caller
		}

		return out[i].Callee < out[j].Callee
	})

	return out
}

// Order implements yourbasic/graph.Iterator.
func (c *CallGraph) Order() int {
	return len(c.nodes)
}

// Visit implements yourbasic/graph.Iterator.
func (c *CallGraph) Visit(v int, do func(w int, cost int64) bool) bool {
	it := c.g.From(int64(v))
	for it.Next() {
		if do(int(it.Node().ID()), 1) {
			return true
		}
	}

	return false
}

// Cycles returns the groups of mutually recursive definitions, including
// functions that call themselves.
func (c *CallGraph) Cycles() [][]hir.DefID {
	var out [][]hir.DefID

	for _, component := range ybgraph.StrongComponents(c) {
		if len(component) < 2 {
			continue
		}

		defs := make([]hir.DefID, 0, len(component))
		for _, id := range component {
			defs = append(defs, c.nodes[id].def)
		}

		sort.Slice(defs, func(i, j int) bool { return defs[i] < defs[j] })
		out = append(out, defs)
	}

	for def := range c.recursive {
		out = append(out, []hir.DefID{def})
	}

	sort.Slice(out, func(i, j int) bool { return out[i][0] < out[j][0] })

	return out
}

// String renders one `caller -> callee` line per edge, grouped by distance.
func (c *CallGraph) String() string {
	var b strings.Builder

	for _, e := range c.Edges() {
		marker := ""
		if e.Unsafe {
			marker = " [unsafe]"
		}

		if e.Distance < 0 {
			fmt.Fprintf(&b, "%s -> %s (recursive)\n", e.Caller, e.Callee)
			continue
		}

		fmt.Fprintf(&b, "%d: %s -> %s%s\n", e.Distance, e.Caller, e.Callee, marker)
	}

	return b.String()
}

// MarshalDOT renders the graph in graphviz format.
func (c *CallGraph) MarshalDOT() ([]byte, error) {
	return dot.Marshal(c.g, "call_graph", "", "  ")
}
