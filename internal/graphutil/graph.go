// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package graphutil

import (
	yb "github.com/yourbasic/graph"
	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/flow"
	"gonum.org/v1/gonum/graph/simple"
)

// Digraph is a directed graph over arbitrary comparable nodes. Nodes are numbered 0..n-1 in the order they are
// given, which makes the graph usable both as a gonum graph.Directed (see Gonum) and as a yourbasic graph.Iterator.
type Digraph[T comparable] struct {
	nodes []T
	ids   map[T]int64
	succs [][]int64
	g     *simple.DirectedGraph
}

// NewDigraph builds the graph of nodes. Successors that are not in nodes are ignored.
func NewDigraph[T comparable](nodes []T, successors func(T) []T) *Digraph[T] {
	d := &Digraph[T]{
		nodes: nodes,
		ids:   make(map[T]int64, len(nodes)),
		succs: make([][]int64, len(nodes)),
		g:     simple.NewDirectedGraph(),
	}
	for i, n := range nodes {
		d.ids[n] = int64(i)
		d.g.AddNode(simple.Node(i))
	}
	for i, n := range nodes {
		for _, s := range successors(n) {
			j, ok := d.ids[s]
			if !ok {
				continue
			}
			d.succs[i] = append(d.succs[i], j)
			// simple graphs have no self loops
			if int64(i) != j {
				d.g.SetEdge(d.g.NewEdge(simple.Node(i), simple.Node(j)))
			}
		}
	}
	return d
}

// ID returns the number of a node
func (d *Digraph[T]) ID(n T) (int64, bool) {
	id, ok := d.ids[n]
	return id, ok
}

// NodeOf returns the node numbered id
func (d *Digraph[T]) NodeOf(id int64) T { return d.nodes[id] }

// Gonum returns the gonum view of the graph, without self loops
func (d *Digraph[T]) Gonum() graph.Directed { return d.g }

// Order implements yourbasic graph.Iterator
func (d *Digraph[T]) Order() int { return len(d.nodes) }

// Visit implements yourbasic graph.Iterator
func (d *Digraph[T]) Visit(v int, do func(w int, c int64) (skip bool)) (aborted bool) {
	for _, w := range d.succs[v] {
		if do(int(w), 1) {
			return true
		}
	}
	return false
}

// IsAcyclic returns true if the graph has no cycle, self loops included
func (d *Digraph[T]) IsAcyclic() bool {
	return yb.Acyclic(d)
}

// BackEdge is an edge whose target dominates its source
type BackEdge[T comparable] struct {
	From T
	To   T
}

// BackEdges returns the edges of the graph whose destination dominates their source, starting the dominance
// computation at entry. Self loops are back edges. Edges are returned in node order.
func (d *Digraph[T]) BackEdges(entry T) []BackEdge[T] {
	root, ok := d.ids[entry]
	if !ok {
		return nil
	}
	tree := flow.Dominators(simple.Node(root), d.g)
	var edges []BackEdge[T]
	for i, succs := range d.succs {
		if i != int(root) && tree.DominatorOf(int64(i)) == nil {
			// unreachable from the entry
			continue
		}
		for _, j := range succs {
			if dominates(tree, j, int64(i)) {
				edges = append(edges, BackEdge[T]{From: d.nodes[i], To: d.nodes[j]})
			}
		}
	}
	return edges
}

// NaturalLoop returns the nodes of the natural loop of a back edge: its head, and the nodes that reach the source
// of the edge without going through the head.
func (d *Digraph[T]) NaturalLoop(e BackEdge[T]) []T {
	head, tail := d.ids[e.To], d.ids[e.From]
	preds := make([][]int64, len(d.nodes))
	for i, succs := range d.succs {
		for _, j := range succs {
			preds[j] = append(preds[j], int64(i))
		}
	}
	in := map[int64]bool{head: true}
	work := []int64{}
	if !in[tail] {
		in[tail] = true
		work = append(work, tail)
	}
	for len(work) > 0 {
		n := work[len(work)-1]
		work = work[:len(work)-1]
		for _, p := range preds[n] {
			if !in[p] {
				in[p] = true
				work = append(work, p)
			}
		}
	}
	var loop []T
	for i, n := range d.nodes {
		if in[int64(i)] {
			loop = append(loop, n)
		}
	}
	return loop
}

// dominates returns true if a dominates b in the tree
func dominates(tree flow.DominatorTree, a, b int64) bool {
	for n := b; ; {
		if n == a {
			return true
		}
		dom := tree.DominatorOf(n)
		if dom == nil {
			return false
		}
		n = dom.ID()
	}
}
