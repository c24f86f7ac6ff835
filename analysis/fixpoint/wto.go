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

package fixpoint

import (
	"fmt"
	"strings"

	"github.com/awslabs/ar-go-absint/internal/graphutil"
)

// Graph is a rooted directed graph. Successors and Predecessors must return the same slices for the same node, in
// a fixed order: the iteration order of the fixpoint depends on them.
type Graph[N comparable] interface {
	Entry() N
	Successors(n N) []N
	Predecessors(n N) []N
}

// WtoComponent is either a WtoVertex or a WtoCycle
type WtoComponent[N comparable] interface {
	fmt.Stringer
	isWtoComponent()
}

// WtoVertex is a node that does not belong to any cycle of its enclosing component
type WtoVertex[N comparable] struct {
	Node N
}

// WtoCycle is a strongly connected component. Head is the node through which the component is entered, and
// Components is the weak topological ordering of the component without its head.
type WtoCycle[N comparable] struct {
	Head       N
	Components []WtoComponent[N]
}

func (WtoVertex[N]) isWtoComponent() {}
func (*WtoCycle[N]) isWtoComponent() {}

func (v WtoVertex[N]) String() string { return fmt.Sprintf("%v", v.Node) }

func (c *WtoCycle[N]) String() string {
	parts := []string{fmt.Sprintf("%v", c.Head)}
	for _, comp := range c.Components {
		parts = append(parts, comp.String())
	}
	return "(" + strings.Join(parts, " ") + ")"
}

// Wto is a weak topological ordering of the nodes of a graph reachable from its entry, in the sense of Bourdoncle.
// It is built by a recursive decomposition into strongly connected components.
type Wto[N comparable] struct {
	Components []WtoComponent[N]
	// nesting maps each node to the heads of the cycles containing it, outermost first. A head is not part of its
	// own nesting.
	nesting map[N][]N
}

// NewWto returns the weak topological ordering of g
func NewWto[N comparable](g Graph[N]) *Wto[N] {
	w := &Wto[N]{nesting: map[N][]N{}}
	w.Components = w.decompose([]N{g.Entry()}, g.Successors, nil, nil)
	return w
}

// decompose orders the nodes reachable from roots through successors restricted to the set in (all nodes when in is
// nil). heads is the nesting of the nodes being decomposed.
func (w *Wto[N]) decompose(roots []N, successors func(N) []N, in map[N]bool, heads []N) []WtoComponent[N] {
	restricted := successors
	if in != nil {
		restricted = func(n N) []N {
			var r []N
			for _, s := range successors(n) {
				if in[s] {
					r = append(r, s)
				}
			}
			return r
		}
	}
	var comps []WtoComponent[N]
	for _, scc := range graphutil.StronglyConnectedComponents(roots, restricted) {
		head := scc[0]
		w.nesting[head] = heads
		if len(scc) == 1 && !graphutil.HasSelfLoop(head, restricted) {
			comps = append(comps, WtoVertex[N]{Node: head})
			continue
		}
		body := make(map[N]bool, len(scc)-1)
		for _, n := range scc[1:] {
			body[n] = true
		}
		// enter the body through the successors of the head, then anything left in discovery order
		var bodyRoots []N
		for _, s := range restricted(head) {
			if body[s] {
				bodyRoots = append(bodyRoots, s)
			}
		}
		bodyRoots = append(bodyRoots, scc[1:]...)
		inner := append(append([]N{}, heads...), head)
		comps = append(comps, &WtoCycle[N]{
			Head:       head,
			Components: w.decompose(bodyRoots, restricted, body, inner),
		})
	}
	return comps
}

// Nesting returns the heads of the cycles containing n, outermost first
func (w *Wto[N]) Nesting(n N) []N { return w.nesting[n] }

// Contains returns true if n is reachable from the entry of the graph
func (w *Wto[N]) Contains(n N) bool {
	_, ok := w.nesting[n]
	return ok
}

// Heads returns the heads of all the cycles, in order
func (w *Wto[N]) Heads() []N {
	var heads []N
	var visit func([]WtoComponent[N])
	visit = func(comps []WtoComponent[N]) {
		for _, c := range comps {
			if cycle, ok := c.(*WtoCycle[N]); ok {
				heads = append(heads, cycle.Head)
				visit(cycle.Components)
			}
		}
	}
	visit(w.Components)
	return heads
}

// Nodes returns the nodes in the order of the weak topological ordering
func (w *Wto[N]) Nodes() []N {
	var nodes []N
	var visit func([]WtoComponent[N])
	visit = func(comps []WtoComponent[N]) {
		for _, c := range comps {
			switch c := c.(type) {
			case WtoVertex[N]:
				nodes = append(nodes, c.Node)
			case *WtoCycle[N]:
				nodes = append(nodes, c.Head)
				visit(c.Components)
			}
		}
	}
	visit(w.Components)
	return nodes
}

func (w *Wto[N]) String() string {
	parts := make([]string, len(w.Components))
	for i, c := range w.Components {
		parts[i] = c.String()
	}
	return strings.Join(parts, " ")
}
