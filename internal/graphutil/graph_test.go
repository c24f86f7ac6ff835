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
	"reflect"
	"testing"
)

func TestDigraphBackEdges(t *testing.T) {
	// 0 -> 1 -> 2 -> 1, 2 -> 3, 3 -> 3
	m := intGraph{0: {1}, 1: {2}, 2: {1, 3}, 3: {3}}
	d := NewDigraph(nodesOf(m), succFunc(m))
	if d.Order() != 4 || d.IsAcyclic() {
		t.Errorf("wrong graph: order %d, acyclic %v", d.Order(), d.IsAcyclic())
	}
	edges := d.BackEdges(0)
	expected := []BackEdge[int]{{From: 2, To: 1}, {From: 3, To: 3}}
	if !reflect.DeepEqual(edges, expected) {
		t.Fatalf("back edges are %v, expected %v", edges, expected)
	}
	if loop := d.NaturalLoop(edges[0]); !reflect.DeepEqual(loop, []int{1, 2}) {
		t.Errorf("wrong loop of %v: %v", edges[0], loop)
	}
	if loop := d.NaturalLoop(edges[1]); !reflect.DeepEqual(loop, []int{3}) {
		t.Errorf("wrong loop of %v: %v", edges[1], loop)
	}
}

func TestDigraphIrreducible(t *testing.T) {
	// the cycle 1 <-> 2 has two entries, neither node dominates the other
	m := intGraph{0: {1, 2}, 1: {2}, 2: {1}}
	d := NewDigraph(nodesOf(m), succFunc(m))
	if d.IsAcyclic() {
		t.Errorf("the graph has a cycle")
	}
	if edges := d.BackEdges(0); len(edges) != 0 {
		t.Errorf("irreducible cycles have no back edges: %v", edges)
	}
}

func TestDigraphAcyclic(t *testing.T) {
	m := intGraph{0: {1, 2}, 1: {3}, 2: {3}, 3: {}}
	d := NewDigraph(nodesOf(m), succFunc(m))
	if !d.IsAcyclic() {
		t.Errorf("the graph is acyclic")
	}
	if edges := d.BackEdges(0); len(edges) != 0 {
		t.Errorf("unexpected back edges: %v", edges)
	}
	id, ok := d.ID(2)
	if !ok || d.NodeOf(id) != 2 {
		t.Errorf("node 2 has id %d (%v)", id, ok)
	}
	if n := d.Gonum().Nodes().Len(); n != 4 {
		t.Errorf("the gonum graph has %d nodes", n)
	}
}
