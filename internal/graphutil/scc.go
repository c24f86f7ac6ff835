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

// StronglyConnectedComponents computes the strongly connected components of the graph reachable from nodes, using
// Tarjan's algorithm. The components are returned in topological order: a component appears before every
// component it can reach. The nodes of a component are listed in the order the depth-first search discovers them,
// so the first node of a component is the node through which the search entered it.
func StronglyConnectedComponents[T comparable](nodes []T, successors func(T) []T) (sccs [][]T) {
	stack := make([]T, 0)
	onStack := make(map[T]bool)
	index := make(map[T]int)
	lowlink := make(map[T]int)
	nextIndex := 0
	sccs = make([][]T, 0)

	var visit func(v T)

	visit = func(v T) {
		index[v] = nextIndex
		lowlink[v] = nextIndex
		stack = append(stack, v)
		onStack[v] = true
		nextIndex++
		for _, w := range successors(v) {
			if _, ok := index[w]; !ok {
				visit(w)
				if lowlink[w] < lowlink[v] {
					lowlink[v] = lowlink[w]
				}
			} else if onStack[w] && index[w] < lowlink[v] {
				lowlink[v] = index[w]
			}
		}
		if lowlink[v] != index[v] {
			return
		}
		// the stack holds the component in discovery order, from v to the top
		i := len(stack) - 1
		for stack[i] != v {
			i--
		}
		scc := make([]T, len(stack)-i)
		copy(scc, stack[i:])
		for _, w := range scc {
			onStack[w] = false
		}
		stack = stack[:i]
		sccs = append(sccs, scc)
	}
	for _, v := range nodes {
		if _, ok := index[v]; !ok {
			visit(v)
		}
	}
	// Tarjan's algorithm completes the components in reverse topological order
	for i, j := 0, len(sccs)-1; i < j; i, j = i+1, j-1 {
		sccs[i], sccs[j] = sccs[j], sccs[i]
	}
	return sccs
}

// HasSelfLoop returns true if n is its own successor
func HasSelfLoop[T comparable](n T, successors func(T) []T) bool {
	for _, s := range successors(n) {
		if s == n {
			return true
		}
	}
	return false
}
