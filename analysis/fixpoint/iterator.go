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

// Domain is the lattice of the invariants computed by an InterleavedIterator. Values are immutable: operations
// return new values.
type Domain[D any] interface {
	Bottom() D
	IsBottom() bool
	Leq(other D) bool
	Join(other D) D
	Widen(other D) D
	Narrow(other D) D
}

// Analysis defines the forward analysis run by an InterleavedIterator
type Analysis[N comparable, D Domain[D]] interface {
	// Extrapolate returns the new invariant at the head of a cycle during the increasing iterations. iteration starts
	// at 1 and before is the previous invariant.
	Extrapolate(head N, iteration int, before, after D) D

	// Refine returns the new invariant at the head of a cycle during the decreasing iterations
	Refine(head N, iteration int, before, after D) D

	// RefineIteration returns true if the decreasing iterations of head should go on with iteration
	RefineIteration(head N, iteration int) bool

	// AnalyzeNode returns the post invariant of n, given its pre invariant
	AnalyzeNode(n N, pre D) D

	// AnalyzeEdge returns the contribution of the edge src -> dst to the pre invariant of dst
	AnalyzeEdge(src, dst N, post D) D

	// ProcessPre is called on each node with its pre invariant once the fixpoint is reached
	ProcessPre(n N, pre D)

	// ProcessPost is called on each node with its post invariant once the fixpoint is reached
	ProcessPost(n N, post D)
}

// DefaultAnalysis implements the methods of Analysis other than AnalyzeNode. Analyses embed it and override what
// they need.
type DefaultAnalysis[N comparable, D Domain[D]] struct {
	// Narrowing enables the decreasing iterations
	Narrowing bool

	// MaxNarrowingIterations bounds the number of decreasing iterations per cycle head. Zero means no bound: the
	// decreasing iterations stop when the invariant of the head no longer decreases.
	MaxNarrowingIterations int
}

// Extrapolate joins on the first iteration and widens afterwards
func (DefaultAnalysis[N, D]) Extrapolate(_ N, iteration int, before, after D) D {
	if iteration <= 1 {
		return before.Join(after)
	}
	return before.Widen(after)
}

// Refine narrows
func (DefaultAnalysis[N, D]) Refine(_ N, _ int, before, after D) D {
	return before.Narrow(after)
}

// RefineIteration returns false when narrowing is disabled or the iteration bound is reached
func (a DefaultAnalysis[N, D]) RefineIteration(_ N, iteration int) bool {
	return a.Narrowing && (a.MaxNarrowingIterations <= 0 || iteration <= a.MaxNarrowingIterations)
}

// AnalyzeEdge returns post
func (DefaultAnalysis[N, D]) AnalyzeEdge(_, _ N, post D) D { return post }

// ProcessPre does nothing
func (DefaultAnalysis[N, D]) ProcessPre(N, D) {}

// ProcessPost does nothing
func (DefaultAnalysis[N, D]) ProcessPost(N, D) {}

// IterationStats counts the iterations on the head of a cycle
type IterationStats struct {
	Increasing int
	Decreasing int
}

// InterleavedIterator computes the invariants of a forward analysis over a graph, following a weak topological
// ordering with the recursive iteration strategy of Bourdoncle. Increasing iterations use Extrapolate at the cycle
// heads until the invariant of the head is stable, then decreasing iterations use Refine while RefineIteration holds
// and the invariant strictly decreases.
//
// The pre invariant of a node is the join of the contributions of its incoming edges, plus the initial invariant for
// the entry. Nodes that are never reached have bottom invariants.
type InterleavedIterator[N comparable, D Domain[D]] struct {
	graph    Graph[N]
	analysis Analysis[N, D]
	wto      *Wto[N]

	// init is the invariant at the entry of the graph during the current run
	init D

	// bottom is the bottom value of the current run
	bottom D

	pre   map[N]D
	post  map[N]D
	stats map[N]*IterationStats
}

// NewInterleavedIterator returns an iterator for analysis over g. The weak topological ordering is computed once.
func NewInterleavedIterator[N comparable, D Domain[D]](g Graph[N], analysis Analysis[N, D]) *InterleavedIterator[N, D] {
	return &InterleavedIterator[N, D]{
		graph:    g,
		analysis: analysis,
		wto:      NewWto(g),
	}
}

// Wto returns the weak topological ordering followed by the iterator
func (it *InterleavedIterator[N, D]) Wto() *Wto[N] { return it.wto }

// Run computes the fixpoint starting with init at the entry, then calls ProcessPre and ProcessPost on every node
// reachable from the entry, in the weak topological order.
func (it *InterleavedIterator[N, D]) Run(init D) {
	it.init = init
	it.bottom = init.Bottom()
	it.pre = map[N]D{}
	it.post = map[N]D{}
	it.stats = map[N]*IterationStats{}
	it.visitComponents(it.wto.Components)
	for _, n := range it.wto.Nodes() {
		it.analysis.ProcessPre(n, it.Pre(n))
		it.analysis.ProcessPost(n, it.Post(n))
	}
}

// Pre returns the invariant before n. It is bottom if n is not reachable.
func (it *InterleavedIterator[N, D]) Pre(n N) D {
	if d, ok := it.pre[n]; ok {
		return d
	}
	return it.bottom
}

// Post returns the invariant after n. It is bottom if n is not reachable.
func (it *InterleavedIterator[N, D]) Post(n N) D {
	if d, ok := it.post[n]; ok {
		return d
	}
	return it.bottom
}

// Stats returns the iteration counts of the cycle heads of the last run
func (it *InterleavedIterator[N, D]) Stats() map[N]IterationStats {
	r := make(map[N]IterationStats, len(it.stats))
	for n, s := range it.stats {
		r[n] = *s
	}
	return r
}

// Clear drops the invariants of the last run
func (it *InterleavedIterator[N, D]) Clear() {
	it.pre = nil
	it.post = nil
	it.stats = nil
}

// incoming returns the join of the contributions of the predecessors of n
func (it *InterleavedIterator[N, D]) incoming(n N) D {
	r := it.bottom
	if n == it.graph.Entry() {
		r = it.init
	}
	for _, p := range it.graph.Predecessors(n) {
		post, ok := it.post[p]
		if !ok || post.IsBottom() {
			continue
		}
		r = r.Join(it.analysis.AnalyzeEdge(p, n, post))
	}
	return r
}

// entering returns the join of the contributions of the predecessors of head that are not in its cycle
func (it *InterleavedIterator[N, D]) entering(head N) D {
	r := it.bottom
	if head == it.graph.Entry() {
		r = it.init
	}
	for _, p := range it.graph.Predecessors(head) {
		if p == head || it.inCycle(p, head) {
			continue
		}
		post, ok := it.post[p]
		if !ok || post.IsBottom() {
			continue
		}
		r = r.Join(it.analysis.AnalyzeEdge(p, head, post))
	}
	return r
}

func (it *InterleavedIterator[N, D]) inCycle(n, head N) bool {
	for _, h := range it.wto.Nesting(n) {
		if h == head {
			return true
		}
	}
	return false
}

func (it *InterleavedIterator[N, D]) analyze(n N, pre D) {
	it.pre[n] = pre
	if pre.IsBottom() {
		it.post[n] = pre
		return
	}
	it.post[n] = it.analysis.AnalyzeNode(n, pre)
}

func (it *InterleavedIterator[N, D]) visitComponents(comps []WtoComponent[N]) {
	for _, c := range comps {
		switch c := c.(type) {
		case WtoVertex[N]:
			it.analyze(c.Node, it.incoming(c.Node))
		case *WtoCycle[N]:
			it.visitCycle(c)
		}
	}
}

func (it *InterleavedIterator[N, D]) visitCycle(c *WtoCycle[N]) {
	head := c.Head
	stats, ok := it.stats[head]
	if !ok {
		stats = &IterationStats{}
		it.stats[head] = stats
	}

	pre := it.entering(head)
	for iteration := 1; ; iteration++ {
		stats.Increasing++
		it.analyze(head, pre)
		it.visitComponents(c.Components)
		next := it.incoming(head)
		if next.Leq(pre) {
			break
		}
		pre = it.analysis.Extrapolate(head, iteration, pre, next)
	}

	for iteration := 1; it.analysis.RefineIteration(head, iteration); iteration++ {
		next := it.incoming(head)
		if pre.Leq(next) {
			break
		}
		stats.Decreasing++
		pre = it.analysis.Refine(head, iteration, pre, next)
		it.analyze(head, pre)
		it.visitComponents(c.Components)
	}
}
