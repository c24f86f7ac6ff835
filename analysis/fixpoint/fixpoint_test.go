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
	"reflect"
	"testing"
)

const inf = 1000

// box is an interval domain of bounded height: bounds live in [-inf, inf]
type box struct {
	lo, hi int
	bot    bool
}

func interval(lo, hi int) box {
	if lo > hi {
		return box{bot: true}
	}
	return box{lo: lo, hi: hi}
}

func (b box) Bottom() box    { return box{bot: true} }
func (b box) IsBottom() bool { return b.bot }

func (b box) Leq(o box) bool {
	return b.bot || (!o.bot && o.lo <= b.lo && b.hi <= o.hi)
}

func (b box) Join(o box) box {
	if b.bot {
		return o
	}
	if o.bot {
		return b
	}
	return interval(min(b.lo, o.lo), max(b.hi, o.hi))
}

func (b box) Widen(o box) box {
	if b.bot {
		return o
	}
	if o.bot {
		return b
	}
	r := b
	if o.lo < b.lo {
		r.lo = -inf
	}
	if o.hi > b.hi {
		r.hi = inf
	}
	return r
}

func (b box) widenThreshold(o box, threshold int) box {
	r := b.Widen(o)
	if !o.bot && r.hi == inf && o.hi <= threshold {
		r.hi = threshold
	}
	return r
}

func (b box) Narrow(o box) box {
	if b.bot || o.bot {
		return box{bot: true}
	}
	r := b
	if b.lo == -inf {
		r.lo = o.lo
	}
	if b.hi == inf {
		r.hi = o.hi
	}
	return r
}

func (b box) meet(o box) box {
	if b.bot || o.bot {
		return box{bot: true}
	}
	return interval(max(b.lo, o.lo), min(b.hi, o.hi))
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

type testGraph struct {
	succs map[int][]int
	preds map[int][]int
}

func newTestGraph(edges ...[2]int) *testGraph {
	g := &testGraph{succs: map[int][]int{}, preds: map[int][]int{}}
	for _, e := range edges {
		g.succs[e[0]] = append(g.succs[e[0]], e[1])
		g.preds[e[1]] = append(g.preds[e[1]], e[0])
	}
	return g
}

func (g *testGraph) Entry() int              { return 0 }
func (g *testGraph) Successors(n int) []int   { return g.succs[n] }
func (g *testGraph) Predecessors(n int) []int { return g.preds[n] }

// counter analyses a single integer variable: node 0 sets it to 0, the nodes in incr add to it, the edges in guards
// restrict it.
type counter struct {
	DefaultAnalysis[int, box]
	incr      map[int]int
	guards    map[[2]int]box
	visits    map[int]int
	threshold int
	pres      map[int]box
}

func newCounter(narrowing bool) *counter {
	return &counter{
		DefaultAnalysis: DefaultAnalysis[int, box]{Narrowing: narrowing},
		incr:            map[int]int{},
		guards:          map[[2]int]box{},
		visits:          map[int]int{},
		pres:            map[int]box{},
	}
}

func (c *counter) Extrapolate(head int, iteration int, before, after box) box {
	if iteration == 2 && c.threshold != 0 {
		return before.widenThreshold(after, c.threshold)
	}
	return c.DefaultAnalysis.Extrapolate(head, iteration, before, after)
}

func (c *counter) AnalyzeNode(n int, pre box) box {
	c.visits[n]++
	if n == 0 {
		return interval(0, 0)
	}
	d := c.incr[n]
	if d == 0 {
		return pre
	}
	return interval(min(pre.lo+d, inf), min(pre.hi+d, inf))
}

func (c *counter) AnalyzeEdge(src, dst int, post box) box {
	if g, ok := c.guards[[2]int{src, dst}]; ok {
		return post.meet(g)
	}
	return post
}

func (c *counter) ProcessPre(n int, pre box) { c.pres[n] = pre }

// loop is: i = 0; while (i < 10) i++;
func loop() (*testGraph, *counter, *counter) {
	g := newTestGraph([2]int{0, 1}, [2]int{1, 2}, [2]int{2, 1}, [2]int{1, 3})
	mk := func(narrowing bool) *counter {
		c := newCounter(narrowing)
		c.incr[2] = 1
		c.guards[[2]int{1, 2}] = interval(-inf, 9)
		c.guards[[2]int{1, 3}] = interval(10, inf)
		return c
	}
	return g, mk(true), mk(false)
}

func TestWtoLoop(t *testing.T) {
	g, _, _ := loop()
	w := NewWto[int](g)
	if s := w.String(); s != "0 (1 2) 3" {
		t.Errorf("wrong wto: %s", s)
	}
	if !reflect.DeepEqual(w.Heads(), []int{1}) {
		t.Errorf("wrong heads: %v", w.Heads())
	}
	if !reflect.DeepEqual(w.Nodes(), []int{0, 1, 2, 3}) {
		t.Errorf("wrong nodes: %v", w.Nodes())
	}
	if !reflect.DeepEqual(w.Nesting(2), []int{1}) {
		t.Errorf("wrong nesting of 2: %v", w.Nesting(2))
	}
	if len(w.Nesting(1)) != 0 {
		t.Errorf("head 1 should not be nested: %v", w.Nesting(1))
	}
}

func TestWtoNested(t *testing.T) {
	w := NewWto[int](nestedGraph())
	if s := w.String(); s != "0 (1 (2 3)) 4" {
		t.Errorf("wrong wto: %s", s)
	}
	if !reflect.DeepEqual(w.Nesting(3), []int{1, 2}) {
		t.Errorf("wrong nesting of 3: %v", w.Nesting(3))
	}
	if !reflect.DeepEqual(w.Heads(), []int{1, 2}) {
		t.Errorf("wrong heads: %v", w.Heads())
	}
}

func TestWtoSelfLoopAndUnreachable(t *testing.T) {
	g := newTestGraph([2]int{0, 1}, [2]int{1, 1}, [2]int{1, 2}, [2]int{5, 2})
	w := NewWto[int](g)
	if s := w.String(); s != "0 (1) 2" {
		t.Errorf("wrong wto: %s", s)
	}
	if w.Contains(5) || !w.Contains(2) {
		t.Errorf("wto should contain exactly the reachable nodes: %s", w)
	}
}

func TestStraightLineVisitsOnce(t *testing.T) {
	g := newTestGraph([2]int{0, 1}, [2]int{1, 2}, [2]int{0, 2})
	c := newCounter(true)
	c.incr[1] = 5
	it := NewInterleavedIterator[int, box](g, c)
	it.Run(interval(-inf, inf))
	for _, n := range []int{0, 1, 2} {
		if c.visits[n] != 1 {
			t.Errorf("node %d visited %d times", n, c.visits[n])
		}
	}
	if pre := it.Pre(2); pre != interval(0, 5) {
		t.Errorf("wrong pre of 2: %v", pre)
	}
	if len(it.Stats()) != 0 {
		t.Errorf("no head should be iterated: %v", it.Stats())
	}
}

func TestLoopWithNarrowing(t *testing.T) {
	g, c, _ := loop()
	it := NewInterleavedIterator[int, box](g, c)
	it.Run(interval(-inf, inf))
	checkPres(t, it, map[int]box{1: interval(0, 10), 2: interval(0, 9), 3: interval(10, 10)})
	stats, ok := it.Stats()[1]
	if !ok {
		t.Fatalf("missing stats of head 1")
	}
	if stats.Increasing != 3 || stats.Decreasing != 1 {
		t.Errorf("wrong stats of head 1: %+v", stats)
	}
	if c.pres[3] != it.Pre(3) {
		t.Errorf("ProcessPre got %v, expected %v", c.pres[3], it.Pre(3))
	}
}

func TestLoopWithoutNarrowing(t *testing.T) {
	g, _, c := loop()
	it := NewInterleavedIterator[int, box](g, c)
	it.Run(interval(-inf, inf))
	checkPres(t, it, map[int]box{1: interval(0, inf), 3: interval(10, inf)})
	if d := it.Stats()[1].Decreasing; d != 0 {
		t.Errorf("%d decreasing iterations without narrowing", d)
	}
}

func TestLoopWithThreshold(t *testing.T) {
	g, _, c := loop()
	c.threshold = 10
	it := NewInterleavedIterator[int, box](g, c)
	it.Run(interval(-inf, inf))
	checkPres(t, it, map[int]box{1: interval(0, 10), 3: interval(10, 10)})
}

func TestNarrowingBound(t *testing.T) {
	g, c, _ := loop()
	c.MaxNarrowingIterations = 1
	if !c.RefineIteration(1, 1) || c.RefineIteration(1, 2) {
		t.Errorf("RefineIteration should only allow the first decreasing iteration")
	}
	it := NewInterleavedIterator[int, box](g, c)
	it.Run(interval(-inf, inf))
	checkPres(t, it, map[int]box{1: interval(0, 10)})
}

func TestPostIsTransferOfPre(t *testing.T) {
	g := nestedGraph()
	c := newCounter(true)
	c.incr[3] = 2
	c.guards[[2]int{3, 2}] = interval(-inf, 20)
	c.guards[[2]int{1, 4}] = interval(5, inf)
	it := NewInterleavedIterator[int, box](g, c)
	it.Run(interval(-inf, inf))
	for _, n := range it.Wto().Nodes() {
		if it.Pre(n).IsBottom() {
			continue
		}
		if post := c.AnalyzeNode(n, it.Pre(n)); post != it.Post(n) {
			t.Errorf("post of %d is %v, expected %v", n, it.Post(n), post)
		}
		// the pre invariant includes every incoming contribution
		for _, p := range g.Predecessors(n) {
			if !c.AnalyzeEdge(p, n, it.Post(p)).Leq(it.Pre(n)) {
				t.Errorf("edge %d -> %d is not included in the pre of %d", p, n, n)
			}
		}
	}
}

func TestDeterminism(t *testing.T) {
	run := func() map[int]box {
		g := newTestGraph([2]int{0, 1}, [2]int{1, 2}, [2]int{2, 3}, [2]int{3, 2}, [2]int{3, 1}, [2]int{1, 4},
			[2]int{0, 4})
		c := newCounter(true)
		c.incr[2] = 1
		c.incr[3] = 3
		c.guards[[2]int{3, 2}] = interval(-inf, 50)
		it := NewInterleavedIterator[int, box](g, c)
		it.Run(interval(-inf, inf))
		r := map[int]box{}
		for n := 0; n <= 4; n++ {
			r[n] = it.Pre(n)
			r[n+10] = it.Post(n)
		}
		return r
	}
	first := run()
	for i := 0; i < 5; i++ {
		if r := run(); !reflect.DeepEqual(first, r) {
			t.Fatalf("run %d differs: %v, first run: %v", i, r, first)
		}
	}
}

func TestBottomShortCircuit(t *testing.T) {
	g := newTestGraph([2]int{0, 1}, [2]int{1, 2})
	c := newCounter(true)
	c.guards[[2]int{0, 1}] = interval(5, 6)
	it := NewInterleavedIterator[int, box](g, c)
	it.Run(interval(-inf, inf))
	if !it.Pre(1).IsBottom() || !it.Post(2).IsBottom() {
		t.Errorf("unreachable nodes should have bottom invariants: %v, %v", it.Pre(1), it.Post(2))
	}
	if c.visits[1] != 0 || c.visits[2] != 0 {
		t.Errorf("bottom pre invariants should not be transferred: %v", c.visits)
	}
	if !it.Pre(7).IsBottom() {
		t.Errorf("nodes outside the graph should be bottom")
	}
}

// boxChainHeight is the length of the longest increasing chain of extrapolations of a box: bottom, a finite box, a
// box with one infinite bound, the unbounded box
const boxChainHeight = 4

func selfLoopGraph() *testGraph {
	return newTestGraph([2]int{0, 1}, [2]int{1, 1}, [2]int{1, 2})
}

func nestedGraph() *testGraph {
	return newTestGraph([2]int{0, 1}, [2]int{1, 2}, [2]int{2, 3}, [2]int{3, 2}, [2]int{3, 1}, [2]int{1, 4})
}

// selfLoop is: i = 0; do i++ while (i <= 9)
func selfLoop(narrowing bool) *counter {
	c := newCounter(narrowing)
	c.incr[1] = 1
	c.guards[[2]int{1, 1}] = interval(-inf, 9)
	c.guards[[2]int{1, 2}] = interval(10, inf)
	return c
}

// nested counts in the inner loop {2, 3} up to 10, then up to 21 in the outer loop {1, 2, 3}
func nested(narrowing bool) *counter {
	c := newCounter(narrowing)
	c.incr[2] = 1
	c.guards[[2]int{1, 2}] = interval(-inf, 20)
	c.guards[[2]int{1, 4}] = interval(21, inf)
	c.guards[[2]int{3, 2}] = interval(-inf, 9)
	c.guards[[2]int{3, 1}] = interval(10, inf)
	return c
}

// unbounded is the nested loop without guards
func unbounded(narrowing bool) *counter {
	c := newCounter(narrowing)
	c.incr[2] = 1
	c.incr[3] = 2
	return c
}

func TestIncreasingIterationsAreBounded(t *testing.T) {
	for _, tc := range []struct {
		name string
		g    *testGraph
		mk   func(bool) *counter
	}{
		{"self loop", selfLoopGraph(), selfLoop},
		{"nested", nestedGraph(), nested},
		{"unbounded", nestedGraph(), unbounded},
	} {
		for _, narrowing := range []bool{true, false} {
			it := NewInterleavedIterator[int, box](tc.g, tc.mk(narrowing))
			it.Run(interval(-inf, inf))
			w := it.Wto()
			stats := it.Stats()
			for _, head := range w.Heads() {
				// a nested head stabilizes again on every iteration of its enclosing heads
				runs := 1
				for _, outer := range w.Nesting(head) {
					runs *= stats[outer].Increasing + stats[outer].Decreasing
				}
				if limit := runs * (boxChainHeight + 1); stats[head].Increasing > limit {
					t.Errorf("%s (narrowing %v): head %d iterated %d times, more than %d", tc.name, narrowing,
						head, stats[head].Increasing, limit)
				}
			}
		}
	}
}

func TestNarrowingIsSound(t *testing.T) {
	for _, tc := range []struct {
		name string
		g    *testGraph
		mk   func(bool) *counter
	}{
		{"self loop", selfLoopGraph(), selfLoop},
		{"nested", nestedGraph(), nested},
	} {
		inc := NewInterleavedIterator[int, box](tc.g, tc.mk(false))
		inc.Run(interval(-inf, inf))
		dec := NewInterleavedIterator[int, box](tc.g, tc.mk(true))
		dec.Run(interval(-inf, inf))
		reachable := execute(tc.g, tc.mk(false))
		for _, n := range inc.Wto().Nodes() {
			if n == 0 {
				continue
			}
			if !dec.Pre(n).Leq(inc.Pre(n)) {
				t.Errorf("%s: decreasing pre %v of %d is above the increasing pre %v", tc.name, dec.Pre(n), n,
					inc.Pre(n))
			}
			r, ok := reachable[n]
			if !ok {
				t.Errorf("%s: node %d should be reachable", tc.name, n)
			} else if !r.Leq(dec.Pre(n)) {
				t.Errorf("%s: pre %v of %d misses reachable values %v", tc.name, dec.Pre(n), n, r)
			}
		}
		// narrowing recovers the loop exit conditions
		for _, head := range dec.Wto().Heads() {
			if dec.Pre(head) == inc.Pre(head) {
				t.Errorf("%s: narrowing did not refine head %d: %v", tc.name, head, dec.Pre(head))
			}
		}
	}
}

// execute runs the program of c on concrete values and returns the hull of the values entering each reachable node
func execute(g *testGraph, c *counter) map[int]box {
	type state struct{ node, v int }
	res := map[int]box{}
	seen := map[state]bool{}
	var work []state
	push := func(src, v int) {
		for _, dst := range g.Successors(src) {
			if guard, ok := c.guards[[2]int{src, dst}]; ok && !interval(v, v).Leq(guard) {
				continue
			}
			s := state{dst, v}
			if !seen[s] && v < inf {
				seen[s] = true
				work = append(work, s)
			}
		}
	}
	push(0, 0)
	for len(work) > 0 {
		s := work[len(work)-1]
		work = work[:len(work)-1]
		if r, ok := res[s.node]; ok {
			res[s.node] = r.Join(interval(s.v, s.v))
		} else {
			res[s.node] = interval(s.v, s.v)
		}
		push(s.node, s.v+c.incr[s.node])
	}
	return res
}

func checkPres(t *testing.T, it *InterleavedIterator[int, box], expected map[int]box) {
	t.Helper()
	for n, e := range expected {
		if pre := it.Pre(n); pre != e {
			t.Errorf("pre of %d is %v, expected %v", n, pre, e)
		}
	}
}
