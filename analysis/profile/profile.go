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

// Package profile computes the widening hints of the value analysis. A hint for a loop head is a constant the loop
// compares against: widening the invariant of the head to that constant, instead of infinity, usually finds the
// bound of the loop counter in one step.
package profile

import (
	"math/big"
	"sync"

	"github.com/awslabs/ar-go-absint/analysis/ar"
	"github.com/awslabs/ar-go-absint/internal/graphutil"
)

// Profile holds the widening hints of one function
type Profile struct {
	hints map[*ar.BasicBlock]*big.Int
}

// WideningHint returns the widening threshold of a loop head, if any
func (p *Profile) WideningHint(head *ar.BasicBlock) (*big.Int, bool) {
	if p == nil {
		return nil, false
	}
	h, ok := p.hints[head]
	if !ok {
		return nil, false
	}
	return new(big.Int).Set(h), true
}

// Len returns the number of loop heads with a hint
func (p *Profile) Len() int {
	if p == nil {
		return 0
	}
	return len(p.hints)
}

// Profiler computes and caches the profiles of functions. It is safe for concurrent use.
type Profiler struct {
	mu       sync.Mutex
	profiles map[*ar.Function]*Profile
}

// NewProfiler returns an empty profiler
func NewProfiler() *Profiler {
	return &Profiler{profiles: map[*ar.Function]*Profile{}}
}

// Profile returns the profile of fn. Declarations and acyclic functions have no profile: the result is nil.
func (p *Profiler) Profile(fn *ar.Function) *Profile {
	if p == nil || fn.IsDeclaration() {
		return nil
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if prof, ok := p.profiles[fn]; ok {
		return prof
	}
	prof := compute(fn.Body())
	p.profiles[fn] = prof
	return prof
}

func compute(code *ar.Code) *Profile {
	g := graphutil.NewDigraph(code.Blocks(), (*ar.BasicBlock).Successors)
	if g.IsAcyclic() {
		return nil
	}
	prof := &Profile{hints: map[*ar.BasicBlock]*big.Int{}}
	for _, e := range g.BackEdges(code.Entry()) {
		for _, b := range g.NaturalLoop(e) {
			for _, s := range b.Statements() {
				c, ok := loopBound(s)
				if !ok {
					continue
				}
				if h, ok := prof.hints[e.To]; !ok || c.Cmp(h) > 0 {
					prof.hints[e.To] = c
				}
			}
		}
	}
	if len(prof.hints) == 0 {
		return nil
	}
	return prof
}

// loopBound returns the constant of a comparison between a variable and an integer constant, plus one for
// non-strict predicates, which is the first value outside of the comparison range
func loopBound(s ar.Statement) (*big.Int, bool) {
	cmp, ok := s.(*ar.Comparison)
	if !ok {
		return nil, false
	}
	c, ok := cmp.Right().(*ar.IntegerConstant)
	pred := cmp.Predicate()
	if !ok {
		if c, ok = cmp.Left().(*ar.IntegerConstant); !ok {
			return nil, false
		}
		pred = pred.Swap()
	}
	n := c.Value()
	switch pred {
	case ar.LE, ar.GT:
		n.Add(n, big.NewInt(1))
	}
	return n, true
}
