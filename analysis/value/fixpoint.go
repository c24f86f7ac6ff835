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

package value

import (
	"github.com/awslabs/ar-go-absint/analysis/ar"
	"github.com/awslabs/ar-go-absint/analysis/checker"
	dom "github.com/awslabs/ar-go-absint/analysis/domain/value"
	"github.com/awslabs/ar-go-absint/analysis/engine"
	"github.com/awslabs/ar-go-absint/analysis/fixpoint"
	"github.com/awslabs/ar-go-absint/analysis/profile"
)

// cfg is the control flow graph of a function body, as a fixpoint.Graph
type cfg struct {
	code *ar.Code
}

func (g cfg) Entry() *ar.BasicBlock                             { return g.code.Entry() }
func (g cfg) Successors(bb *ar.BasicBlock) []*ar.BasicBlock   { return bb.Successors() }
func (g cfg) Predecessors(bb *ar.BasicBlock) []*ar.BasicBlock { return bb.Predecessors() }

// FunctionFixpoint computes the invariants of a function body, then runs the checkers on them
type FunctionFixpoint struct {
	fixpoint.DefaultAnalysis[*ar.BasicBlock, dom.AbstractValue]

	fn       *ar.Function
	callCtx  *engine.CallContext
	ctx      *ar.Context
	opts     engine.Options
	profile  *profile.Profile
	iterator *fixpoint.InterleavedIterator[*ar.BasicBlock, dom.AbstractValue]
}

// FixpointParameters are the parameters of the fixpoint of a function
type FixpointParameters struct {
	// Narrowing enables the decreasing iterations. Callers disable it for the domains without narrowing.
	Narrowing bool

	// MaxNarrowingIterations bounds the decreasing iterations, zero means no bound
	MaxNarrowingIterations int

	// Profile gives the widening hints of the loop heads. It may be nil.
	Profile *profile.Profile
}

// NewFunctionFixpoint returns the fixpoint of the body of fn, which must be a definition. The engine options are
// used for every block.
func NewFunctionFixpoint(fn *ar.Function, callCtx *engine.CallContext, opts engine.Options,
	params FixpointParameters) *FunctionFixpoint {
	if opts.Calls == nil {
		opts.Calls = engine.ContextInsensitiveCallEngine{}
	}
	fp := &FunctionFixpoint{
		DefaultAnalysis: fixpoint.DefaultAnalysis[*ar.BasicBlock, dom.AbstractValue]{
			Narrowing:              params.Narrowing,
			MaxNarrowingIterations: params.MaxNarrowingIterations,
		},
		fn:      fn,
		callCtx: callCtx,
		ctx:     fn.Bundle().Context(),
		opts:    opts,
		profile: params.Profile,
	}
	fp.iterator = fixpoint.NewInterleavedIterator[*ar.BasicBlock, dom.AbstractValue](cfg{fn.Body()}, fp)
	return fp
}

// Function returns the analyzed function
func (fp *FunctionFixpoint) Function() *ar.Function { return fp.fn }

// Run computes the invariants, starting from init at the entry
func (fp *FunctionFixpoint) Run(init dom.AbstractValue) { fp.iterator.Run(init) }

// Pre returns the invariant before bb
func (fp *FunctionFixpoint) Pre(bb *ar.BasicBlock) dom.AbstractValue { return fp.iterator.Pre(bb) }

// Post returns the invariant after bb
func (fp *FunctionFixpoint) Post(bb *ar.BasicBlock) dom.AbstractValue { return fp.iterator.Post(bb) }

// Stats returns the number of iterations on each loop head
func (fp *FunctionFixpoint) Stats() map[*ar.BasicBlock]fixpoint.IterationStats { return fp.iterator.Stats() }

// Extrapolate joins on the first iteration. The second iteration widens up to the hint of the profile, if any;
// the following iterations widen.
func (fp *FunctionFixpoint) Extrapolate(head *ar.BasicBlock, iteration int, before, after dom.AbstractValue) dom.AbstractValue {
	if iteration <= 1 {
		return before.Join(after)
	}
	if iteration == 2 {
		if threshold, ok := fp.profile.WideningHint(head); ok {
			return before.WidenThreshold(after, threshold)
		}
	}
	return before.Widen(after)
}

func (fp *FunctionFixpoint) newEngine(inv dom.AbstractValue) *engine.NumericalExecutionEngine {
	return engine.NewNumericalExecutionEngine(fp.ctx, inv, fp.opts)
}

// AnalyzeNode executes the statements of bb
func (fp *FunctionFixpoint) AnalyzeNode(bb *ar.BasicBlock, pre dom.AbstractValue) dom.AbstractValue {
	if pre.IsBottom() {
		return pre
	}
	e := fp.newEngine(pre)
	e.ExecEnter(bb)
	for _, s := range bb.Statements() {
		engine.TransferFunction(e, fp.opts.Calls, s)
	}
	e.ExecLeave(bb)
	return e.Inv()
}

// AnalyzeEdge applies the effect of the edge src -> dst
func (fp *FunctionFixpoint) AnalyzeEdge(src, dst *ar.BasicBlock, post dom.AbstractValue) dom.AbstractValue {
	if post.IsBottom() {
		return post
	}
	e := fp.newEngine(post)
	e.ExecEdge(src, dst)
	return e.Inv()
}

// RunChecks replays the invariants through the checkers. The invariant before each statement is recomputed from
// the invariant of its block. Statements without source position are not checked.
func (fp *FunctionFixpoint) RunChecks(checkers []checker.Checker) {
	for _, c := range checkers {
		c.EnterFunction(fp.fn, fp.callCtx)
	}
	for _, bb := range fp.fn.Body().Blocks() {
		pre := fp.Pre(bb)
		for _, c := range checkers {
			c.EnterBlock(bb, pre, fp.callCtx)
		}
		e := fp.newEngine(pre)
		e.ExecEnter(bb)
		for _, s := range bb.Statements() {
			if s.HasFrontend() {
				for _, c := range checkers {
					c.Check(s, e.Inv(), fp.callCtx)
				}
			}
			engine.TransferFunction(e, fp.opts.Calls, s)
		}
		e.ExecLeave(bb)
		for _, c := range checkers {
			c.LeaveBlock(bb, e.Inv(), fp.callCtx)
		}
	}
	for _, c := range checkers {
		c.LeaveFunction(fp.fn, fp.callCtx)
	}
}
