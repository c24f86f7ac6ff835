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

package checker

import (
	"github.com/awslabs/ar-go-absint/analysis/ar"
	"github.com/awslabs/ar-go-absint/analysis/domain/numeric"
	"github.com/awslabs/ar-go-absint/analysis/domain/value"
	"github.com/awslabs/ar-go-absint/analysis/engine"
	"github.com/yourbasic/graph"
)

type uninitializedVariable struct{ base }

func newUninitializedVariable(env Env) Checker {
	return &uninitializedVariable{newBase("uva", "Use of uninitialized variable", env)}
}

// Check reports the registers read by the statement that are never initialized. Registers that may or may not be
// initialized are not reported.
func (c *uninitializedVariable) Check(stmt ar.Statement, inv value.AbstractValue, _ *engine.CallContext) {
	const kind = "uninitialized-variable"
	var vars []*ar.InternalVariable
	for _, op := range stmt.Operands() {
		if v, ok := op.(*ar.InternalVariable); ok {
			vars = append(vars, v)
		}
	}
	if len(vars) == 0 || c.unreachable(stmt, inv, kind) {
		return
	}
	for _, v := range vars {
		switch u := c.env.Eval.Scalar(inv.Normal, v).Uninit; {
		case u.IsUninitialized():
			c.emit(stmt, kind, Error, "%s is uninitialized", v)
		case u.IsInitialized():
			c.emit(stmt, kind, Ok, "%s is initialized", v)
		}
	}
}

type assertProver struct{ base }

func newAssertProver(env Env) Checker {
	return &assertProver{newBase("prover", "Assertion prover", env)}
}

func (c *assertProver) Check(stmt ar.Statement, inv value.AbstractValue, _ *engine.CallContext) {
	args, ok := intrinsicCall(stmt, ar.IntrinsicAssert)
	if !ok || len(args) == 0 {
		return
	}
	const kind = "assertion"
	if c.unreachable(stmt, inv, kind) {
		return
	}
	cond := c.env.Eval.Int(inv.Normal, args[0])
	switch {
	case isZero(cond):
		c.emit(stmt, kind, Error, "assertion %s is false", args[0])
	case numeric.Contains(cond, zero):
		c.emit(stmt, kind, Warning, "assertion %s may be false: %s", args[0], cond)
	default:
		c.emit(stmt, kind, Ok, "assertion %s holds", args[0])
	}
}

// deadCode reports the blocks that are reachable in the control flow graph but never executed
type deadCode struct {
	base
	reachable map[*ar.BasicBlock]bool
}

func newDeadCode(env Env) Checker {
	return &deadCode{base: newBase("dca", "Dead code", env)}
}

func (c *deadCode) EnterFunction(fn *ar.Function, ctx *engine.CallContext) {
	c.base.EnterFunction(fn, ctx)
	c.reachable = map[*ar.BasicBlock]bool{}
	code := fn.Body()
	if code == nil || code.Entry() == nil {
		return
	}
	blocks := code.Blocks()
	c.reachable[code.Entry()] = true
	graph.BFS(code, code.Entry().ID(), func(_, w int, _ int64) {
		c.reachable[blocks[w]] = true
	})
	if bb, ok := code.UnreachableBlock(); ok {
		delete(c.reachable, bb)
	}
}

func (c *deadCode) EnterBlock(bb *ar.BasicBlock, inv value.AbstractValue, ctx *engine.CallContext) {
	c.base.EnterBlock(bb, inv, ctx)
	if !c.reachable[bb] || !inv.Normal.IsBottom() {
		return
	}
	stmts := bb.Statements()
	if len(stmts) == 0 {
		return
	}
	first := stmts[0]
	for _, s := range stmts {
		if s.HasFrontend() {
			first = s
			break
		}
	}
	c.emit(first, "dead-code", Warning, "block %s is never executed", bb.Name())
}

func (c *deadCode) Check(ar.Statement, value.AbstractValue, *engine.CallContext) {}
