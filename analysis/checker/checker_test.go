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
	"go/token"
	"math/big"
	"testing"

	"github.com/awslabs/ar-go-absint/analysis/ar"
	"github.com/awslabs/ar-go-absint/analysis/domain/numeric"
	"github.com/awslabs/ar-go-absint/analysis/domain/value"
	"github.com/awslabs/ar-go-absint/analysis/engine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	ctx    *ar.Context
	bundle *ar.Bundle
	fn     *ar.Function
	code   *ar.Code
	bb     *ar.BasicBlock
	i32    *ar.IntegerType
	n      *ar.InternalVariable
	eval   engine.Evaluator
	e      *engine.NumericalExecutionEngine
}

func newFixture(p engine.Precision) *fixture {
	ctx := ar.NewContext()
	b := ar.NewBundle(ctx, "test")
	i32 := ctx.IntegerType(32, ar.Signed)
	fn := b.DefineFunction("f", ctx.FunctionType(ctx.VoidType(), []ar.Type{i32}, false), "n")
	ev := engine.Evaluator{Kind: numeric.IntervalKind, Precision: p, Layout: ar.DefaultDataLayout}
	return &fixture{
		ctx:    ctx,
		bundle: b,
		fn:     fn,
		code:   fn.Body(),
		bb:     fn.Body().NewBasicBlock("entry"),
		i32:    i32,
		n:      fn.Params()[0],
		eval:   ev,
		e:      engine.NewNumericalExecutionEngine(ctx, value.Top(numeric.IntervalKind), engine.Options{Evaluator: ev}),
	}
}

func (f *fixture) c(n int64) *ar.IntegerConstant { return f.ctx.Int64Constant(f.i32, n) }

func (f *fixture) v(name string) *ar.InternalVariable { return f.code.NewInternalVariable(name, f.i32) }

func (f *fixture) checker(t *testing.T, name string) Checker {
	c, err := MakeChecker(name, Env{Eval: f.eval})
	require.NoError(t, err)
	c.EnterFunction(f.fn, engine.DefaultCallContexts.Empty())
	return c
}

// exec appends the statements to the entry block and executes them
func (f *fixture) exec(stmts ...ar.Statement) {
	for _, s := range stmts {
		f.bb.Append(s)
		engine.TransferFunction(f.e, engine.ContextInsensitiveCallEngine{}, s)
	}
}

// check runs the checker on s with the current invariant, then executes s
func (f *fixture) check(c Checker, s ar.Statement) []Check {
	f.bb.Append(s)
	c.Check(s, f.e.Inv(), engine.DefaultCallContexts.Empty())
	engine.TransferFunction(f.e, engine.ContextInsensitiveCallEngine{}, s)
	return c.Sink().Drain()
}

func results(checks []Check) []Result {
	var res []Result
	for _, c := range checks {
		res = append(res, c.Result)
	}
	return res
}

func TestRegistry(t *testing.T) {
	assert.Equal(t, []string{"boa", "dbz", "dca", "nullity", "prover", "sio", "uaf", "uio", "uva"}, Names())
	for _, name := range Names() {
		c, err := MakeChecker(name, Env{})
		require.NoError(t, err)
		assert.Equal(t, name, c.Name())
		assert.NotEmpty(t, c.Description())
	}
	_, err := MakeChecker("foo", Env{})
	assert.ErrorContains(t, err, `unknown checker "foo"`)
}

func TestDivisionByZero(t *testing.T) {
	f := newFixture(engine.Memory)
	c := f.checker(t, "dbz")
	x := f.v("x")

	assert.Equal(t, []Result{Warning}, results(f.check(c, ar.NewBinaryOperation(ar.Rem, x, f.c(10), f.n))))
	assert.Equal(t, []Result{Ok}, results(f.check(c, ar.NewBinaryOperation(ar.Div, x, f.n, f.c(2)))))
	assert.Empty(t, f.check(c, ar.NewBinaryOperation(ar.Add, x, f.n, f.c(0))))

	checks := f.check(c, ar.NewBinaryOperation(ar.Div, x, f.c(10), f.c(0)))
	require.Len(t, checks, 1)
	assert.Equal(t, Error, checks[0].Result)
	assert.Equal(t, "division-by-zero", checks[0].Kind)
	assert.Equal(t, "f", checks[0].Function)
	assert.Equal(t, "entry", checks[0].Block)
	// the division stops the execution
	assert.Equal(t, []Result{Unreachable}, results(f.check(c, ar.NewBinaryOperation(ar.Div, x, f.n, f.c(2)))))
}

func TestDivisorRefinedByComparison(t *testing.T) {
	f := newFixture(engine.Register)
	c := f.checker(t, "dbz")
	f.exec(ar.NewComparison(ar.GT, f.n, f.c(0)))
	assert.Equal(t, []Result{Ok}, results(f.check(c, ar.NewBinaryOperation(ar.Div, f.v("x"), f.c(10), f.n))))
}

func TestUnreachableStatement(t *testing.T) {
	f := newFixture(engine.Memory)
	c := f.checker(t, "dbz")
	f.exec(ar.NewUnreachable())
	checks := f.check(c, ar.NewBinaryOperation(ar.Div, f.v("x"), f.c(10), f.c(0)))
	assert.Equal(t, []Result{Unreachable}, results(checks))
}

func TestSignedOverflow(t *testing.T) {
	f := newFixture(engine.Register)
	c := f.checker(t, "sio")
	x := f.v("x")
	add := func(l, r ar.Value) *ar.BinaryOperation {
		return ar.NewBinaryOperation(ar.Add, x, l, r).SetNoWrap(true)
	}
	assert.Equal(t, []Result{Error}, results(f.check(c, add(f.c(2147483647), f.c(1)))))
	assert.Equal(t, []Result{Warning}, results(f.check(c, add(f.n, f.c(1)))))
	assert.Equal(t, []Result{Ok}, results(f.check(c, add(f.c(1), f.c(2)))))
	// operations that may wrap around are not checked
	assert.Empty(t, f.check(c, ar.NewBinaryOperation(ar.Add, x, f.n, f.c(1))))
}

func TestUnsignedOverflow(t *testing.T) {
	f := newFixture(engine.Register)
	u8 := f.ctx.IntegerType(8, ar.Unsigned)
	x := f.code.NewInternalVariable("x", u8)
	op := ar.NewBinaryOperation(ar.Mul, x, f.ctx.Int64Constant(u8, 20), f.ctx.Int64Constant(u8, 20)).SetNoWrap(true)

	sio := f.checker(t, "sio")
	sio.Check(op, f.e.Inv(), nil)
	assert.Empty(t, sio.Sink().Checks())

	uio := f.checker(t, "uio")
	checks := f.check(uio, op)
	require.Len(t, checks, 1)
	assert.Equal(t, Error, checks[0].Result)
	assert.Equal(t, "unsigned-overflow", checks[0].Kind)
	assert.Contains(t, checks[0].Message, "[400, 400]")
}

func TestNullDereference(t *testing.T) {
	f := newFixture(engine.Register)
	c := f.checker(t, "nullity")
	ptr := f.ctx.PointerType(f.i32)
	p := f.code.NewInternalVariable("p", ptr)
	local := f.code.NewLocalVariable("x", f.i32)

	assert.Equal(t, []Result{Ok}, results(f.check(c, ar.NewStore(local, f.c(1)))))
	assert.Equal(t, []Result{Warning}, results(f.check(c, ar.NewLoad(f.v("y"), p))))
	assert.Equal(t, []Result{Error}, results(f.check(c, ar.NewStore(f.ctx.NullConstant(ptr), f.c(1)))))
}

func TestBufferOverflow(t *testing.T) {
	f := newFixture(engine.Memory)
	c := f.checker(t, "boa")
	arr := f.code.NewLocalVariable("a", f.ctx.ArrayType(f.i32, 4))
	q := f.code.NewInternalVariable("q", f.ctx.PointerType(f.i32))
	f.exec(ar.NewAllocate(arr, nil))

	shift := func(i ar.Value) {
		f.exec(ar.NewPointerShift(q, arr, ar.ShiftTerm{Factor: big.NewInt(4), Operand: i}))
	}
	shift(f.c(3))
	assert.Equal(t, []Result{Ok}, results(f.check(c, ar.NewStore(q, f.c(1)))))
	shift(f.c(4))
	assert.Equal(t, []Result{Error}, results(f.check(c, ar.NewStore(q, f.c(1)))))
	shift(f.c(-1))
	assert.Equal(t, []Result{Error}, results(f.check(c, ar.NewLoad(f.v("y"), q))))
	shift(f.n)
	assert.Equal(t, []Result{Warning}, results(f.check(c, ar.NewStore(q, f.c(1)))))
}

func TestCheckAccess(t *testing.T) {
	size := numeric.NewInterval64(8, 16)
	assert.Equal(t, inBounds, checkAccess(numeric.NewInterval64(0, 4), 4, size))
	assert.Equal(t, mayOverflow, checkAccess(numeric.NewInterval64(0, 8), 4, size))
	assert.Equal(t, overflows, checkAccess(numeric.NewInterval64(16, 20), 1, size))
	assert.Equal(t, overflows, checkAccess(numeric.NewInterval64(-8, -1), 1, size))
	assert.Equal(t, mayOverflow, checkAccess(numeric.TopInterval(), 1, size))
	assert.Equal(t, mayOverflow, summarize([]access{inBounds, overflows}))
	assert.Equal(t, overflows, summarize([]access{overflows, overflows}))
}

func TestUseAfterFree(t *testing.T) {
	f := newFixture(engine.Memory)
	c := f.checker(t, "uaf")
	fp := f.ctx.FunctionPointerConstant
	alloc := f.bundle.IntrinsicFunction(ar.IntrinsicHeapAlloc)
	free := f.bundle.IntrinsicFunction(ar.IntrinsicFree)
	u8 := f.ctx.IntegerType(8, ar.Unsigned)
	mem := f.code.NewInternalVariable("mem", alloc.Type().ReturnType())

	f.exec(ar.NewCall(mem, fp(alloc), f.ctx.Int64Constant(f.ctx.SizeType(), 16)))
	assert.Equal(t, []Result{Ok}, results(f.check(c, ar.NewStore(mem, f.ctx.Int64Constant(u8, 1)))))
	assert.Equal(t, []Result{Ok}, results(f.check(c, ar.NewCall(nil, fp(free), mem))))

	checks := f.check(c, ar.NewStore(mem, f.ctx.Int64Constant(u8, 1)))
	require.Len(t, checks, 1)
	assert.Equal(t, Error, checks[0].Result)
	assert.Equal(t, "use-after-free", checks[0].Kind)

	checks = f.check(c, ar.NewCall(nil, fp(free), mem))
	require.Len(t, checks, 1)
	assert.Equal(t, Error, checks[0].Result)
	assert.Equal(t, "double-free", checks[0].Kind)
}

func TestUninitializedVariable(t *testing.T) {
	f := newFixture(engine.Register)
	c := f.checker(t, "uva")
	x, y := f.v("x"), f.v("y")
	f.exec(ar.NewAssignment(x, f.ctx.UndefinedConstant(f.i32)))

	checks := f.check(c, ar.NewBinaryOperation(ar.Add, y, x, f.c(1)))
	require.Len(t, checks, 1)
	assert.Equal(t, Error, checks[0].Result)
	assert.Equal(t, "%x is uninitialized", checks[0].Message)

	f.exec(ar.NewAssignment(x, f.c(2)))
	assert.Equal(t, []Result{Ok}, results(f.check(c, ar.NewBinaryOperation(ar.Add, y, x, f.c(1)))))
	// parameters may or may not be initialized
	assert.Empty(t, f.check(c, ar.NewBinaryOperation(ar.Add, y, f.n, f.c(1))))
}

func TestAssertProver(t *testing.T) {
	f := newFixture(engine.Register)
	c := f.checker(t, "prover")
	assertFn := f.ctx.FunctionPointerConstant(f.bundle.IntrinsicFunction(ar.IntrinsicAssert))
	b := f.ctx.BoolType()
	cond := f.code.NewInternalVariable("cond", b)

	assert.Equal(t, []Result{Ok}, results(f.check(c, ar.NewCall(nil, assertFn, f.ctx.Int64Constant(b, 1)))))
	assert.Equal(t, []Result{Warning}, results(f.check(c, ar.NewCall(nil, assertFn, cond))))
	// the assertion refines cond
	assert.Equal(t, []Result{Ok}, results(f.check(c, ar.NewCall(nil, assertFn, cond))))
	assert.Equal(t, []Result{Error}, results(f.check(c, ar.NewCall(nil, assertFn, f.ctx.Int64Constant(b, 0)))))
	assert.Equal(t, []Result{Unreachable}, results(f.check(c, ar.NewCall(nil, assertFn, cond))))
}

func TestDeadCode(t *testing.T) {
	f := newFixture(engine.Register)
	dead := f.code.NewBasicBlock("dead")
	live := f.code.NewBasicBlock("live")
	orphan := f.code.NewBasicBlock("orphan")
	f.bb.AddSuccessor(dead)
	f.bb.AddSuccessor(live)
	for _, bb := range []*ar.BasicBlock{dead, live, orphan} {
		bb.Append(ar.NewReturnValue(nil))
	}

	c := f.checker(t, "dca")
	bottom := value.Bottom(numeric.IntervalKind)
	c.EnterBlock(f.bb, value.Top(numeric.IntervalKind), nil)
	c.EnterBlock(dead, bottom, nil)
	c.EnterBlock(live, value.Top(numeric.IntervalKind), nil)
	c.EnterBlock(orphan, bottom, nil)

	checks := c.Sink().Checks()
	require.Len(t, checks, 1)
	assert.Equal(t, "dead-code", checks[0].Kind)
	assert.Equal(t, Warning, checks[0].Result)
	assert.Equal(t, "dead", checks[0].Block)
}

func TestCheckPosition(t *testing.T) {
	f := newFixture(engine.Register)
	table := ar.NewPositionTable()
	c, err := MakeChecker("dbz", Env{Eval: f.eval, Frontend: table})
	require.NoError(t, err)
	c.EnterFunction(f.fn, nil)

	s := ar.NewBinaryOperation(ar.Div, f.v("x"), f.c(1), f.c(0))
	s.SetFrontend(table.Add(token.Position{Filename: "main.go", Line: 12, Column: 7}))
	checks := f.check(c, s)
	require.Len(t, checks, 1)
	assert.Equal(t, 12, checks[0].Position.Line)
	assert.Equal(t, "main.go:12:7: [error] division-by-zero: divisor 0 is zero", checks[0].String())
}

func TestSink(t *testing.T) {
	s := NewSink()
	s.Emit(Check{Kind: "a"})
	s.Emit(Check{Kind: "b"})
	assert.Len(t, s.Checks(), 2)
	assert.Len(t, s.Drain(), 2)
	assert.Empty(t, s.Checks())
	assert.Equal(t, "f:entry: [warning] k: m", Check{Function: "f", Block: "entry", Result: Warning, Kind: "k",
		Message: "m"}.String())
}
