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

package engine

import (
	"math/big"

	"github.com/awslabs/ar-go-absint/analysis/ar"
	"github.com/awslabs/ar-go-absint/analysis/config"
	"github.com/awslabs/ar-go-absint/analysis/domain/numeric"
	"github.com/awslabs/ar-go-absint/analysis/domain/value"
	"github.com/awslabs/ar-go-absint/analysis/liveness"
)

// Options configures a NumericalExecutionEngine
type Options struct {
	Evaluator

	// Liveness are the results of the liveness pre-analysis of the function. When set, the variables dead at the
	// exit of a block are forgotten. It may be nil.
	Liveness *liveness.Results

	// Calls executes the call statements. Defaults to a ContextInsensitiveCallEngine.
	Calls CallEngine

	// Log traces the execution. It may be nil.
	Log *config.LogGroup
}

// NumericalExecutionEngine executes statements on an abstract value. It implements ar.StmtOp.
type NumericalExecutionEngine struct {
	Evaluator
	ctx      *ar.Context
	inv      value.AbstractValue
	liveness *liveness.Results
	calls    CallEngine
	log      *config.LogGroup
	block    *ar.BasicBlock
}

// NewNumericalExecutionEngine returns an engine starting from a copy of inv. ctx is the context of the bundle
// of the analyzed code.
func NewNumericalExecutionEngine(ctx *ar.Context, inv value.AbstractValue, opts Options) *NumericalExecutionEngine {
	calls := opts.Calls
	if calls == nil {
		calls = ContextInsensitiveCallEngine{}
	}
	return &NumericalExecutionEngine{
		Evaluator: opts.Evaluator,
		ctx:       ctx,
		inv:       inv.Clone(),
		liveness:  opts.Liveness,
		calls:     calls,
		log:       opts.Log,
	}
}

// Inv returns the current invariant
func (e *NumericalExecutionEngine) Inv() value.AbstractValue { return e.inv }

// SetInv replaces the current invariant by a copy of inv
func (e *NumericalExecutionEngine) SetInv(inv value.AbstractValue) { e.inv = inv.Clone() }

// Normal returns the normal flow of the current invariant, for in-place updates
func (e *NumericalExecutionEngine) Normal() *value.MemoryDomain { return &e.inv.Normal }

// Block returns the block being executed
func (e *NumericalExecutionEngine) Block() *ar.BasicBlock { return e.block }

// ExecEnter is called before the statements of bb
func (e *NumericalExecutionEngine) ExecEnter(bb *ar.BasicBlock) {
	e.block = bb
	if e.log != nil {
		e.log.Tracef("enter %s: %s", bb.Name(), e.inv)
	}
}

// ExecLeave is called after the statements of bb. The variables that are dead at the exit of bb are forgotten.
func (e *NumericalExecutionEngine) ExecLeave(bb *ar.BasicBlock) {
	if e.liveness == nil {
		return
	}
	for _, v := range e.liveness.DeadAtExit(bb) {
		e.inv.Normal.Forget(v)
		e.inv.Caught.Forget(v)
		e.inv.Propagated.Forget(v)
	}
}

// ExecEdge applies the effect of the edge src -> dst on the invariant at the exit of src. On the edges of an
// invoke, the caught exceptions flow to the exception successor only.
func (e *NumericalExecutionEngine) ExecEdge(src, dst *ar.BasicBlock) {
	inv, ok := src.Terminator().(*ar.Invoke)
	if !ok {
		return
	}
	switch {
	case dst == inv.NormalDest() && dst == inv.ExceptionDest():
		e.inv.Normal = e.inv.Normal.Join(e.inv.Caught)
		e.inv.IgnoreCaught()
	case dst == inv.NormalDest():
		e.inv.IgnoreCaught()
	case dst == inv.ExceptionDest():
		e.inv.CaughtToNormal()
	}
}

// Exec executes one statement
func (e *NumericalExecutionEngine) Exec(s ar.Statement) {
	if e.log != nil {
		e.log.Tracef("exec %s", s)
	}
	ar.StmtSwitch(e, s)
}

// assign sets the value of a register. Values that the precision does not track are replaced by top.
func (e *NumericalExecutionEngine) assign(v *ar.InternalVariable, s value.Scalar) {
	if v == nil {
		return
	}
	s.Type = v.Type()
	switch t := v.Type().(type) {
	case *ar.IntegerType:
		if s.Int == nil {
			s.Int = e.Kind.Top(t)
		}
	case *ar.PointerType:
		if e.Precision < Pointer || s.Ptr.Offset == nil {
			s.Ptr = value.TopPointer(e.Kind)
		}
	}
	e.inv.Normal.SetScalar(v, s)
}

// havoc sets a register to the unknown initialized value of its type
func (e *NumericalExecutionEngine) havoc(v *ar.InternalVariable) {
	if v == nil {
		return
	}
	s := value.TopScalar(e.Kind, v.Type())
	s.Uninit = value.Initialized
	e.assign(v, s)
}

func combineUninit(a, b value.Uninitialized) value.Uninitialized {
	switch {
	case a.IsBottom() || b.IsBottom():
		return value.UninitBottom
	case a.IsUninitialized() || b.IsUninitialized():
		return value.Uninit
	case a.IsInitialized() && b.IsInitialized():
		return value.Initialized
	default:
		return value.UninitTop
	}
}

func bigInt(n int64) *big.Int { return big.NewInt(n) }

// DoAssignment implements ar.StmtOp
func (e *NumericalExecutionEngine) DoAssignment(s *ar.Assignment) {
	if e.inv.Normal.IsBottom() {
		return
	}
	e.assign(s.ResultVar(), e.Scalar(e.inv.Normal, s.Operand()))
}

// DoUnaryOperation implements ar.StmtOp
func (e *NumericalExecutionEngine) DoUnaryOperation(s *ar.UnaryOperation) {
	m := e.inv.Normal
	if m.IsBottom() {
		return
	}
	operand := e.Scalar(m, s.Operand())
	r := value.TopScalar(e.Kind, s.ResultVar().Type())
	r.Uninit = operand.Uninit
	switch s.Op() {
	case ar.Trunc, ar.ZExt, ar.SExt, ar.SignCast:
		from, okFrom := s.Operand().Type().(*ar.IntegerType)
		to, okTo := s.ResultVar().Type().(*ar.IntegerType)
		if okFrom && okTo && operand.Int != nil {
			r.Int = numeric.Cast(s.Op(), operand.Int, from, to, e.ctx)
		}
	case ar.Bitcast:
		if ar.IsPointer(s.Operand().Type()) && ar.IsPointer(s.ResultVar().Type()) {
			r.Ptr = operand.Ptr
		} else if to, ok := s.ResultVar().Type().(*ar.IntegerType); ok && operand.Int != nil {
			r.Int = operand.Int.Wrap(to)
		}
	case ar.IntToPtr:
		// the integer value carries no points-to information
		r.Ptr = value.TopPointer(e.Kind)
	}
	e.assign(s.ResultVar(), r)
}

// DoBinaryOperation implements ar.StmtOp
func (e *NumericalExecutionEngine) DoBinaryOperation(s *ar.BinaryOperation) {
	m := e.inv.Normal
	if m.IsBottom() {
		return
	}
	left, right := e.Scalar(m, s.Left()), e.Scalar(m, s.Right())
	r := value.TopScalar(e.Kind, s.ResultVar().Type())
	r.Uninit = combineUninit(left.Uninit, right.Uninit)
	if t, ok := s.ResultVar().Type().(*ar.IntegerType); ok && !s.Op().IsFloat() && left.Int != nil &&
		right.Int != nil {
		r.Int = left.Int.Apply(s.Op(), right.Int, t)
	}
	e.assign(s.ResultVar(), r)
}

// DoComparison implements ar.StmtOp. Execution continues in the states where the comparison holds.
func (e *NumericalExecutionEngine) DoComparison(s *ar.Comparison) {
	m := &e.inv.Normal
	if m.IsBottom() {
		return
	}
	l, r := s.Left(), s.Right()
	switch {
	case ar.IsInteger(l.Type()) && ar.IsInteger(r.Type()):
		x, y := numeric.RefineComparison(s.Predicate(), e.Int(*m, l), e.Int(*m, r))
		if x.IsBottom() || y.IsBottom() {
			m.SetBottom()
			return
		}
		e.refineInt(l, x)
		e.refineInt(r, y)
	case ar.IsPointer(l.Type()) && ar.IsPointer(r.Type()):
		e.comparePointers(s.Predicate(), l, r)
	}
}

func (e *NumericalExecutionEngine) refineInt(v ar.Value, x numeric.Value) {
	iv, ok := v.(*ar.InternalVariable)
	if !ok {
		return
	}
	s := e.inv.Normal.Scalar(iv)
	s.Type = iv.Type()
	s.Int = x
	e.inv.Normal.SetScalar(iv, s)
}

func (e *NumericalExecutionEngine) refinePointer(v ar.Value, p value.PointerValue) {
	iv, ok := v.(*ar.InternalVariable)
	if !ok || e.Precision < Pointer {
		return
	}
	s := e.inv.Normal.Scalar(iv)
	s.Type = iv.Type()
	s.Ptr = p
	e.inv.Normal.SetScalar(iv, s)
}

func (e *NumericalExecutionEngine) comparePointers(pred ar.Predicate, l, r ar.Value) {
	if e.Precision < Pointer {
		return
	}
	m := &e.inv.Normal
	x, y := e.Pointer(*m, l), e.Pointer(*m, r)
	switch pred {
	case ar.EQ:
		n := x.Nullity.Meet(y.Nullity)
		pts := x.PointsTo.Meet(y.PointsTo)
		if n.IsBottom() || (n.IsNonNull() && pts.IsEmpty()) {
			m.SetBottom()
			return
		}
		x.Nullity, y.Nullity = n, n
		if n.IsNonNull() {
			x.PointsTo, y.PointsTo = pts, pts
		}
	case ar.NE:
		if x.Nullity.IsNull() && y.Nullity.IsNull() {
			m.SetBottom()
			return
		}
		if x.Nullity.IsNull() {
			y.Nullity = y.Nullity.Meet(value.NonNull)
		}
		if y.Nullity.IsNull() {
			x.Nullity = x.Nullity.Meet(value.NonNull)
		}
	default:
		return
	}
	e.refinePointer(l, x)
	e.refinePointer(r, y)
}

// DoReturnValue implements ar.StmtOp
func (e *NumericalExecutionEngine) DoReturnValue(*ar.ReturnValue) {}

// DoUnreachable implements ar.StmtOp
func (e *NumericalExecutionEngine) DoUnreachable(*ar.Unreachable) {
	e.inv.SetNormalBottom()
}

// DoAllocate implements ar.StmtOp. The object is allocated with an unknown content.
func (e *NumericalExecutionEngine) DoAllocate(s *ar.Allocate) {
	m := &e.inv.Normal
	if m.IsBottom() || e.Precision < Memory {
		return
	}
	obj := s.ResultVar()
	m.SetLifetime(obj, value.Allocated)
	m.ForgetCells(obj)
	size, ok := e.Layout.SizeOf(obj.AllocatedType())
	if !ok {
		return
	}
	count := e.Kind.Constant(bigInt(1))
	if s.ArraySize() != nil {
		count = e.Int(*m, s.ArraySize())
	}
	m.SetAllocSize(obj, count.Apply(ar.Mul, e.Kind.Constant(bigInt(size)), e.ctx.SizeType()))
}

// DoPointerShift implements ar.StmtOp
func (e *NumericalExecutionEngine) DoPointerShift(s *ar.PointerShift) {
	m := e.inv.Normal
	if m.IsBottom() {
		return
	}
	base := e.Scalar(m, s.Base())
	p := base.Ptr
	for _, t := range s.Terms() {
		term := e.Int(m, t.Operand).Apply(ar.Mul, e.Kind.Constant(t.Factor), value.OffsetType)
		p.Offset = p.Offset.Apply(ar.Add, term, value.OffsetType)
	}
	e.assign(s.ResultVar(), value.Scalar{Ptr: p, Uninit: base.Uninit})
}

// deref records that the pointer operand was dereferenced: it is not null afterwards. Dereferencing the null
// pointer stops the normal flow.
func (e *NumericalExecutionEngine) deref(v ar.Value) {
	m := &e.inv.Normal
	p := e.Pointer(*m, v)
	if p.Nullity.IsNull() {
		m.SetBottom()
		return
	}
	p.Nullity = p.Nullity.Meet(value.NonNull)
	e.refinePointer(v, p)
}

// DoLoad implements ar.StmtOp. Reads are precise on cells at a constant offset.
func (e *NumericalExecutionEngine) DoLoad(s *ar.Load) {
	m := e.inv.Normal
	if m.IsBottom() {
		return
	}
	p := e.Pointer(m, s.Operand())
	r := value.TopScalar(e.Kind, s.ResultVar().Type())
	if e.Precision >= Memory {
		r = e.read(m, p, s.ResultVar().Type())
	}
	e.deref(s.Operand())
	if e.inv.Normal.IsBottom() {
		return
	}
	e.assign(s.ResultVar(), r)
}

func sameKind(a, b ar.Type) bool {
	return a == b || (ar.IsPointer(a) && ar.IsPointer(b))
}

func (e *NumericalExecutionEngine) read(m value.MemoryDomain, p value.PointerValue, t ar.Type) value.Scalar {
	top := value.TopScalar(e.Kind, t)
	size, okSize := e.Layout.SizeOf(t)
	off, okOff := numeric.Singleton(p.Offset)
	if !okSize || !okOff || !off.IsInt64() || p.PointsTo.IsTop() || p.PointsTo.IsEmpty() {
		return top
	}
	var r value.Scalar
	for i, obj := range p.PointsTo.Objects() {
		s, ok := m.Cell(value.Cell{Object: obj, Offset: off.Int64(), Size: size})
		if !ok || !sameKind(s.Type, t) {
			return top
		}
		if i == 0 {
			r = s
		} else {
			r = r.Join(s, e.Kind)
		}
	}
	return r
}

// DoStore implements ar.StmtOp. A store to a single non-summary object at a constant offset is a strong update,
// other stores are weak.
func (e *NumericalExecutionEngine) DoStore(s *ar.Store) {
	m := &e.inv.Normal
	if m.IsBottom() {
		return
	}
	if e.Precision >= Memory {
		e.write(m, e.Pointer(*m, s.Pointer()), e.Scalar(*m, s.Value()))
	}
	e.deref(s.Pointer())
}

func (e *NumericalExecutionEngine) write(m *value.MemoryDomain, p value.PointerValue, v value.Scalar) {
	if p.PointsTo.IsTop() {
		m.ForgetAllCells()
		return
	}
	objs := p.PointsTo.Objects()
	size, okSize := e.Layout.SizeOf(v.Type)
	off, okOff := numeric.Singleton(p.Offset)
	if !okSize || !okOff || !off.IsInt64() {
		for _, obj := range objs {
			m.ForgetCells(obj)
		}
		return
	}
	strong := len(objs) == 1 && !objs[0].IsSummary() && p.Nullity.IsNonNull()
	for _, obj := range objs {
		m.WriteCell(value.Cell{Object: obj, Offset: off.Int64(), Size: size}, v, strong)
	}
}

// havocMemory forgets the contents of the objects p may point to
func (e *NumericalExecutionEngine) havocMemory(p value.PointerValue) {
	m := &e.inv.Normal
	if p.PointsTo.IsTop() {
		m.ForgetAllCells()
		return
	}
	for _, obj := range p.PointsTo.Objects() {
		m.ForgetCells(obj)
	}
}

// DoCall implements ar.StmtOp
func (e *NumericalExecutionEngine) DoCall(s *ar.Call) { e.calls.ExecCall(e, s) }

// DoInvoke implements ar.StmtOp
func (e *NumericalExecutionEngine) DoInvoke(s *ar.Invoke) { e.calls.ExecCall(e, s) }

// DoLandingPad implements ar.StmtOp. The exception was routed to the normal flow by ExecEdge.
func (e *NumericalExecutionEngine) DoLandingPad(s *ar.LandingPad) {
	if e.inv.Normal.IsBottom() {
		return
	}
	e.havoc(s.ResultVar())
}

// DoResume implements ar.StmtOp
func (e *NumericalExecutionEngine) DoResume(*ar.Resume) { e.throw() }

// DoThrow implements ar.StmtOp
func (e *NumericalExecutionEngine) DoThrow(*ar.Throw) { e.throw() }

func (e *NumericalExecutionEngine) throw() {
	e.inv.MergeNormalIntoPropagated()
	e.inv.SetNormalBottom()
}
