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

package frontend

import (
	"fmt"
	"go/constant"
	"go/token"
	"math/big"

	"github.com/awslabs/ar-go-absint/analysis/ar"
	"github.com/awslabs/ar-go-absint/internal/funcutil"
	"golang.org/x/tools/go/ssa"
)

func bigInt(n int64) *big.Int { return big.NewInt(n) }

var (
	intOps = map[token.Token]ar.BinaryOp{
		token.ADD: ar.Add,
		token.SUB: ar.Sub,
		token.MUL: ar.Mul,
		token.QUO: ar.Div,
		token.REM: ar.Rem,
		token.AND: ar.And,
		token.OR:  ar.Or,
		token.XOR: ar.Xor,
		token.SHL: ar.Shl,
		token.SHR: ar.Shr,
	}
	floatOps = map[token.Token]ar.BinaryOp{
		token.ADD: ar.FAdd,
		token.SUB: ar.FSub,
		token.MUL: ar.FMul,
		token.QUO: ar.FDiv,
		token.REM: ar.FRem,
	}
	checkedOps = map[ar.BinaryOp]bool{ar.Add: true, ar.Sub: true, ar.Mul: true, ar.Shl: true}
)

func (fl *fnLowering) binOp(instr *ssa.BinOp) {
	if _, ok := predicates[instr.Op]; ok {
		// comparisons only refine the branches. A comparison also used as a value is unknown.
		if !onlyBranches(instr) {
			fl.unknown(instr)
		}
		return
	}
	t, ok := fl.types.register(instr.Type())
	if !ok {
		return
	}
	x, y := fl.operand(instr.X), fl.operand(instr.Y)
	switch t := t.(type) {
	case *ar.IntegerType:
		if instr.Op == token.AND_NOT {
			mask := fl.temp(t)
			fl.emit(ar.NewBinaryOperation(ar.Xor, mask, fl.coerce(y, t), allOnes(fl.ctx, t)))
			fl.trace(ar.NewBinaryOperation(ar.And, fl.newVar(instr, t), x, mask))
			return
		}
		op, ok := intOps[instr.Op]
		if !ok {
			panic(fmt.Sprintf("unexpected integer operator %s", instr.Op))
		}
		s := ar.NewBinaryOperation(op, fl.newVar(instr, t), x, fl.coerce(y, t))
		if fl.config.OverflowChecks && checkedOps[op] {
			s.SetNoWrap(true)
		}
		fl.trace(s)
	case *ar.FloatType:
		if op, ok := floatOps[instr.Op]; ok {
			fl.trace(ar.NewBinaryOperation(op, fl.newVar(instr, t), x, y))
			return
		}
		fl.unknown(instr)
	default:
		fl.unknown(instr)
	}
}

// onlyBranches returns true if the only uses of v are branches
func onlyBranches(v ssa.Value) bool {
	refs := v.Referrers()
	if refs == nil {
		return true
	}
	for _, r := range *refs {
		if _, ok := r.(*ssa.If); !ok {
			return false
		}
	}
	return true
}

// allOnes returns the integer of type t with all its bits set
func allOnes(ctx *ar.Context, t *ar.IntegerType) *ar.IntegerConstant {
	if t.IsSigned() {
		return ctx.Int64Constant(t, -1)
	}
	return ctx.IntegerConstant(t, t.MaxValue())
}

func (fl *fnLowering) unOp(instr *ssa.UnOp) {
	if instr.Op == token.MUL {
		fl.load(instr)
		return
	}
	t, ok := fl.types.register(instr.Type())
	if !ok {
		return
	}
	x := fl.operand(instr.X)
	switch t := t.(type) {
	case *ar.IntegerType:
		switch instr.Op {
		case token.NOT:
			fl.trace(ar.NewBinaryOperation(ar.Xor, fl.newVar(instr, t), x, fl.ctx.Int64Constant(t, 1)))
		case token.SUB:
			s := ar.NewBinaryOperation(ar.Sub, fl.newVar(instr, t), fl.ctx.Int64Constant(t, 0), x)
			if fl.config.OverflowChecks {
				s.SetNoWrap(true)
			}
			fl.trace(s)
		case token.XOR:
			fl.trace(ar.NewBinaryOperation(ar.Xor, fl.newVar(instr, t), x, allOnes(fl.ctx, t)))
		default:
			fl.unknown(instr)
		}
	case *ar.FloatType:
		if instr.Op == token.SUB {
			fl.trace(ar.NewBinaryOperation(ar.FSub, fl.newVar(instr, t), fl.ctx.FloatConstant(t, "0"), x))
			return
		}
		fl.unknown(instr)
	default:
		fl.unknown(instr)
	}
}

// load lowers *x. The loads of values that are not represented still dereference the pointer, into an opaque
// register.
func (fl *fnLowering) load(instr *ssa.UnOp) {
	t, ok := fl.types.register(instr.Type())
	if !ok {
		t = fl.ctx.OpaqueType()
	}
	fl.trace(ar.NewLoad(fl.newVar(instr, t), fl.operand(instr.X)))
}

// alloc lowers a local or heap allocation. The object is zeroed when its type is a scalar.
func (fl *fnLowering) alloc(instr *ssa.Alloc) {
	elem := deref(instr.Type())
	t := fl.mustRegister(instr.Type())
	var ptr ar.Value
	if instr.Heap {
		raw := fl.temp(fl.bytePointer())
		heapAlloc := fl.ctx.FunctionPointerConstant(fl.bundle.IntrinsicFunction(ar.IntrinsicHeapAlloc))
		call := ar.NewCall(raw, heapAlloc, fl.ctx.Int64Constant(fl.ctx.SizeType(), sizes.Sizeof(elem)))
		fl.trace(call)
		fl.objects[instr] = call.HeapSite()
		ptr = fl.coerce(raw, t)
		fl.values[instr] = ptr
	} else {
		name := instr.Comment
		if name == "" {
			name = instr.Name()
		}
		lv := fl.code.NewLocalVariable(fmt.Sprintf("%s.%s", name, instr.Name()), fl.types.memory(elem))
		fl.trace(ar.NewAllocate(lv, fl.ctx.Int64Constant(fl.ctx.SizeType(), 1)))
		fl.objects[instr] = lv
		fl.values[instr] = lv
		ptr = lv
	}
	if rt, ok := fl.types.register(elem); ok {
		fl.emit(ar.NewStore(ptr, fl.zero(rt)))
	}
}

// zero returns the zero value of a scalar type
func (fl *fnLowering) zero(t ar.Type) ar.Value {
	switch t := t.(type) {
	case *ar.IntegerType:
		return fl.ctx.Int64Constant(t, 0)
	case *ar.PointerType:
		return fl.ctx.NullConstant(t)
	case *ar.FloatType:
		return fl.ctx.FloatConstant(t, "0")
	}
	return fl.ctx.UndefinedConstant(t)
}

func (fl *fnLowering) constTerm(offset int64) ar.ShiftTerm {
	return ar.ShiftTerm{Factor: bigInt(offset), Operand: fl.ctx.Int64Constant(fl.ctx.SizeType(), 1)}
}

// constant returns the AR constant of c. Constants of types that are not represented are undefined.
func (fl *fnLowering) constant(c *ssa.Const) ar.Value {
	t, ok := fl.types.register(c.Type())
	if !ok {
		return fl.ctx.UndefinedConstant(fl.ctx.OpaqueType())
	}
	if c.Value == nil {
		return fl.zero(t)
	}
	switch t := t.(type) {
	case *ar.IntegerType:
		switch c.Value.Kind() {
		case constant.Bool:
			if constant.BoolVal(c.Value) {
				return fl.ctx.Int64Constant(t, 1)
			}
			return fl.ctx.Int64Constant(t, 0)
		case constant.Int:
			n, ok := new(big.Int).SetString(c.Value.ExactString(), 10)
			if ok {
				return fl.ctx.IntegerConstant(t, wrap(n, t))
			}
		}
	case *ar.FloatType:
		if f, ok := constant.Float64Val(constant.ToFloat(c.Value)); ok {
			return fl.ctx.FloatConstant(t, fmt.Sprint(f))
		}
	}
	return fl.ctx.UndefinedConstant(t)
}

// wrap returns n modulo 2^bits, in the range of t
func wrap(n *big.Int, t *ar.IntegerType) *big.Int {
	mod := new(big.Int).Lsh(bigInt(1), t.BitWidth())
	r := new(big.Int).Mod(n, mod)
	if t.IsSigned() && r.Cmp(t.MaxValue()) > 0 {
		r.Sub(r, mod)
	}
	return r
}

// coerce converts v to type t, with the casts of the Go conversion rules. Constants are converted directly.
//
//gocyclo:ignore
func (fl *fnLowering) coerce(v ar.Value, t ar.Type) ar.Value {
	from := v.Type()
	if from == t {
		return v
	}
	if _, ok := v.(*ar.UndefinedConstant); ok {
		return fl.ctx.UndefinedConstant(t)
	}
	switch f := from.(type) {
	case *ar.IntegerType:
		switch t := t.(type) {
		case *ar.IntegerType:
			if c, ok := v.(*ar.IntegerConstant); ok {
				return fl.ctx.IntegerConstant(t, wrap(c.Value(), t))
			}
			return fl.castInt(v, f, t)
		case *ar.PointerType:
			return fl.cast(ar.IntToPtr, v, t)
		case *ar.FloatType:
			if f.IsSigned() {
				return fl.cast(ar.SIToFP, v, t)
			}
			return fl.cast(ar.UIToFP, v, t)
		}
	case *ar.PointerType:
		switch t.(type) {
		case *ar.PointerType:
			if _, ok := v.(*ar.NullConstant); ok {
				return fl.ctx.NullConstant(t.(*ar.PointerType))
			}
			return fl.cast(ar.Bitcast, v, t)
		case *ar.IntegerType:
			return fl.cast(ar.PtrToInt, v, t)
		}
	case *ar.FloatType:
		switch t := t.(type) {
		case *ar.FloatType:
			if t.BitWidth() > f.BitWidth() {
				return fl.cast(ar.FPExt, v, t)
			}
			return fl.cast(ar.FPTrunc, v, t)
		case *ar.IntegerType:
			if t.IsSigned() {
				return fl.cast(ar.FPToSI, v, t)
			}
			return fl.cast(ar.FPToUI, v, t)
		}
	}
	return fl.ctx.UndefinedConstant(t)
}

// castInt changes the width first, in the signedness of the operand, then the signedness
func (fl *fnLowering) castInt(v ar.Value, from, to *ar.IntegerType) ar.Value {
	if from.BitWidth() == to.BitWidth() {
		return fl.cast(ar.SignCast, v, to)
	}
	mid := fl.ctx.IntegerType(to.BitWidth(), from.Signedness())
	op := ar.ZExt
	switch {
	case to.BitWidth() < from.BitWidth():
		op = ar.Trunc
	case from.IsSigned():
		op = ar.SExt
	}
	r := fl.cast(op, v, mid)
	if mid != to {
		r = fl.cast(ar.SignCast, r, to)
	}
	return r
}

func (fl *fnLowering) cast(op ar.UnaryOp, v ar.Value, t ar.Type) *ar.InternalVariable {
	r := fl.temp(t)
	fl.emit(ar.NewUnaryOperation(op, r, v))
	return r
}

// call lowers a call. Static calls target the AR function of the callee, with the free variables of closures as
// extra arguments; other calls, and calls to builtins, target an unknown external function. v is the value of the
// call, or nil for the calls of go statements.
func (fl *fnLowering) call(common *ssa.CallCommon, v ssa.Value) {
	var result *ar.InternalVariable
	var rt ar.Type = fl.ctx.VoidType()
	if v != nil {
		if t, ok := fl.types.register(v.Type()); ok {
			rt = t
		}
	}

	args := common.Args
	callee := common.StaticCallee()
	if _, builtin := common.Value.(*ssa.Builtin); builtin || common.IsInvoke() || v == nil {
		callee = nil
	}
	if callee == nil {
		if common.IsInvoke() {
			args = append([]ssa.Value{common.Value}, args...)
		}
		if !ar.IsVoid(rt) {
			result = fl.newVar(v, rt)
		}
		ops := funcutil.Map(args, func(a ssa.Value) ar.Value { return fl.argument(a, fl.argType(a)) })
		fl.trace(ar.NewCall(result, fl.unknownFunction(rt), ops...))
		return
	}

	if mc, ok := common.Value.(*ssa.MakeClosure); ok {
		args = append(append([]ssa.Value(nil), args...), mc.Bindings...)
	}
	target := fl.declare(callee)
	typ := target.Type()
	ops := make([]ar.Value, len(typ.Params()))
	for i, pt := range typ.Params() {
		if i < len(args) {
			ops[i] = fl.argument(args[i], pt)
		} else {
			ops[i] = fl.ctx.UndefinedConstant(pt)
		}
	}
	if ret := typ.ReturnType(); !ar.IsVoid(ret) {
		result = fl.temp(ret)
	}
	fl.trace(ar.NewCall(result, fl.ctx.FunctionPointerConstant(target), ops...))
	if result != nil && !ar.IsVoid(rt) {
		fl.values[v] = fl.coerce(result, rt)
	} else if !ar.IsVoid(rt) {
		fl.unknown(v)
	}
}

// argType is the type of the argument a of an unknown function. Values that are not represented are passed as
// unknown pointers, since they may give access to any memory.
func (fl *fnLowering) argType(a ssa.Value) ar.Type {
	if t, ok := fl.types.register(a.Type()); ok {
		return t
	}
	return fl.bytePointer()
}
