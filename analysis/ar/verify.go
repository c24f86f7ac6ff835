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

package ar

import (
	"fmt"
)

// TypeVerifier type-checks bundles
type TypeVerifier struct {
	// All makes the verifier report all the errors instead of stopping at the first one
	All bool
}

// NewTypeVerifier returns a verifier reporting all the errors
func NewTypeVerifier() TypeVerifier { return TypeVerifier{All: true} }

// VerifyBundle type checks all the functions of the bundle
func (v TypeVerifier) VerifyBundle(b *Bundle) []error {
	var errs []error
	for _, g := range b.globals {
		if g.allocated == nil {
			errs = append(errs, fmt.Errorf("global %s: missing allocated type", g.name))
			if !v.All {
				return errs
			}
		}
	}
	for _, f := range b.functions {
		errs = append(errs, v.VerifyFunction(f)...)
		if len(errs) > 0 && !v.All {
			return errs
		}
	}
	return errs
}

// VerifyFunction type checks the body of a function. A declaration is always valid.
func (v TypeVerifier) VerifyFunction(f *Function) []error {
	if f.body == nil {
		return nil
	}
	var errs []error
	if f.body.entry == nil {
		return []error{fmt.Errorf("function %s: body without entry block", f.name)}
	}
	for _, b := range f.body.blocks {
		for _, s := range b.stmts {
			if err := v.verifyStatement(s, f.typ.ret); err != nil {
				errs = append(errs, fmt.Errorf("function %s, block %s: %q: %w", f.name, b.name, s, err))
				if !v.All {
					return errs
				}
			}
		}
	}
	return errs
}

//gocyclo:ignore
func (v TypeVerifier) verifyStatement(s Statement, returnType Type) error {
	switch s := s.(type) {
	case *Assignment:
		if !sameOrBitcast(s.result.typ, s.operand.Type()) {
			return fmt.Errorf("operand of type %s assigned to %s", s.operand.Type(), s.result.typ)
		}
	case *UnaryOperation:
		return verifyUnary(s)
	case *BinaryOperation:
		l, r := s.left.Type(), s.right.Type()
		if s.op.IsFloat() {
			if !IsFloat(l) || !IsFloat(r) || !IsFloat(s.result.typ) {
				return fmt.Errorf("floating point operation on non-float operands")
			}
			return nil
		}
		if !IsInteger(l) || !IsInteger(r) || !IsInteger(s.result.typ) {
			return fmt.Errorf("integer operation on non-integer operands")
		}
		if !sameOrBitcast(l, r) || !sameOrBitcast(l, s.result.typ) {
			return fmt.Errorf("operands of different bit-widths")
		}
	case *Comparison:
		l, r := s.left.Type(), s.right.Type()
		if !sameOrBitcast(l, r) {
			return fmt.Errorf("comparison of %s and %s", l, r)
		}
	case *ReturnValue:
		if s.operand == nil {
			if !IsVoid(returnType) {
				return fmt.Errorf("missing return value")
			}
			return nil
		}
		if !sameOrBitcast(s.operand.Type(), returnType) {
			return fmt.Errorf("returned %s, expected %s", s.operand.Type(), returnType)
		}
	case *Allocate:
		if !IsInteger(s.arraySize.Type()) {
			return fmt.Errorf("allocation size is not an integer")
		}
	case *PointerShift:
		if !IsPointer(s.base.Type()) || !IsPointer(s.result.typ) {
			return fmt.Errorf("pointer shift on non-pointer")
		}
		for _, t := range s.terms {
			if !IsInteger(t.Operand.Type()) {
				return fmt.Errorf("pointer shift by non-integer %s", t.Operand)
			}
		}
	case *Load:
		if !IsPointer(s.operand.Type()) {
			return fmt.Errorf("load from non-pointer")
		}
	case *Store:
		if !IsPointer(s.pointer.Type()) {
			return fmt.Errorf("store to non-pointer")
		}
	case *Call:
		return verifyCall(&s.CallBase)
	case *Invoke:
		if s.normal == nil || s.exception == nil {
			return fmt.Errorf("invoke without destinations")
		}
		return verifyCall(&s.CallBase)
	case *Unreachable, *LandingPad, *Resume, *Throw:
		return nil
	}
	return nil
}

func verifyUnary(s *UnaryOperation) error {
	from, to := s.operand.Type(), s.result.typ
	ok := true
	switch s.op {
	case Trunc, ZExt, SExt, SignCast:
		ok = IsInteger(from) && IsInteger(to)
	case FPTrunc, FPExt:
		ok = IsFloat(from) && IsFloat(to)
	case FPToUI, FPToSI:
		ok = IsFloat(from) && IsInteger(to)
	case UIToFP, SIToFP:
		ok = IsInteger(from) && IsFloat(to)
	case PtrToInt:
		ok = IsPointer(from) && IsInteger(to)
	case IntToPtr:
		ok = IsInteger(from) && IsPointer(to)
	case Bitcast:
		ok = IsScalar(from) == IsScalar(to)
	}
	if !ok {
		return fmt.Errorf("invalid %s from %s to %s", s.op, from, to)
	}
	return nil
}

func verifyCall(call *CallBase) error {
	ptr, ok := call.called.Type().(*PointerType)
	if !ok {
		return fmt.Errorf("called value is not a pointer")
	}
	fnType, ok := ptr.pointee.(*FunctionType)
	if !ok {
		// indirect calls through opaque pointers are checked at runtime by the analysis
		return nil
	}
	if !IsValidCall(call, fnType) {
		return fmt.Errorf("call does not match %s", fnType)
	}
	return nil
}

func sameOrBitcast(a, b Type) bool {
	return a == b || IsImplicitBitcast(a, b)
}

// IsImplicitBitcast returns true if there is an implicit bitcast between a and b: between integer types of the
// same bit-width (signed <-> unsigned) or between pointer types.
func IsImplicitBitcast(a, b Type) bool {
	ia, okA := a.(*IntegerType)
	ib, okB := b.(*IntegerType)
	if okA && okB {
		return ia.bitWidth == ib.bitWidth
	}
	return IsPointer(a) && IsPointer(b)
}

// IsValidCall returns true if the call is a valid call to a function of type fnType. It checks the return type and
// parameter types, not the type of the called value.
func IsValidCall(call *CallBase, fnType *FunctionType) bool {
	if call.result != nil {
		if IsVoid(fnType.ret) || !sameOrBitcast(call.result.typ, fnType.ret) {
			return false
		}
	}
	if len(call.args) < len(fnType.params) {
		return false
	}
	if len(call.args) > len(fnType.params) && !fnType.varArgs {
		return false
	}
	for i, p := range fnType.params {
		if !sameOrBitcast(call.args[i].Type(), p) {
			return false
		}
	}
	return true
}
