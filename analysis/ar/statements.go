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
	"math/big"
	"strings"
)

// A Statement is an instruction of a basic block. The set of statements is closed: the implementations are the
// types of this file, and StmtSwitch dispatches on all of them.
type Statement interface {
	fmt.Stringer
	// Parent returns the basic block containing the statement
	Parent() *BasicBlock
	// Frontend returns the key of the front-end object the statement was translated from
	Frontend() FrontendKey
	// HasFrontend returns true if the statement can be correlated to a front-end object
	HasFrontend() bool
	// SetFrontend sets the front-end key of the statement
	SetFrontend(key FrontendKey)
	// Result returns the variable defined by the statement, or nil
	Result() Variable
	// Operands returns the values read by the statement
	Operands() []Value
	stmt() *stmtBase
}

type stmtBase struct {
	parent   *BasicBlock
	frontend FrontendKey
}

func (s *stmtBase) stmt() *stmtBase { return s }

// Parent returns the basic block of the statement
func (s *stmtBase) Parent() *BasicBlock { return s.parent }

// Frontend returns the front-end key of the statement
func (s *stmtBase) Frontend() FrontendKey { return s.frontend }

// HasFrontend returns true if the front-end key is set
func (s *stmtBase) HasFrontend() bool { return s.frontend != NoFrontend }

// SetFrontend sets the front-end key
func (s *stmtBase) SetFrontend(key FrontendKey) { s.frontend = key }

// Assignment copies a value into an internal variable: result = operand
type Assignment struct {
	stmtBase
	result  *InternalVariable
	operand Value
}

// NewAssignment returns result = operand
func NewAssignment(result *InternalVariable, operand Value) *Assignment {
	return &Assignment{result: result, operand: operand}
}

func (s *Assignment) Result() Variable          { return s.result }
func (s *Assignment) ResultVar() *InternalVariable { return s.result }
func (s *Assignment) Operand() Value            { return s.operand }
func (s *Assignment) Operands() []Value         { return []Value{s.operand} }
func (s *Assignment) String() string            { return fmt.Sprintf("%s = %s", s.result, s.operand) }

// UnaryOp is the operator of a unary operation (conversions)
type UnaryOp int

const (
	Trunc UnaryOp = iota
	ZExt
	SExt
	FPTrunc
	FPExt
	FPToUI
	FPToSI
	UIToFP
	SIToFP
	PtrToInt
	IntToPtr
	Bitcast
	// SignCast reinterprets an integer with the other signedness
	SignCast
)

var unaryOpNames = [...]string{"trunc", "zext", "sext", "fptrunc", "fpext", "fptoui", "fptosi", "uitofp",
	"sitofp", "ptrtoint", "inttoptr", "bitcast", "signcast"}

func (op UnaryOp) String() string { return unaryOpNames[op] }

// UnaryOperation is result = op operand
type UnaryOperation struct {
	stmtBase
	op      UnaryOp
	result  *InternalVariable
	operand Value
}

// NewUnaryOperation returns result = op operand
func NewUnaryOperation(op UnaryOp, result *InternalVariable, operand Value) *UnaryOperation {
	return &UnaryOperation{op: op, result: result, operand: operand}
}

func (s *UnaryOperation) Op() UnaryOp                 { return s.op }
func (s *UnaryOperation) Result() Variable            { return s.result }
func (s *UnaryOperation) ResultVar() *InternalVariable { return s.result }
func (s *UnaryOperation) Operand() Value              { return s.operand }
func (s *UnaryOperation) Operands() []Value           { return []Value{s.operand} }
func (s *UnaryOperation) String() string {
	return fmt.Sprintf("%s = %s %s", s.result, s.op, s.operand)
}

// BinaryOp is the operator of a binary operation. Signedness of integer operators is given by the operand types.
type BinaryOp int

const (
	Add BinaryOp = iota
	Sub
	Mul
	Div
	Rem
	Shl
	Shr
	And
	Or
	Xor
	FAdd
	FSub
	FMul
	FDiv
	FRem
)

var binaryOpNames = [...]string{"add", "sub", "mul", "div", "rem", "shl", "shr", "and", "or", "xor",
	"fadd", "fsub", "fmul", "fdiv", "frem"}

func (op BinaryOp) String() string { return binaryOpNames[op] }

// IsFloat returns true for floating point operators
func (op BinaryOp) IsFloat() bool { return op >= FAdd }

// BinaryOperation is result = left op right. When NoWrap is set, the operation is overflow-checked: an overflow is an
// error of the program and the result is assumed to be in range.
type BinaryOperation struct {
	stmtBase
	op     BinaryOp
	result *InternalVariable
	left   Value
	right  Value
	noWrap bool
	exact  bool
}

// NewBinaryOperation returns result = left op right
func NewBinaryOperation(op BinaryOp, result *InternalVariable, left, right Value) *BinaryOperation {
	return &BinaryOperation{op: op, result: result, left: left, right: right}
}

func (s *BinaryOperation) Op() BinaryOp                { return s.op }
func (s *BinaryOperation) Result() Variable            { return s.result }
func (s *BinaryOperation) ResultVar() *InternalVariable { return s.result }
func (s *BinaryOperation) Left() Value                 { return s.left }
func (s *BinaryOperation) Right() Value                { return s.right }
func (s *BinaryOperation) Operands() []Value           { return []Value{s.left, s.right} }

// NoWrap returns true if an overflow of the operation is a program error
func (s *BinaryOperation) NoWrap() bool { return s.noWrap }

// SetNoWrap sets the no-wrap flag and returns the statement
func (s *BinaryOperation) SetNoWrap(b bool) *BinaryOperation {
	s.noWrap = b
	return s
}

// Exact returns true if a division or right shift must not lose bits
func (s *BinaryOperation) Exact() bool { return s.exact }

// SetExact sets the exact flag and returns the statement
func (s *BinaryOperation) SetExact(b bool) *BinaryOperation {
	s.exact = b
	return s
}

func (s *BinaryOperation) String() string {
	flag := ""
	if s.noWrap {
		flag = ".nw"
	}
	return fmt.Sprintf("%s = %s%s %s, %s", s.result, s.op, flag, s.left, s.right)
}

// Predicate of a comparison. The interpretation (signed, unsigned, pointer, float) is given by the operand types.
type Predicate int

const (
	EQ Predicate = iota
	NE
	GT
	GE
	LT
	LE
)

var predicateNames = [...]string{"==", "!=", ">", ">=", "<", "<="}

func (p Predicate) String() string { return predicateNames[p] }

// Inverse returns the predicate p' such that !(a p b) <=> a p' b
func (p Predicate) Inverse() Predicate {
	return [...]Predicate{NE, EQ, LE, LT, GE, GT}[p]
}

// Swap returns the predicate p' such that a p b <=> b p' a
func (p Predicate) Swap() Predicate {
	return [...]Predicate{EQ, NE, LT, LE, GT, GE}[p]
}

// Comparison is an assumption: execution continues only in states where left pred right holds.
type Comparison struct {
	stmtBase
	pred  Predicate
	left  Value
	right Value
}

// NewComparison returns assume(left pred right)
func NewComparison(pred Predicate, left, right Value) *Comparison {
	return &Comparison{pred: pred, left: left, right: right}
}

func (s *Comparison) Predicate() Predicate { return s.pred }
func (s *Comparison) Left() Value          { return s.left }
func (s *Comparison) Right() Value         { return s.right }
func (s *Comparison) Result() Variable     { return nil }
func (s *Comparison) Operands() []Value    { return []Value{s.left, s.right} }
func (s *Comparison) String() string {
	return fmt.Sprintf("assume(%s %s %s)", s.left, s.pred, s.right)
}

// ReturnValue exits the function, with an optional operand
type ReturnValue struct {
	stmtBase
	operand Value
}

// NewReturnValue returns a return statement. operand may be nil.
func NewReturnValue(operand Value) *ReturnValue { return &ReturnValue{operand: operand} }

func (s *ReturnValue) Operand() Value   { return s.operand }
func (s *ReturnValue) Result() Variable { return nil }
func (s *ReturnValue) Operands() []Value {
	if s.operand == nil {
		return nil
	}
	return []Value{s.operand}
}
func (s *ReturnValue) String() string {
	if s.operand == nil {
		return "return"
	}
	return "return " + s.operand.String()
}

// Unreachable marks a program point that cannot be reached
type Unreachable struct {
	stmtBase
}

// NewUnreachable returns an unreachable statement
func NewUnreachable() *Unreachable { return &Unreachable{} }

func (s *Unreachable) Result() Variable  { return nil }
func (s *Unreachable) Operands() []Value { return nil }
func (s *Unreachable) String() string    { return "unreachable" }

// Allocate reserves the stack object of a local variable, of ArraySize elements of the allocated type
type Allocate struct {
	stmtBase
	result    *LocalVariable
	arraySize Value
}

// NewAllocate returns result = allocate(type of result, arraySize)
func NewAllocate(result *LocalVariable, arraySize Value) *Allocate {
	return &Allocate{result: result, arraySize: arraySize}
}

func (s *Allocate) Result() Variable          { return s.result }
func (s *Allocate) ResultVar() *LocalVariable { return s.result }
func (s *Allocate) ArraySize() Value          { return s.arraySize }
func (s *Allocate) Operands() []Value         { return []Value{s.arraySize} }
func (s *Allocate) String() string {
	return fmt.Sprintf("%s = allocate %s, %s", s.result, s.result.allocated, s.arraySize)
}

// ShiftTerm is a term factor * operand of a pointer shift
type ShiftTerm struct {
	Factor  *big.Int
	Operand Value
}

// PointerShift is result = base + sum(factor_i * operand_i), in bytes
type PointerShift struct {
	stmtBase
	result *InternalVariable
	base   Value
	terms  []ShiftTerm
}

// NewPointerShift returns result = base + terms
func NewPointerShift(result *InternalVariable, base Value, terms ...ShiftTerm) *PointerShift {
	return &PointerShift{result: result, base: base, terms: terms}
}

func (s *PointerShift) Result() Variable            { return s.result }
func (s *PointerShift) ResultVar() *InternalVariable { return s.result }
func (s *PointerShift) Base() Value                 { return s.base }
func (s *PointerShift) Terms() []ShiftTerm          { return s.terms }
func (s *PointerShift) Operands() []Value {
	ops := []Value{s.base}
	for _, t := range s.terms {
		ops = append(ops, t.Operand)
	}
	return ops
}
func (s *PointerShift) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s = ptrshift %s", s.result, s.base)
	for _, t := range s.terms {
		fmt.Fprintf(&b, ", %s * %s", t.Factor, t.Operand)
	}
	return b.String()
}

// Load is result = *operand
type Load struct {
	stmtBase
	result   *InternalVariable
	operand  Value
	volatile bool
}

// NewLoad returns result = *operand
func NewLoad(result *InternalVariable, operand Value) *Load {
	return &Load{result: result, operand: operand}
}

func (s *Load) Result() Variable            { return s.result }
func (s *Load) ResultVar() *InternalVariable { return s.result }
func (s *Load) Operand() Value              { return s.operand }
func (s *Load) Operands() []Value           { return []Value{s.operand} }
func (s *Load) IsVolatile() bool            { return s.volatile }
func (s *Load) String() string              { return fmt.Sprintf("%s = load %s", s.result, s.operand) }

// Store is *pointer = value
type Store struct {
	stmtBase
	pointer  Value
	value    Value
	volatile bool
}

// NewStore returns *pointer = value
func NewStore(pointer, value Value) *Store { return &Store{pointer: pointer, value: value} }

func (s *Store) Pointer() Value    { return s.pointer }
func (s *Store) Value() Value      { return s.value }
func (s *Store) Result() Variable  { return nil }
func (s *Store) Operands() []Value { return []Value{s.pointer, s.value} }
func (s *Store) IsVolatile() bool  { return s.volatile }
func (s *Store) String() string    { return fmt.Sprintf("store %s, %s", s.pointer, s.value) }

// CallBase holds the fields shared by Call and Invoke
type CallBase struct {
	stmtBase
	result *InternalVariable
	called Value
	args   []Value
}

func (s *CallBase) Result() Variable {
	if s.result == nil {
		return nil
	}
	return s.result
}

// ResultVar returns the result variable of the call, nil for a call without result
func (s *CallBase) ResultVar() *InternalVariable { return s.result }

// Called returns the called value: a function pointer constant for direct calls
func (s *CallBase) Called() Value { return s.called }

// Args returns the arguments of the call
func (s *CallBase) Args() []Value { return s.args }

// Operands returns the called value followed by the arguments
func (s *CallBase) Operands() []Value { return append([]Value{s.called}, s.args...) }

// CalledFunction returns the called function if the call is direct
func (s *CallBase) CalledFunction() (*Function, bool) {
	if fp, ok := s.called.(*FunctionPointerConstant); ok {
		return fp.fn, true
	}
	return nil, false
}

// IsDirect returns true if the called value is a function constant
func (s *CallBase) IsDirect() bool {
	_, ok := s.CalledFunction()
	return ok
}

func (s *CallBase) callString(kw string) string {
	args := make([]string, len(s.args))
	for i, a := range s.args {
		args[i] = a.String()
	}
	call := fmt.Sprintf("%s %s(%s)", kw, s.called, strings.Join(args, ", "))
	if s.result != nil {
		return s.result.String() + " = " + call
	}
	return call
}

// Call calls a function. result may be nil.
type Call struct {
	CallBase
}

// NewCall returns result = call called(args)
func NewCall(result *InternalVariable, called Value, args ...Value) *Call {
	return &Call{CallBase{result: result, called: called, args: args}}
}

func (s *Call) String() string { return s.callString("call") }

// Invoke is a call terminating its block, with a normal successor and an exception successor. Exceptions thrown by
// the callee flow to the exception successor, which starts with a LandingPad.
type Invoke struct {
	CallBase
	normal    *BasicBlock
	exception *BasicBlock
}

// NewInvoke returns result = invoke called(args) to normal unwind exception
func NewInvoke(result *InternalVariable, called Value, normal, exception *BasicBlock, args ...Value) *Invoke {
	return &Invoke{CallBase: CallBase{result: result, called: called, args: args}, normal: normal,
		exception: exception}
}

// NormalDest returns the successor taken when the callee returns
func (s *Invoke) NormalDest() *BasicBlock { return s.normal }

// ExceptionDest returns the successor taken when the callee throws
func (s *Invoke) ExceptionDest() *BasicBlock { return s.exception }

func (s *Invoke) String() string {
	return fmt.Sprintf("%s to %s unwind %s", s.callString("invoke"), s.normal.name, s.exception.name)
}

// LandingPad receives the exception at the start of an exception successor
type LandingPad struct {
	stmtBase
	result *InternalVariable
}

// NewLandingPad returns result = landingpad
func NewLandingPad(result *InternalVariable) *LandingPad { return &LandingPad{result: result} }

func (s *LandingPad) Result() Variable {
	if s.result == nil {
		return nil
	}
	return s.result
}
func (s *LandingPad) ResultVar() *InternalVariable { return s.result }
func (s *LandingPad) Operands() []Value           { return nil }
func (s *LandingPad) String() string {
	if s.result == nil {
		return "landingpad"
	}
	return s.result.String() + " = landingpad"
}

// Resume re-throws the exception received by a landing pad
type Resume struct {
	stmtBase
	operand Value
}

// NewResume returns resume operand
func NewResume(operand Value) *Resume { return &Resume{operand: operand} }

func (s *Resume) Operand() Value    { return s.operand }
func (s *Resume) Result() Variable  { return nil }
func (s *Resume) Operands() []Value { return []Value{s.operand} }
func (s *Resume) String() string    { return "resume " + s.operand.String() }

// Throw raises an exception (a panic for Go programs)
type Throw struct {
	stmtBase
	operand Value
}

// NewThrow returns throw operand. operand may be nil.
func NewThrow(operand Value) *Throw { return &Throw{operand: operand} }

func (s *Throw) Operand() Value   { return s.operand }
func (s *Throw) Result() Variable { return nil }
func (s *Throw) Operands() []Value {
	if s.operand == nil {
		return nil
	}
	return []Value{s.operand}
}
func (s *Throw) String() string {
	if s.operand == nil {
		return "throw"
	}
	return "throw " + s.operand.String()
}
