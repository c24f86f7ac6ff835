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

// A Type is an AR type. Types are created and interned by a Context: two handles of the same Context are equal if
// and only if the types are structurally equal (except for struct types, which are nominal).
type Type interface {
	fmt.Stringer
	isType()
}

// Signedness of an integer type
type Signedness int

const (
	// Signed integers are represented in two's complement
	Signed Signedness = iota
	// Unsigned integers
	Unsigned
)

func (s Signedness) String() string {
	if s == Signed {
		return "si"
	}
	return "ui"
}

// IntegerType is a machine integer type of a given bit-width and signedness
type IntegerType struct {
	bitWidth uint
	sign     Signedness
}

func (*IntegerType) isType() {}

func (t *IntegerType) String() string { return fmt.Sprintf("%s%d", t.sign, t.bitWidth) }

// BitWidth returns the number of bits of the integer type
func (t *IntegerType) BitWidth() uint { return t.bitWidth }

// Signedness returns the signedness of the integer type
func (t *IntegerType) Signedness() Signedness { return t.sign }

// IsSigned returns true if the integer type is signed
func (t *IntegerType) IsSigned() bool { return t.sign == Signed }

// MinValue returns the smallest value representable by the type
func (t *IntegerType) MinValue() *big.Int {
	if t.sign == Unsigned {
		return new(big.Int)
	}
	return new(big.Int).Neg(new(big.Int).Lsh(big.NewInt(1), t.bitWidth-1))
}

// MaxValue returns the largest value representable by the type
func (t *IntegerType) MaxValue() *big.Int {
	one := big.NewInt(1)
	if t.sign == Unsigned {
		return new(big.Int).Sub(new(big.Int).Lsh(one, t.bitWidth), one)
	}
	return new(big.Int).Sub(new(big.Int).Lsh(one, t.bitWidth-1), one)
}

// FloatSemantic identifies a floating point format
type FloatSemantic int

const (
	Half FloatSemantic = iota
	Float
	Double
	X86FP80
	FP128
	PPCFP128
)

var floatSemanticNames = [...]string{"half", "float", "double", "x86_fp80", "fp128", "ppc_fp128"}

// FloatType is a floating point type. The analysis does not model floating point values.
type FloatType struct {
	bitWidth uint
	semantic FloatSemantic
}

func (*FloatType) isType() {}

func (t *FloatType) String() string { return floatSemanticNames[t.semantic] }

// BitWidth returns the size in bits of the floating point type
func (t *FloatType) BitWidth() uint { return t.bitWidth }

// PointerType is the type of pointers to a pointee type
type PointerType struct {
	pointee Type
}

func (*PointerType) isType() {}

func (t *PointerType) String() string { return t.pointee.String() + "*" }

// Pointee returns the pointed type
func (t *PointerType) Pointee() Type { return t.pointee }

// ArrayType is a fixed-size array type
type ArrayType struct {
	element Type
	length  int64
}

func (*ArrayType) isType() {}

func (t *ArrayType) String() string { return fmt.Sprintf("[%d x %s]", t.length, t.element) }

// Element returns the element type of the array
func (t *ArrayType) Element() Type { return t.element }

// Len returns the number of elements of the array
func (t *ArrayType) Len() int64 { return t.length }

// StructField is a field of a struct type, at a fixed byte offset
type StructField struct {
	Offset int64
	Type   Type
}

// StructType is a nominal aggregate type with explicit field offsets and size
type StructType struct {
	name   string
	fields []StructField
	size   int64
}

func (*StructType) isType() {}

func (t *StructType) String() string {
	if t.name != "" {
		return t.name
	}
	parts := make([]string, len(t.fields))
	for i, f := range t.fields {
		parts[i] = fmt.Sprintf("%d: %s", f.Offset, f.Type)
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// Fields returns the fields of the struct
func (t *StructType) Fields() []StructField { return t.fields }

// Size returns the store size of the struct in bytes
func (t *StructType) Size() int64 { return t.size }

// SetBody replaces the fields of the struct. Recursive types are built by creating the struct without fields first.
func (t *StructType) SetBody(fields []StructField) {
	t.fields = append([]StructField(nil), fields...)
}

// FunctionType is the type of a function
type FunctionType struct {
	ret     Type
	params  []Type
	varArgs bool
}

func (*FunctionType) isType() {}

func (t *FunctionType) String() string {
	parts := make([]string, 0, len(t.params)+1)
	for _, p := range t.params {
		parts = append(parts, p.String())
	}
	if t.varArgs {
		parts = append(parts, "...")
	}
	return fmt.Sprintf("%s (%s)", t.ret, strings.Join(parts, ", "))
}

// ReturnType returns the return type of the function type
func (t *FunctionType) ReturnType() Type { return t.ret }

// Params returns the parameter types
func (t *FunctionType) Params() []Type { return t.params }

// IsVarArgs returns true if the function accepts a variable number of arguments
func (t *FunctionType) IsVarArgs() bool { return t.varArgs }

// VoidType is the type of functions returning nothing
type VoidType struct{}

func (*VoidType) isType() {}

func (*VoidType) String() string { return "void" }

// OpaqueType is the type of values that the representation does not model (strings, interfaces, maps, ...).
// Variables of opaque type are always top.
type OpaqueType struct{}

func (*OpaqueType) isType() {}

func (*OpaqueType) String() string { return "opaque" }

// IsInteger returns true if t is an integer type
func IsInteger(t Type) bool {
	_, ok := t.(*IntegerType)
	return ok
}

// IsPointer returns true if t is a pointer type
func IsPointer(t Type) bool {
	_, ok := t.(*PointerType)
	return ok
}

// IsFloat returns true if t is a floating point type
func IsFloat(t Type) bool {
	_, ok := t.(*FloatType)
	return ok
}

// IsScalar returns true if t is an integer, float or pointer type
func IsScalar(t Type) bool {
	switch t.(type) {
	case *IntegerType, *FloatType, *PointerType:
		return true
	default:
		return false
	}
}

// IsVoid returns true if t is the void type
func IsVoid(t Type) bool {
	_, ok := t.(*VoidType)
	return ok
}
