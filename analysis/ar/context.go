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
	"sync"
)

type integerTypeKey struct {
	bits uint
	sign Signedness
}

type arrayTypeKey struct {
	elem Type
	n    int64
}

type integerConstantKey struct {
	typ   *IntegerType
	value string
}

type floatConstantKey struct {
	typ   *FloatType
	value string
}

// Context owns the interning tables of types and constants. Handles returned by a Context are valid for its
// lifetime, and two handles returned by the same Context are equal if and only if the values are structurally
// equal. A Context is safe for concurrent use.
type Context struct {
	mu sync.Mutex

	integerTypes  map[integerTypeKey]*IntegerType
	floatTypes    map[FloatSemantic]*FloatType
	pointerTypes  map[Type]*PointerType
	arrayTypes    map[arrayTypeKey]*ArrayType
	functionTypes map[string]*FunctionType
	structTypes   []*StructType
	voidType      *VoidType
	opaqueType    *OpaqueType

	integerConstants   map[integerConstantKey]*IntegerConstant
	floatConstants     map[floatConstantKey]*FloatConstant
	nullConstants      map[*PointerType]*NullConstant
	undefinedConstants map[Type]*UndefinedConstant
	functionPointers   map[*Function]*FunctionPointerConstant
}

// NewContext returns an empty context
func NewContext() *Context {
	return &Context{
		integerTypes:       map[integerTypeKey]*IntegerType{},
		floatTypes:         map[FloatSemantic]*FloatType{},
		pointerTypes:       map[Type]*PointerType{},
		arrayTypes:         map[arrayTypeKey]*ArrayType{},
		functionTypes:      map[string]*FunctionType{},
		voidType:           &VoidType{},
		opaqueType:         &OpaqueType{},
		integerConstants:   map[integerConstantKey]*IntegerConstant{},
		floatConstants:     map[floatConstantKey]*FloatConstant{},
		nullConstants:      map[*PointerType]*NullConstant{},
		undefinedConstants: map[Type]*UndefinedConstant{},
		functionPointers:   map[*Function]*FunctionPointerConstant{},
	}
}

// IntegerType returns the integer type with the given bit-width and signedness. It panics if bits is zero.
func (c *Context) IntegerType(bits uint, sign Signedness) *IntegerType {
	if bits == 0 {
		panic("ar: integer type with zero bits")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	key := integerTypeKey{bits, sign}
	if t, ok := c.integerTypes[key]; ok {
		return t
	}
	t := &IntegerType{bitWidth: bits, sign: sign}
	c.integerTypes[key] = t
	return t
}

// BoolType returns the unsigned 1-bit integer type
func (c *Context) BoolType() *IntegerType { return c.IntegerType(1, Unsigned) }

// SizeType returns the unsigned integer type of the size of pointers
func (c *Context) SizeType() *IntegerType { return c.IntegerType(PointerBitWidth, Unsigned) }

var floatBitWidths = [...]uint{16, 32, 64, 80, 128, 128}

// FloatType returns the floating point type of the given semantic
func (c *Context) FloatType(sem FloatSemantic) *FloatType {
	c.mu.Lock()
	defer c.mu.Unlock()
	if t, ok := c.floatTypes[sem]; ok {
		return t
	}
	t := &FloatType{bitWidth: floatBitWidths[sem], semantic: sem}
	c.floatTypes[sem] = t
	return t
}

// PointerType returns the type of pointers to pointee
func (c *Context) PointerType(pointee Type) *PointerType {
	c.mu.Lock()
	defer c.mu.Unlock()
	if t, ok := c.pointerTypes[pointee]; ok {
		return t
	}
	t := &PointerType{pointee: pointee}
	c.pointerTypes[pointee] = t
	return t
}

// ArrayType returns the type of arrays of n elements of type elem
func (c *Context) ArrayType(elem Type, n int64) *ArrayType {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := arrayTypeKey{elem, n}
	if t, ok := c.arrayTypes[key]; ok {
		return t
	}
	t := &ArrayType{element: elem, length: n}
	c.arrayTypes[key] = t
	return t
}

// FunctionType returns the function type with the given return and parameter types. Since types are interned, the
// key is built from the identity of the component handles.
func (c *Context) FunctionType(ret Type, params []Type, varArgs bool) *FunctionType {
	var b strings.Builder
	fmt.Fprintf(&b, "%p(", ret)
	for _, p := range params {
		fmt.Fprintf(&b, "%p,", p)
	}
	fmt.Fprintf(&b, ")%t", varArgs)
	key := b.String()

	c.mu.Lock()
	defer c.mu.Unlock()
	if t, ok := c.functionTypes[key]; ok {
		return t
	}
	t := &FunctionType{ret: ret, params: append([]Type(nil), params...), varArgs: varArgs}
	c.functionTypes[key] = t
	return t
}

// StructType registers a new struct type. Struct types are nominal: each call returns a distinct type.
func (c *Context) StructType(name string, fields []StructField, size int64) *StructType {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &StructType{name: name, fields: append([]StructField(nil), fields...), size: size}
	c.structTypes = append(c.structTypes, t)
	return t
}

// VoidType returns the void type
func (c *Context) VoidType() *VoidType { return c.voidType }

// OpaqueType returns the opaque type
func (c *Context) OpaqueType() *OpaqueType { return c.opaqueType }

// IntegerConstant returns the integer constant of type t and value v. The value must be representable by t.
func (c *Context) IntegerConstant(t *IntegerType, v *big.Int) *IntegerConstant {
	if v.Cmp(t.MinValue()) < 0 || v.Cmp(t.MaxValue()) > 0 {
		panic(fmt.Sprintf("ar: constant %s out of range of %s", v, t))
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	key := integerConstantKey{t, v.String()}
	if k, ok := c.integerConstants[key]; ok {
		return k
	}
	k := &IntegerConstant{typ: t, value: new(big.Int).Set(v)}
	c.integerConstants[key] = k
	return k
}

// Int64Constant is a shorthand for IntegerConstant with a small value
func (c *Context) Int64Constant(t *IntegerType, v int64) *IntegerConstant {
	return c.IntegerConstant(t, big.NewInt(v))
}

// FloatConstant returns the float constant of type t with textual value v
func (c *Context) FloatConstant(t *FloatType, v string) *FloatConstant {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := floatConstantKey{t, v}
	if k, ok := c.floatConstants[key]; ok {
		return k
	}
	k := &FloatConstant{typ: t, value: v}
	c.floatConstants[key] = k
	return k
}

// NullConstant returns the null pointer of type t
func (c *Context) NullConstant(t *PointerType) *NullConstant {
	c.mu.Lock()
	defer c.mu.Unlock()
	if k, ok := c.nullConstants[t]; ok {
		return k
	}
	k := &NullConstant{typ: t}
	c.nullConstants[t] = k
	return k
}

// UndefinedConstant returns the undefined value of type t
func (c *Context) UndefinedConstant(t Type) *UndefinedConstant {
	c.mu.Lock()
	defer c.mu.Unlock()
	if k, ok := c.undefinedConstants[t]; ok {
		return k
	}
	k := &UndefinedConstant{typ: t}
	c.undefinedConstants[t] = k
	return k
}

// FunctionPointerConstant returns the address of fn
func (c *Context) FunctionPointerConstant(fn *Function) *FunctionPointerConstant {
	ptrType := c.PointerType(fn.typ)
	c.mu.Lock()
	defer c.mu.Unlock()
	if k, ok := c.functionPointers[fn]; ok {
		return k
	}
	k := &FunctionPointerConstant{typ: ptrType, fn: fn}
	c.functionPointers[fn] = k
	return k
}
