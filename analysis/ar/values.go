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
	"sync"
)

// A Value is an operand of a statement: a variable or a constant.
type Value interface {
	fmt.Stringer
	// Type returns the type of the value
	Type() Type
	isValue()
}

// A Variable is a named value. InternalVariable are registers, LocalVariable and GlobalVariable are the addresses of
// memory objects.
type Variable interface {
	Value
	Name() string
	isVariable()
}

// A MemoryObject is something an abstract pointer can point to.
type MemoryObject interface {
	// MemoryName returns a readable name for the object
	MemoryName() string
	// IsSummary returns true if the object stands for an unbounded number of concrete objects. Strong updates are
	// unsound on summary objects.
	IsSummary() bool
	// AllocatedType returns the type of the object, or nil if it is only known dynamically.
	AllocatedType() Type
	isMemoryObject()
}

// InternalVariable is a register of a function body. It is never addressable.
type InternalVariable struct {
	id   int
	name string
	typ  Type
}

func (*InternalVariable) isValue()    {}
func (*InternalVariable) isVariable() {}

// ID returns the index of the variable in its function body
func (v *InternalVariable) ID() int { return v.id }

// Name returns the name of the variable
func (v *InternalVariable) Name() string { return v.name }

// Type returns the type of the variable
func (v *InternalVariable) Type() Type { return v.typ }

func (v *InternalVariable) String() string { return "%" + v.name }

// LocalVariable is a stack-allocated object of a function. As an operand, it denotes the address of the object.
type LocalVariable struct {
	id        int
	name      string
	typ       *PointerType
	allocated Type
}

func (*LocalVariable) isValue()        {}
func (*LocalVariable) isVariable()     {}
func (*LocalVariable) isMemoryObject() {}

// ID returns the index of the local variable in its function body
func (v *LocalVariable) ID() int { return v.id }

// Name returns the name of the local variable
func (v *LocalVariable) Name() string { return v.name }

// Type returns the type of the address of the local variable
func (v *LocalVariable) Type() Type { return v.typ }

// AllocatedType returns the type of the stack object
func (v *LocalVariable) AllocatedType() Type { return v.allocated }

// MemoryName implements MemoryObject
func (v *LocalVariable) MemoryName() string { return "&" + v.name }

// IsSummary implements MemoryObject. A stack slot is reused across loop iterations.
func (v *LocalVariable) IsSummary() bool { return false }

func (v *LocalVariable) String() string { return "$" + v.name }

// GlobalVariable is a global object of a bundle. As an operand, it denotes the address of the object.
type GlobalVariable struct {
	name      string
	typ       *PointerType
	allocated Type
}

func (*GlobalVariable) isValue()        {}
func (*GlobalVariable) isVariable()     {}
func (*GlobalVariable) isMemoryObject() {}

// Name returns the name of the global
func (g *GlobalVariable) Name() string { return g.name }

// Type returns the type of the address of the global
func (g *GlobalVariable) Type() Type { return g.typ }

// AllocatedType returns the type of the global object
func (g *GlobalVariable) AllocatedType() Type { return g.allocated }

// MemoryName implements MemoryObject
func (g *GlobalVariable) MemoryName() string { return "@" + g.name }

// IsSummary implements MemoryObject
func (g *GlobalVariable) IsSummary() bool { return false }

func (g *GlobalVariable) String() string { return "@" + g.name }

// HeapAllocation is the memory object allocated by a call to a heap allocation intrinsic. It is a summary of all the
// objects allocated at that site.
type HeapAllocation struct {
	site *Call
}

func (*HeapAllocation) isMemoryObject() {}

// Site returns the allocating call
func (h *HeapAllocation) Site() *Call { return h.site }

// MemoryName implements MemoryObject
func (h *HeapAllocation) MemoryName() string {
	if h.site.result != nil {
		return "heap(" + h.site.result.name + ")"
	}
	return "heap"
}

// IsSummary implements MemoryObject
func (h *HeapAllocation) IsSummary() bool { return true }

// AllocatedType implements MemoryObject. The size of a heap object is only known dynamically.
func (h *HeapAllocation) AllocatedType() Type { return nil }

// A Constant is an immutable value interned by the Context
type Constant interface {
	Value
	isConstant()
}

// IntegerConstant is a machine integer constant
type IntegerConstant struct {
	typ   *IntegerType
	value *big.Int
}

func (*IntegerConstant) isValue()    {}
func (*IntegerConstant) isConstant() {}

// Type returns the integer type of the constant
func (c *IntegerConstant) Type() Type { return c.typ }

// IntegerType returns the integer type of the constant
func (c *IntegerConstant) IntegerType() *IntegerType { return c.typ }

// Value returns a copy of the value of the constant
func (c *IntegerConstant) Value() *big.Int { return new(big.Int).Set(c.value) }

func (c *IntegerConstant) String() string { return c.value.String() }

// FloatConstant is a floating point constant, kept in its textual form
type FloatConstant struct {
	typ   *FloatType
	value string
}

func (*FloatConstant) isValue()    {}
func (*FloatConstant) isConstant() {}

// Type returns the float type
func (c *FloatConstant) Type() Type { return c.typ }

func (c *FloatConstant) String() string { return c.value }

// NullConstant is the null pointer of a pointer type
type NullConstant struct {
	typ *PointerType
}

func (*NullConstant) isValue()    {}
func (*NullConstant) isConstant() {}

// Type returns the pointer type
func (c *NullConstant) Type() Type { return c.typ }

func (c *NullConstant) String() string { return "null" }

// UndefinedConstant is an unspecified value. Reading it is an uninitialized read.
type UndefinedConstant struct {
	typ Type
}

func (*UndefinedConstant) isValue()    {}
func (*UndefinedConstant) isConstant() {}

// Type returns the type of the undefined value
func (c *UndefinedConstant) Type() Type { return c.typ }

func (c *UndefinedConstant) String() string { return "undef" }

// FunctionPointerConstant is the address of a function
type FunctionPointerConstant struct {
	typ *PointerType
	fn  *Function
}

func (*FunctionPointerConstant) isValue()    {}
func (*FunctionPointerConstant) isConstant() {}

// Type returns the pointer-to-function type
func (c *FunctionPointerConstant) Type() Type { return c.typ }

// Function returns the pointed function
func (c *FunctionPointerConstant) Function() *Function { return c.fn }

func (c *FunctionPointerConstant) String() string { return "@" + c.fn.name }

// heapSites memoizes the memory object of each allocation site. Allocation sites are created lazily, the first
// time the analysis sees a call to the allocation intrinsic.
var heapSites sync.Map

// HeapSite returns the memory object allocated by the call
func (c *Call) HeapSite() *HeapAllocation {
	if h, ok := heapSites.Load(c); ok {
		return h.(*HeapAllocation)
	}
	h, _ := heapSites.LoadOrStore(c, &HeapAllocation{site: c})
	return h.(*HeapAllocation)
}
