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
	"github.com/awslabs/ar-go-absint/analysis/ar"
	"github.com/awslabs/ar-go-absint/analysis/domain/numeric"
	"github.com/awslabs/ar-go-absint/analysis/domain/value"
	"github.com/awslabs/ar-go-absint/analysis/pointer"
)

// Evaluator computes the abstract values of operands in a memory domain. Checkers use it to read the invariants
// the same way the engine does.
type Evaluator struct {
	// Kind is the numerical domain of the machine integers
	Kind numeric.Kind

	// Precision is the level of detail of the analysis
	Precision Precision

	// Pointers are the results of the points-to pre-analysis. It may be nil.
	Pointers *pointer.Results

	// Layout gives the sizes of the types
	Layout ar.DataLayout
}

// Int returns the value of an integer operand
func (ev Evaluator) Int(m value.MemoryDomain, v ar.Value) numeric.Value {
	switch v := v.(type) {
	case *ar.IntegerConstant:
		if m.IsBottom() {
			return ev.Kind.Bottom()
		}
		return ev.Kind.Constant(v.Value())
	case *ar.InternalVariable:
		return m.Int(v)
	}
	if m.IsBottom() {
		return ev.Kind.Bottom()
	}
	if t, ok := v.Type().(*ar.IntegerType); ok {
		return ev.Kind.Top(t)
	}
	return ev.Kind.Top(value.OffsetType)
}

// Pointer returns the value of a pointer operand. When the points-to set of a register is unknown, the result of
// the points-to pre-analysis is used.
func (ev Evaluator) Pointer(m value.MemoryDomain, v ar.Value) value.PointerValue {
	switch v := v.(type) {
	case *ar.NullConstant:
		return value.NullPointer(ev.Kind)
	case *ar.LocalVariable:
		return value.AddressOf(ev.Kind, v)
	case *ar.GlobalVariable:
		return value.AddressOf(ev.Kind, v)
	case *ar.FunctionPointerConstant:
		return value.AddressOf(ev.Kind, v.Function())
	case *ar.InternalVariable:
		p := value.TopPointer(ev.Kind)
		if ev.Precision >= Pointer {
			p = m.Pointer(v)
		}
		if p.PointsTo.IsTop() {
			p.PointsTo = ev.Pointers.PointsTo(v)
		}
		return p
	default:
		return value.TopPointer(ev.Kind)
	}
}

// Scalar returns the value of an operand, with its initialization state
func (ev Evaluator) Scalar(m value.MemoryDomain, v ar.Value) value.Scalar {
	t := v.Type()
	s := value.Scalar{Type: t, Uninit: value.Initialized}
	if _, ok := v.(*ar.UndefinedConstant); ok {
		s = value.TopScalar(ev.Kind, t)
		s.Uninit = value.Uninit
		return s
	}
	if iv, ok := v.(*ar.InternalVariable); ok {
		s.Uninit = m.Scalar(iv).Uninit
	}
	switch t.(type) {
	case *ar.IntegerType:
		s.Int = ev.Int(m, v)
	case *ar.PointerType:
		s.Ptr = ev.Pointer(m, v)
	}
	return s
}

// ObjectSize returns the size in bytes of a memory object, if known. Dynamic allocations use the size recorded in
// the memory domain, other objects the size of their type.
func (ev Evaluator) ObjectSize(m value.MemoryDomain, obj ar.MemoryObject) (numeric.Value, bool) {
	if size, ok := m.AllocSize(obj); ok {
		return size, true
	}
	t := obj.AllocatedType()
	if t == nil {
		return nil, false
	}
	if _, ok := t.(*ar.FunctionType); ok {
		return nil, false
	}
	n, ok := ev.Layout.SizeOf(t)
	if !ok {
		return nil, false
	}
	return ev.Kind.Constant(bigInt(n)), true
}
