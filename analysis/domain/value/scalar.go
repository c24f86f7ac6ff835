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

package value

import (
	"fmt"
	"math/big"

	"github.com/awslabs/ar-go-absint/analysis/ar"
	"github.com/awslabs/ar-go-absint/analysis/domain/numeric"
)

// OffsetType is the type of pointer offsets, in bytes
var OffsetType = ar.NewContext().IntegerType(ar.PointerBitWidth, ar.Signed)

// PointerValue is the abstract value of a pointer: the objects it may point to, its offset in bytes within those
// objects, and whether it may be null.
type PointerValue struct {
	PointsTo PointsToSet
	Offset   numeric.Value
	Nullity  Nullity
}

// TopPointer returns the pointer value that may point anywhere
func TopPointer(k numeric.Kind) PointerValue {
	return PointerValue{PointsTo: TopPointsTo(), Offset: k.Top(OffsetType), Nullity: NullityTop}
}

// NullPointer returns the value of the null pointer
func NullPointer(k numeric.Kind) PointerValue {
	return PointerValue{PointsTo: EmptyPointsTo(), Offset: k.Constant(new(big.Int)), Nullity: Null}
}

// AddressOf returns the address of the start of the object
func AddressOf(k numeric.Kind, obj ar.MemoryObject) PointerValue {
	return PointerValue{PointsTo: NewPointsTo(obj), Offset: k.Constant(new(big.Int)), Nullity: NonNull}
}

// IsBottom returns true if the pointer value is unreachable
func (p PointerValue) IsBottom() bool {
	return p.Nullity.IsBottom() || p.Offset.IsBottom()
}

// IsTop returns true if nothing is known about the pointer
func (p PointerValue) IsTop() bool {
	return p.PointsTo.IsTop() && numeric.IsTopFor(p.Offset, OffsetType) && p.Nullity.IsTop()
}

// Leq implements the component-wise order
func (p PointerValue) Leq(o PointerValue) bool {
	if p.IsBottom() {
		return true
	}
	return p.PointsTo.Leq(o.PointsTo) && p.Offset.Leq(o.Offset) && p.Nullity.Leq(o.Nullity)
}

// Join is the component-wise join
func (p PointerValue) Join(o PointerValue) PointerValue {
	if p.IsBottom() {
		return o
	}
	if o.IsBottom() {
		return p
	}
	return PointerValue{p.PointsTo.Join(o.PointsTo), p.Offset.Join(o.Offset), p.Nullity.Join(o.Nullity)}
}

// Widen is the component-wise widening. Points-to sets are finite for a function, they are joined.
func (p PointerValue) Widen(o PointerValue) PointerValue {
	if p.IsBottom() {
		return o
	}
	if o.IsBottom() {
		return p
	}
	return PointerValue{p.PointsTo.Join(o.PointsTo), p.Offset.Widen(o.Offset), p.Nullity.Widen(o.Nullity)}
}

// Meet is the component-wise meet
func (p PointerValue) Meet(o PointerValue) PointerValue {
	return PointerValue{p.PointsTo.Meet(o.PointsTo), p.Offset.Meet(o.Offset), p.Nullity.Meet(o.Nullity)}
}

// Narrow is the component-wise narrowing
func (p PointerValue) Narrow(o PointerValue) PointerValue {
	return PointerValue{p.PointsTo.Meet(o.PointsTo), p.Offset.Narrow(o.Offset), p.Nullity.Meet(o.Nullity)}
}

func (p PointerValue) String() string {
	return fmt.Sprintf("(%s, %s, %s)", p.PointsTo, p.Offset, p.Nullity)
}

// Cell is a memory location: a slice of Size bytes at Offset within an object
type Cell struct {
	Object ar.MemoryObject
	Offset int64
	Size   int64
}

// Overlaps returns true if the cells share at least one byte
func (c Cell) Overlaps(o Cell) bool {
	return c.Object == o.Object && c.Offset < o.Offset+o.Size && o.Offset < c.Offset+c.Size
}

func (c Cell) String() string {
	return fmt.Sprintf("C{%s, %d, %d}", c.Object.MemoryName(), c.Offset, c.Size)
}

// Scalar is the content of a variable or a memory cell: an integer, a pointer, or an opaque value. Only the
// component matching Type is meaningful.
type Scalar struct {
	Type   ar.Type
	Int    numeric.Value
	Ptr    PointerValue
	Uninit Uninitialized
}

// TopScalar returns the unknown value of type t
func TopScalar(k numeric.Kind, t ar.Type) Scalar {
	s := Scalar{Type: t, Uninit: UninitTop}
	switch t := t.(type) {
	case *ar.IntegerType:
		s.Int = k.Top(t)
	case *ar.PointerType:
		s.Ptr = TopPointer(k)
	}
	return s
}

// IsBottom returns true if the scalar is unreachable
func (s Scalar) IsBottom() bool {
	switch {
	case s.Uninit.IsBottom():
		return true
	case s.Int != nil:
		return s.Int.IsBottom()
	case ar.IsPointer(s.Type):
		return s.Ptr.IsBottom()
	default:
		return false
	}
}

func (s Scalar) compatible(o Scalar) bool {
	return s.Type == o.Type || (ar.IsPointer(s.Type) && ar.IsPointer(o.Type))
}

// Leq implements the component-wise order. Scalars of incompatible types are only ordered by the top value.
func (s Scalar) Leq(o Scalar) bool {
	if s.IsBottom() {
		return true
	}
	if !s.compatible(o) {
		return o.isTop()
	}
	if !s.Uninit.Leq(o.Uninit) {
		return false
	}
	if s.Int != nil && o.Int != nil && !s.Int.Leq(o.Int) {
		return false
	}
	return !ar.IsPointer(s.Type) || s.Ptr.Leq(o.Ptr)
}

func (s Scalar) isTop() bool {
	if !s.Uninit.IsTop() {
		return false
	}
	if it, ok := s.Type.(*ar.IntegerType); ok && s.Int != nil {
		return numeric.IsTopFor(s.Int, it)
	}
	return !ar.IsPointer(s.Type) || s.Ptr.IsTop()
}

func (s Scalar) combine(o Scalar, k numeric.Kind, ints func(a, b numeric.Value) numeric.Value,
	ptrs func(a, b PointerValue) PointerValue, uninit func(a, b Uninitialized) Uninitialized) Scalar {
	if !s.compatible(o) {
		return TopScalar(k, s.Type)
	}
	r := Scalar{Type: s.Type, Uninit: uninit(s.Uninit, o.Uninit)}
	if s.Int != nil && o.Int != nil {
		r.Int = ints(s.Int, o.Int)
	}
	if ar.IsPointer(s.Type) {
		r.Ptr = ptrs(s.Ptr, o.Ptr)
	}
	return r
}

// Join is the component-wise join
func (s Scalar) Join(o Scalar, k numeric.Kind) Scalar {
	if s.IsBottom() {
		return o
	}
	if o.IsBottom() {
		return s
	}
	return s.combine(o, k, numeric.Value.Join, PointerValue.Join, Uninitialized.Join)
}

// Widen is the component-wise widening
func (s Scalar) Widen(o Scalar, k numeric.Kind, threshold *big.Int) Scalar {
	if s.IsBottom() {
		return o
	}
	if o.IsBottom() {
		return s
	}
	return s.combine(o, k,
		func(a, b numeric.Value) numeric.Value { return a.WidenThreshold(b, threshold) },
		PointerValue.Widen, Uninitialized.Join)
}

// Meet is the component-wise meet. The meet of scalars of incompatible types is bottom unless one of them is top.
func (s Scalar) Meet(o Scalar, k numeric.Kind) Scalar {
	if !s.compatible(o) {
		switch {
		case o.isTop():
			return s
		case s.isTop():
			return o
		}
		return Scalar{Type: s.Type, Uninit: UninitBottom}
	}
	return s.combine(o, k, numeric.Value.Meet, PointerValue.Meet, Uninitialized.Meet)
}

// Narrow is the component-wise narrowing. Scalars of incompatible types are not narrowed.
func (s Scalar) Narrow(o Scalar, k numeric.Kind) Scalar {
	if !s.compatible(o) {
		return s
	}
	return s.combine(o, k, numeric.Value.Narrow, PointerValue.Narrow, Uninitialized.Meet)
}

func (s Scalar) String() string {
	switch {
	case s.Int != nil:
		return fmt.Sprintf("%s %s", s.Int, s.Uninit)
	case ar.IsPointer(s.Type):
		return fmt.Sprintf("%s %s", s.Ptr, s.Uninit)
	default:
		return s.Uninit.String()
	}
}
