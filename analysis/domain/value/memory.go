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
	"sort"
	"strings"

	"github.com/awslabs/ar-go-absint/analysis/ar"
	"github.com/awslabs/ar-go-absint/analysis/domain/numeric"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// MemoryDomain is the abstract state of one flow of execution: the values of the variables, the contents of the
// memory cells, the lifetime of the memory objects and the sizes of dynamically allocated objects.
//
// Missing entries are top. A bottom memory domain represents no reachable state.
type MemoryDomain struct {
	kind      numeric.Kind
	bottom    bool
	vars      map[ar.Variable]Scalar
	cells     map[Cell]Scalar
	lifetimes map[ar.MemoryObject]Lifetime
	sizes     map[ar.MemoryObject]numeric.Value
}

// TopMemory returns the memory domain where nothing is known
func TopMemory(k numeric.Kind) MemoryDomain {
	return MemoryDomain{
		kind:      k,
		vars:      map[ar.Variable]Scalar{},
		cells:     map[Cell]Scalar{},
		lifetimes: map[ar.MemoryObject]Lifetime{},
		sizes:     map[ar.MemoryObject]numeric.Value{},
	}
}

// BottomMemory returns the unreachable memory domain
func BottomMemory(k numeric.Kind) MemoryDomain {
	m := TopMemory(k)
	m.bottom = true
	return m
}

// Kind returns the numerical domain of the integers
func (m MemoryDomain) Kind() numeric.Kind { return m.kind }

// IsBottom returns true if the domain is unreachable
func (m MemoryDomain) IsBottom() bool { return m.bottom }

// IsTop returns true if nothing is known
func (m MemoryDomain) IsTop() bool {
	return !m.bottom && len(m.vars) == 0 && len(m.cells) == 0 && len(m.lifetimes) == 0 && len(m.sizes) == 0
}

// Clone returns a copy that can be modified independently
func (m MemoryDomain) Clone() MemoryDomain {
	return MemoryDomain{
		kind:      m.kind,
		bottom:    m.bottom,
		vars:      maps.Clone(m.vars),
		cells:     maps.Clone(m.cells),
		lifetimes: maps.Clone(m.lifetimes),
		sizes:     maps.Clone(m.sizes),
	}
}

// SetBottom makes the domain unreachable
func (m *MemoryDomain) SetBottom() {
	*m = BottomMemory(m.kind)
}

// SetTop forgets everything
func (m *MemoryDomain) SetTop() {
	*m = TopMemory(m.kind)
}

func (m MemoryDomain) topScalar(_ ar.Variable, s Scalar) Scalar { return TopScalar(m.kind, s.Type) }
func (m MemoryDomain) topCell(_ Cell, s Scalar) Scalar          { return TopScalar(m.kind, s.Type) }
func (m MemoryDomain) topLifetime(ar.MemoryObject, Lifetime) Lifetime { return LifetimeTop }
func (m MemoryDomain) topSize(_ ar.MemoryObject, v numeric.Value) numeric.Value {
	return m.kind.Top(OffsetType)
}

// Leq returns true if m is included in o
func (m MemoryDomain) Leq(o MemoryDomain) bool {
	switch {
	case m.bottom:
		return true
	case o.bottom:
		return false
	}
	return leqEnv(m.vars, o.vars, m.topScalar, Scalar.Leq) &&
		leqEnv(m.cells, o.cells, m.topCell, Scalar.Leq) &&
		leqEnv(m.lifetimes, o.lifetimes, m.topLifetime, Lifetime.Leq) &&
		leqEnv(m.sizes, o.sizes, m.topSize, numeric.Value.Leq)
}

// Equals returns true if the domains represent the same states
func (m MemoryDomain) Equals(o MemoryDomain) bool { return m.Leq(o) && o.Leq(m) }

// Join returns the union of the states
func (m MemoryDomain) Join(o MemoryDomain) MemoryDomain {
	switch {
	case m.bottom:
		return o.Clone()
	case o.bottom:
		return m.Clone()
	}
	k := m.kind
	return MemoryDomain{
		kind:      k,
		vars:      joinEnv(m.vars, o.vars, func(a, b Scalar) Scalar { return a.Join(b, k) }),
		cells:     joinEnv(m.cells, o.cells, func(a, b Scalar) Scalar { return a.Join(b, k) }),
		lifetimes: joinEnv(m.lifetimes, o.lifetimes, Lifetime.Join),
		sizes:     joinEnv(m.sizes, o.sizes, numeric.Value.Join),
	}
}

// Widen returns the widening of m by o
func (m MemoryDomain) Widen(o MemoryDomain) MemoryDomain {
	return m.WidenThreshold(o, nil)
}

// WidenThreshold returns the widening of m by o, where the integers growing past their bound stop at the threshold
// when it is an upper bound of their new value.
func (m MemoryDomain) WidenThreshold(o MemoryDomain, threshold *big.Int) MemoryDomain {
	switch {
	case m.bottom:
		return o.Clone()
	case o.bottom:
		return m.Clone()
	}
	k := m.kind
	widen := func(a, b Scalar) Scalar { return a.Widen(b, k, threshold) }
	return MemoryDomain{
		kind:      k,
		vars:      joinEnv(m.vars, o.vars, widen),
		cells:     joinEnv(m.cells, o.cells, widen),
		lifetimes: joinEnv(m.lifetimes, o.lifetimes, Lifetime.Join),
		sizes:     joinEnv(m.sizes, o.sizes, numeric.Value.Widen),
	}
}

// Meet returns the intersection of the states
func (m MemoryDomain) Meet(o MemoryDomain) MemoryDomain {
	if m.bottom || o.bottom {
		return BottomMemory(m.kind)
	}
	k := m.kind
	r := MemoryDomain{
		kind:      k,
		vars:      meetEnv(m.vars, o.vars, func(a, b Scalar) Scalar { return a.Meet(b, k) }),
		cells:     meetEnv(m.cells, o.cells, func(a, b Scalar) Scalar { return a.Meet(b, k) }),
		lifetimes: meetEnv(m.lifetimes, o.lifetimes, Lifetime.Meet),
		sizes:     meetEnv(m.sizes, o.sizes, numeric.Value.Meet),
	}
	r.normalize()
	return r
}

// Narrow returns the narrowing of m by o
func (m MemoryDomain) Narrow(o MemoryDomain) MemoryDomain {
	if m.bottom || o.bottom {
		return BottomMemory(m.kind)
	}
	k := m.kind
	r := MemoryDomain{
		kind:      k,
		vars:      meetEnv(m.vars, o.vars, func(a, b Scalar) Scalar { return a.Narrow(b, k) }),
		cells:     meetEnv(m.cells, o.cells, func(a, b Scalar) Scalar { return a.Narrow(b, k) }),
		lifetimes: meetEnv(m.lifetimes, o.lifetimes, Lifetime.Meet),
		sizes:     meetEnv(m.sizes, o.sizes, numeric.Value.Narrow),
	}
	r.normalize()
	return r
}

// normalize makes the domain bottom if one of its entries is bottom
func (m *MemoryDomain) normalize() {
	for _, s := range m.vars {
		if s.IsBottom() {
			m.SetBottom()
			return
		}
	}
	for _, l := range m.lifetimes {
		if l.IsBottom() {
			m.SetBottom()
			return
		}
	}
}

// Scalar returns the value of a variable
func (m MemoryDomain) Scalar(v ar.Variable) Scalar {
	if m.bottom {
		s := TopScalar(m.kind, v.Type())
		s.Uninit = UninitBottom
		return s
	}
	if s, ok := m.vars[v]; ok {
		return s
	}
	return TopScalar(m.kind, v.Type())
}

// SetScalar sets the value of a variable. Setting a bottom value makes the domain bottom.
func (m *MemoryDomain) SetScalar(v ar.Variable, s Scalar) {
	if m.bottom {
		return
	}
	if s.IsBottom() {
		m.SetBottom()
		return
	}
	m.vars[v] = s
}

// Int returns the integer value of a variable of integer type
func (m MemoryDomain) Int(v ar.Variable) numeric.Value {
	if m.bottom {
		return m.kind.Bottom()
	}
	s := m.Scalar(v)
	if s.Int == nil {
		if it, ok := v.Type().(*ar.IntegerType); ok {
			return m.kind.Top(it)
		}
		return m.kind.Top(OffsetType)
	}
	return s.Int
}

// SetInt sets the value of an initialized integer variable
func (m *MemoryDomain) SetInt(v ar.Variable, val numeric.Value) {
	m.SetScalar(v, Scalar{Type: v.Type(), Int: val, Uninit: Initialized})
}

// Pointer returns the value of a pointer variable
func (m MemoryDomain) Pointer(v ar.Variable) PointerValue {
	s := m.Scalar(v)
	if !ar.IsPointer(s.Type) || s.Ptr.Offset == nil {
		return TopPointer(m.kind)
	}
	return s.Ptr
}

// SetPointer sets the value of an initialized pointer variable
func (m *MemoryDomain) SetPointer(v ar.Variable, p PointerValue) {
	m.SetScalar(v, Scalar{Type: v.Type(), Ptr: p, Uninit: Initialized})
}

// Forget removes all the information about a variable
func (m *MemoryDomain) Forget(v ar.Variable) {
	delete(m.vars, v)
}

// Variables returns the variables with a known value
func (m MemoryDomain) Variables() []ar.Variable {
	vars := maps.Keys(m.vars)
	slices.SortFunc(vars, func(a, b ar.Variable) bool { return a.String() < b.String() })
	return vars
}

// Cell returns the content of a cell, and false if it is unknown
func (m MemoryDomain) Cell(c Cell) (Scalar, bool) {
	s, ok := m.cells[c]
	return s, ok
}

// WriteCell writes s in the cell. A strong write replaces the content, a weak write joins it with the previous
// content. Overlapping cells are forgotten.
func (m *MemoryDomain) WriteCell(c Cell, s Scalar, strong bool) {
	if m.bottom {
		return
	}
	old, hadOld := m.cells[c]
	for other := range m.cells {
		if other.Overlaps(c) {
			delete(m.cells, other)
		}
	}
	switch {
	case strong:
		m.cells[c] = s
	case hadOld:
		m.cells[c] = old.Join(s, m.kind)
	}
}

// CellsOf returns the known cells of an object, sorted by offset
func (m MemoryDomain) CellsOf(obj ar.MemoryObject) []Cell {
	var cells []Cell
	for c := range m.cells {
		if c.Object == obj {
			cells = append(cells, c)
		}
	}
	sort.Slice(cells, func(i, j int) bool {
		if cells[i].Offset != cells[j].Offset {
			return cells[i].Offset < cells[j].Offset
		}
		return cells[i].Size < cells[j].Size
	})
	return cells
}

// ForgetCells forgets the content of an object
func (m *MemoryDomain) ForgetCells(obj ar.MemoryObject) {
	for c := range m.cells {
		if c.Object == obj {
			delete(m.cells, c)
		}
	}
}

// ForgetAllCells forgets the content of the memory
func (m *MemoryDomain) ForgetAllCells() {
	m.cells = map[Cell]Scalar{}
}

// Lifetime returns the lifetime of an object
func (m MemoryDomain) Lifetime(obj ar.MemoryObject) Lifetime {
	if m.bottom {
		return LifetimeBottom
	}
	if l, ok := m.lifetimes[obj]; ok {
		return l
	}
	return LifetimeTop
}

// SetLifetime sets the lifetime of an object
func (m *MemoryDomain) SetLifetime(obj ar.MemoryObject, l Lifetime) {
	if m.bottom {
		return
	}
	if l.IsBottom() {
		m.SetBottom()
		return
	}
	m.lifetimes[obj] = l
}

// AllocSize returns the size in bytes of a dynamically allocated object, if known
func (m MemoryDomain) AllocSize(obj ar.MemoryObject) (numeric.Value, bool) {
	v, ok := m.sizes[obj]
	return v, ok
}

// SetAllocSize sets the size in bytes of a dynamically allocated object
func (m *MemoryDomain) SetAllocSize(obj ar.MemoryObject, size numeric.Value) {
	if m.bottom {
		return
	}
	m.sizes[obj] = size
}

func (m MemoryDomain) String() string {
	if m.bottom {
		return "⊥"
	}
	var parts []string
	for _, v := range m.Variables() {
		parts = append(parts, fmt.Sprintf("%s -> %s", v, m.vars[v]))
	}
	cells := maps.Keys(m.cells)
	sort.Slice(cells, func(i, j int) bool { return cells[i].String() < cells[j].String() })
	for _, c := range cells {
		parts = append(parts, fmt.Sprintf("%s -> %s", c, m.cells[c]))
	}
	objs := maps.Keys(m.lifetimes)
	sort.Slice(objs, func(i, j int) bool { return objs[i].MemoryName() < objs[j].MemoryName() })
	for _, o := range objs {
		parts = append(parts, fmt.Sprintf("%s: %s", o.MemoryName(), m.lifetimes[o]))
	}
	return "{" + strings.Join(parts, "; ") + "}"
}
