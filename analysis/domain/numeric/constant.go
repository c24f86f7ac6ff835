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

package numeric

import (
	"math/big"

	"github.com/awslabs/ar-go-absint/analysis/ar"
)

// Constant is the flat lattice of integer constants: bottom, a single value, or top
type Constant struct {
	v      *big.Int
	bottom bool
}

// NewConstant returns the constant n
func NewConstant(n *big.Int) Constant { return Constant{v: n} }

// TopConstant returns the unknown constant
func TopConstant() Constant { return Constant{} }

// BottomConstant returns the empty constant
func BottomConstant() Constant { return Constant{bottom: true} }

func asConstant(v Value) Constant {
	if c, ok := v.(Constant); ok {
		return c
	}
	return TopConstant().meetInterval(v.Interval())
}

// Kind implements Value
func (c Constant) Kind() Kind { return ConstantKind }

// IsBottom implements Value
func (c Constant) IsBottom() bool { return c.bottom }

// IsTop implements Value
func (c Constant) IsTop() bool { return !c.bottom && c.v == nil }

func (c Constant) String() string {
	switch {
	case c.bottom:
		return "⊥"
	case c.v == nil:
		return "T"
	default:
		return c.v.String()
	}
}

// Interval implements Value
func (c Constant) Interval() Interval {
	switch {
	case c.bottom:
		return BottomInterval()
	case c.v == nil:
		return TopInterval()
	default:
		return SingletonInterval(c.v)
	}
}

// Leq implements Value
func (c Constant) Leq(other Value) bool {
	o := asConstant(other)
	switch {
	case c.bottom || o.IsTop():
		return true
	case o.bottom || c.v == nil:
		return false
	default:
		return c.v.Cmp(o.v) == 0
	}
}

// Equals implements Value
func (c Constant) Equals(other Value) bool { return c.Leq(other) && other.Leq(c) }

// Join implements Value
func (c Constant) Join(other Value) Value {
	o := asConstant(other)
	switch {
	case c.bottom:
		return o
	case o.bottom:
		return c
	case c.v != nil && o.v != nil && c.v.Cmp(o.v) == 0:
		return c
	default:
		return TopConstant()
	}
}

// Meet implements Value
func (c Constant) Meet(other Value) Value {
	o := asConstant(other)
	switch {
	case c.bottom || o.bottom:
		return BottomConstant()
	case c.v == nil:
		return o
	case o.v == nil || c.v.Cmp(o.v) == 0:
		return c
	default:
		return BottomConstant()
	}
}

// Widen implements Value. The lattice has height 2.
func (c Constant) Widen(other Value) Value { return c.Join(other) }

// WidenThreshold implements Value
func (c Constant) WidenThreshold(other Value, _ *big.Int) Value { return c.Join(other) }

// Narrow implements Value
func (c Constant) Narrow(other Value) Value { return c.Meet(other) }

// MeetInterval implements Value
func (c Constant) MeetInterval(itv Interval) Value { return c.meetInterval(itv) }

func (c Constant) meetInterval(itv Interval) Constant {
	switch {
	case c.bottom || itv.bottom:
		return BottomConstant()
	case c.v != nil:
		if itv.ContainsInt(c.v) {
			return c
		}
		return BottomConstant()
	}
	if n, ok := itv.Singleton(); ok {
		return NewConstant(n)
	}
	return c
}

// Neg implements Value
func (c Constant) Neg(t *ar.IntegerType) Value {
	if c.bottom || c.v == nil {
		return c
	}
	return NewConstant(wrapInt(new(big.Int).Neg(c.v), t))
}

// Wrap implements Value
func (c Constant) Wrap(t *ar.IntegerType) Value {
	if c.bottom || c.v == nil {
		return c
	}
	return NewConstant(wrapInt(c.v, t))
}

// Apply implements Value
func (c Constant) Apply(op ar.BinaryOp, other Value, t *ar.IntegerType) Value {
	o := asConstant(other)
	if c.bottom || o.bottom {
		return BottomConstant()
	}
	r := c.Interval().Apply(op, o.Interval(), t).Interval()
	return TopConstant().meetInterval(r)
}
