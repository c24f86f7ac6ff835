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

// IntervalCongruence is the reduced product of an interval and a congruence
type IntervalCongruence struct {
	itv  Interval
	cong Congruence
}

// NewIntervalCongruence returns the reduced product of itv and cong
func NewIntervalCongruence(itv Interval, cong Congruence) IntervalCongruence {
	return IntervalCongruence{itv: itv, cong: cong}.reduce()
}

func asIntervalCongruence(v Value) IntervalCongruence {
	switch v := v.(type) {
	case IntervalCongruence:
		return v
	case Congruence:
		return IntervalCongruence{itv: v.Interval(), cong: v}.reduce()
	default:
		return IntervalCongruence{itv: v.Interval(), cong: TopCongruence()}.reduce()
	}
}

// reduce tightens the bounds of the interval to the closest elements of the congruence
func (ic IntervalCongruence) reduce() IntervalCongruence {
	if ic.itv.bottom || ic.cong.bottom {
		return IntervalCongruence{itv: BottomInterval(), cong: BottomCongruence()}
	}
	if ic.cong.isConstant() {
		itv := ic.itv.Meet(SingletonInterval(ic.cong.b)).(Interval)
		if itv.bottom {
			return IntervalCongruence{itv: itv, cong: BottomCongruence()}
		}
		return IntervalCongruence{itv: itv, cong: ic.cong}
	}
	a, b := ic.cong.a, ic.cong.b
	lo, hi := ic.itv.lo, ic.itv.hi
	if lo != nil {
		// smallest x >= lo with x = b mod a
		d := new(big.Int).Mod(new(big.Int).Sub(b, lo), a)
		lo = new(big.Int).Add(lo, d)
	}
	if hi != nil {
		// largest x <= hi with x = b mod a
		d := new(big.Int).Mod(new(big.Int).Sub(hi, b), a)
		hi = new(big.Int).Sub(hi, d)
	}
	itv := NewInterval(lo, hi)
	if itv.bottom {
		return IntervalCongruence{itv: itv, cong: BottomCongruence()}
	}
	if n, ok := itv.Singleton(); ok {
		return IntervalCongruence{itv: itv, cong: ConstantCongruence(n)}
	}
	return IntervalCongruence{itv: itv, cong: ic.cong}
}

// Congruence returns the congruence component
func (ic IntervalCongruence) Congruence() Congruence { return ic.cong }

// Kind implements Value
func (ic IntervalCongruence) Kind() Kind { return IntervalCongruenceKind }

// IsBottom implements Value
func (ic IntervalCongruence) IsBottom() bool { return ic.itv.bottom || ic.cong.bottom }

// IsTop implements Value
func (ic IntervalCongruence) IsTop() bool { return ic.itv.IsTop() && ic.cong.IsTop() }

// Interval implements Value
func (ic IntervalCongruence) Interval() Interval { return ic.itv }

func (ic IntervalCongruence) String() string {
	if ic.IsBottom() {
		return "⊥"
	}
	if ic.cong.IsTop() || ic.cong.isConstant() {
		return ic.itv.String()
	}
	return ic.itv.String() + " ∧ " + ic.cong.String()
}

// Leq implements Value
func (ic IntervalCongruence) Leq(other Value) bool {
	o := asIntervalCongruence(other)
	if ic.IsBottom() {
		return true
	}
	return ic.itv.Leq(o.itv) && ic.cong.Leq(o.cong)
}

// Equals implements Value
func (ic IntervalCongruence) Equals(other Value) bool { return ic.Leq(other) && other.Leq(ic) }

func (ic IntervalCongruence) combine(other Value, itvOp func(Interval, Value) Value,
	congOp func(Congruence, Value) Value) Value {
	o := asIntervalCongruence(other)
	return IntervalCongruence{
		itv:  itvOp(ic.itv, o.itv).(Interval),
		cong: congOp(ic.cong, o.cong).(Congruence),
	}.reduce()
}

// Join implements Value
func (ic IntervalCongruence) Join(other Value) Value {
	if ic.IsBottom() {
		return asIntervalCongruence(other)
	}
	if other.IsBottom() {
		return ic
	}
	return ic.combine(other, Interval.Join, Congruence.Join)
}

// Meet implements Value
func (ic IntervalCongruence) Meet(other Value) Value {
	return ic.combine(other, Interval.Meet, Congruence.Meet)
}

// Widen implements Value. The result is not reduced, so that the bounds reach the infinities.
func (ic IntervalCongruence) Widen(other Value) Value {
	return ic.WidenThreshold(other, nil)
}

// WidenThreshold implements Value
func (ic IntervalCongruence) WidenThreshold(other Value, threshold *big.Int) Value {
	if ic.IsBottom() {
		return asIntervalCongruence(other)
	}
	if other.IsBottom() {
		return ic
	}
	o := asIntervalCongruence(other)
	return IntervalCongruence{
		itv:  ic.itv.WidenThreshold(o.itv, threshold).(Interval),
		cong: ic.cong.Join(o.cong).(Congruence),
	}
}

// Narrow implements Value
func (ic IntervalCongruence) Narrow(other Value) Value {
	return ic.combine(other, Interval.Narrow, Congruence.Narrow)
}

// MeetInterval implements Value
func (ic IntervalCongruence) MeetInterval(itv Interval) Value {
	return IntervalCongruence{itv: ic.itv.Meet(itv).(Interval), cong: ic.cong}.reduce()
}

// Neg implements Value
func (ic IntervalCongruence) Neg(t *ar.IntegerType) Value {
	return IntervalCongruence{itv: ic.itv.Neg(t).(Interval), cong: ic.cong.Neg(t).(Congruence)}.reduce()
}

// Wrap implements Value
func (ic IntervalCongruence) Wrap(t *ar.IntegerType) Value {
	return IntervalCongruence{itv: ic.itv.Wrap(t).(Interval), cong: ic.cong.Wrap(t).(Congruence)}.reduce()
}

// Apply implements Value
func (ic IntervalCongruence) Apply(op ar.BinaryOp, other Value, t *ar.IntegerType) Value {
	o := asIntervalCongruence(other)
	return IntervalCongruence{
		itv:  ic.itv.Apply(op, o.itv, t).(Interval),
		cong: ic.cong.Apply(op, o.cong, t).(Congruence),
	}.reduce()
}
