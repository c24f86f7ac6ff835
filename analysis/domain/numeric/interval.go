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
	"fmt"
	"math/big"

	"github.com/awslabs/ar-go-absint/analysis/ar"
)

// Interval is an interval of integers. A nil lower bound is -oo and a nil upper bound is +oo. The zero value is the
// interval (-oo, +oo).
type Interval struct {
	lo     *big.Int
	hi     *big.Int
	bottom bool
}

// NewInterval returns [lo, hi]. Nil bounds are infinite. The interval is bottom if lo > hi.
func NewInterval(lo, hi *big.Int) Interval {
	if lo != nil && hi != nil && lo.Cmp(hi) > 0 {
		return BottomInterval()
	}
	return Interval{lo: lo, hi: hi}
}

// NewInterval64 returns [lo, hi]
func NewInterval64(lo, hi int64) Interval {
	return NewInterval(big.NewInt(lo), big.NewInt(hi))
}

// SingletonInterval returns [n, n]
func SingletonInterval(n *big.Int) Interval {
	return Interval{lo: n, hi: n}
}

// TopInterval returns (-oo, +oo)
func TopInterval() Interval { return Interval{} }

// BottomInterval returns the empty interval
func BottomInterval() Interval { return Interval{bottom: true} }

func intervalOf(lo, hi bound) Interval {
	if lo.cmp(hi) > 0 || lo.inf > 0 || hi.inf < 0 {
		return BottomInterval()
	}
	return Interval{lo: lo.toBig(), hi: hi.toBig()}
}

func (i Interval) lower() bound { return lowerBound(i.lo) }
func (i Interval) upper() bound { return upperBound(i.hi) }

// Lo returns the lower bound, nil if it is -oo
func (i Interval) Lo() *big.Int { return i.lo }

// Hi returns the upper bound, nil if it is +oo
func (i Interval) Hi() *big.Int { return i.hi }

// Kind implements Value
func (i Interval) Kind() Kind { return IntervalKind }

// IsBottom implements Value
func (i Interval) IsBottom() bool { return i.bottom }

// IsTop implements Value
func (i Interval) IsTop() bool { return !i.bottom && i.lo == nil && i.hi == nil }

// Interval implements Value
func (i Interval) Interval() Interval { return i }

// Singleton returns the only value of the interval, if any
func (i Interval) Singleton() (*big.Int, bool) {
	if i.bottom || i.lo == nil || i.hi == nil || i.lo.Cmp(i.hi) != 0 {
		return nil, false
	}
	return i.lo, true
}

// ContainsInt returns true if n is in the interval
func (i Interval) ContainsInt(n *big.Int) bool {
	if i.bottom {
		return false
	}
	b := finite(n)
	return i.lower().cmp(b) <= 0 && b.cmp(i.upper()) <= 0
}

func (i Interval) String() string {
	if i.bottom {
		return "⊥"
	}
	lo, hi := "-oo", "+oo"
	if i.lo != nil {
		lo = i.lo.String()
	}
	if i.hi != nil {
		hi = i.hi.String()
	}
	return fmt.Sprintf("[%s, %s]", lo, hi)
}

func asInterval(v Value) Interval {
	if itv, ok := v.(Interval); ok {
		return itv
	}
	return v.Interval()
}

// Leq implements Value
func (i Interval) Leq(other Value) bool {
	o := asInterval(other)
	switch {
	case i.bottom:
		return true
	case o.bottom:
		return false
	default:
		return o.lower().cmp(i.lower()) <= 0 && i.upper().cmp(o.upper()) <= 0
	}
}

// Equals implements Value
func (i Interval) Equals(other Value) bool {
	return i.Leq(other) && other.Leq(i)
}

// Join implements Value
func (i Interval) Join(other Value) Value {
	o := asInterval(other)
	switch {
	case i.bottom:
		return o
	case o.bottom:
		return i
	default:
		return intervalOf(minBound(i.lower(), o.lower()), maxBound(i.upper(), o.upper()))
	}
}

// Meet implements Value
func (i Interval) Meet(other Value) Value {
	o := asInterval(other)
	if i.bottom || o.bottom {
		return BottomInterval()
	}
	return intervalOf(maxBound(i.lower(), o.lower()), minBound(i.upper(), o.upper()))
}

// MeetInterval implements Value
func (i Interval) MeetInterval(itv Interval) Value { return i.Meet(itv) }

// Widen implements Value
func (i Interval) Widen(other Value) Value {
	return i.WidenThreshold(other, nil)
}

// WidenThreshold implements Value
func (i Interval) WidenThreshold(other Value, threshold *big.Int) Value {
	o := asInterval(other)
	switch {
	case i.bottom:
		return o
	case o.bottom:
		return i
	}
	lo, hi := i.lower(), i.upper()
	if o.lower().cmp(lo) < 0 {
		lo = negInf
		if threshold != nil && finite(threshold).cmp(o.lower()) <= 0 {
			lo = finite(threshold)
		}
	}
	if o.upper().cmp(hi) > 0 {
		hi = posInf
		if threshold != nil && finite(threshold).cmp(o.upper()) >= 0 {
			hi = finite(threshold)
		}
	}
	return intervalOf(lo, hi)
}

// Narrow implements Value
func (i Interval) Narrow(other Value) Value {
	o := asInterval(other)
	if i.bottom || o.bottom {
		return BottomInterval()
	}
	lo, hi := i.lower(), i.upper()
	if lo.inf != 0 {
		lo = o.lower()
	}
	if hi.inf != 0 {
		hi = o.upper()
	}
	return intervalOf(lo, hi)
}

// Neg implements Value
func (i Interval) Neg(t *ar.IntegerType) Value {
	if i.bottom {
		return i
	}
	return intervalOf(i.upper().neg(), i.lower().neg()).Wrap(t)
}

// Wrap implements Value
func (i Interval) Wrap(t *ar.IntegerType) Value {
	if i.bottom {
		return i
	}
	r := TypeRange(t)
	if i.lo == nil || i.hi == nil {
		return r
	}
	if i.lo.Cmp(r.lo) >= 0 && i.hi.Cmp(r.hi) <= 0 {
		return i
	}
	width := new(big.Int).Sub(i.hi, i.lo)
	if width.Cmp(new(big.Int).Sub(r.hi, r.lo)) >= 0 {
		return r
	}
	lo, hi := wrapInt(i.lo, t), wrapInt(i.hi, t)
	if lo.Cmp(hi) > 0 {
		return r
	}
	return Interval{lo: lo, hi: hi}
}

// wrapInt returns n modulo 2^bits, in the range of t
func wrapInt(n *big.Int, t *ar.IntegerType) *big.Int {
	mod := new(big.Int).Lsh(big.NewInt(1), t.BitWidth())
	r := new(big.Int).Mod(n, mod)
	if t.IsSigned() && r.Cmp(t.MaxValue()) > 0 {
		r.Sub(r, mod)
	}
	return r
}

// Apply implements Value
//
//gocyclo:ignore
func (i Interval) Apply(op ar.BinaryOp, other Value, t *ar.IntegerType) Value {
	o := asInterval(other)
	if i.bottom || o.bottom {
		return BottomInterval()
	}
	var r Interval
	switch op {
	case ar.Add:
		r = intervalOf(i.lower().add(o.lower()), i.upper().add(o.upper()))
	case ar.Sub:
		r = intervalOf(i.lower().add(o.upper().neg()), i.upper().add(o.lower().neg()))
	case ar.Mul:
		r = i.mul(o)
	case ar.Div:
		r = i.div(o)
	case ar.Rem:
		r = i.rem(o)
	case ar.Shl:
		r = i.shl(o, t)
	case ar.Shr:
		r = i.shr(o, t)
	case ar.And, ar.Or, ar.Xor:
		r = i.bitwise(op, o)
	default:
		r = TopInterval()
	}
	return r.Wrap(t)
}

func (i Interval) mul(o Interval) Interval {
	corners := []bound{
		i.lower().mul(o.lower()), i.lower().mul(o.upper()),
		i.upper().mul(o.lower()), i.upper().mul(o.upper()),
	}
	lo, hi := corners[0], corners[0]
	for _, c := range corners[1:] {
		lo, hi = minBound(lo, c), maxBound(hi, c)
	}
	return intervalOf(lo, hi)
}

// quo divides by an interval that does not contain zero
func (i Interval) quo(o Interval) Interval {
	corners := []bound{
		i.lower().quo(o.lower()), i.lower().quo(o.upper()),
		i.upper().quo(o.lower()), i.upper().quo(o.upper()),
	}
	lo, hi := corners[0], corners[0]
	for _, c := range corners[1:] {
		lo, hi = minBound(lo, c), maxBound(hi, c)
	}
	return intervalOf(lo, hi)
}

// div is the truncated division. Division by zero has no result.
func (i Interval) div(o Interval) Interval {
	neg := o.Meet(Interval{hi: big.NewInt(-1)}).(Interval)
	pos := o.Meet(Interval{lo: big.NewInt(1)}).(Interval)
	r := BottomInterval()
	if !neg.bottom {
		r = i.quo(neg)
	}
	if !pos.bottom {
		r = r.Join(i.quo(pos)).(Interval)
	}
	return r
}

// rem is the truncated remainder: the result has the sign of the dividend
func (i Interval) rem(o Interval) Interval {
	if n, ok := o.Singleton(); ok && n.Sign() == 0 {
		return BottomInterval()
	}
	if a, ok := i.Singleton(); ok {
		if b, ok := o.Singleton(); ok {
			return SingletonInterval(new(big.Int).Rem(a, b))
		}
	}
	m := maxBound(o.lower().neg(), o.upper())
	if m.isFinite() {
		m = m.add(finite64(-1))
	}
	r := intervalOf(m.neg(), m)
	if i.lower().sign() >= 0 {
		r = intervalOf(finite64(0), minBound(i.upper(), m))
	} else if i.upper().sign() <= 0 {
		r = intervalOf(maxBound(i.lower(), m.neg()), finite64(0))
	}
	return r
}

// shiftRange returns the shift amounts of o valid for t
func shiftRange(o Interval, t *ar.IntegerType) (uint, uint, bool) {
	valid := o.Meet(NewInterval64(0, int64(t.BitWidth())-1)).(Interval)
	if valid.bottom {
		return 0, 0, false
	}
	return uint(valid.lo.Uint64()), uint(valid.hi.Uint64()), true
}

func (i Interval) shl(o Interval, t *ar.IntegerType) Interval {
	lo, hi, ok := shiftRange(o, t)
	if !ok {
		return BottomInterval()
	}
	factor := NewInterval(new(big.Int).Lsh(big.NewInt(1), lo), new(big.Int).Lsh(big.NewInt(1), hi))
	return i.mul(factor)
}

func (i Interval) shr(o Interval, t *ar.IntegerType) Interval {
	lo, hi, ok := shiftRange(o, t)
	if !ok {
		return BottomInterval()
	}
	rsh := func(b bound, k uint) bound {
		if !b.isFinite() {
			return b
		}
		return finite(new(big.Int).Rsh(b.v, k))
	}
	return intervalOf(
		minBound(rsh(i.lower(), lo), rsh(i.lower(), hi)),
		maxBound(rsh(i.upper(), lo), rsh(i.upper(), hi)),
	)
}

func (i Interval) bitwise(op ar.BinaryOp, o Interval) Interval {
	if a, ok := i.Singleton(); ok {
		if b, ok := o.Singleton(); ok {
			r := new(big.Int)
			switch op {
			case ar.And:
				r.And(a, b)
			case ar.Or:
				r.Or(a, b)
			default:
				r.Xor(a, b)
			}
			return SingletonInterval(r)
		}
	}
	iNonNeg := i.lower().sign() >= 0
	oNonNeg := o.lower().sign() >= 0
	switch {
	case op == ar.And && iNonNeg && oNonNeg:
		return intervalOf(finite64(0), minBound(i.upper(), o.upper()))
	case op == ar.And && iNonNeg:
		return intervalOf(finite64(0), i.upper())
	case op == ar.And && oNonNeg:
		return intervalOf(finite64(0), o.upper())
	case iNonNeg && oNonNeg && i.hi != nil && o.hi != nil:
		m := i.hi
		if o.hi.Cmp(m) > 0 {
			m = o.hi
		}
		hi := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), uint(m.BitLen())), big.NewInt(1))
		if op == ar.Or {
			return intervalOf(maxBound(i.lower(), o.lower()), finite(hi))
		}
		return intervalOf(finite64(0), finite(hi))
	default:
		return TopInterval()
	}
}
