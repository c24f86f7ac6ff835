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

// Congruence is the set of integers aZ + b. A modulus of zero represents the constant b. Congruences are kept
// normalized: 0 <= b < a when a > 0.
type Congruence struct {
	a      *big.Int
	b      *big.Int
	bottom bool
}

// NewCongruence returns aZ + b. It panics if a is negative.
func NewCongruence(a, b *big.Int) Congruence {
	if a.Sign() < 0 {
		panic("numeric: negative modulus")
	}
	if a.Sign() == 0 {
		return Congruence{a: a, b: b}
	}
	return Congruence{a: a, b: new(big.Int).Mod(b, a)}
}

// ConstantCongruence returns 0Z + n
func ConstantCongruence(n *big.Int) Congruence { return Congruence{a: new(big.Int), b: n} }

// TopCongruence returns 1Z + 0
func TopCongruence() Congruence { return Congruence{a: big.NewInt(1), b: new(big.Int)} }

// BottomCongruence returns the empty congruence
func BottomCongruence() Congruence { return Congruence{bottom: true} }

func asCongruence(v Value) Congruence {
	switch v := v.(type) {
	case Congruence:
		return v
	case IntervalCongruence:
		return v.cong
	default:
		return TopCongruence().meetInterval(v.Interval())
	}
}

// Modulus returns a
func (c Congruence) Modulus() *big.Int { return c.a }

// Residue returns b
func (c Congruence) Residue() *big.Int { return c.b }

// Kind implements Value
func (c Congruence) Kind() Kind { return CongruenceKind }

// IsBottom implements Value
func (c Congruence) IsBottom() bool { return c.bottom }

// IsTop implements Value
func (c Congruence) IsTop() bool { return !c.bottom && c.a.Cmp(big.NewInt(1)) == 0 }

func (c Congruence) isConstant() bool { return !c.bottom && c.a.Sign() == 0 }

func (c Congruence) String() string {
	switch {
	case c.bottom:
		return "⊥"
	case c.isConstant():
		return c.b.String()
	default:
		return fmt.Sprintf("%sZ+%s", c.a, c.b)
	}
}

// Interval implements Value
func (c Congruence) Interval() Interval {
	switch {
	case c.bottom:
		return BottomInterval()
	case c.isConstant():
		return SingletonInterval(c.b)
	default:
		return TopInterval()
	}
}

// Leq implements Value
func (c Congruence) Leq(other Value) bool {
	o := asCongruence(other)
	switch {
	case c.bottom:
		return true
	case o.bottom:
		return false
	case o.isConstant():
		return c.isConstant() && c.b.Cmp(o.b) == 0
	}
	// every element of aZ+b is in a'Z+b' iff a' divides a and b = b' mod a'
	if new(big.Int).Mod(c.a, o.a).Sign() != 0 {
		return false
	}
	return new(big.Int).Mod(new(big.Int).Sub(c.b, o.b), o.a).Sign() == 0
}

// Equals implements Value
func (c Congruence) Equals(other Value) bool { return c.Leq(other) && other.Leq(c) }

// Join implements Value
func (c Congruence) Join(other Value) Value {
	o := asCongruence(other)
	switch {
	case c.bottom:
		return o
	case o.bottom:
		return c
	}
	g := gcd(gcd(c.a, o.a), new(big.Int).Sub(c.b, o.b))
	if g.Sign() == 0 {
		return c
	}
	return NewCongruence(g, c.b)
}

// Meet implements Value
func (c Congruence) Meet(other Value) Value {
	o := asCongruence(other)
	switch {
	case c.bottom || o.bottom:
		return BottomCongruence()
	case c.Leq(o):
		return c
	case o.Leq(c):
		return o
	}
	g := gcd(c.a, o.a)
	if g.Sign() == 0 || new(big.Int).Mod(new(big.Int).Sub(c.b, o.b), g).Sign() != 0 {
		return BottomCongruence()
	}
	if c.isConstant() || o.isConstant() {
		return BottomCongruence()
	}
	// chinese remainder: x = b1 + a1 * k with k = (b2-b1)/g * inv(a1/g) mod a2/g
	m1 := new(big.Int).Quo(c.a, g)
	m2 := new(big.Int).Quo(o.a, g)
	inv := new(big.Int).ModInverse(m1, m2)
	if inv == nil {
		return c
	}
	k := new(big.Int).Quo(new(big.Int).Sub(o.b, c.b), g)
	k.Mul(k, inv).Mod(k, m2)
	lcm := new(big.Int).Mul(m1, o.a)
	return NewCongruence(lcm, new(big.Int).Add(c.b, new(big.Int).Mul(c.a, k)))
}

// Widen implements Value. Congruences have no infinite increasing chains.
func (c Congruence) Widen(other Value) Value { return c.Join(other) }

// WidenThreshold implements Value
func (c Congruence) WidenThreshold(other Value, _ *big.Int) Value { return c.Join(other) }

// Narrow implements Value
func (c Congruence) Narrow(other Value) Value { return c.Meet(other) }

// MeetInterval implements Value
func (c Congruence) MeetInterval(itv Interval) Value { return c.meetInterval(itv) }

func (c Congruence) meetInterval(itv Interval) Congruence {
	switch {
	case c.bottom || itv.bottom:
		return BottomCongruence()
	case c.isConstant():
		if itv.ContainsInt(c.b) {
			return c
		}
		return BottomCongruence()
	}
	if n, ok := itv.Singleton(); ok {
		if c.containsInt(n) {
			return ConstantCongruence(n)
		}
		return BottomCongruence()
	}
	return c
}

func (c Congruence) containsInt(n *big.Int) bool {
	if c.isConstant() {
		return c.b.Cmp(n) == 0
	}
	return new(big.Int).Mod(new(big.Int).Sub(n, c.b), c.a).Sign() == 0
}

// Neg implements Value
func (c Congruence) Neg(t *ar.IntegerType) Value {
	if c.bottom {
		return c
	}
	return NewCongruence(c.a, new(big.Int).Neg(c.b)).Wrap(t)
}

// Wrap implements Value. Reducing modulo 2^n preserves the congruence modulo gcd(a, 2^n).
func (c Congruence) Wrap(t *ar.IntegerType) Value {
	if c.bottom {
		return c
	}
	if c.isConstant() {
		return ConstantCongruence(wrapInt(c.b, t))
	}
	mod := new(big.Int).Lsh(big.NewInt(1), t.BitWidth())
	return NewCongruence(gcd(c.a, mod), c.b)
}

// Apply implements Value
func (c Congruence) Apply(op ar.BinaryOp, other Value, t *ar.IntegerType) Value {
	o := asCongruence(other)
	if c.bottom || o.bottom {
		return BottomCongruence()
	}
	if c.isConstant() && o.isConstant() {
		r := SingletonInterval(c.b).Apply(op, SingletonInterval(o.b), t).Interval()
		if n, ok := r.Singleton(); ok {
			return ConstantCongruence(n)
		}
		if r.bottom {
			return BottomCongruence()
		}
		return TopCongruence()
	}
	var r Congruence
	switch op {
	case ar.Add:
		r = NewCongruence(gcd(c.a, o.a), new(big.Int).Add(c.b, o.b))
	case ar.Sub:
		r = NewCongruence(gcd(c.a, o.a), new(big.Int).Sub(c.b, o.b))
	case ar.Mul:
		a := gcd(new(big.Int).Mul(c.a, o.a), gcd(new(big.Int).Mul(c.a, o.b), new(big.Int).Mul(o.a, c.b)))
		r = NewCongruence(new(big.Int).Abs(a), new(big.Int).Mul(c.b, o.b))
	case ar.Div:
		r = c.divByConstant(o)
	case ar.Shl:
		if o.isConstant() && o.b.Sign() >= 0 && o.b.Cmp(big.NewInt(int64(t.BitWidth()))) < 0 {
			f := new(big.Int).Lsh(big.NewInt(1), uint(o.b.Uint64()))
			r = NewCongruence(new(big.Int).Mul(c.a, f), new(big.Int).Mul(c.b, f))
		} else {
			r = TopCongruence()
		}
	default:
		r = TopCongruence()
	}
	return r.Wrap(t)
}

// divByConstant divides exactly when the divisor divides both the modulus and the residue
func (c Congruence) divByConstant(o Congruence) Congruence {
	if !o.isConstant() {
		return TopCongruence()
	}
	d := o.b
	if d.Sign() == 0 {
		return BottomCongruence()
	}
	if new(big.Int).Rem(c.a, d).Sign() != 0 || new(big.Int).Rem(c.b, d).Sign() != 0 {
		return TopCongruence()
	}
	return NewCongruence(new(big.Int).Abs(new(big.Int).Quo(c.a, d)), new(big.Int).Quo(c.b, d))
}

func gcd(a, b *big.Int) *big.Int {
	return new(big.Int).GCD(nil, nil, new(big.Int).Abs(a), new(big.Int).Abs(b))
}
