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

// Value is an abstract machine integer. Values of an analysis are all produced by the same Kind; operations between
// values of different kinds go through the interval projection of the argument.
//
// Values are immutable.
type Value interface {
	fmt.Stringer
	Kind() Kind
	IsBottom() bool
	IsTop() bool
	Leq(other Value) bool
	Equals(other Value) bool
	Join(other Value) Value
	Meet(other Value) Value
	Widen(other Value) Value
	// WidenThreshold widens toward other, jumping to threshold instead of infinity when the threshold is still an
	// upper bound of other.
	WidenThreshold(other Value, threshold *big.Int) Value
	Narrow(other Value) Value
	// Apply returns the result of the binary operation, truncated to the range of t
	Apply(op ar.BinaryOp, other Value, t *ar.IntegerType) Value
	// Neg returns -v, truncated to the range of t
	Neg(t *ar.IntegerType) Value
	// Wrap returns the value converted to the range of t, with two's complement wrap-around
	Wrap(t *ar.IntegerType) Value
	// Interval returns the smallest interval containing the value
	Interval() Interval
	// MeetInterval refines the value with an interval
	MeetInterval(itv Interval) Value
}

// Singleton returns the only concrete value of v, if any
func Singleton(v Value) (*big.Int, bool) {
	return v.Interval().Singleton()
}

// Contains returns true if n may be a concrete value of v
func Contains(v Value, n *big.Int) bool {
	return !v.MeetInterval(SingletonInterval(n)).IsBottom()
}

// Kind identifies a numerical abstract domain for machine integers
type Kind int

const (
	// IntervalKind is the domain of intervals
	IntervalKind Kind = iota
	// CongruenceKind is the domain of congruences aZ+b
	CongruenceKind
	// IntervalCongruenceKind is the reduced product of intervals and congruences
	IntervalCongruenceKind
	// ConstantKind is the flat domain of constants
	ConstantKind
)

var kindNames = map[Kind]string{
	IntervalKind:           "interval",
	CongruenceKind:         "congruence",
	IntervalCongruenceKind: "interval-congruence",
	ConstantKind:           "constant",
}

func (k Kind) String() string { return kindNames[k] }

// ParseKind returns the kind of the given name
func ParseKind(name string) (Kind, error) {
	for k, n := range kindNames {
		if n == name {
			return k, nil
		}
	}
	return IntervalKind, fmt.Errorf("unknown machine integer domain %q", name)
}

// HasNarrowing returns true if the domain implements a narrowing operator. The decreasing iterations of the fixpoint
// are skipped for domains without narrowing.
func (k Kind) HasNarrowing() bool {
	return k == IntervalKind || k == IntervalCongruenceKind
}

// Top returns the value representing all the integers of type t
func (k Kind) Top(t *ar.IntegerType) Value {
	itv := TypeRange(t)
	switch k {
	case CongruenceKind:
		return TopCongruence()
	case IntervalCongruenceKind:
		return IntervalCongruence{itv: itv, cong: TopCongruence()}
	case ConstantKind:
		return TopConstant()
	default:
		return itv
	}
}

// Bottom returns the empty value
func (k Kind) Bottom() Value {
	switch k {
	case CongruenceKind:
		return BottomCongruence()
	case IntervalCongruenceKind:
		return IntervalCongruence{itv: BottomInterval(), cong: BottomCongruence()}
	case ConstantKind:
		return BottomConstant()
	default:
		return BottomInterval()
	}
}

// Constant returns the value representing exactly n
func (k Kind) Constant(n *big.Int) Value {
	switch k {
	case CongruenceKind:
		return ConstantCongruence(n)
	case IntervalCongruenceKind:
		return IntervalCongruence{itv: SingletonInterval(n), cong: ConstantCongruence(n)}
	case ConstantKind:
		return NewConstant(n)
	default:
		return SingletonInterval(n)
	}
}

// FromInterval returns the smallest value of the kind containing itv
func (k Kind) FromInterval(itv Interval) Value {
	switch k {
	case CongruenceKind:
		return TopCongruence().MeetInterval(itv)
	case IntervalCongruenceKind:
		return IntervalCongruence{itv: itv, cong: TopCongruence()}.reduce()
	case ConstantKind:
		return TopConstant().MeetInterval(itv)
	default:
		return itv
	}
}

// TypeRange returns the interval of the values representable by t
func TypeRange(t *ar.IntegerType) Interval {
	return NewInterval(t.MinValue(), t.MaxValue())
}

// Cast returns the result of an integer conversion of v to type to, where from is the type of v
func Cast(op ar.UnaryOp, v Value, from, to *ar.IntegerType, ctx *ar.Context) Value {
	switch op {
	case ar.ZExt:
		return v.Wrap(ctx.IntegerType(from.BitWidth(), ar.Unsigned)).Wrap(to)
	case ar.SExt:
		return v.Wrap(ctx.IntegerType(from.BitWidth(), ar.Signed)).Wrap(to)
	default:
		return v.Wrap(to)
	}
}

// IsTopFor returns true if v contains all the integers of type t
func IsTopFor(v Value, t *ar.IntegerType) bool {
	return v.Kind().Top(t).Leq(v)
}
