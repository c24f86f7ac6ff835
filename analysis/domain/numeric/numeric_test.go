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
	"testing"

	"github.com/awslabs/ar-go-absint/analysis/ar"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testCtx = ar.NewContext()
	si32    = testCtx.IntegerType(32, ar.Signed)
	ui8     = testCtx.IntegerType(8, ar.Unsigned)
	si8     = testCtx.IntegerType(8, ar.Signed)
)

func n(v int64) *big.Int { return big.NewInt(v) }

// samples returns a set of values of kind k used to check lattice properties
func samples(k Kind) []Value {
	vals := []Value{
		k.Bottom(),
		k.Top(si32),
		k.Constant(n(0)),
		k.Constant(n(7)),
		k.Constant(n(-3)),
		k.FromInterval(NewInterval64(0, 10)),
		k.FromInterval(NewInterval64(-5, 5)),
		k.FromInterval(NewInterval(n(2), nil)),
		k.FromInterval(NewInterval(nil, n(-1))),
	}
	if k == CongruenceKind || k == IntervalCongruenceKind {
		vals = append(vals,
			k.Top(si32).Meet(NewCongruence(n(2), n(0))),
			k.Top(si32).Meet(NewCongruence(n(4), n(1))))
	}
	return vals
}

var allKinds = []Kind{IntervalKind, CongruenceKind, IntervalCongruenceKind, ConstantKind}

func TestJoinIsUpperBound(t *testing.T) {
	for _, k := range allKinds {
		for _, a := range samples(k) {
			for _, b := range samples(k) {
				j := a.Join(b)
				assert.True(t, a.Leq(j), "%s: %s <= %s join %s", k, a, a, b)
				assert.True(t, b.Leq(j), "%s: %s <= %s join %s", k, b, a, b)
				if a.IsBottom() {
					assert.True(t, j.Equals(b), "%s: bottom join %s = %s", k, b, j)
				}
				assert.True(t, j.Equals(b.Join(a)), "%s: join is commutative for %s, %s", k, a, b)
			}
		}
	}
}

func TestWidenIsUpperBound(t *testing.T) {
	for _, k := range allKinds {
		for _, a := range samples(k) {
			for _, b := range samples(k) {
				w := a.Widen(b)
				assert.True(t, a.Leq(w), "%s: %s <= %s widen %s = %s", k, a, a, b, w)
				assert.True(t, b.Leq(w), "%s: %s <= %s widen %s = %s", k, b, a, b, w)
			}
		}
	}
}

func TestMeetIsLowerBound(t *testing.T) {
	for _, k := range allKinds {
		for _, a := range samples(k) {
			for _, b := range samples(k) {
				m := a.Meet(b)
				assert.True(t, m.Leq(a), "%s: %s meet %s = %s", k, a, b, m)
				assert.True(t, m.Leq(b), "%s: %s meet %s = %s", k, a, b, m)
			}
		}
	}
}

func TestNarrowStaysBetween(t *testing.T) {
	for _, k := range allKinds {
		if !k.HasNarrowing() {
			continue
		}
		for _, a := range samples(k) {
			for _, b := range samples(k) {
				if !b.Leq(a) {
					continue
				}
				r := a.Narrow(b)
				assert.True(t, r.Leq(a), "%s: %s narrow %s = %s", k, a, b, r)
				assert.True(t, b.Leq(r), "%s: %s narrow %s = %s", k, a, b, r)
			}
		}
	}
}

func TestWidenStabilizes(t *testing.T) {
	for _, k := range allKinds {
		x := k.Constant(n(0))
		one := k.Constant(n(1))
		wide := testCtx.IntegerType(64, ar.Signed)
		steps := 0
		for {
			next := x.Join(x.Apply(ar.Add, one, wide))
			if next.Leq(x) {
				break
			}
			x = x.Widen(next)
			steps++
			require.Less(t, steps, 10, "%s does not stabilize", k)
		}
	}
}

func TestWidenThreshold(t *testing.T) {
	before := NewInterval64(0, 1)
	after := NewInterval64(0, 2)

	naive := before.Widen(after)
	assert.Equal(t, "[0, +oo]", naive.String())

	clamped := before.WidenThreshold(after, n(11))
	assert.Equal(t, "[0, 11]", clamped.String())
	assert.True(t, clamped.Leq(naive))
	assert.True(t, after.Leq(clamped))

	// a threshold below the new bound is not an upper bound, it is ignored
	ignored := before.WidenThreshold(NewInterval64(0, 20), n(11))
	assert.Equal(t, "[0, +oo]", ignored.String())
}

func TestHasNarrowing(t *testing.T) {
	assert.True(t, IntervalKind.HasNarrowing())
	assert.True(t, IntervalCongruenceKind.HasNarrowing())
	assert.False(t, CongruenceKind.HasNarrowing())
	assert.False(t, ConstantKind.HasNarrowing())
}

func TestParseKind(t *testing.T) {
	for _, k := range allKinds {
		p, err := ParseKind(k.String())
		require.NoError(t, err)
		assert.Equal(t, k, p)
	}
	_, err := ParseKind("octagon")
	assert.Error(t, err)
}

func TestIntervalArithmetic(t *testing.T) {
	tests := []struct {
		op   ar.BinaryOp
		a, b Interval
		want string
	}{
		{ar.Add, NewInterval64(0, 10), NewInterval64(1, 1), "[1, 11]"},
		{ar.Sub, NewInterval64(0, 10), NewInterval64(1, 2), "[-2, 9]"},
		{ar.Mul, NewInterval64(-2, 3), NewInterval64(-4, 5), "[-12, 15]"},
		{ar.Div, NewInterval64(10, 20), NewInterval64(-2, 2), "[-20, 20]"},
		{ar.Div, NewInterval64(7, 7), NewInterval64(2, 2), "[3, 3]"},
		{ar.Div, NewInterval64(-7, -7), NewInterval64(2, 2), "[-3, -3]"},
		{ar.Div, NewInterval64(1, 5), NewInterval64(0, 0), "⊥"},
		{ar.Rem, NewInterval64(-7, -7), NewInterval64(2, 2), "[-1, -1]"},
		{ar.Rem, NewInterval64(0, 100), NewInterval64(1, 8), "[0, 7]"},
		{ar.Shl, NewInterval64(1, 3), NewInterval64(2, 2), "[4, 12]"},
		{ar.Shr, NewInterval64(-8, 16), NewInterval64(1, 2), "[-4, 8]"},
		{ar.And, NewInterval64(0, 100), NewInterval64(0, 7), "[0, 7]"},
		{ar.Or, NewInterval64(4, 4), NewInterval64(3, 3), "[7, 7]"},
		{ar.Add, NewInterval(n(0), nil), NewInterval64(1, 1), fmt.Sprintf("[%s, %s]", si32.MinValue(), si32.MaxValue())},
	}
	for _, tt := range tests {
		got := tt.a.Apply(tt.op, tt.b, si32)
		assert.Equal(t, tt.want, got.String(), "%s %s %s", tt.a, tt.op, tt.b)
	}
}

func TestWrap(t *testing.T) {
	assert.Equal(t, "[255, 255]", NewInterval64(-1, -1).Wrap(ui8).String())
	assert.Equal(t, "[-128, -127]", NewInterval64(128, 129).Wrap(si8).String())
	assert.Equal(t, "[0, 255]", NewInterval64(-1, 1).Wrap(ui8).String())
	assert.Equal(t, "[0, 10]", NewInterval64(0, 10).Wrap(ui8).String())
	assert.Equal(t, "[-128, 127]", NewInterval64(100, 200).Apply(ar.Add, NewInterval64(0, 0), si8).String())
	assert.Equal(t, "255", NewConstant(n(-1)).Wrap(ui8).String())
	assert.Equal(t, "2Z+1", NewCongruence(n(6), n(1)).Wrap(ui8).(Congruence).Wrap(ui8).String())
}

func TestCast(t *testing.T) {
	si64 := testCtx.IntegerType(64, ar.Signed)
	v := SingletonInterval(n(-1))
	assert.Equal(t, "[255, 255]", Cast(ar.ZExt, v, si8, si64, testCtx).String())
	assert.Equal(t, "[-1, -1]", Cast(ar.SExt, v, si8, si64, testCtx).String())
	assert.Equal(t, "[255, 255]", Cast(ar.SignCast, v, si8, ui8, testCtx).String())
	assert.Equal(t, "[44, 44]", Cast(ar.Trunc, SingletonInterval(n(300)), si32, ui8, testCtx).String())
}

func TestCongruence(t *testing.T) {
	even := NewCongruence(n(2), n(0))
	odd := NewCongruence(n(2), n(1))
	assert.True(t, even.Meet(odd).IsBottom())
	assert.True(t, even.Join(odd).IsTop())
	assert.Equal(t, "2Z+0", ConstantCongruence(n(0)).Join(ConstantCongruence(n(4))).Join(ConstantCongruence(n(2))).String())
	assert.Equal(t, "4Z+0", even.Apply(ar.Mul, even, si32).(Congruence).String())
	assert.Equal(t, "2Z+1", even.Apply(ar.Add, ConstantCongruence(n(3)), si32).String())
	assert.True(t, Contains(odd, n(-3)))
	assert.False(t, Contains(odd, n(4)))
}

func TestIntervalCongruenceReduction(t *testing.T) {
	v := NewIntervalCongruence(NewInterval64(1, 10), NewCongruence(n(4), n(0)))
	assert.Equal(t, "[4, 8] ∧ 4Z+0", v.String())
	single := NewIntervalCongruence(NewInterval64(3, 6), NewCongruence(n(4), n(1)))
	c, ok := Singleton(single)
	require.True(t, ok)
	assert.Equal(t, int64(5), c.Int64())
	assert.True(t, NewIntervalCongruence(NewInterval64(1, 3), NewCongruence(n(4), n(0))).IsBottom())
}

func TestRefineComparison(t *testing.T) {
	x := NewInterval64(0, 100)
	y := SingletonInterval(n(10))

	rx, ry := RefineComparison(ar.LT, x, y)
	assert.Equal(t, "[0, 9]", rx.String())
	assert.Equal(t, "[10, 10]", ry.String())

	rx, _ = RefineComparison(ar.GE, x, y)
	assert.Equal(t, "[10, 100]", rx.String())

	rx, _ = RefineComparison(ar.EQ, x, y)
	assert.Equal(t, "[10, 10]", rx.String())

	rx, _ = RefineComparison(ar.NE, NewInterval64(10, 20), y)
	assert.Equal(t, "[11, 20]", rx.String())

	rx, ry = RefineComparison(ar.GT, NewInterval64(0, 5), y)
	assert.True(t, rx.IsBottom())
	assert.True(t, ry.IsBottom())

	rx, _ = RefineComparison(ar.NE, NewConstant(n(10)), NewConstant(n(10)))
	assert.True(t, rx.IsBottom())
}
