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
	"math/big"
	"testing"

	"github.com/awslabs/ar-go-absint/analysis/ar"
	"github.com/awslabs/ar-go-absint/analysis/domain/numeric"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	ctx  *ar.Context
	code *ar.Code
	i32  *ar.IntegerType
	x, y *ar.InternalVariable
	p    *ar.InternalVariable
	a, b *ar.LocalVariable
}

func newFixture() fixture {
	ctx := ar.NewContext()
	bundle := ar.NewBundle(ctx, "test")
	i32 := ctx.IntegerType(32, ar.Signed)
	f := bundle.DefineFunction("f", ctx.FunctionType(ctx.VoidType(), nil, false))
	code := f.Body()
	return fixture{
		ctx:  ctx,
		code: code,
		i32:  i32,
		x:    code.NewInternalVariable("x", i32),
		y:    code.NewInternalVariable("y", i32),
		p:    code.NewInternalVariable("p", ctx.PointerType(i32)),
		a:    code.NewLocalVariable("a", i32),
		b:    code.NewLocalVariable("b", i32),
	}
}

func itv(lo, hi int64) numeric.Value { return numeric.NewInterval64(lo, hi) }

func TestSmallLattices(t *testing.T) {
	assert.True(t, Null.Leq(NullityTop))
	assert.False(t, Null.Leq(NonNull))
	assert.Equal(t, NullityTop, Null.Join(NonNull))
	assert.Equal(t, NullityBottom, Null.Meet(NonNull))
	assert.Equal(t, UninitTop, Initialized.Join(Uninit))
	assert.True(t, Deallocated.Meet(Allocated).IsBottom())
	assert.Equal(t, "non-null", NonNull.String())
}

func TestPointsToSet(t *testing.T) {
	f := newFixture()
	s := NewPointsTo(f.b, f.a)
	assert.Equal(t, "{&a, &b}", s.String())
	assert.True(t, NewPointsTo(f.a).Leq(s))
	assert.False(t, s.Leq(NewPointsTo(f.a)))
	assert.True(t, s.Leq(TopPointsTo()))
	assert.True(t, s.Join(TopPointsTo()).IsTop())
	obj, ok := s.Meet(NewPointsTo(f.b)).Singleton()
	require.True(t, ok)
	assert.Same(t, f.b, obj)
	assert.True(t, NewPointsTo(f.a).Equals(NewPointsTo(f.a, f.a)))
}

func TestMemoryMissingIsTop(t *testing.T) {
	f := newFixture()
	k := numeric.IntervalKind
	m := TopMemory(k)
	assert.True(t, m.IsTop())
	assert.True(t, numeric.IsTopFor(m.Int(f.x), f.i32))

	m.SetInt(f.x, itv(0, 10))
	assert.True(t, m.Leq(TopMemory(k)))
	assert.False(t, TopMemory(k).Leq(m))

	other := TopMemory(k)
	other.SetInt(f.y, itv(1, 1))
	j := m.Join(other)
	assert.True(t, numeric.IsTopFor(j.Int(f.x), f.i32))
	assert.True(t, numeric.IsTopFor(j.Int(f.y), f.i32))
	assert.True(t, m.Leq(j))
	assert.True(t, other.Leq(j))
}

func TestMemoryBottom(t *testing.T) {
	f := newFixture()
	k := numeric.IntervalKind
	m := TopMemory(k)
	m.SetInt(f.x, numeric.BottomInterval())
	assert.True(t, m.IsBottom())

	bot := BottomMemory(k)
	other := TopMemory(k)
	other.SetInt(f.x, itv(3, 4))
	assert.True(t, bot.Join(other).Equals(other))
	assert.True(t, bot.Leq(other))
	assert.True(t, other.Meet(bot).IsBottom())
}

func TestMemoryWidenThreshold(t *testing.T) {
	f := newFixture()
	k := numeric.IntervalKind
	before := TopMemory(k)
	before.SetInt(f.x, itv(0, 1))
	after := TopMemory(k)
	after.SetInt(f.x, itv(0, 2))

	naive := before.Widen(after)
	assert.Equal(t, "[0, +oo]", naive.Int(f.x).String())
	hinted := before.WidenThreshold(after, big.NewInt(10))
	assert.Equal(t, "[0, 10]", hinted.Int(f.x).String())
	assert.True(t, hinted.Leq(naive))
	assert.True(t, after.Leq(hinted))
}

func TestMemoryNarrow(t *testing.T) {
	f := newFixture()
	k := numeric.IntervalKind
	wide := TopMemory(k)
	wide.SetInt(f.x, numeric.NewInterval(big.NewInt(0), nil))
	tight := TopMemory(k)
	tight.SetInt(f.x, itv(0, 10))
	n := wide.Narrow(tight)
	assert.Equal(t, "[0, 10]", n.Int(f.x).String())
	assert.True(t, n.Leq(wide))
}

func TestCells(t *testing.T) {
	f := newFixture()
	k := numeric.IntervalKind
	m := TopMemory(k)
	c := Cell{Object: f.a, Offset: 0, Size: 4}
	val := Scalar{Type: f.i32, Int: itv(5, 5), Uninit: Initialized}

	m.WriteCell(c, val, true)
	got, ok := m.Cell(c)
	require.True(t, ok)
	assert.Equal(t, "[5, 5]", got.Int.String())

	// weak update joins with the previous content
	m.WriteCell(c, Scalar{Type: f.i32, Int: itv(7, 7), Uninit: Initialized}, false)
	got, _ = m.Cell(c)
	assert.Equal(t, "[5, 7]", got.Int.String())

	// an overlapping write forgets the cell
	m.WriteCell(Cell{Object: f.a, Offset: 2, Size: 4}, val, true)
	_, ok = m.Cell(c)
	assert.False(t, ok)
	assert.Len(t, m.CellsOf(f.a), 1)

	m.ForgetCells(f.a)
	assert.Empty(t, m.CellsOf(f.a))
}

func TestScalarsOfIncompatibleTypes(t *testing.T) {
	f := newFixture()
	k := numeric.IntervalKind
	i8 := f.ctx.IntegerType(8, ar.Signed)
	small := Scalar{Type: i8, Int: itv(1, 2), Uninit: Initialized}
	word := Scalar{Type: f.i32, Int: itv(3, 4), Uninit: Initialized}

	narrowed := small.Narrow(word, k)
	assert.True(t, narrowed.Leq(small))
	assert.Equal(t, small, narrowed)

	met := small.Meet(word, k)
	assert.True(t, met.IsBottom())
	assert.True(t, met.Leq(small))
	assert.Equal(t, small, small.Meet(TopScalar(k, f.i32), k))
	assert.Equal(t, word, TopScalar(k, i8).Meet(word, k))

	// the join of incompatible scalars stays an upper bound
	joined := small.Join(word, k)
	assert.True(t, small.Leq(joined))
}

func TestPointerValue(t *testing.T) {
	f := newFixture()
	k := numeric.IntervalKind
	m := TopMemory(k)
	m.SetPointer(f.p, AddressOf(k, f.a))
	p := m.Pointer(f.p)
	assert.True(t, p.Nullity.IsNonNull())
	obj, ok := p.PointsTo.Singleton()
	require.True(t, ok)
	assert.Same(t, f.a, obj)

	j := p.Join(NullPointer(k))
	assert.True(t, j.Nullity.IsTop())
	assert.True(t, p.Leq(j))
	assert.True(t, TopPointer(k).IsTop())
}

func TestAbstractValueFlows(t *testing.T) {
	f := newFixture()
	k := numeric.IntervalKind
	v := Top(k)
	assert.False(t, v.IsBottom())
	assert.True(t, v.Caught.IsBottom())
	assert.True(t, v.Propagated.IsBottom())

	v.Normal.SetInt(f.x, itv(1, 1))
	v.MergeNormalIntoCaught()
	v.SetNormalBottom()
	assert.Equal(t, "[1, 1]", v.Caught.Int(f.x).String())

	v.CaughtToNormal()
	assert.Equal(t, "[1, 1]", v.Normal.Int(f.x).String())
	assert.True(t, v.Caught.IsBottom())

	w := Bottom(k)
	w.JoinWith(v)
	assert.True(t, w.Equals(v))
	assert.True(t, Bottom(k).Leq(v))
}

func TestJoinUpperBoundMemory(t *testing.T) {
	f := newFixture()
	k := numeric.IntervalKind
	values := []MemoryDomain{BottomMemory(k), TopMemory(k)}
	for _, r := range [][2]int64{{0, 0}, {0, 10}, {-5, 3}} {
		m := TopMemory(k)
		m.SetInt(f.x, itv(r[0], r[1]))
		m.SetPointer(f.p, AddressOf(k, f.a))
		values = append(values, m)
	}
	for _, a := range values {
		for _, b := range values {
			j := a.Join(b)
			assert.True(t, a.Leq(j), "%s <= %s", a, j)
			assert.True(t, b.Leq(j), "%s <= %s", b, j)
			w := a.Widen(b)
			assert.True(t, a.Leq(w), "%s <= %s", a, w)
			assert.True(t, b.Leq(w), "%s <= %s", b, w)
			if a.IsBottom() {
				assert.True(t, j.Equals(b))
			}
		}
	}
}
