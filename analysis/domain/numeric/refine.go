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

// RefineComparison returns the values of x and y in the states where x pred y holds. The result is bottom for both
// when the comparison cannot hold.
func RefineComparison(pred ar.Predicate, x, y Value) (Value, Value) {
	if x.IsBottom() || y.IsBottom() {
		return x.Kind().Bottom(), y.Kind().Bottom()
	}
	ix, iy := x.Interval(), y.Interval()
	var rx, ry Interval
	switch pred {
	case ar.EQ:
		m := ix.Meet(iy).(Interval)
		rx, ry = m, m
		if m.bottom {
			break
		}
		// both sides must agree on every abstract component
		nx := x.Meet(y)
		if nx.IsBottom() {
			return x.Kind().Bottom(), y.Kind().Bottom()
		}
		return nx.MeetInterval(m), y.Meet(x).MeetInterval(m)
	case ar.NE:
		rx, ry = refineNotEqual(ix, iy), refineNotEqual(iy, ix)
		if n, ok := ix.Singleton(); ok {
			if m, ok := iy.Singleton(); ok && n.Cmp(m) == 0 {
				rx, ry = BottomInterval(), BottomInterval()
			}
		}
	case ar.LT:
		rx = ix.Meet(Interval{hi: boundMinus(iy.hi, 1)}).(Interval)
		ry = iy.Meet(Interval{lo: boundPlus(ix.lo, 1)}).(Interval)
	case ar.LE:
		rx = ix.Meet(Interval{hi: iy.hi}).(Interval)
		ry = iy.Meet(Interval{lo: ix.lo}).(Interval)
	case ar.GT:
		ry2, rx2 := RefineComparison(ar.LT, y, x)
		return rx2, ry2
	case ar.GE:
		ry2, rx2 := RefineComparison(ar.LE, y, x)
		return rx2, ry2
	}
	if rx.bottom || ry.bottom {
		return x.Kind().Bottom(), y.Kind().Bottom()
	}
	return x.MeetInterval(rx), y.MeetInterval(ry)
}

// refineNotEqual removes the bound of x equal to the singleton y
func refineNotEqual(x, y Interval) Interval {
	n, ok := y.Singleton()
	if !ok || x.bottom {
		return x
	}
	lo, hi := x.lo, x.hi
	if lo != nil && lo.Cmp(n) == 0 {
		lo = boundPlus(lo, 1)
	}
	if hi != nil && hi.Cmp(n) == 0 {
		hi = boundMinus(hi, 1)
	}
	return NewInterval(lo, hi)
}

func boundPlus(v *big.Int, k int64) *big.Int {
	if v == nil {
		return nil
	}
	return new(big.Int).Add(v, big.NewInt(k))
}

func boundMinus(v *big.Int, k int64) *big.Int {
	if v == nil {
		return nil
	}
	return new(big.Int).Sub(v, big.NewInt(k))
}
