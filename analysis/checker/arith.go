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

package checker

import (
	"math/big"

	"github.com/awslabs/ar-go-absint/analysis/ar"
	"github.com/awslabs/ar-go-absint/analysis/domain/numeric"
	"github.com/awslabs/ar-go-absint/analysis/domain/value"
	"github.com/awslabs/ar-go-absint/analysis/engine"
)

type divisionByZero struct{ base }

func newDivisionByZero(env Env) Checker {
	return &divisionByZero{newBase("dbz", "Division by zero", env)}
}

func (c *divisionByZero) Check(stmt ar.Statement, inv value.AbstractValue, _ *engine.CallContext) {
	s, ok := stmt.(*ar.BinaryOperation)
	if !ok || (s.Op() != ar.Div && s.Op() != ar.Rem) || !ar.IsInteger(s.Right().Type()) {
		return
	}
	const kind = "division-by-zero"
	if c.unreachable(stmt, inv, kind) {
		return
	}
	d := c.env.Eval.Int(inv.Normal, s.Right())
	switch {
	case isZero(d):
		c.emit(stmt, kind, Error, "divisor %s is zero", s.Right())
	case numeric.Contains(d, zero):
		c.emit(stmt, kind, Warning, "divisor %s may be zero: %s", s.Right(), d)
	default:
		c.emit(stmt, kind, Ok, "divisor %s is not zero: %s", s.Right(), d)
	}
}

var zero = new(big.Int)

func isZero(v numeric.Value) bool {
	n, ok := numeric.Singleton(v)
	return ok && n.Sign() == 0
}

// overflow checks the operations that must not wrap around, for either signed or unsigned integers
type overflow struct {
	base
	signed bool
}

func newSignedOverflow(env Env) Checker {
	return &overflow{base: newBase("sio", "Signed integer overflow", env), signed: true}
}

func newUnsignedOverflow(env Env) Checker {
	return &overflow{base: newBase("uio", "Unsigned integer overflow", env), signed: false}
}

// wideTypes holds the integer types large enough to compute the results of operations without wrapping around
var wideTypes = ar.NewContext()

func (c *overflow) Check(stmt ar.Statement, inv value.AbstractValue, _ *engine.CallContext) {
	s, ok := stmt.(*ar.BinaryOperation)
	if !ok || !s.NoWrap() {
		return
	}
	t, ok := s.ResultVar().Type().(*ar.IntegerType)
	if !ok || t.IsSigned() != c.signed {
		return
	}
	switch s.Op() {
	case ar.Add, ar.Sub, ar.Mul, ar.Shl:
	default:
		return
	}
	kind := "unsigned-overflow"
	if c.signed {
		kind = "signed-overflow"
	}
	if c.unreachable(stmt, inv, kind) {
		return
	}
	l, r := c.env.Eval.Int(inv.Normal, s.Left()), c.env.Eval.Int(inv.Normal, s.Right())
	wide := wideTypes.IntegerType(2*t.BitWidth()+2, ar.Signed)
	if s.Op() == ar.Shl {
		// shifting by the full width of t is enough to overflow
		wide = wideTypes.IntegerType(3*t.BitWidth()+2, ar.Signed)
	}
	exact := l.Apply(s.Op(), r, wide).Interval()
	rng := numeric.TypeRange(t)
	switch {
	case exact.IsBottom():
		return
	case exact.Leq(rng):
		c.emit(stmt, kind, Ok, "%s is within the range of %s", exact, t)
	case rng.Meet(exact).IsBottom():
		c.emit(stmt, kind, Error, "%s always overflows %s", exact, t)
	default:
		c.emit(stmt, kind, Warning, "%s may overflow %s", exact, t)
	}
}
