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
)

// bound is an integer extended with -oo and +oo
type bound struct {
	inf int // -1 for -oo, +1 for +oo, 0 for a finite value
	v   *big.Int
}

var (
	negInf = bound{inf: -1}
	posInf = bound{inf: 1}
)

func finite(v *big.Int) bound { return bound{v: v} }

func finite64(v int64) bound { return bound{v: big.NewInt(v)} }

// lowerBound converts the lower bound of an interval, nil being -oo
func lowerBound(v *big.Int) bound {
	if v == nil {
		return negInf
	}
	return finite(v)
}

// upperBound converts the upper bound of an interval, nil being +oo
func upperBound(v *big.Int) bound {
	if v == nil {
		return posInf
	}
	return finite(v)
}

// toBig returns the finite value of the bound, or nil for infinities
func (b bound) toBig() *big.Int {
	if b.inf != 0 {
		return nil
	}
	return b.v
}

func (b bound) isFinite() bool { return b.inf == 0 }

func (b bound) sign() int {
	if b.inf != 0 {
		return b.inf
	}
	return b.v.Sign()
}

func (b bound) cmp(o bound) int {
	switch {
	case b.inf != 0 || o.inf != 0:
		if b.inf == o.inf {
			return 0
		}
		if b.inf < o.inf {
			return -1
		}
		return 1
	default:
		return b.v.Cmp(o.v)
	}
}

func minBound(a, b bound) bound {
	if a.cmp(b) <= 0 {
		return a
	}
	return b
}

func maxBound(a, b bound) bound {
	if a.cmp(b) >= 0 {
		return a
	}
	return b
}

// add is undefined for -oo + +oo; callers never add infinities of opposite signs
func (b bound) add(o bound) bound {
	if b.inf != 0 {
		return b
	}
	if o.inf != 0 {
		return o
	}
	return finite(new(big.Int).Add(b.v, o.v))
}

func (b bound) neg() bound {
	if b.inf != 0 {
		return bound{inf: -b.inf}
	}
	return finite(new(big.Int).Neg(b.v))
}

func (b bound) mul(o bound) bound {
	if b.inf == 0 && o.inf == 0 {
		return finite(new(big.Int).Mul(b.v, o.v))
	}
	s := b.sign() * o.sign()
	if s == 0 {
		return finite64(0)
	}
	return bound{inf: s}
}

// quo is the truncated division by a non-zero bound
func (b bound) quo(o bound) bound {
	if b.inf == 0 && o.inf == 0 {
		return finite(new(big.Int).Quo(b.v, o.v))
	}
	if b.inf == 0 {
		return finite64(0)
	}
	s := b.sign() * o.sign()
	return bound{inf: s}
}
