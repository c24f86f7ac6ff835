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

type nullDereference struct{ base }

func newNullDereference(env Env) Checker {
	return &nullDereference{newBase("nullity", "Null pointer dereference", env)}
}

func (c *nullDereference) Check(stmt ar.Statement, inv value.AbstractValue, _ *engine.CallContext) {
	ptr, _, ok := dereferenced(stmt)
	if !ok {
		return
	}
	const kind = "null-dereference"
	if c.unreachable(stmt, inv, kind) {
		return
	}
	p := c.env.Eval.Pointer(inv.Normal, ptr)
	switch {
	case p.Nullity.IsNull():
		c.emit(stmt, kind, Error, "%s is null", ptr)
	case p.Nullity.IsNonNull():
		c.emit(stmt, kind, Ok, "%s is not null", ptr)
	case p.Nullity.IsTop():
		c.emit(stmt, kind, Warning, "%s may be null", ptr)
	}
}

type bufferOverflow struct{ base }

func newBufferOverflow(env Env) Checker {
	return &bufferOverflow{newBase("boa", "Buffer overflow", env)}
}

// access is the outcome of a memory access on one object
type access int

const (
	inBounds access = iota
	mayOverflow
	overflows
)

func (c *bufferOverflow) Check(stmt ar.Statement, inv value.AbstractValue, _ *engine.CallContext) {
	ptr, t, ok := dereferenced(stmt)
	if !ok {
		return
	}
	const kind = "buffer-overflow"
	if c.unreachable(stmt, inv, kind) {
		return
	}
	size, ok := c.env.Eval.Layout.SizeOf(t)
	if !ok {
		return
	}
	p := c.env.Eval.Pointer(inv.Normal, ptr)
	if p.PointsTo.IsTop() {
		if c.env.Eval.Precision >= engine.Pointer {
			c.emit(stmt, kind, Warning, "%s may point to any object", ptr)
		}
		return
	}
	objs := p.PointsTo.Objects()
	if len(objs) == 0 {
		// only null, reported by the null dereference checker
		return
	}
	offset := p.Offset.Interval()
	if offset.IsBottom() {
		return
	}
	all := make([]access, 0, len(objs))
	for _, obj := range objs {
		objSize, ok := c.env.Eval.ObjectSize(inv.Normal, obj)
		if !ok {
			all = append(all, mayOverflow)
			continue
		}
		all = append(all, checkAccess(offset, size, objSize.Interval()))
	}
	switch summarize(all) {
	case inBounds:
		c.emit(stmt, kind, Ok, "access of %d bytes at offset %s of %s is in bounds", size, offset, p.PointsTo)
	case overflows:
		c.emit(stmt, kind, Error, "access of %d bytes at offset %s overflows %s", size, offset, p.PointsTo)
	default:
		c.emit(stmt, kind, Warning, "access of %d bytes at offset %s may overflow %s", size, offset, p.PointsTo)
	}
}

// checkAccess checks an access of size bytes at the given offset of an object of the given size
func checkAccess(offset numeric.Interval, size int64, objSize numeric.Interval) access {
	if objSize.IsBottom() {
		return mayOverflow
	}
	n := big.NewInt(size)
	lo, hi := offset.Lo(), offset.Hi()
	// the access is always before the object, or always after its largest possible end
	if hi != nil && hi.Sign() < 0 {
		return overflows
	}
	if lo != nil && objSize.Hi() != nil && new(big.Int).Add(lo, n).Cmp(objSize.Hi()) > 0 {
		return overflows
	}
	if lo != nil && lo.Sign() >= 0 && hi != nil && objSize.Lo() != nil &&
		new(big.Int).Add(hi, n).Cmp(objSize.Lo()) <= 0 {
		return inBounds
	}
	return mayOverflow
}

func summarize(all []access) access {
	res := all[0]
	for _, a := range all[1:] {
		if a != res {
			return mayOverflow
		}
	}
	return res
}

type useAfterFree struct{ base }

func newUseAfterFree(env Env) Checker {
	return &useAfterFree{newBase("uaf", "Use after free", env)}
}

func (c *useAfterFree) Check(stmt ar.Statement, inv value.AbstractValue, _ *engine.CallContext) {
	kind := "use-after-free"
	ptr, _, ok := dereferenced(stmt)
	if !ok {
		args, ok := intrinsicCall(stmt, ar.IntrinsicFree)
		if !ok || len(args) == 0 {
			return
		}
		kind, ptr = "double-free", args[0]
	}
	if c.unreachable(stmt, inv, kind) {
		return
	}
	p := c.env.Eval.Pointer(inv.Normal, ptr)
	if p.PointsTo.IsTop() || p.PointsTo.IsEmpty() {
		return
	}
	allocated, freed := 0, 0
	for _, obj := range p.PointsTo.Objects() {
		switch l := inv.Normal.Lifetime(obj); {
		case l.IsAllocated():
			allocated++
		case l.IsDeallocated():
			freed++
		}
	}
	n := len(p.PointsTo.Objects())
	switch {
	case freed == n:
		c.emit(stmt, kind, Error, "%s points to freed memory %s", ptr, p.PointsTo)
	case freed > 0:
		c.emit(stmt, kind, Warning, "%s may point to freed memory %s", ptr, p.PointsTo)
	case allocated == n:
		c.emit(stmt, kind, Ok, "%s points to allocated memory %s", ptr, p.PointsTo)
	}
}
