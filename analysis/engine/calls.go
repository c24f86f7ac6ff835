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

package engine

import (
	"github.com/awslabs/ar-go-absint/analysis/ar"
	"github.com/awslabs/ar-go-absint/analysis/domain/numeric"
	"github.com/awslabs/ar-go-absint/analysis/domain/value"
)

// CallEngine executes the call statements (*ar.Call and *ar.Invoke) for a NumericalExecutionEngine
type CallEngine interface {
	ExecCall(e *NumericalExecutionEngine, s ar.Statement)
}

// TransferFunction executes s on the invariant of e, routing the calls to calls
func TransferFunction(e *NumericalExecutionEngine, calls CallEngine, s ar.Statement) {
	if ar.IsCall(s) {
		calls.ExecCall(e, s)
		return
	}
	e.Exec(s)
}

// ContextInsensitiveCallEngine models calls without analyzing the callee. Intrinsics have their built-in
// semantics. Any other call returns an unknown value of its return type, may modify the memory reachable from its
// pointer arguments and from the globals, and may throw.
type ContextInsensitiveCallEngine struct{}

func callBase(s ar.Statement) (*ar.CallBase, bool) {
	switch s := s.(type) {
	case *ar.Call:
		return &s.CallBase, true
	case *ar.Invoke:
		return &s.CallBase, true
	default:
		return nil, false
	}
}

// ExecCall implements CallEngine
func (c ContextInsensitiveCallEngine) ExecCall(e *NumericalExecutionEngine, s ar.Statement) {
	call, ok := callBase(s)
	if !ok || e.inv.Normal.IsBottom() {
		return
	}
	if fn, ok := call.CalledFunction(); ok && fn.Intrinsic() != ar.NotIntrinsic {
		c.execIntrinsic(e, fn.Intrinsic(), call, s)
		return
	}
	c.execUnknown(e, call, s)
}

func (c ContextInsensitiveCallEngine) execIntrinsic(e *NumericalExecutionEngine, id ar.Intrinsic,
	call *ar.CallBase, s ar.Statement) {
	m := &e.inv.Normal
	args := call.Args()
	switch id {
	case ar.IntrinsicAssert:
		if len(args) == 0 {
			return
		}
		cond := args[0]
		zero := e.Kind.Constant(bigInt(0))
		x, _ := numeric.RefineComparison(ar.NE, e.Int(*m, cond), zero)
		if x.IsBottom() {
			m.SetBottom()
			return
		}
		e.refineInt(cond, x)
	case ar.IntrinsicHeapAlloc:
		site, ok := s.(*ar.Call)
		if !ok || e.Precision < Pointer {
			e.havoc(call.ResultVar())
			return
		}
		obj := site.HeapSite()
		if e.Precision >= Memory {
			m.SetLifetime(obj, value.Allocated)
			m.ForgetCells(obj)
			if len(args) > 0 {
				m.SetAllocSize(obj, e.Int(*m, args[0]))
			}
		}
		e.assign(call.ResultVar(), value.Scalar{Ptr: value.AddressOf(e.Kind, obj), Uninit: value.Initialized})
	case ar.IntrinsicFree:
		if len(args) == 0 || e.Precision < Memory {
			return
		}
		p := e.Pointer(*m, args[0])
		if p.Nullity.IsNull() || p.PointsTo.IsTop() {
			return
		}
		objs := p.PointsTo.Objects()
		for _, obj := range objs {
			if len(objs) == 1 {
				m.SetLifetime(obj, value.Deallocated)
			} else {
				m.SetLifetime(obj, m.Lifetime(obj).Join(value.Deallocated))
			}
			m.ForgetCells(obj)
		}
	case ar.IntrinsicAbort:
		e.inv.SetNormalBottom()
	}
}

func (c ContextInsensitiveCallEngine) execUnknown(e *NumericalExecutionEngine, call *ar.CallBase, s ar.Statement) {
	m := &e.inv.Normal
	if e.Precision >= Memory {
		for _, arg := range call.Args() {
			if ar.IsPointer(arg.Type()) {
				e.havocMemory(e.Pointer(*m, arg))
			}
		}
		if bb := s.Parent(); bb != nil {
			for _, g := range bb.Code().Function().Bundle().Globals() {
				m.ForgetCells(g)
			}
		}
	}

	// the callee may throw, before returning a value
	if _, ok := s.(*ar.Invoke); ok {
		e.inv.MergeNormalIntoCaught()
	} else {
		e.inv.MergeNormalIntoPropagated()
	}

	e.havoc(call.ResultVar())
}
