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

package pointer

import (
	"github.com/awslabs/ar-go-absint/analysis/ar"
	"github.com/awslabs/ar-go-absint/analysis/domain/value"
)

type pts struct {
	top  bool
	objs []ar.MemoryObject
	seen map[ar.MemoryObject]bool
}

type analysis struct {
	constraints []constraint
	sets        map[node]*pts
	escaped     map[ar.MemoryObject]bool
}

// Analyze computes the points-to sets of the variables of a function body. Parameters, landing pad results and the
// results of calls to unknown functions may point anywhere. Objects whose address is passed to a call escape: their
// contents may point anywhere after the analysis.
func Analyze(fn *ar.Function) *Results {
	r := NewResults()
	if fn.IsDeclaration() {
		return r
	}
	a := &analysis{sets: map[node]*pts{}, escaped: map[ar.MemoryObject]bool{}}
	for _, p := range fn.Params() {
		a.add(&topConstraint{dst: p})
	}
	for _, b := range fn.Body().Blocks() {
		for _, s := range b.Statements() {
			a.generate(s)
		}
	}
	for changed := true; changed; {
		changed = false
		for _, c := range a.constraints {
			changed = c.solve(a) || changed
		}
	}
	for n, s := range a.sets {
		switch n := n.(type) {
		case ar.Variable:
			r.Set(n, s.toSet())
		case contentOf:
			if a.isTop(n) {
				r.SetContents(n.obj, value.TopPointsTo())
			} else {
				r.SetContents(n.obj, s.toSet())
			}
		}
	}
	return r
}

func (a *analysis) add(c constraint) { a.constraints = append(a.constraints, c) }

// operand adds the constraints giving the points-to set of an operand to dst
func (a *analysis) operand(dst node, v ar.Value) {
	switch v := v.(type) {
	case *ar.LocalVariable:
		a.add(&addrConstraint{dst: dst, obj: v})
	case *ar.GlobalVariable:
		a.add(&addrConstraint{dst: dst, obj: v})
	case *ar.FunctionPointerConstant:
		a.add(&addrConstraint{dst: dst, obj: v.Function()})
	case *ar.InternalVariable:
		a.add(&copyConstraint{dst: dst, src: v})
	}
}

// generate adds the constraints of a statement
//
//gocyclo:ignore
func (a *analysis) generate(s ar.Statement) {
	switch s := s.(type) {
	case *ar.Assignment:
		a.operand(s.ResultVar(), s.Operand())
	case *ar.UnaryOperation:
		switch s.Op() {
		case ar.Bitcast:
			a.operand(s.ResultVar(), s.Operand())
		case ar.IntToPtr:
			a.add(&topConstraint{dst: s.ResultVar()})
		}
	case *ar.PointerShift:
		a.operand(s.ResultVar(), s.Base())
	case *ar.Load:
		tmp := &pointerTemp{s}
		a.operand(tmp, s.Operand())
		a.add(&loadConstraint{dst: s.ResultVar(), src: tmp})
	case *ar.Store:
		ptr, val := &pointerTemp{s}, &valueTemp{s}
		a.operand(ptr, s.Pointer())
		a.operand(val, s.Value())
		a.add(&storeConstraint{dst: ptr, src: val})
	case *ar.Call:
		a.call(s, &s.CallBase, s)
	case *ar.Invoke:
		a.call(s, &s.CallBase, nil)
	case *ar.LandingPad:
		if s.ResultVar() != nil {
			a.add(&topConstraint{dst: s.ResultVar()})
		}
	}
}

// pointerTemp and valueTemp hold the points-to sets of the operands of memory accesses
type pointerTemp struct{ s ar.Statement }
type valueTemp struct{ s ar.Statement }

// call adds the constraints of the call statement stmt. site is the statement allocating on the heap, nil for
// invokes.
func (a *analysis) call(stmt ar.Statement, call *ar.CallBase, site *ar.Call) {
	fn, direct := call.CalledFunction()
	if direct && fn.Intrinsic() != ar.NotIntrinsic {
		switch fn.Intrinsic() {
		case ar.IntrinsicHeapAlloc:
			if call.ResultVar() != nil && site != nil {
				a.add(&addrConstraint{dst: call.ResultVar(), obj: site.HeapSite()})
			}
		}
		return
	}
	for _, arg := range call.Args() {
		tmp := &valueTemp{stmt}
		a.operand(tmp, arg)
		a.add(&escapeConstraint{src: tmp})
	}
	if call.ResultVar() != nil {
		a.add(&topConstraint{dst: call.ResultVar()})
	}
}

func (a *analysis) get(n node) *pts {
	s, ok := a.sets[n]
	if !ok {
		s = &pts{seen: map[ar.MemoryObject]bool{}}
		a.sets[n] = s
	}
	return s
}

func (a *analysis) isTop(n node) bool {
	if c, ok := n.(contentOf); ok {
		// globals are initialized outside of the function
		if _, global := c.obj.(*ar.GlobalVariable); global || a.escaped[c.obj] {
			return true
		}
	}
	return a.get(n).top
}

func (a *analysis) objects(n node) []ar.MemoryObject { return a.get(n).objs }

func (a *analysis) setTop(n node) bool {
	s := a.get(n)
	if s.top {
		return false
	}
	s.top = true
	return true
}

func (a *analysis) addObj(n node, o ar.MemoryObject) bool {
	s := a.get(n)
	if s.seen[o] {
		return false
	}
	s.seen[o] = true
	s.objs = append(s.objs, o)
	return true
}

func (a *analysis) addAll(dst, src node) bool {
	changed := false
	if a.isTop(src) {
		changed = a.setTop(dst)
	}
	for _, o := range a.objects(src) {
		changed = a.addObj(dst, o) || changed
	}
	return changed
}

// escape marks the objects pointed to by n, and transitively their contents, as escaped
func (a *analysis) escape(n node) bool {
	changed := false
	work := append([]ar.MemoryObject{}, a.objects(n)...)
	for len(work) > 0 {
		o := work[len(work)-1]
		work = work[:len(work)-1]
		if a.escaped[o] {
			continue
		}
		a.escaped[o] = true
		changed = true
		work = append(work, a.objects(contentOf{o})...)
	}
	return changed
}

func (s *pts) toSet() value.PointsToSet {
	if s.top {
		return value.TopPointsTo()
	}
	return value.NewPointsTo(s.objs...)
}
