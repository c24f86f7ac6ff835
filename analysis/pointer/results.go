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

// Package pointer implements the points-to pre-analysis of the value analysis: a flow-insensitive, field-insensitive
// inclusion-based analysis of a function body.
//
// The value analysis tracks pointers precisely along the control flow and only consults these results when its own
// points-to set of a pointer is unknown.
package pointer

import (
	"sync"

	"github.com/awslabs/ar-go-absint/analysis/ar"
	"github.com/awslabs/ar-go-absint/analysis/domain/value"
)

// Results maps the pointer variables of a function to the memory objects they may point to. Variables without
// entry may point anywhere. Results are safe for concurrent use.
type Results struct {
	mu       sync.RWMutex
	pointsTo map[ar.Variable]value.PointsToSet
	contents map[ar.MemoryObject]value.PointsToSet
}

// NewResults returns empty results, where every pointer may point anywhere
func NewResults() *Results {
	return &Results{
		pointsTo: map[ar.Variable]value.PointsToSet{},
		contents: map[ar.MemoryObject]value.PointsToSet{},
	}
}

// Set records the points-to set of a variable
func (r *Results) Set(v ar.Variable, s value.PointsToSet) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pointsTo[v] = s
}

// SetContents records the points-to set of the pointers stored in an object
func (r *Results) SetContents(o ar.MemoryObject, s value.PointsToSet) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.contents[o] = s
}

// PointsTo returns the objects v may point to. Address constants point to their object, null points to nothing.
func (r *Results) PointsTo(v ar.Value) value.PointsToSet {
	switch v := v.(type) {
	case *ar.LocalVariable:
		return value.NewPointsTo(v)
	case *ar.GlobalVariable:
		return value.NewPointsTo(v)
	case *ar.FunctionPointerConstant:
		return value.NewPointsTo(v.Function())
	case *ar.NullConstant, *ar.UndefinedConstant:
		return value.EmptyPointsTo()
	case ar.Variable:
		if r == nil {
			return value.TopPointsTo()
		}
		r.mu.RLock()
		defer r.mu.RUnlock()
		if s, ok := r.pointsTo[v]; ok {
			return s
		}
	}
	return value.TopPointsTo()
}

// Contents returns the objects the pointers stored in o may point to
func (r *Results) Contents(o ar.MemoryObject) value.PointsToSet {
	if r == nil {
		return value.TopPointsTo()
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	if s, ok := r.contents[o]; ok {
		return s
	}
	return value.TopPointsTo()
}

// Callees returns the functions an indirect call may target, and false if they are unknown
func (r *Results) Callees(call *ar.CallBase) ([]*ar.Function, bool) {
	if fn, ok := call.CalledFunction(); ok {
		return []*ar.Function{fn}, true
	}
	s := r.PointsTo(call.Called())
	if s.IsTop() {
		return nil, false
	}
	var fns []*ar.Function
	for _, o := range s.Objects() {
		if fn, ok := o.(*ar.Function); ok {
			fns = append(fns, fn)
		}
	}
	return fns, true
}

// Len returns the number of variables with a known points-to set
func (r *Results) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.pointsTo)
}
