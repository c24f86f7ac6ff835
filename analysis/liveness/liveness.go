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

// Package liveness computes the live registers of the function bodies of an AR bundle.
//
// The value analysis uses the results to forget the registers that are dead at the exit of each block, which keeps
// the abstract environments small.
package liveness

import (
	"github.com/awslabs/ar-go-absint/analysis/ar"
	"golang.org/x/exp/slices"
)

type varSet map[*ar.InternalVariable]bool

// Results holds the liveness information of one function body
type Results struct {
	code *ar.Code

	// liveOut[b] is the set of registers live at the exit of b
	liveOut map[*ar.BasicBlock]varSet

	// dead[b] are the registers read or written in b that are not live at its exit, sorted by id
	dead map[*ar.BasicBlock][]*ar.InternalVariable
}

// Analyze computes the live registers of code. Only internal variables are tracked: local and global variables are
// memory objects whose address is constant.
func Analyze(code *ar.Code) *Results {
	blocks := code.Blocks()
	uses := make(map[*ar.BasicBlock]varSet, len(blocks))
	defs := make(map[*ar.BasicBlock]varSet, len(blocks))
	for _, b := range blocks {
		uses[b], defs[b] = useDef(b)
	}

	r := &Results{
		code:    code,
		liveOut: make(map[*ar.BasicBlock]varSet, len(blocks)),
		dead:    make(map[*ar.BasicBlock][]*ar.InternalVariable, len(blocks)),
	}
	liveIn := make(map[*ar.BasicBlock]varSet, len(blocks))
	for _, b := range blocks {
		r.liveOut[b] = varSet{}
		liveIn[b] = varSet{}
	}
	// round-robin in reverse block order until stable. Sets only grow, so this terminates.
	for changed := true; changed; {
		changed = false
		for i := len(blocks) - 1; i >= 0; i-- {
			b := blocks[i]
			out := r.liveOut[b]
			for _, s := range b.Successors() {
				for v := range liveIn[s] {
					if !out[v] {
						out[v] = true
						changed = true
					}
				}
			}
			in := liveIn[b]
			for v := range uses[b] {
				if !in[v] {
					in[v] = true
					changed = true
				}
			}
			for v := range out {
				if !defs[b][v] && !in[v] {
					in[v] = true
					changed = true
				}
			}
		}
	}

	for _, b := range blocks {
		var dead []*ar.InternalVariable
		for v := range uses[b] {
			if !r.liveOut[b][v] {
				dead = append(dead, v)
			}
		}
		for v := range defs[b] {
			if !r.liveOut[b][v] && !uses[b][v] {
				dead = append(dead, v)
			}
		}
		sortVars(dead)
		r.dead[b] = dead
	}
	return r
}

// useDef returns the registers read before being written in b, and the registers written in b
func useDef(b *ar.BasicBlock) (varSet, varSet) {
	uses, defs := varSet{}, varSet{}
	for _, s := range b.Statements() {
		for _, op := range s.Operands() {
			if v, ok := op.(*ar.InternalVariable); ok && !defs[v] {
				uses[v] = true
			}
		}
		if v, ok := s.Result().(*ar.InternalVariable); ok {
			defs[v] = true
		}
	}
	return uses, defs
}

func sortVars(vars []*ar.InternalVariable) {
	slices.SortFunc(vars, func(a, b *ar.InternalVariable) bool { return a.ID() < b.ID() })
}

// Code returns the analyzed body
func (r *Results) Code() *ar.Code { return r.code }

// IsLiveOut returns true if v is live at the exit of b
func (r *Results) IsLiveOut(b *ar.BasicBlock, v *ar.InternalVariable) bool {
	return r.liveOut[b][v]
}

// LiveOut returns the registers live at the exit of b, sorted by id
func (r *Results) LiveOut(b *ar.BasicBlock) []*ar.InternalVariable {
	vars := make([]*ar.InternalVariable, 0, len(r.liveOut[b]))
	for v := range r.liveOut[b] {
		vars = append(vars, v)
	}
	sortVars(vars)
	return vars
}

// DeadAtExit returns the registers read or written in b that are dead at its exit, sorted by id
func (r *Results) DeadAtExit(b *ar.BasicBlock) []*ar.InternalVariable {
	return r.dead[b]
}
