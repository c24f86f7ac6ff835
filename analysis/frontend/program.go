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

package frontend

import (
	"fmt"

	"github.com/awslabs/ar-go-absint/analysis/ar"
	"github.com/awslabs/ar-go-absint/analysis/config"
	"github.com/awslabs/ar-go-absint/analysis/domain/value"
	"github.com/awslabs/ar-go-absint/analysis/pointer"
	gopointer "golang.org/x/tools/go/pointer"
	"golang.org/x/tools/go/ssa"
	"golang.org/x/tools/go/ssa/ssautil"
)

// Program is a loaded program with its AR translation
type Program struct {
	LoadedProgram

	// Bundle holds the functions of the loaded packages
	Bundle *ar.Bundle

	lowering *Lowering
	queries  map[ssa.Value]gopointer.Pointer
}

// Translate lowers the functions of the loaded packages into a bundle called name
func Translate(lp LoadedProgram, name string, cfg *config.Config, log *config.LogGroup) *Program {
	l := NewLowering(name, lp.Program.Fset, cfg, log)
	fns := lp.Functions()
	l.Lower(fns)
	l.log.Infof("Lowered %d functions", len(fns))
	return &Program{LoadedProgram: lp, Bundle: l.Bundle(), lowering: l}
}

// Lowering returns the lowering of the program
func (p *Program) Lowering() *Lowering { return p.lowering }

// RunPointerAnalysis runs the whole-program pointer analysis of golang.org/x/tools/go/pointer on the main packages
// of the program, for the pointer parameters of the lowered functions. Its results are returned by PointsTo.
func (p *Program) RunPointerAnalysis() error {
	mains := ssautil.MainPackages(p.Packages)
	if len(mains) == 0 {
		return fmt.Errorf("pointer analysis needs a main package")
	}
	cfg := &gopointer.Config{Mains: mains}
	for _, fn := range p.Bundle.Functions() {
		f, ok := p.lowering.Source(fn)
		if !ok || fn.IsDeclaration() {
			continue
		}
		for _, param := range f.Params {
			if gopointer.CanPoint(param.Type()) {
				cfg.AddQuery(param)
			}
		}
	}
	res, err := gopointer.Analyze(cfg)
	if err != nil {
		return fmt.Errorf("pointer analysis failed: %w", err)
	}
	p.queries = res.Queries
	return nil
}

// PointsTo returns the points-to results of fn: the results of the intraprocedural pre-analysis, where the
// parameters point to the objects found by the whole-program pointer analysis. Parameters that may point to objects
// without AR counterpart are left unknown.
func (p *Program) PointsTo(fn *ar.Function) *pointer.Results {
	r := pointer.Analyze(fn)
	f, ok := p.lowering.Source(fn)
	if !ok || p.queries == nil {
		return r
	}
	for i, param := range f.Params {
		q, ok := p.queries[param]
		if !ok || i >= len(fn.Params()) {
			continue
		}
		if s, ok := p.objectsOf(q); ok {
			r.Set(fn.Params()[i], s)
		}
	}
	return r
}

func (p *Program) objectsOf(q gopointer.Pointer) (value.PointsToSet, bool) {
	s := value.EmptyPointsTo()
	for _, label := range q.PointsTo().Labels() {
		v := label.Value()
		if f, ok := v.(*ssa.Function); ok {
			fn, ok := p.lowering.Function(f)
			if !ok {
				return s, false
			}
			s = s.Add(fn)
			continue
		}
		obj, ok := p.lowering.Object(v)
		if !ok {
			return s, false
		}
		s = s.Add(obj)
	}
	return s, true
}
