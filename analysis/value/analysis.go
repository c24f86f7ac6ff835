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

// Package value runs the intraprocedural value analysis on the functions of a bundle: it computes the invariants
// of each function body with a FunctionFixpoint, runs the checkers on them and records the results in a database.
//
// Functions are independent: each one gets its own copy of the initial invariant, its own engine and its own
// checkers, so they can be analyzed in parallel.
package value

import (
	"fmt"

	"github.com/awslabs/ar-go-absint/analysis/ar"
	"github.com/awslabs/ar-go-absint/analysis/checker"
	"github.com/awslabs/ar-go-absint/analysis/config"
	"github.com/awslabs/ar-go-absint/analysis/domain/numeric"
	dom "github.com/awslabs/ar-go-absint/analysis/domain/value"
	"github.com/awslabs/ar-go-absint/analysis/engine"
	"github.com/awslabs/ar-go-absint/analysis/liveness"
	"github.com/awslabs/ar-go-absint/analysis/pointer"
	"github.com/awslabs/ar-go-absint/analysis/profile"
	"github.com/awslabs/ar-go-absint/analysis/results"
	"github.com/awslabs/ar-go-absint/internal/funcutil"
)

// Options are the options of the value analysis
type Options struct {
	// Kind is the numerical domain of the machine integers
	Kind numeric.Kind

	// Precision is the level of detail of the analysis
	Precision engine.Precision

	// Narrowing enables the decreasing iterations, for the domains that have a narrowing
	Narrowing bool

	// MaxNarrowingIterations bounds the decreasing iterations on each loop head, zero means no bound
	MaxNarrowingIterations int

	// WideningHints enables the fixpoint profiler
	WideningHints bool

	// Analyses are the names of the checkers to run
	Analyses []string

	// Jobs is the number of functions analyzed in parallel
	Jobs int
}

// OptionsFromConfig returns the options set in the configuration
func OptionsFromConfig(c *config.Config) Options {
	// the names are checked when the configuration is loaded
	kind, _ := numeric.ParseKind(c.Options.MachineIntDomain)
	precision, _ := engine.ParsePrecision(c.Options.Precision)
	return Options{
		Kind:                   kind,
		Precision:              precision,
		Narrowing:              c.Options.Narrowing,
		MaxNarrowingIterations: c.Options.MaxNarrowingIterations,
		WideningHints:          c.Options.WideningHints,
		Analyses:               c.Options.Analyses,
		Jobs:                   c.Options.Jobs,
	}
}

// IntraproceduralValueAnalysis analyzes every function of a bundle independently of its callers and callees
type IntraproceduralValueAnalysis struct {
	bundle   *ar.Bundle
	db       *results.Database
	opts     Options
	log      *config.LogGroup
	profiler *profile.Profiler

	// PointsTo returns the points-to results of a function. When nil, or when it returns nil, the points-to
	// pre-analysis of the function body is used.
	PointsTo func(*ar.Function) *pointer.Results

	// OnFixpoint is called with the fixpoint of each analyzed function, before the checks. It is called
	// concurrently when the functions are analyzed in parallel.
	OnFixpoint func(*FunctionFixpoint)
}

// NewIntraproceduralValueAnalysis returns the analysis of bundle, recording its results in db. log may be nil.
func NewIntraproceduralValueAnalysis(bundle *ar.Bundle, db *results.Database, opts Options,
	log *config.LogGroup) *IntraproceduralValueAnalysis {
	if log == nil {
		log = config.NewLogGroup(config.NewDefault())
	}
	a := &IntraproceduralValueAnalysis{bundle: bundle, db: db, opts: opts, log: log}
	if opts.WideningHints {
		a.profiler = profile.NewProfiler()
	}
	return a
}

// Run analyzes all the functions of the bundle. The failure of a function is recorded in the database and does not
// stop the analysis of the others.
func (a *IntraproceduralValueAnalysis) Run() {
	names := a.checkerNames()
	seed := dom.Top(a.opts.Kind)
	analyze := func(fn *ar.Function) bool {
		return a.analyzeFunction(fn, names, seed.Clone())
	}
	fns := a.bundle.Functions()
	if a.opts.Jobs > 1 {
		funcutil.MapParallel(fns, analyze, a.opts.Jobs)
		return
	}
	for _, fn := range fns {
		analyze(fn)
	}
}

// EntryInvariant returns the invariant at the entry of fn: the parameters are initialized with unknown values
func EntryInvariant(fn *ar.Function, seed dom.AbstractValue) dom.AbstractValue {
	for _, p := range fn.Params() {
		s := dom.TopScalar(seed.Kind(), p.Type())
		s.Uninit = dom.Initialized
		seed.Normal.SetScalar(p, s)
	}
	return seed
}

// checkerNames returns the names of the known checkers of the options, without duplicates
func (a *IntraproceduralValueAnalysis) checkerNames() []string {
	var names []string
	seen := map[string]bool{}
	for _, name := range a.opts.Analyses {
		if seen[name] {
			continue
		}
		seen[name] = true
		if _, err := checker.MakeChecker(name, checker.Env{}); err != nil {
			a.log.Warnf("Skipping checker: %s", err)
			continue
		}
		names = append(names, name)
	}
	return names
}

func (a *IntraproceduralValueAnalysis) evaluator(fn *ar.Function) engine.Evaluator {
	ev := engine.Evaluator{Kind: a.opts.Kind, Precision: a.opts.Precision, Layout: ar.DefaultDataLayout}
	if a.opts.Precision < engine.Pointer {
		return ev
	}
	if a.PointsTo != nil {
		ev.Pointers = a.PointsTo(fn)
	}
	if ev.Pointers == nil {
		ev.Pointers = pointer.Analyze(fn)
	}
	return ev
}

// timed runs f and records its duration under name, even when f panics
func (a *IntraproceduralValueAnalysis) timed(name string, f func()) {
	t := a.db.StartTimer(name)
	defer t.Stop()
	f()
}

// analyzeFunction computes the invariants of fn and runs the checkers. It returns false if the analysis failed.
func (a *IntraproceduralValueAnalysis) analyzeFunction(fn *ar.Function, names []string,
	seed dom.AbstractValue) (ok bool) {
	name := fn.Name()
	if fn.IsDeclaration() {
		a.db.AddFunction(name, results.Declaration)
		return true
	}
	a.db.AddFunction(name, results.Analyzed)

	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("analysis of %s failed: %v", name, r)
			a.log.Errorf("%s", err)
			a.db.SetFailed(name, err)
			ok = false
		}
	}()

	ev := a.evaluator(fn)
	opts := engine.Options{Evaluator: ev, Liveness: liveness.Analyze(fn.Body()), Log: a.log}
	params := FixpointParameters{
		Narrowing:              a.opts.Narrowing && a.opts.Kind.HasNarrowing(),
		MaxNarrowingIterations: a.opts.MaxNarrowingIterations,
	}
	if a.profiler != nil {
		params.Profile = a.profiler.Profile(fn)
	}
	fp := NewFunctionFixpoint(fn, engine.DefaultCallContexts.Empty(), opts, params)

	a.log.Infof("Analyzing function: %s", name)
	a.timed("absint.value."+name, func() { fp.Run(EntryInvariant(fn, seed)) })
	if a.OnFixpoint != nil {
		a.OnFixpoint(fp)
	}

	a.log.Infof("Checking properties and writing results for function: %s", name)
	a.timed("absint.check."+name, func() {
		env := checker.Env{Eval: ev, Frontend: a.bundle.Frontend, Log: a.log}
		checkers := make([]checker.Checker, 0, len(names))
		for _, n := range names {
			c, err := checker.MakeChecker(n, env)
			if err != nil {
				panic(err)
			}
			checkers = append(checkers, c)
		}
		fp.RunChecks(checkers)
		for _, c := range checkers {
			a.db.AddChecks(c.Sink().Drain()...)
		}
	})
	return true
}
