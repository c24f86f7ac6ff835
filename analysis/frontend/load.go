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

// Package frontend translates Go programs into the abstract representation analyzed by the value analysis.
//
// Packages are loaded and type checked with golang.org/x/tools/go/packages, converted to SSA, and every function of
// the loaded packages is lowered into a function of an ar.Bundle. The lowering keeps the integer, boolean and
// pointer computations, the memory accesses and the control flow. Values of other types (strings, slices, maps,
// interfaces, channels, closures) are not represented: instructions producing integers or pointers out of them
// return unknown values.
package frontend

import (
	"fmt"
	"go/token"
	"go/types"
	"os"

	"golang.org/x/tools/go/packages"
	"golang.org/x/tools/go/ssa"
	"golang.org/x/tools/go/ssa/ssautil"
)

// PkgLoadMode is the loading mode of the front-end. Syntax is needed for the directives, types for the lowering.
const PkgLoadMode = packages.NeedName |
	packages.NeedFiles |
	packages.NeedCompiledGoFiles |
	packages.NeedImports |
	packages.NeedDeps |
	packages.NeedExportFile |
	packages.NeedTypes |
	packages.NeedSyntax |
	packages.NeedTypesInfo |
	packages.NeedTypesSizes |
	packages.NeedModule

// LoadedProgram is a program loaded and converted to SSA
type LoadedProgram struct {
	// Program is the SSA version of the program
	Program *ssa.Program

	// Packages are the SSA packages matching the patterns given to LoadProgram
	Packages []*ssa.Package

	// Directives are the //absint: comments of the source files of the loaded packages
	Directives Directives
}

// LoadProgram loads the packages matching patterns on platform (the current one if empty), and builds their SSA.
// To understand how to specify the patterns, look at the documentation of packages.Load.
func LoadProgram(config *packages.Config, platform string, buildmode ssa.BuilderMode,
	patterns []string) (LoadedProgram, error) {
	if config == nil {
		config = &packages.Config{
			Mode:  PkgLoadMode,
			Tests: false,
			Fset:  token.NewFileSet(),
		}
	}
	if platform != "" {
		config.Env = append(os.Environ(), fmt.Sprintf("GOOS=%s", platform))
	}

	initialPackages, err := packages.Load(config, patterns...)
	if err != nil {
		return LoadedProgram{}, fmt.Errorf("failed to load packages: %w", err)
	}
	if len(initialPackages) == 0 {
		return LoadedProgram{}, fmt.Errorf("no packages")
	}
	if packages.PrintErrors(initialPackages) > 0 {
		return LoadedProgram{}, fmt.Errorf("errors found in the loaded packages")
	}

	program, ssaPackages := ssautil.AllPackages(initialPackages, buildmode)
	for i, p := range ssaPackages {
		if p == nil {
			return LoadedProgram{}, fmt.Errorf("cannot build SSA for package %s", initialPackages[i])
		}
	}
	program.Build()

	return LoadedProgram{
		Program:    program,
		Packages:   ssaPackages,
		Directives: FindDirectives(initialPackages),
	}, nil
}

// Functions returns the functions with a body of the loaded packages, including anonymous functions and the
// methods of their types, in a deterministic order
func (lp LoadedProgram) Functions() []*ssa.Function {
	initial := map[*ssa.Package]bool{}
	for _, p := range lp.Packages {
		initial[p] = true
	}
	all := ssautil.AllFunctions(lp.Program)
	// methods that are never converted to an interface are not in the runtime types
	for _, p := range lp.Packages {
		for _, m := range p.Members {
			if t, ok := m.(*ssa.Type); ok {
				lp.addMethods(all, t.Type())
			}
		}
	}
	var fns []*ssa.Function
	for f := range all {
		if f.Blocks == nil || f.Synthetic != "" || !initial[f.Package()] {
			continue
		}
		fns = append(fns, f)
	}
	sortFunctions(fns)
	return fns
}

// addMethods adds to fns the methods of the named type t and of *t, with their anonymous functions
func (lp LoadedProgram) addMethods(fns map[*ssa.Function]bool, t types.Type) {
	named, ok := t.(*types.Named)
	if !ok || types.IsInterface(named) || named.TypeParams().Len() > 0 {
		return
	}
	for _, typ := range []types.Type{named, types.NewPointer(named)} {
		mset := lp.Program.MethodSets.MethodSet(typ)
		for i := 0; i < mset.Len(); i++ {
			if f := lp.Program.MethodValue(mset.At(i)); f != nil {
				addWithAnonymous(fns, f)
			}
		}
	}
}

func addWithAnonymous(fns map[*ssa.Function]bool, f *ssa.Function) {
	if fns[f] {
		return
	}
	fns[f] = true
	for _, anon := range f.AnonFuncs {
		addWithAnonymous(fns, anon)
	}
}
