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

// Package annotate writes results of the value analysis back into the Go sources: the declaration of every
// function returning an integer gets a comment giving the range of its results.
package annotate

import (
	"go/ast"
	"go/token"
	"io"
	"strings"
	"sync"

	"github.com/awslabs/ar-go-absint/analysis/ar"
	"github.com/awslabs/ar-go-absint/analysis/config"
	"github.com/awslabs/ar-go-absint/analysis/domain/numeric"
	"github.com/awslabs/ar-go-absint/analysis/frontend"
	"github.com/awslabs/ar-go-absint/analysis/results"
	"github.com/awslabs/ar-go-absint/analysis/value"
	"github.com/dave/dst"
	"github.com/dave/dst/decorator"
	"github.com/dave/dst/decorator/resolver/gopackages"
)

// Marker starts the comments written by Annotate. Comments with the marker are replaced when a file is annotated
// again.
const Marker = "//absint:returns "

// Unreachable is the range of the functions that never return
const Unreachable = "none"

// Key identifies a function by the position of its name in the sources
type Key struct {
	Filename string
	Line     int
	Column   int
}

// KeyOf returns the key of the function whose name is at pos
func KeyOf(pos token.Position) Key {
	return Key{Filename: pos.Filename, Line: pos.Line, Column: pos.Column}
}

// ReturnRanges analyzes the functions of p and returns the range of the result of each function returning an
// integer. The checkers of the options are not run.
func ReturnRanges(p *frontend.Program, opts value.Options, log *config.LogGroup) map[Key]numeric.Interval {
	var mu sync.Mutex
	ranges := map[Key]numeric.Interval{}
	opts.Analyses = nil
	a := value.NewIntraproceduralValueAnalysis(p.Bundle, results.NewDatabase(), opts, log)
	a.PointsTo = p.PointsTo
	a.OnFixpoint = func(fp *value.FunctionFixpoint) {
		fn := fp.Function()
		src, ok := p.Lowering().Source(fn)
		if !ok || src.Syntax() == nil {
			return
		}
		ret, ok := returned(fn)
		if !ok {
			return
		}
		exit, _ := fn.Body().Exit()
		itv := fp.Pre(exit).Normal.Int(ret).Interval()
		pos := p.Program.Fset.Position(src.Pos())
		mu.Lock()
		defer mu.Unlock()
		ranges[KeyOf(pos)] = itv
	}
	a.Run()
	return ranges
}

// returned returns the variable returned by the exit block of fn, if it is an integer
func returned(fn *ar.Function) (ar.Variable, bool) {
	exit, ok := fn.Body().Exit()
	if !ok {
		return nil, false
	}
	for _, s := range exit.Statements() {
		if r, ok := s.(*ar.ReturnValue); ok {
			v, ok := r.Operand().(ar.Variable)
			if ok && ar.IsInteger(v.Type()) {
				return v, true
			}
		}
	}
	return nil, false
}

// Comment returns the comment annotating a function with the range itv
func Comment(itv numeric.Interval) string {
	if itv.IsBottom() {
		return Marker + Unreachable
	}
	return Marker + itv.String()
}

// Annotate adds the comments of the ranges to the function declarations of pkgs, and returns the number of
// annotated functions
func Annotate(pkgs []*decorator.Package, ranges map[Key]numeric.Interval) int {
	n := 0
	for _, pkg := range pkgs {
		for _, file := range pkg.Syntax {
			for _, decl := range file.Decls {
				fd, ok := decl.(*dst.FuncDecl)
				if !ok {
					continue
				}
				astDecl, ok := pkg.Decorator.Ast.Nodes[fd].(*ast.FuncDecl)
				if !ok {
					continue
				}
				itv, ok := ranges[KeyOf(pkg.Fset.Position(astDecl.Name.Pos()))]
				if !ok {
					continue
				}
				setComment(fd, Comment(itv))
				n++
			}
		}
	}
	return n
}

// setComment replaces the annotation of fd with comment, after its documentation
func setComment(fd *dst.FuncDecl, comment string) {
	var kept []string
	for _, c := range fd.Decs.Start.All() {
		if !strings.HasPrefix(c, Marker) {
			kept = append(kept, c)
		}
	}
	fd.Decs.Start.Replace(append(kept, comment)...)
	if fd.Decs.Before == dst.None {
		fd.Decs.Before = dst.NewLine
	}
}

// Print writes the sources of the files of pkg to w. The imports of the files are resolved in the directory of pkg.
func Print(w io.Writer, pkg *decorator.Package) error {
	r := decorator.NewRestorerWithImports(pkg.PkgPath, gopackages.New(pkg.Dir))
	for _, file := range pkg.Syntax {
		if err := r.Fprint(w, file); err != nil {
			return err
		}
	}
	return nil
}
