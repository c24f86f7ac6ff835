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
	"go/ast"
	"go/token"
	"strings"

	"github.com/awslabs/ar-go-absint/analysis/checker"
	"golang.org/x/tools/go/packages"
)

// Directives represents a map of directive position to directive.
type Directives map[DirectivePos]Directive

// Directive is an instruction to the analyzer in the source code being analyzed.
// It is a comment in the form: `//absint:x`, where x is a valid DirectiveKind.
type Directive struct {
	Kind    DirectiveKind
	Comment *ast.Comment
}

// DirectivePos represents the position of a directive within a program.
type DirectivePos struct {
	Filename string
	Line     int
}

// NewDirectivePos creates a DirectivePos from a token.Position.
func NewDirectivePos(pos token.Position) DirectivePos {
	return DirectivePos{
		Filename: pos.Filename,
		Line:     pos.Line,
	}
}

// DirectiveKind represents the kind of directive.
type DirectiveKind string

const (
	// DirectiveIgnore drops the checks of the line of the directive, or of the next line for a directive alone on
	// its line.
	DirectiveIgnore DirectiveKind = "ignore"
)

// NewDirective returns the directive for c and true if c is a valid directive comment.
func NewDirective(c *ast.Comment) (Directive, bool) {
	_, after, found := strings.Cut(c.Text, "absint:")
	if !found {
		return Directive{}, false
	}
	switch k := DirectiveKind(strings.TrimSpace(after)); k {
	case DirectiveIgnore:
		return Directive{Kind: k, Comment: c}, true
	default:
		return Directive{}, false
	}
}

// FindDirectives returns all the directives in the syntax of pkgs
func FindDirectives(pkgs []*packages.Package) Directives {
	res := make(Directives)
	for _, p := range pkgs {
		if p.Fset == nil {
			continue
		}
		res.add(p.Fset, p.Syntax)
	}
	return res
}

// FileDirectives returns all the directives in files
func FileDirectives(fset *token.FileSet, files []*ast.File) Directives {
	res := make(Directives)
	res.add(fset, files)
	return res
}

func (ds Directives) add(fset *token.FileSet, files []*ast.File) {
	for _, file := range files {
		for _, group := range file.Comments {
			for _, c := range group.List {
				pos := fset.Position(c.Pos())
				if !pos.IsValid() {
					continue
				}
				if d, ok := NewDirective(c); ok {
					ds[NewDirectivePos(pos)] = d
				}
			}
		}
	}
}

// Ignores returns true if an ignore directive applies to pos
func (ds Directives) Ignores(pos token.Position) bool {
	if !pos.IsValid() {
		return false
	}
	for _, line := range []int{pos.Line, pos.Line - 1} {
		if d, ok := ds[DirectivePos{Filename: pos.Filename, Line: line}]; ok && d.Kind == DirectiveIgnore {
			return true
		}
	}
	return false
}

// Filter returns the checks that no directive ignores
func (ds Directives) Filter(checks []checker.Check) []checker.Check {
	if len(ds) == 0 {
		return checks
	}
	var kept []checker.Check
	for _, c := range checks {
		if !ds.Ignores(c.Position) {
			kept = append(kept, c)
		}
	}
	return kept
}
