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


// Package analysistest provides the helpers of the tests that analyze the programs of the testdata directory. The
// expected checks are written in the source of the programs, as comments of the form "@Error(dbz)".
package analysistest

import (
	"errors"
	"fmt"
	"go/parser"
	"go/token"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/awslabs/ar-go-absint/analysis/checker"
	"github.com/awslabs/ar-go-absint/analysis/config"
	"github.com/awslabs/ar-go-absint/analysis/frontend"
	"golang.org/x/tools/go/packages"
	"golang.org/x/tools/go/ssa"
)

// LoadTest loads the program in the directory dir, which must contain a go.mod, with the config.yaml of the
// directory. The default configuration is used when there is no config.yaml.
func LoadTest(t *testing.T, dir string) (frontend.LoadedProgram, *config.Config) {
	cfg := config.NewDefault()
	configFile := filepath.Join(dir, "config.yaml")
	if _, err := os.Stat(configFile); err == nil {
		config.SetGlobalConfig(configFile)
		cfg, err = config.LoadGlobal()
		if err != nil {
			t.Fatalf("error loading config: %v", err)
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("error reading config: %v", err)
	}

	pcfg := &packages.Config{Mode: frontend.PkgLoadMode, Dir: dir, Fset: token.NewFileSet()}
	lp, err := frontend.LoadProgram(pcfg, "", ssa.BuilderMode(0), []string{"."})
	if err != nil {
		t.Fatalf("error loading packages: %v", err)
	}
	return lp, cfg
}

// ExpectRegex matches annotations of the form "@Error(dbz, boa)"
var ExpectRegex = regexp.MustCompile(`//.*@(Ok|Warning|Error|Unreachable)\(((?:\s*\w+\s*,?)+)\)`)

// LPos is a position without column
type LPos struct {
	Filename string
	Line     int
}

func (p LPos) String() string {
	return fmt.Sprintf("%s:%d", p.Filename, p.Line)
}

// RemoveColumn drops the column of the position
func RemoveColumn(pos token.Position) LPos {
	return LPos{Line: pos.Line, Filename: pos.Filename}
}

// Expectation is a check expected at a line
type Expectation struct {
	Pos     LPos
	Checker string
	Result  checker.Result
}

func (e Expectation) String() string {
	return fmt.Sprintf("%s: [%s] %s", e.Pos, e.Result, e.Checker)
}

var results = map[string]checker.Result{
	"Ok":          checker.Ok,
	"Warning":     checker.Warning,
	"Error":       checker.Error,
	"Unreachable": checker.Unreachable,
}

// GetExpectedChecks parses the Go files of dir and returns the checks announced by their annotations. File names
// are absolute, like the positions of the loaded programs.
func GetExpectedChecks(t *testing.T, dir string) map[Expectation]bool {
	abs, err := filepath.Abs(dir)
	if err != nil {
		t.Fatalf("invalid directory %s: %v", dir, err)
	}
	files, err := filepath.Glob(filepath.Join(abs, "*.go"))
	if err != nil {
		t.Fatalf("could not list files of %s: %v", dir, err)
	}
	expected := map[Expectation]bool{}
	fset := token.NewFileSet()
	for _, file := range files {
		f, err := parser.ParseFile(fset, file, nil, parser.ParseComments)
		if err != nil {
			t.Fatalf("could not parse %s: %v", file, err)
		}
		for _, group := range f.Comments {
			for _, c := range group.List {
				a := ExpectRegex.FindStringSubmatch(c.Text)
				if len(a) < 3 {
					continue
				}
				pos := RemoveColumn(fset.Position(c.Pos()))
				for _, name := range strings.Split(a[2], ",") {
					expected[Expectation{Pos: pos, Checker: strings.TrimSpace(name), Result: results[a[1]]}] = true
				}
			}
		}
	}
	return expected
}

// CheckExpectations reports the expected checks that are missing, and the errors and warnings that are not expected
func CheckExpectations(t *testing.T, expected map[Expectation]bool, checks []checker.Check) {
	found := map[Expectation]bool{}
	for _, c := range checks {
		e := Expectation{Pos: RemoveColumn(c.Position), Checker: c.Checker, Result: c.Result}
		found[e] = true
		if (c.Result == checker.Error || c.Result == checker.Warning) && !expected[e] {
			t.Errorf("unexpected check %s", c)
		}
	}
	for e := range expected {
		if !found[e] {
			t.Errorf("missing check %s", e)
		}
	}
}
