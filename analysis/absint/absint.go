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

// Package absint provides the value analysis as a golang.org/x/tools/go/analysis analyzer, to run it with go vet
// or any other driver of analyzers. The functions of each package are lowered and analyzed separately, and the
// statements that may fail are reported as diagnostics.
package absint

import (
	"fmt"
	"go/ast"
	"go/token"

	"github.com/awslabs/ar-go-absint/analysis/checker"
	"github.com/awslabs/ar-go-absint/analysis/config"
	"github.com/awslabs/ar-go-absint/analysis/frontend"
	"github.com/awslabs/ar-go-absint/analysis/results"
	"github.com/awslabs/ar-go-absint/analysis/value"
	"golang.org/x/tools/go/analysis"
	"golang.org/x/tools/go/analysis/passes/buildssa"
)

// Analyzer reports the statements that the value analysis cannot prove safe
var Analyzer = &analysis.Analyzer{
	Name:     "absint",
	Doc:      "reports the statements that may fail according to the abstract interpretation of their function",
	Run:      run,
	Requires: []*analysis.Analyzer{buildssa.Analyzer},
}

var (
	configFile string
	warnings   bool
)

func init() {
	Analyzer.Flags.StringVar(&configFile, "config", "", "configuration file of the analysis")
	Analyzer.Flags.BoolVar(&warnings, "warnings", true, "report the statements that may fail, not only the ones that fail")
}

func loadConfig() (*config.Config, error) {
	if configFile == "" {
		cfg := config.NewDefault()
		cfg.LogLevel = int(config.WarnLevel)
		return cfg, nil
	}
	return config.Load(configFile)
}

func run(pass *analysis.Pass) (interface{}, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("could not load the configuration: %w", err)
	}
	log := config.NewLogGroup(cfg)
	ssaInfo := pass.ResultOf[buildssa.Analyzer].(*buildssa.SSA)

	lowering := frontend.NewLowering(pass.Pkg.Path(), pass.Fset, cfg, log)
	lowering.Lower(ssaInfo.SrcFuncs)

	db := results.NewDatabase()
	value.NewIntraproceduralValueAnalysis(lowering.Bundle(), db, value.OptionsFromConfig(cfg), log).Run()

	directives := frontend.FileDirectives(pass.Fset, pass.Files)
	for _, c := range directives.Filter(db.Checks()) {
		if !reported(c.Result) {
			continue
		}
		pos := positionOf(pass, c.Position)
		if !pos.IsValid() {
			continue
		}
		pass.Report(analysis.Diagnostic{Pos: pos, Category: c.Checker, Message: Message(c)})
	}
	return nil, nil
}

func reported(r checker.Result) bool {
	return r == checker.Error || (warnings && r == checker.Warning)
}

// Message is the message of the diagnostic of a check
func Message(c checker.Check) string {
	if c.Result == checker.Warning {
		return fmt.Sprintf("possible %s: %s", c.Kind, c.Message)
	}
	return fmt.Sprintf("%s: %s", c.Kind, c.Message)
}

// positionOf returns the position in the files of the pass of a resolved position
func positionOf(pass *analysis.Pass, p token.Position) token.Pos {
	for _, f := range pass.Files {
		if tf := fileOf(pass.Fset, f); tf != nil && tf.Name() == p.Filename {
			if p.Line > tf.LineCount() {
				return token.NoPos
			}
			pos := tf.LineStart(p.Line)
			if p.Column > 1 {
				pos += token.Pos(p.Column - 1)
			}
			return pos
		}
	}
	return token.NoPos
}

func fileOf(fset *token.FileSet, f *ast.File) *token.File {
	return fset.File(f.Pos())
}
