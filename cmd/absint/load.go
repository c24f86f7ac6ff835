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

package main

import (
	"fmt"
	"go/token"
	"strings"

	"github.com/awslabs/ar-go-absint/analysis/config"
	"github.com/awslabs/ar-go-absint/analysis/frontend"
	"github.com/awslabs/ar-go-absint/internal/formatutil"
	"github.com/spf13/cobra"
	"golang.org/x/tools/go/packages"
	"golang.org/x/tools/go/ssa"
)

// loadOptions are the flags shared by the commands loading packages
type loadOptions struct {
	config   string
	dir      string
	platform string
	build    ssa.BuilderMode
}

// buildModeFlag is the pflag.Value of an ssa.BuilderMode
type buildModeFlag struct {
	mode *ssa.BuilderMode
}

func (f buildModeFlag) String() string {
	if f.mode == nil {
		return ""
	}
	return f.mode.String()
}

func (f buildModeFlag) Set(s string) error { return f.mode.Set(s) }

func (buildModeFlag) Type() string { return "mode" }

// loadConfig returns the configuration of the config flag, or the default one. The logs of the configuration go to
// the error output of cmd.
func (o *loadOptions) loadConfig(cmd *cobra.Command) (*config.Config, *config.LogGroup, error) {
	cfg := config.NewDefault()
	if o.config != "" {
		var err error
		config.SetGlobalConfig(o.config)
		cfg, err = config.LoadGlobal()
		if err != nil {
			return nil, nil, fmt.Errorf("could not load config %s: %w", o.config, err)
		}
	}
	log := config.NewLogGroup(cfg)
	log.SetAllOutput(cmd.ErrOrStderr())
	for _, w := range cfg.Warnings() {
		log.Warnf("%s", w)
	}
	return cfg, log, nil
}

func (o *loadOptions) packagesConfig() *packages.Config {
	return &packages.Config{Mode: frontend.PkgLoadMode, Dir: o.dir, Fset: token.NewFileSet()}
}

// load loads the packages matching patterns and lowers their functions
func (o *loadOptions) load(cfg *config.Config, log *config.LogGroup, patterns []string) (*frontend.Program, error) {
	log.Infof("%s", formatutil.Faint("Reading sources"))
	lp, err := frontend.LoadProgram(o.packagesConfig(), o.platform, o.build, patterns)
	if err != nil {
		return nil, fmt.Errorf("could not load program: %w", err)
	}
	p := frontend.Translate(lp, strings.Join(patterns, " "), cfg, log)
	if cfg.UsePointerAnalysis {
		if err := p.RunPointerAnalysis(); err != nil {
			log.Warnf("Pointer analysis skipped: %v", err)
		}
	}
	return p, nil
}
