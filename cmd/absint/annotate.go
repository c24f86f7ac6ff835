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

	"github.com/awslabs/ar-go-absint/analysis/annotate"
	"github.com/awslabs/ar-go-absint/analysis/value"
	"github.com/dave/dst/decorator"
	"github.com/spf13/cobra"
)

func newAnnotateCmd(opts *loadOptions) *cobra.Command {
	var write bool
	cmd := &cobra.Command{
		Use:   "annotate [flags] packages...",
		Short: "Annotate the functions returning integers with the range of their results",
		Long: `annotate adds a comment "` + annotate.Marker + `[lo, hi]" before every function returning an integer.
The annotated files are printed, or written in place with --write.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := opts.loadConfig(cmd)
			if err != nil {
				return err
			}
			p, err := opts.load(cfg, log, args)
			if err != nil {
				return err
			}
			ranges := annotate.ReturnRanges(p, value.OptionsFromConfig(cfg), log)

			pkgs, err := decorator.Load(opts.packagesConfig(), args...)
			if err != nil {
				return fmt.Errorf("could not load the syntax of the packages: %w", err)
			}
			n := annotate.Annotate(pkgs, ranges)
			log.Infof("Annotated %d functions", n)
			for _, pkg := range pkgs {
				if write {
					if err := pkg.Save(); err != nil {
						return fmt.Errorf("could not write package %s: %w", pkg.PkgPath, err)
					}
					continue
				}
				if err := annotate.Print(cmd.OutOrStdout(), pkg); err != nil {
					return fmt.Errorf("could not print package %s: %w", pkg.PkgPath, err)
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&write, "write", "w", false, "write the annotated files in place")
	return cmd
}
