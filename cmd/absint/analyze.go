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
	"io"
	"sort"
	"time"

	"github.com/awslabs/ar-go-absint/analysis/checker"
	"github.com/awslabs/ar-go-absint/analysis/results"
	"github.com/awslabs/ar-go-absint/analysis/value"
	"github.com/awslabs/ar-go-absint/internal/formatutil"
	"github.com/spf13/cobra"
)

func newAnalyzeCmd(opts *loadOptions) *cobra.Command {
	var (
		showOk      bool
		failOnError bool
		resultsFile string
	)
	cmd := &cobra.Command{
		Use:   "analyze [flags] packages...",
		Short: "Analyze the functions of packages and report the statements that may fail",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := opts.loadConfig(cmd)
			if err != nil {
				return err
			}
			if resultsFile != "" {
				cfg.ResultsFile = resultsFile
			}
			p, err := opts.load(cfg, log, args)
			if err != nil {
				return err
			}

			db := results.NewDatabase()
			a := value.NewIntraproceduralValueAnalysis(p.Bundle, db, value.OptionsFromConfig(cfg), log)
			a.PointsTo = p.PointsTo
			start := time.Now()
			a.Run()
			log.Infof("Analysis took %3.4f s", time.Since(start).Seconds())

			checks := p.Directives.Filter(db.Checks())
			out := cmd.OutOrStdout()
			printChecks(out, checks, showOk)
			summary := results.Summarize(checks)
			fmt.Fprintf(out, "%s\n", formatutil.Bold(summary))
			for _, f := range db.Functions() {
				if f.Status == results.Failed {
					fmt.Fprintf(out, "%s %s: %s\n", formatutil.Red("failed"), f.Name, f.Error)
				}
			}

			if path := cfg.ResultsPath(); path != "" {
				if err := db.SaveFile(path); err != nil {
					return err
				}
				log.Infof("Results written to %s", path)
			}
			if failOnError && summary.Error > 0 {
				return fmt.Errorf("%d errors found", summary.Error)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&showOk, "ok", false, "also print the checks that hold and the unreachable statements")
	cmd.Flags().BoolVar(&failOnError, "fail-on-error", false, "exit with an error status when a check fails")
	cmd.Flags().StringVarP(&resultsFile, "results", "o", "", "file where the results database is written")
	return cmd
}

// printChecks prints the checks in the order of their positions. Only warnings and errors are printed unless all
// is set.
func printChecks(w io.Writer, checks []checker.Check, all bool) {
	sorted := append([]checker.Check(nil), checks...)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i].Position, sorted[j].Position
		if a.Filename != b.Filename {
			return a.Filename < b.Filename
		}
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		return a.Column < b.Column
	})
	for _, c := range sorted {
		if !all && c.Result != checker.Warning && c.Result != checker.Error {
			continue
		}
		fmt.Fprintln(w, formatCheck(c))
	}
}

func formatCheck(c checker.Check) string {
	pos := c.Position.String()
	if !c.Position.IsValid() {
		pos = c.Function + ":" + c.Block
	}
	return fmt.Sprintf("%s: [%s] %s: %s", pos, formatutil.Status(c.Result.String()), c.Kind,
		formatutil.Sanitize(c.Message))
}
