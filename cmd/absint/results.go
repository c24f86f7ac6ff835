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

	"github.com/awslabs/ar-go-absint/analysis/results"
	"github.com/awslabs/ar-go-absint/internal/formatutil"
	"github.com/spf13/cobra"
)

func newResultsCmd() *cobra.Command {
	var (
		all   bool
		times bool
	)
	cmd := &cobra.Command{
		Use:   "results [flags] file",
		Short: "Print a results database written by analyze",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := results.LoadFile(args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			printChecks(out, db.Checks(), all)
			for _, f := range db.Functions() {
				if f.Status == results.Failed {
					fmt.Fprintf(out, "%s %s: %s\n", formatutil.Red("failed"), f.Name, f.Error)
				}
			}
			if times {
				for _, t := range db.Times() {
					fmt.Fprintf(out, "%s %s\n", formatutil.Faint(t.Duration), t.Name)
				}
			}
			fmt.Fprintf(out, "%d functions, %s\n", len(db.Functions()), formatutil.Bold(db.Summary()))
			return nil
		},
	}
	cmd.Flags().BoolVar(&all, "ok", false, "also print the checks that hold and the unreachable statements")
	cmd.Flags().BoolVar(&times, "times", false, "print the duration of the phases of the analysis")
	return cmd
}
