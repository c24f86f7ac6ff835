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

	"github.com/awslabs/ar-go-absint/analysis/ar"
	"github.com/awslabs/ar-go-absint/internal/formatutil"
	"github.com/spf13/cobra"
)

func newVerifyCmd(opts *loadOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "verify [flags] packages...",
		Short: "Lower the functions of packages and check the types of the lowered code",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := opts.loadConfig(cmd)
			if err != nil {
				return err
			}
			p, err := opts.load(cfg, log, args)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			errs := ar.NewTypeVerifier().VerifyBundle(p.Bundle)
			for _, e := range errs {
				fmt.Fprintf(out, "%s %s\n", formatutil.Red("invalid"), e)
			}
			defined := 0
			for _, fn := range p.Bundle.Functions() {
				if fn.IsDefinition() {
					defined++
				}
			}
			if len(errs) > 0 {
				return fmt.Errorf("%d type errors in %d functions", len(errs), defined)
			}
			fmt.Fprintf(out, "%s %d functions\n", formatutil.Green("verified"), defined)
			return nil
		},
	}
}
