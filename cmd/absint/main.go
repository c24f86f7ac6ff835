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

// absint: a tool computing invariants of the functions of Go programs by abstract interpretation, and checking
// that their statements cannot fail.
//
// Usage:
//
//	absint analyze [-c config.yaml] packages...
//	absint verify packages...
//	absint annotate [--write] packages...
//	absint results results.msgpack
package main

import (
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/tools/go/ssa"
)

var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &loadOptions{}
	root := &cobra.Command{
		Use:   "absint",
		Short: "Abstract interpretation of Go programs",
		Long: `absint lowers the functions of Go packages into a simple intermediate representation, computes their
invariants with numerical abstract domains, and checks that their statements cannot fail: divisions by zero,
out of bounds accesses, null dereferences, integer overflows, uses of uninitialized values and of freed memory.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.SetVersionTemplate("absint version {{.Version}}\n")
	flags := root.PersistentFlags()
	flags.StringVarP(&opts.config, "config", "c", "", "configuration file")
	flags.StringVar(&opts.dir, "dir", "", "directory where the packages are loaded, the current directory if empty")
	flags.StringVar(&opts.platform, "platform", "", "GOOS of the loaded packages, the current one if empty")
	flags.Var(buildModeFlag{&opts.build}, "build", ssa.BuilderModeDoc)

	root.AddCommand(
		newAnalyzeCmd(opts),
		newVerifyCmd(opts),
		newAnnotateCmd(opts),
		newResultsCmd(),
		newVersionCmd(),
	)
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version of absint",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Printf("absint version %s\n", version)
		},
	}
}
