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
	"bytes"
	"path/filepath"
	"testing"

	"github.com/awslabs/ar-go-absint/analysis/checker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testdata(name string) string {
	return filepath.Join("..", "..", "testdata", "src", "absint", name)
}

// run executes the command line args and returns its standard output
func run(t *testing.T, args ...string) (string, error) {
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	t.Log(errOut.String())
	return out.String(), err
}

func TestAnalyze(t *testing.T) {
	dir := testdata("arith")
	resultsFile := filepath.Join(t.TempDir(), "results.msgpack")
	out, err := run(t, "analyze", "--dir", dir, "-c", filepath.Join(dir, "config.yaml"), "-o", resultsFile, ".")
	require.NoError(t, err)
	assert.Contains(t, out, "[error] division-by-zero")
	assert.Contains(t, out, "[warning] signed-overflow")
	assert.Contains(t, out, "1 errors")
	assert.NotContains(t, out, "[ok]")

	out, err = run(t, "results", "--ok", resultsFile)
	require.NoError(t, err)
	assert.Contains(t, out, "[ok] division-by-zero")
	assert.Contains(t, out, "functions,")

	_, err = run(t, "analyze", "--dir", dir, "-c", filepath.Join(dir, "config.yaml"), "--fail-on-error", ".")
	assert.Error(t, err)
}

func TestVerify(t *testing.T) {
	out, err := run(t, "verify", "--dir", testdata("bounds"), ".")
	require.NoError(t, err)
	assert.Contains(t, out, "verified")
}

func TestAnnotate(t *testing.T) {
	dir := testdata("arith")
	out, err := run(t, "annotate", "--dir", dir, "-c", filepath.Join(dir, "config.yaml"), ".")
	require.NoError(t, err)
	assert.Contains(t, out, "//absint:returns [0, 510]\nfunc double(")
	assert.Contains(t, out, "import \"fmt\"")
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "absint version dev\n", out)
}

func TestLoadErrors(t *testing.T) {
	_, err := run(t, "analyze", "-c", filepath.Join(t.TempDir(), "missing.yaml"), ".")
	assert.Error(t, err)
	_, err = run(t, "analyze")
	assert.Error(t, err)
}

func TestFormatCheck(t *testing.T) {
	c := checker.Check{
		Checker:  "dbz",
		Kind:     "division-by-zero",
		Result:   checker.Error,
		Function: "f",
		Block:    "entry",
		Message:  "divisor 0 is zero\n",
	}
	assert.Equal(t, `f:entry: [error] division-by-zero: divisor 0 is zero\n`, formatCheck(c))
}
