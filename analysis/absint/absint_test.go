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

package absint_test

import (
	"testing"

	"github.com/awslabs/ar-go-absint/analysis/absint"
	"github.com/awslabs/ar-go-absint/analysis/checker"
	"github.com/stretchr/testify/assert"
	"golang.org/x/tools/go/analysis/analysistest"
)

func TestAnalyzer(t *testing.T) {
	analysistest.Run(t, analysistest.TestData(), absint.Analyzer, "divide")
}

func TestMessage(t *testing.T) {
	c := checker.Check{Checker: "dbz", Kind: "division-by-zero", Result: checker.Warning, Message: "divisor x may be zero"}
	assert.Equal(t, "possible division-by-zero: divisor x may be zero", absint.Message(c))
	c.Result = checker.Error
	assert.Equal(t, "division-by-zero: divisor x may be zero", absint.Message(c))
}
