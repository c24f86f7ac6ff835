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

// absint-vet runs the value analysis as a vet tool.
//
// Usage:
//
//	absint-vet [-config config.yaml] packages...
//
// Or:
//
//	go vet -vettool=$(which absint-vet) ./...
package main

import (
	"github.com/awslabs/ar-go-absint/analysis/absint"
	"golang.org/x/tools/go/analysis/singlechecker"
)

func main() {
	singlechecker.Main(absint.Analyzer)
}
