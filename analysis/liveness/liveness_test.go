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

package liveness

import (
	"testing"

	"github.com/awslabs/ar-go-absint/analysis/ar"
	"github.com/stretchr/testify/assert"
)

func TestLoopLiveness(t *testing.T) {
	ctx := ar.NewContext()
	i32 := ctx.IntegerType(32, ar.Signed)
	bundle := ar.NewBundle(ctx, "test")
	f := bundle.DefineFunction("f", ctx.FunctionType(i32, []ar.Type{i32}, false), "n")
	code := f.Body()
	n := f.Params()[0]
	i := code.NewInternalVariable("i", i32)
	next := code.NewInternalVariable("next", i32)
	tmp := code.NewInternalVariable("tmp", i32)

	entry := code.NewBasicBlock("entry")
	head := code.NewBasicBlock("head")
	body := code.NewBasicBlock("body")
	exit := code.NewBasicBlock("exit")
	entry.AddSuccessor(head)
	head.AddSuccessor(body)
	head.AddSuccessor(exit)
	body.AddSuccessor(head)

	entry.Append(ar.NewAssignment(i, ctx.Int64Constant(i32, 0)))
	body.Append(ar.NewComparison(ar.LT, i, n))
	body.Append(ar.NewBinaryOperation(ar.Add, tmp, i, ctx.Int64Constant(i32, 1)))
	body.Append(ar.NewAssignment(next, tmp))
	body.Append(ar.NewAssignment(i, next))
	exit.Append(ar.NewComparison(ar.GE, i, n))
	exit.Append(ar.NewReturnValue(i))

	r := Analyze(code)
	assert.Same(t, code, r.Code())
	assert.Equal(t, []*ar.InternalVariable{n, i}, r.LiveOut(entry))
	assert.Equal(t, []*ar.InternalVariable{n, i}, r.LiveOut(body))
	assert.True(t, r.IsLiveOut(head, i))
	assert.False(t, r.IsLiveOut(body, tmp))
	assert.Empty(t, r.LiveOut(exit))
	assert.Equal(t, []*ar.InternalVariable{next, tmp}, r.DeadAtExit(body))
	assert.Equal(t, []*ar.InternalVariable{n, i}, r.DeadAtExit(exit))
	assert.Empty(t, r.DeadAtExit(head))
}
