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

package pointer

import (
	"testing"

	"github.com/awslabs/ar-go-absint/analysis/ar"
	"github.com/awslabs/ar-go-absint/analysis/domain/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	ctx    *ar.Context
	bundle *ar.Bundle
	fn     *ar.Function
	bb     *ar.BasicBlock
	i32    *ar.IntegerType
	a, b   *ar.LocalVariable
	p, x   *ar.InternalVariable
}

// newFixture builds: a = allocate i32*; b = allocate i32; p = a; store p, b; x = load p
func newFixture() fixture {
	ctx := ar.NewContext()
	bundle := ar.NewBundle(ctx, "test")
	i32 := ctx.IntegerType(32, ar.Signed)
	ptr := ctx.PointerType(i32)
	fn := bundle.DefineFunction("f", ctx.FunctionType(ctx.VoidType(), nil, false))
	code := fn.Body()
	bb := code.NewBasicBlock("entry")
	f := fixture{ctx: ctx, bundle: bundle, fn: fn, bb: bb, i32: i32}
	f.a = code.NewLocalVariable("a", ptr)
	f.b = code.NewLocalVariable("b", i32)
	f.p = code.NewInternalVariable("p", ctx.PointerType(ptr))
	f.x = code.NewInternalVariable("x", ptr)
	bb.Append(ar.NewAllocate(f.a, ctx.Int64Constant(ctx.SizeType(), 1)))
	bb.Append(ar.NewAllocate(f.b, ctx.Int64Constant(ctx.SizeType(), 1)))
	bb.Append(ar.NewAssignment(f.p, f.a))
	bb.Append(ar.NewStore(f.p, f.b))
	bb.Append(ar.NewLoad(f.x, f.p))
	return f
}

func TestLoadStore(t *testing.T) {
	f := newFixture()
	r := Analyze(f.fn)
	assert.Equal(t, "{&a}", r.PointsTo(f.p).String())
	assert.Equal(t, "{&b}", r.PointsTo(f.x).String())
	assert.Equal(t, "{&b}", r.Contents(f.a).String())
	assert.Equal(t, "{&a}", r.PointsTo(f.a).String())
	assert.True(t, r.PointsTo(f.ctx.NullConstant(f.ctx.PointerType(f.i32))).IsEmpty())
}

func TestEscapeThroughCall(t *testing.T) {
	f := newFixture()
	ptr := f.ctx.PointerType(f.i32)
	unknown := f.bundle.DeclareFunction("unknown", f.ctx.FunctionType(ptr, []ar.Type{f.p.Type()}, false))
	r0 := f.fn.Body().NewInternalVariable("r", ptr)
	f.bb.Append(ar.NewCall(r0, f.ctx.FunctionPointerConstant(unknown), f.p))
	r := Analyze(f.fn)
	assert.True(t, r.PointsTo(r0).IsTop())
	assert.True(t, r.Contents(f.a).IsTop())
	assert.True(t, r.PointsTo(f.x).IsTop())
	assert.Equal(t, "{&a}", r.PointsTo(f.p).String())
}

func TestEscapeThroughInvoke(t *testing.T) {
	f := newFixture()
	unknown := f.bundle.DeclareFunction("unknown", f.ctx.FunctionType(f.ctx.VoidType(),
		[]ar.Type{f.i32, f.p.Type()}, false))
	normal := f.fn.Body().NewBasicBlock("normal")
	unwind := f.fn.Body().NewBasicBlock("unwind")
	f.bb.Append(ar.NewInvoke(nil, f.ctx.FunctionPointerConstant(unknown), normal, unwind,
		f.ctx.Int64Constant(f.i32, 0), f.p))
	r := Analyze(f.fn)
	assert.True(t, r.Contents(f.a).IsTop())
	assert.Equal(t, "{&a}", r.PointsTo(f.p).String())
}

func TestHeapAllocation(t *testing.T) {
	f := newFixture()
	alloc := f.bundle.IntrinsicFunction(ar.IntrinsicHeapAlloc)
	h := f.fn.Body().NewInternalVariable("h", alloc.Type().ReturnType())
	call := ar.NewCall(h, f.ctx.FunctionPointerConstant(alloc), f.ctx.Int64Constant(f.ctx.SizeType(), 4))
	f.bb.Append(call)
	r := Analyze(f.fn)
	obj, ok := r.PointsTo(h).Singleton()
	require.True(t, ok)
	assert.Same(t, call.HeapSite(), obj)
	assert.True(t, obj.IsSummary())
	// the heap allocation does not make the arguments escape
	assert.Equal(t, "{&b}", r.Contents(f.a).String())
}

func TestParametersAndCallees(t *testing.T) {
	ctx := ar.NewContext()
	bundle := ar.NewBundle(ctx, "test")
	fnType := ctx.FunctionType(ctx.VoidType(), nil, false)
	g := bundle.DefineFunction("g", fnType)
	h := bundle.DefineFunction("h", fnType)
	f := bundle.DefineFunction("f", ctx.FunctionType(ctx.VoidType(), []ar.Type{ctx.PointerType(fnType)}, false), "cb")
	bb := f.Body().NewBasicBlock("entry")
	fp := f.Body().NewInternalVariable("fp", ctx.PointerType(fnType))
	bb.Append(ar.NewAssignment(fp, ctx.FunctionPointerConstant(g)))
	indirect := ar.NewCall(nil, fp)
	bb.Append(indirect)
	unknown := ar.NewCall(nil, f.Params()[0])
	bb.Append(unknown)
	direct := ar.NewCall(nil, ctx.FunctionPointerConstant(h))
	bb.Append(direct)

	r := Analyze(f)
	assert.True(t, r.PointsTo(f.Params()[0]).IsTop())
	callees, ok := r.Callees(&indirect.CallBase)
	require.True(t, ok)
	assert.Equal(t, []*ar.Function{g}, callees)
	_, ok = r.Callees(&unknown.CallBase)
	assert.False(t, ok)
	callees, ok = r.Callees(&direct.CallBase)
	require.True(t, ok)
	assert.Equal(t, []*ar.Function{h}, callees)
}

func TestNilResults(t *testing.T) {
	var r *Results
	assert.True(t, r.PointsTo(&ar.InternalVariable{}).IsTop())
	assert.True(t, r.Contents(nil).IsTop())
	assert.Equal(t, value.TopPointsTo(), NewResults().PointsTo(&ar.InternalVariable{}))
}
