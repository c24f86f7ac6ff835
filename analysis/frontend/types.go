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

package frontend

import (
	"go/types"

	"github.com/awslabs/ar-go-absint/analysis/ar"
	"golang.org/x/tools/go/types/typeutil"
)

// sizes is the memory layout of the lowered types. It matches ar.DefaultDataLayout for scalars.
var sizes = &types.StdSizes{WordSize: ar.PointerBitWidth / 8, MaxAlign: 8}

// typeLowering converts Go types into AR types. Memory types keep the layout of every Go type, using the opaque type
// for the parts the analysis does not model; register types are the scalar types only.
type typeLowering struct {
	ctx     *ar.Context
	structs typeutil.Map
}

func newTypeLowering(ctx *ar.Context) *typeLowering {
	return &typeLowering{ctx: ctx}
}

// register returns the AR type of the SSA values of type t, and false if values of that type are not represented
func (tl *typeLowering) register(t types.Type) (ar.Type, bool) {
	switch t := t.Underlying().(type) {
	case *types.Basic:
		return tl.basic(t)
	case *types.Pointer:
		return tl.ctx.PointerType(tl.memory(t.Elem())), true
	default:
		return nil, false
	}
}

func (tl *typeLowering) basic(t *types.Basic) (ar.Type, bool) {
	switch t.Kind() {
	case types.Bool, types.UntypedBool:
		return tl.ctx.BoolType(), true
	case types.Int, types.Int64, types.UntypedInt:
		return tl.ctx.IntegerType(64, ar.Signed), true
	case types.Int8:
		return tl.ctx.IntegerType(8, ar.Signed), true
	case types.Int16:
		return tl.ctx.IntegerType(16, ar.Signed), true
	case types.Int32, types.UntypedRune:
		return tl.ctx.IntegerType(32, ar.Signed), true
	case types.Uint, types.Uint64, types.Uintptr:
		return tl.ctx.IntegerType(64, ar.Unsigned), true
	case types.Uint8:
		return tl.ctx.IntegerType(8, ar.Unsigned), true
	case types.Uint16:
		return tl.ctx.IntegerType(16, ar.Unsigned), true
	case types.Uint32:
		return tl.ctx.IntegerType(32, ar.Unsigned), true
	case types.Float32:
		return tl.ctx.FloatType(ar.Float), true
	case types.Float64, types.UntypedFloat:
		return tl.ctx.FloatType(ar.Double), true
	case types.UnsafePointer:
		return tl.bytePointer(), true
	default:
		return nil, false
	}
}

func (tl *typeLowering) bytePointer() *ar.PointerType {
	return tl.ctx.PointerType(tl.ctx.IntegerType(8, ar.Unsigned))
}

// memory returns the AR type of the objects of type t
func (tl *typeLowering) memory(t types.Type) ar.Type {
	if rt, ok := tl.register(t); ok {
		return rt
	}
	switch u := t.Underlying().(type) {
	case *types.Array:
		return tl.ctx.ArrayType(tl.memory(u.Elem()), u.Len())
	case *types.Struct:
		if st := tl.structs.At(u); st != nil {
			return st.(*ar.StructType)
		}
		name := ""
		if named, ok := t.(*types.Named); ok {
			name = named.Obj().Name()
		}
		st := tl.ctx.StructType(name, nil, sizes.Sizeof(u))
		tl.structs.Set(u, st)
		fields := make([]*types.Var, u.NumFields())
		for i := range fields {
			fields[i] = u.Field(i)
		}
		offsets := sizes.Offsetsof(fields)
		arFields := make([]ar.StructField, len(fields))
		for i, f := range fields {
			arFields[i] = ar.StructField{Offset: offsets[i], Type: tl.memory(f.Type())}
		}
		st.SetBody(arFields)
		return st
	default:
		return tl.ctx.OpaqueType()
	}
}

// function returns the AR type of a signature. A single represented result is returned; functions with other
// results return void.
func (tl *typeLowering) function(sig *types.Signature, freeVars []types.Type) *ar.FunctionType {
	var params []ar.Type
	if recv := sig.Recv(); recv != nil {
		params = append(params, tl.param(recv.Type()))
	}
	for i := 0; i < sig.Params().Len(); i++ {
		params = append(params, tl.param(sig.Params().At(i).Type()))
	}
	for _, t := range freeVars {
		params = append(params, tl.param(t))
	}
	var ret ar.Type = tl.ctx.VoidType()
	if sig.Results().Len() == 1 {
		if rt, ok := tl.register(sig.Results().At(0).Type()); ok {
			ret = rt
		}
	}
	return tl.ctx.FunctionType(ret, params, false)
}

func (tl *typeLowering) param(t types.Type) ar.Type {
	if rt, ok := tl.register(t); ok {
		return rt
	}
	return tl.ctx.OpaqueType()
}

// offsetOf returns the byte offset of field i of the struct type t
func offsetOf(t *types.Struct, i int) int64 {
	fields := make([]*types.Var, t.NumFields())
	for j := range fields {
		fields[j] = t.Field(j)
	}
	return sizes.Offsetsof(fields)[i]
}
