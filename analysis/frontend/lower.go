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
	"fmt"
	"go/token"
	"go/types"
	"sort"

	"github.com/awslabs/ar-go-absint/analysis/ar"
	"github.com/awslabs/ar-go-absint/analysis/config"
	"golang.org/x/tools/go/ssa"
)

// intrinsicKinds maps the intrinsic kinds of the configuration to the intrinsics of the AR
var intrinsicKinds = map[string]ar.Intrinsic{
	"assert":     ar.IntrinsicAssert,
	"heap-alloc": ar.IntrinsicHeapAlloc,
	"free":       ar.IntrinsicFree,
	"abort":      ar.IntrinsicAbort,
}

// Lowering translates SSA functions into the functions of a bundle
type Lowering struct {
	bundle    *ar.Bundle
	types     *typeLowering
	positions *ar.PositionTable
	fset      *token.FileSet
	config    *config.Config
	log       *config.LogGroup

	functions map[*ssa.Function]*ar.Function
	sources   map[*ar.Function]*ssa.Function
	globals   map[*ssa.Global]*ar.GlobalVariable

	// objects are the memory objects of the allocations and globals, and values the AR values of the SSA values,
	// for the functions lowered so far
	objects map[ssa.Value]ar.MemoryObject
	values  map[*ssa.Function]map[ssa.Value]ar.Value
}

// NewLowering returns a lowering into a new bundle called name. Positions are resolved in fset.
func NewLowering(name string, fset *token.FileSet, cfg *config.Config, log *config.LogGroup) *Lowering {
	if cfg == nil {
		cfg = config.NewDefault()
	}
	if log == nil {
		log = config.NewLogGroup(cfg)
	}
	ctx := ar.NewContext()
	bundle := ar.NewBundle(ctx, name)
	positions := ar.NewPositionTable()
	bundle.Frontend = positions
	return &Lowering{
		bundle:    bundle,
		types:     newTypeLowering(ctx),
		positions: positions,
		fset:      fset,
		config:    cfg,
		log:       log,
		functions: map[*ssa.Function]*ar.Function{},
		sources:   map[*ar.Function]*ssa.Function{},
		globals:   map[*ssa.Global]*ar.GlobalVariable{},
		objects:   map[ssa.Value]ar.MemoryObject{},
		values:    map[*ssa.Function]map[ssa.Value]ar.Value{},
	}
}

// Bundle returns the bundle of the lowered functions
func (l *Lowering) Bundle() *ar.Bundle { return l.bundle }

// Function returns the AR function of an SSA function, if it was lowered or declared
func (l *Lowering) Function(f *ssa.Function) (*ar.Function, bool) {
	fn, ok := l.functions[f]
	return fn, ok
}

// Source returns the SSA function an AR function was lowered from
func (l *Lowering) Source(fn *ar.Function) (*ssa.Function, bool) {
	f, ok := l.sources[fn]
	return f, ok
}

// Object returns the memory object of an SSA allocation or global
func (l *Lowering) Object(v ssa.Value) (ar.MemoryObject, bool) {
	o, ok := l.objects[v]
	return o, ok
}

// Value returns the AR value of an SSA value of a lowered function
func (l *Lowering) Value(f *ssa.Function, v ssa.Value) (ar.Value, bool) {
	x, ok := l.values[f][v]
	return x, ok
}

// Lower lowers fns. Functions that are excluded by the configuration, or whose package does not match the package
// filter, are only declared. A function that cannot be lowered is declared and a warning is logged.
func (l *Lowering) Lower(fns []*ssa.Function) {
	for _, f := range fns {
		l.declare(f)
	}
	for _, f := range fns {
		pkg, recv, name := identify(f)
		fn := l.functions[f]
		switch {
		case fn.Intrinsic() != ar.NotIntrinsic:
			continue
		case !l.config.MatchPkgFilter(pkg):
			l.log.Debugf("Skipping function %s: package does not match the filter", f)
			continue
		case l.config.IsExcluded(pkg, recv, name):
			l.log.Debugf("Skipping excluded function %s", f)
			continue
		}
		if err := l.define(f, fn); err != nil {
			l.log.Warnf("Could not lower %s, analyzing it as a declaration: %v", f, err)
		}
	}
}

// identify returns the package path, receiver type name and name of a function
func identify(f *ssa.Function) (pkg, recv, name string) {
	if p := f.Package(); p != nil {
		pkg = p.Pkg.Path()
	} else if o := f.Object(); o != nil && o.Pkg() != nil {
		pkg = o.Pkg().Path()
	}
	if r := f.Signature.Recv(); r != nil {
		t := r.Type()
		if ptr, ok := t.(*types.Pointer); ok {
			t = ptr.Elem()
		}
		if named, ok := t.(*types.Named); ok {
			recv = named.Obj().Name()
		}
	}
	return pkg, recv, f.Name()
}

// declare returns the AR function of f, declaring it if needed. Functions configured as intrinsics are replaced by
// the intrinsic.
func (l *Lowering) declare(f *ssa.Function) *ar.Function {
	if fn, ok := l.functions[f]; ok {
		return fn
	}
	var fn *ar.Function
	if kind, ok := l.config.IntrinsicOf(identify(f)); ok {
		fn = l.bundle.IntrinsicFunction(intrinsicKinds[kind])
	} else {
		var freeTypes []types.Type
		names := make([]string, 0, len(f.Params)+len(f.FreeVars))
		for _, p := range f.Params {
			names = append(names, p.Name())
		}
		for _, fv := range f.FreeVars {
			freeTypes = append(freeTypes, fv.Type())
			names = append(names, fv.Name())
		}
		fn = l.bundle.DeclareFunction(f.String(), l.types.function(f.Signature, freeTypes), names...)
		if pos := l.fset.Position(f.Pos()); pos.IsValid() {
			fn.SetFrontend(l.positions.Add(pos))
		}
	}
	l.functions[f] = fn
	l.sources[fn] = f
	return fn
}

// global returns the global variable of g
func (l *Lowering) global(g *ssa.Global) *ar.GlobalVariable {
	if gv, ok := l.globals[g]; ok {
		return gv
	}
	gv := l.bundle.NewGlobalVariable(g.String(), l.types.memory(deref(g.Type())))
	l.globals[g] = gv
	l.objects[g] = gv
	return gv
}

func deref(t types.Type) types.Type {
	if p, ok := t.Underlying().(*types.Pointer); ok {
		return p.Elem()
	}
	return t
}

// define lowers the body of f into fn. On failure, fn is left as a declaration.
func (l *Lowering) define(f *ssa.Function, fn *ar.Function) (err error) {
	fl := &fnLowering{
		Lowering: l,
		ctx:      l.bundle.Context(),
		ssaFn:    f,
		fn:       fn,
		code:     fn.NewBody(),
		values:   map[ssa.Value]ar.Value{},
	}
	defer func() {
		if r := recover(); r != nil {
			fn.DropBody()
			delete(l.values, f)
			err = fmt.Errorf("%v", r)
		}
	}()
	fl.lower()
	l.values[f] = fl.values
	return nil
}

// fnLowering is the lowering of one function body
type fnLowering struct {
	*Lowering
	ctx   *ar.Context
	ssaFn *ssa.Function
	fn    *ar.Function
	code  *ar.Code

	values map[ssa.Value]ar.Value
	blocks []*ar.BasicBlock
	exit   *ar.BasicBlock
	ret    *ar.InternalVariable

	// current is the block receiving the statements, pos the position of the statements lowered from the
	// current instruction
	current *ar.BasicBlock
	pos     token.Position
	temps   int
}

func (fl *fnLowering) lower() {
	params := fl.fn.Params()
	for i, p := range fl.ssaFn.Params {
		if _, ok := fl.types.register(p.Type()); ok {
			fl.values[p] = params[i]
		}
	}
	for i, fv := range fl.ssaFn.FreeVars {
		if _, ok := fl.types.register(fv.Type()); ok {
			fl.values[fv] = params[len(fl.ssaFn.Params)+i]
		}
	}

	fl.blocks = make([]*ar.BasicBlock, len(fl.ssaFn.Blocks))
	for _, b := range fl.ssaFn.Blocks {
		name := fmt.Sprintf("b%d", b.Index)
		if b.Comment != "" {
			name = fmt.Sprintf("%s.%d", b.Comment, b.Index)
		}
		fl.blocks[b.Index] = fl.code.NewBasicBlock(name)
	}
	fl.exit = fl.code.NewBasicBlock("exit")
	fl.code.SetExit(fl.exit)
	if rt := fl.fn.Type().ReturnType(); !ar.IsVoid(rt) {
		fl.ret = fl.code.NewInternalVariable("ret", rt)
		fl.exit.Append(ar.NewReturnValue(fl.ret))
	} else {
		fl.exit.Append(ar.NewReturnValue(nil))
	}

	// phis are defined before any block, since their operands may come from blocks lowered later
	for _, b := range fl.ssaFn.Blocks {
		for _, instr := range b.Instrs {
			if phi, ok := instr.(*ssa.Phi); ok {
				if t, ok := fl.types.register(phi.Type()); ok {
					fl.values[phi] = fl.code.NewInternalVariable(phi.Name(), t)
				}
			}
		}
	}

	// the dominator tree preorder visits the definitions before their uses
	for _, b := range fl.ssaFn.DomPreorder() {
		fl.current = fl.blocks[b.Index]
		fl.pos = token.Position{}
		for _, instr := range b.Instrs {
			if p := fl.fset.Position(instr.Pos()); p.IsValid() {
				fl.pos = p
			}
			fl.instruction(instr)
		}
	}
	fl.pos = token.Position{}
	for _, b := range fl.ssaFn.Blocks {
		fl.edges(b)
	}
}

// emit appends s to the current block
func (fl *fnLowering) emit(s ar.Statement) ar.Statement {
	return fl.current.Append(s)
}

// trace appends s to the current block and correlates it with the position of the current instruction. Only traced
// statements are checked.
func (fl *fnLowering) trace(s ar.Statement) ar.Statement {
	if fl.pos.IsValid() {
		s.SetFrontend(fl.positions.Add(fl.pos))
	}
	return fl.emit(s)
}

func (fl *fnLowering) newVar(v ssa.Value, t ar.Type) *ar.InternalVariable {
	r := fl.code.NewInternalVariable(v.Name(), t)
	fl.values[v] = r
	return r
}

func (fl *fnLowering) temp(t ar.Type) *ar.InternalVariable {
	fl.temps++
	return fl.code.NewInternalVariable(fmt.Sprintf("tmp.%d", fl.temps), t)
}

func (fl *fnLowering) bytePointer() *ar.PointerType { return fl.types.bytePointer() }

// instruction lowers one SSA instruction into the current block
//
//gocyclo:ignore
func (fl *fnLowering) instruction(instr ssa.Instruction) {
	switch instr := instr.(type) {
	case *ssa.DebugRef, *ssa.Phi, *ssa.If, *ssa.Jump:
		// phis and branches are lowered with the edges
	case *ssa.BinOp:
		fl.binOp(instr)
	case *ssa.UnOp:
		fl.unOp(instr)
	case *ssa.Convert:
		if t, ok := fl.types.register(instr.Type()); ok {
			if _, ok := fl.types.register(instr.X.Type()); ok {
				fl.values[instr] = fl.coerce(fl.operand(instr.X), t)
				return
			}
		}
		fl.unknown(instr)
	case *ssa.ChangeType:
		if t, ok := fl.types.register(instr.Type()); ok {
			fl.values[instr] = fl.coerce(fl.operand(instr.X), t)
		}
	case *ssa.Alloc:
		fl.alloc(instr)
	case *ssa.Store:
		val := fl.operand(instr.Val)
		if _, ok := fl.types.register(instr.Val.Type()); !ok {
			val = fl.ctx.UndefinedConstant(fl.ctx.OpaqueType())
		}
		fl.trace(ar.NewStore(fl.operand(instr.Addr), val))
	case *ssa.FieldAddr:
		st := deref(instr.X.Type()).Underlying().(*types.Struct)
		r := fl.newVar(instr, fl.mustRegister(instr.Type()))
		fl.emit(ar.NewPointerShift(r, fl.operand(instr.X), fl.constTerm(offsetOf(st, instr.Field))))
	case *ssa.IndexAddr:
		if _, ok := instr.X.Type().Underlying().(*types.Pointer); !ok {
			// slice elements are not represented
			fl.unknown(instr)
			return
		}
		elem := instr.Type().Underlying().(*types.Pointer).Elem()
		r := fl.newVar(instr, fl.mustRegister(instr.Type()))
		term := ar.ShiftTerm{Factor: bigInt(sizes.Sizeof(elem)), Operand: fl.operand(instr.Index)}
		fl.emit(ar.NewPointerShift(r, fl.operand(instr.X), term))
	case *ssa.Call:
		fl.call(instr.Common(), instr)
	case *ssa.Go:
		fl.call(instr.Common(), nil)
	case *ssa.Defer:
		// deferred calls run at RunDefers
	case *ssa.RunDefers:
		fl.trace(ar.NewCall(nil, fl.unknownFunction(fl.ctx.VoidType()), fl.ctx.UndefinedConstant(fl.bytePointer())))
	case *ssa.Return:
		if fl.ret != nil && len(instr.Results) == 1 {
			fl.trace(ar.NewAssignment(fl.ret, fl.coerce(fl.operand(instr.Results[0]), fl.ret.Type())))
		}
		fl.current.AddSuccessor(fl.exit)
	case *ssa.Panic:
		fl.trace(ar.NewThrow(nil))
	case ssa.Value:
		fl.unknown(instr)
	default:
		// Send, MapUpdate: the contents of channels and maps are not represented
	}
}

func (fl *fnLowering) mustRegister(t types.Type) ar.Type {
	rt, ok := fl.types.register(t)
	if !ok {
		panic(fmt.Sprintf("unexpected type %s", t))
	}
	return rt
}

// unknown defines v as an unknown value, when its type is represented
func (fl *fnLowering) unknown(v ssa.Value) {
	t, ok := fl.types.register(v.Type())
	if !ok {
		return
	}
	fl.emit(ar.NewCall(fl.newVar(v, t), fl.unknownFunction(t)))
}

// unknownFunction returns an external function returning unknown values of type t
func (fl *fnLowering) unknownFunction(t ar.Type) ar.Value {
	fn := fl.bundle.DeclareFunction("go.unknown."+t.String(), fl.ctx.FunctionType(t, nil, true))
	return fl.ctx.FunctionPointerConstant(fn)
}

// operand returns the AR value of an SSA operand. Values that are not represented are undefined opaque values.
func (fl *fnLowering) operand(v ssa.Value) ar.Value {
	if x, ok := fl.values[v]; ok {
		return x
	}
	switch v := v.(type) {
	case *ssa.Const:
		return fl.constant(v)
	case *ssa.Global:
		return fl.global(v)
	case *ssa.Function:
		return fl.ctx.FunctionPointerConstant(fl.declare(v))
	}
	return fl.ctx.UndefinedConstant(fl.ctx.OpaqueType())
}

// argument returns the value passed for v to a parameter of type t
func (fl *fnLowering) argument(v ssa.Value, t ar.Type) ar.Value {
	if _, ok := fl.types.register(v.Type()); !ok {
		return fl.ctx.UndefinedConstant(t)
	}
	return fl.coerce(fl.operand(v), t)
}

// edges lowers the terminator of b: the phis of the successors become assignments on the edges, and the branches
// of an If become assumptions
func (fl *fnLowering) edges(b *ssa.BasicBlock) {
	src := fl.blocks[b.Index]
	switch term := b.Instrs[len(b.Instrs)-1].(type) {
	case *ssa.Jump:
		fl.current = src
		fl.phis(b, b.Succs[0])
		src.AddSuccessor(fl.blocks[b.Succs[0].Index])
	case *ssa.If:
		for i, succ := range b.Succs {
			edge := fl.code.NewBasicBlock(fmt.Sprintf("%s.%s", src.Name(), [...]string{"true", "false"}[i]))
			src.AddSuccessor(edge)
			fl.current = edge
			fl.assume(term.Cond, i == 0)
			fl.phis(b, succ)
			edge.AddSuccessor(fl.blocks[succ.Index])
		}
	}
}

// phis assigns the phis of succ for the edge from pred, in parallel
func (fl *fnLowering) phis(pred, succ *ssa.BasicBlock) {
	k := -1
	for i, p := range succ.Preds {
		if p == pred {
			k = i
			break
		}
	}
	type phiCopy struct {
		dst *ar.InternalVariable
		src ar.Value
	}
	var copies []phiCopy
	for _, instr := range succ.Instrs {
		phi, ok := instr.(*ssa.Phi)
		if !ok {
			break
		}
		dst, ok := fl.values[phi].(*ar.InternalVariable)
		if !ok || k < 0 {
			continue
		}
		copies = append(copies, phiCopy{dst, fl.coerce(fl.operand(phi.Edges[k]), dst.Type())})
	}
	if len(copies) > 1 {
		for i, c := range copies {
			if _, ok := c.src.(*ar.InternalVariable); ok {
				t := fl.temp(c.dst.Type())
				fl.emit(ar.NewAssignment(t, c.src))
				copies[i].src = t
			}
		}
	}
	for _, c := range copies {
		fl.emit(ar.NewAssignment(c.dst, c.src))
	}
}

var predicates = map[token.Token]ar.Predicate{
	token.EQL: ar.EQ,
	token.NEQ: ar.NE,
	token.LSS: ar.LT,
	token.LEQ: ar.LE,
	token.GTR: ar.GT,
	token.GEQ: ar.GE,
}

// assume restricts the current block to the states where cond has the value holds
func (fl *fnLowering) assume(cond ssa.Value, holds bool) {
	if cmp, ok := cond.(*ssa.BinOp); ok {
		if pred, ok := predicates[cmp.Op]; ok {
			if _, ok := fl.types.register(cmp.X.Type()); !ok {
				return
			}
			if !holds {
				pred = pred.Inverse()
			}
			fl.emit(ar.NewComparison(pred, fl.operand(cmp.X), fl.operand(cmp.Y)))
			return
		}
	}
	pred := ar.NE
	if !holds {
		pred = ar.EQ
	}
	b := fl.ctx.BoolType()
	fl.emit(ar.NewComparison(pred, fl.coerce(fl.operand(cond), b), fl.ctx.Int64Constant(b, 0)))
}

// sortFunctions sorts functions by name
func sortFunctions(fns []*ssa.Function) {
	sort.Slice(fns, func(i, j int) bool { return fns[i].String() < fns[j].String() })
}
