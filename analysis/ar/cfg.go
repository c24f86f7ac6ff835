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

package ar

import (
	"fmt"
	"strings"
)

// BasicBlock is a sequence of statements with a single entry point. The successors of a block are stored on the
// block itself.
type BasicBlock struct {
	code  *Code
	id    int
	name  string
	stmts []Statement
	succs []*BasicBlock
	preds []*BasicBlock
}

// ID returns the index of the block in its code. IDs are dense, starting at 0.
func (b *BasicBlock) ID() int { return b.id }

// Name returns the name of the block
func (b *BasicBlock) Name() string { return b.name }

// Code returns the body containing the block
func (b *BasicBlock) Code() *Code { return b.code }

// Statements returns the statements of the block, in order
func (b *BasicBlock) Statements() []Statement { return b.stmts }

// Successors returns the successors of the block, in order
func (b *BasicBlock) Successors() []*BasicBlock { return b.succs }

// Predecessors returns the predecessors of the block, in order
func (b *BasicBlock) Predecessors() []*BasicBlock { return b.preds }

// Append adds s at the end of the block and returns it
func (b *BasicBlock) Append(s Statement) Statement {
	s.stmt().parent = b
	b.stmts = append(b.stmts, s)
	return s
}

// AddSuccessor adds an edge from b to dst. Adding an existing edge has no effect.
func (b *BasicBlock) AddSuccessor(dst *BasicBlock) {
	for _, s := range b.succs {
		if s == dst {
			return
		}
	}
	b.succs = append(b.succs, dst)
	dst.preds = append(dst.preds, b)
}

// Terminator returns the last statement of the block, or nil if the block is empty
func (b *BasicBlock) Terminator() Statement {
	if len(b.stmts) == 0 {
		return nil
	}
	return b.stmts[len(b.stmts)-1]
}

func (b *BasicBlock) String() string {
	var s strings.Builder
	fmt.Fprintf(&s, "%s:\n", b.name)
	for _, stmt := range b.stmts {
		fmt.Fprintf(&s, "  %s\n", stmt)
	}
	if len(b.succs) > 0 {
		names := make([]string, len(b.succs))
		for i, succ := range b.succs {
			names[i] = succ.name
		}
		fmt.Fprintf(&s, "  --> %s\n", strings.Join(names, ", "))
	}
	return s.String()
}

// Code is the control flow graph of a function body. Code implements the Iterator interface of
// github.com/yourbasic/graph, with the block IDs as vertices.
type Code struct {
	fn          *Function
	blocks      []*BasicBlock
	entry       *BasicBlock
	exit        *BasicBlock
	unreachable *BasicBlock
	internals   []*InternalVariable
	locals      []*LocalVariable
}

// Function returns the function of the body
func (c *Code) Function() *Function { return c.fn }

// Blocks returns the blocks, in order of creation
func (c *Code) Blocks() []*BasicBlock { return c.blocks }

// Entry returns the entry block
func (c *Code) Entry() *BasicBlock { return c.entry }

// SetEntry sets the entry block
func (c *Code) SetEntry(b *BasicBlock) { c.entry = b }

// Exit returns the normal exit block, if any
func (c *Code) Exit() (*BasicBlock, bool) { return c.exit, c.exit != nil }

// SetExit sets the normal exit block
func (c *Code) SetExit(b *BasicBlock) { c.exit = b }

// UnreachableBlock returns the block holding the unreachable statements, if any
func (c *Code) UnreachableBlock() (*BasicBlock, bool) { return c.unreachable, c.unreachable != nil }

// SetUnreachableBlock sets the unreachable block
func (c *Code) SetUnreachableBlock(b *BasicBlock) { c.unreachable = b }

// InternalVariables returns the registers of the body
func (c *Code) InternalVariables() []*InternalVariable { return c.internals }

// LocalVariables returns the stack objects of the body
func (c *Code) LocalVariables() []*LocalVariable { return c.locals }

// NewBasicBlock adds a block to the body. The first block created is the entry block unless SetEntry is called.
func (c *Code) NewBasicBlock(name string) *BasicBlock {
	b := &BasicBlock{code: c, id: len(c.blocks), name: name}
	c.blocks = append(c.blocks, b)
	if c.entry == nil {
		c.entry = b
	}
	return b
}

// NewInternalVariable adds a register of type t to the body
func (c *Code) NewInternalVariable(name string, t Type) *InternalVariable {
	v := &InternalVariable{id: len(c.internals) + len(c.fn.params), name: name, typ: t}
	c.internals = append(c.internals, v)
	return v
}

// NewLocalVariable adds a stack object of the given type to the body
func (c *Code) NewLocalVariable(name string, allocated Type) *LocalVariable {
	v := &LocalVariable{
		id:        len(c.locals),
		name:      name,
		typ:       c.fn.bundle.ctx.PointerType(allocated),
		allocated: allocated,
	}
	c.locals = append(c.locals, v)
	return v
}

// Order implements graph.Iterator
func (c *Code) Order() int { return len(c.blocks) }

// Visit implements graph.Iterator. Edges have cost 1.
func (c *Code) Visit(v int, do func(w int, cost int64) bool) bool {
	for _, s := range c.blocks[v].succs {
		if do(s.id, 1) {
			return true
		}
	}
	return false
}

func (c *Code) String() string {
	var s strings.Builder
	for _, b := range c.blocks {
		s.WriteString(b.String())
	}
	return s.String()
}

// Intrinsic identifies a function whose semantics are built into the analysis
type Intrinsic int

const (
	// NotIntrinsic is the id of regular functions
	NotIntrinsic Intrinsic = iota
	// IntrinsicAssert is assert(cond): the program aborts if cond is zero
	IntrinsicAssert
	// IntrinsicHeapAlloc is ptr = alloc(size): allocates a new heap object, never returns null
	IntrinsicHeapAlloc
	// IntrinsicFree is free(ptr): deallocates a heap object
	IntrinsicFree
	// IntrinsicAbort never returns
	IntrinsicAbort
)

var intrinsicNames = [...]string{"", "ar.assert", "ar.heap_alloc", "ar.free", "ar.abort"}

func (i Intrinsic) String() string { return intrinsicNames[i] }

// Function is a function of a bundle. A function without body is a declaration.
type Function struct {
	bundle    *Bundle
	name      string
	typ       *FunctionType
	params    []*InternalVariable
	body      *Code
	intrinsic Intrinsic
	frontend  FrontendKey
}

func (*Function) isMemoryObject() {}

// Name returns the name of the function
func (f *Function) Name() string { return f.name }

// Type returns the type of the function
func (f *Function) Type() *FunctionType { return f.typ }

// Bundle returns the bundle of the function
func (f *Function) Bundle() *Bundle { return f.bundle }

// Params returns the parameters of the function
func (f *Function) Params() []*InternalVariable { return f.params }

// Body returns the body of the function, nil for a declaration
func (f *Function) Body() *Code { return f.body }

// IsDeclaration returns true if the function has no body
func (f *Function) IsDeclaration() bool { return f.body == nil }

// IsDefinition returns true if the function has a body
func (f *Function) IsDefinition() bool { return f.body != nil }

// Intrinsic returns the intrinsic id of the function
func (f *Function) Intrinsic() Intrinsic { return f.intrinsic }

// Frontend returns the front-end key of the function
func (f *Function) Frontend() FrontendKey { return f.frontend }

// SetFrontend sets the front-end key of the function
func (f *Function) SetFrontend(key FrontendKey) { f.frontend = key }

// MemoryName implements MemoryObject
func (f *Function) MemoryName() string { return "@" + f.name }

// IsSummary implements MemoryObject
func (f *Function) IsSummary() bool { return false }

// AllocatedType implements MemoryObject
func (f *Function) AllocatedType() Type { return f.typ }

// NewBody creates an empty body for the function, making it a definition
func (f *Function) NewBody() *Code {
	f.body = &Code{fn: f}
	return f.body
}

// DropBody removes the body of the function, making it a declaration
func (f *Function) DropBody() { f.body = nil }

func (f *Function) String() string {
	params := make([]string, len(f.params))
	for i, p := range f.params {
		params[i] = fmt.Sprintf("%s %s", p.typ, p)
	}
	head := fmt.Sprintf("%s @%s(%s)", f.typ.ret, f.name, strings.Join(params, ", "))
	if f.body == nil {
		return "declare " + head + "\n"
	}
	return "define " + head + " {\n" + f.body.String() + "}\n"
}

// Bundle is a compilation unit: an ordered set of functions and global variables
type Bundle struct {
	ctx       *Context
	name      string
	functions []*Function
	byName    map[string]*Function
	globals   []*GlobalVariable
	// Frontend resolves the front-end keys of the statements of the bundle. It may be nil.
	Frontend FrontendTable
}

// NewBundle returns an empty bundle using the types and constants of ctx
func NewBundle(ctx *Context, name string) *Bundle {
	return &Bundle{ctx: ctx, name: name, byName: map[string]*Function{}}
}

// Context returns the context of the bundle
func (b *Bundle) Context() *Context { return b.ctx }

// Name returns the name of the bundle
func (b *Bundle) Name() string { return b.name }

// Functions returns the functions of the bundle, in order of declaration
func (b *Bundle) Functions() []*Function { return b.functions }

// Function returns the function with the given name
func (b *Bundle) Function(name string) (*Function, bool) {
	f, ok := b.byName[name]
	return f, ok
}

// Globals returns the global variables of the bundle
func (b *Bundle) Globals() []*GlobalVariable { return b.globals }

// DeclareFunction adds a function without body. If a function with the same name exists, it is returned.
func (b *Bundle) DeclareFunction(name string, typ *FunctionType, paramNames ...string) *Function {
	if f, ok := b.byName[name]; ok {
		return f
	}
	f := &Function{bundle: b, name: name, typ: typ}
	for i, pt := range typ.params {
		pname := fmt.Sprintf("arg%d", i)
		if i < len(paramNames) {
			pname = paramNames[i]
		}
		f.params = append(f.params, &InternalVariable{id: i, name: pname, typ: pt})
	}
	b.functions = append(b.functions, f)
	b.byName[name] = f
	return f
}

// DefineFunction adds a function with an empty body
func (b *Bundle) DefineFunction(name string, typ *FunctionType, paramNames ...string) *Function {
	f := b.DeclareFunction(name, typ, paramNames...)
	if f.body == nil {
		f.NewBody()
	}
	return f
}

// IntrinsicFunction returns the declaration of an intrinsic, creating it if needed
func (b *Bundle) IntrinsicFunction(id Intrinsic) *Function {
	if f, ok := b.byName[id.String()]; ok {
		return f
	}
	ctx := b.ctx
	bytePtr := ctx.PointerType(ctx.IntegerType(8, Unsigned))
	var typ *FunctionType
	switch id {
	case IntrinsicAssert:
		typ = ctx.FunctionType(ctx.VoidType(), []Type{ctx.BoolType()}, false)
	case IntrinsicHeapAlloc:
		typ = ctx.FunctionType(bytePtr, []Type{ctx.SizeType()}, false)
	case IntrinsicFree:
		typ = ctx.FunctionType(ctx.VoidType(), []Type{bytePtr}, false)
	case IntrinsicAbort:
		typ = ctx.FunctionType(ctx.VoidType(), nil, false)
	default:
		panic(fmt.Sprintf("ar: not an intrinsic: %d", id))
	}
	f := b.DeclareFunction(id.String(), typ)
	f.intrinsic = id
	return f
}

// NewGlobalVariable adds a global object of type allocated to the bundle
func (b *Bundle) NewGlobalVariable(name string, allocated Type) *GlobalVariable {
	g := &GlobalVariable{name: name, typ: b.ctx.PointerType(allocated), allocated: allocated}
	b.globals = append(b.globals, g)
	return g
}
