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

package frontend_test

import (
	"go/ast"
	"go/importer"
	"go/parser"
	"go/token"
	"go/types"
	"path/filepath"
	"strings"
	"testing"

	"github.com/awslabs/ar-go-absint/analysis/ar"
	"github.com/awslabs/ar-go-absint/analysis/config"
	"github.com/awslabs/ar-go-absint/analysis/frontend"
	"github.com/awslabs/ar-go-absint/analysis/results"
	"github.com/awslabs/ar-go-absint/analysis/value"
	"github.com/awslabs/ar-go-absint/internal/analysistest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/tools/go/packages"
	"golang.org/x/tools/go/ssa"
	"golang.org/x/tools/go/ssa/ssautil"
)

// buildSource builds the SSA of a single-file package without imports other than unsafe
func buildSource(t *testing.T, src string) frontend.LoadedProgram {
	fset := token.NewFileSet()
	f, err := parser.ParseFile(fset, "test.go", src, parser.ParseComments)
	require.NoError(t, err)
	pkg := types.NewPackage("test", "test")
	tc := &types.Config{Importer: importer.Default()}
	ssaPkg, _, err := ssautil.BuildPackage(tc, fset, pkg, []*ast.File{f}, ssa.SanityCheckFunctions)
	require.NoError(t, err)
	return frontend.LoadedProgram{Program: ssaPkg.Prog, Packages: []*ssa.Package{ssaPkg}}
}

func lowerSource(t *testing.T, src string, cfg *config.Config) *frontend.Program {
	lp := buildSource(t, src)
	p := frontend.Translate(lp, "test", cfg, nil)
	assert.Empty(t, ar.NewTypeVerifier().VerifyBundle(p.Bundle))
	return p
}

const constructs = `package test

import "unsafe"

type node struct {
	val  int
	next *node
}

type shape interface{ area() float64 }

type square struct{ side float64 }

func (s square) area() float64 { return s.side * s.side }

func (n *node) length() int {
	l := 0
	for p := n; p != nil; p = p.next {
		l++
	}
	return l
}

var counter int32

func arith(a int8, b uint16, c int, d float32) int64 {
	x := int64(a) + int64(b)
	x = x * int64(c) / 3 % 7
	x = x &^ 5
	x = -x ^ 3
	y := ^b >> 2 << 1
	f := float64(d)*2 - float64(c)
	counter++
	if f > 1.5 && y != 0 {
		return x
	}
	return x + int64(f)
}

func swap(a, b int) (int, int) {
	for i := 0; i < 3; i++ {
		a, b = b, a
	}
	return a, b
}

func strings(s string, m map[string]int, xs []int) int {
	n := len(s) + m[s]
	for _, x := range xs {
		n += x
	}
	xs[0] = n
	return n
}

func closures(k int) int {
	add := func(x int) int { return x + k }
	defer func() { k++ }()
	go add(1)
	return add(2)
}

func shapes(s shape) float64 {
	if sq, ok := s.(square); ok {
		return sq.side
	}
	return s.area()
}

func raw(p unsafe.Pointer) uintptr {
	q := (*[4]int32)(p)
	q[1] = 3
	return uintptr(p) + unsafe.Sizeof(*q)
}

func fail(b bool) {
	if b {
		panic("failed")
	}
}

func compare(a, b int) bool {
	return a < b
}

func heap() *node {
	n := &node{val: 1}
	n.next = n
	return n
}
`

func TestLowerConstructs(t *testing.T) {
	p := lowerSource(t, constructs, nil)
	for _, name := range []string{"test.arith", "test.swap", "test.strings", "test.closures", "test.closures$1",
		"test.shapes", "test.raw", "test.fail", "test.compare", "test.heap", "(*test.node).length",
		"(test.square).area"} {
		fn, ok := p.Bundle.Function(name)
		if assert.True(t, ok, "missing %s", name) {
			assert.True(t, fn.IsDefinition(), "%s is not defined", name)
		}
	}
	_, ok := p.Bundle.Function("test.counter")
	assert.False(t, ok)
	require.Len(t, p.Bundle.Globals(), 1)
	assert.Equal(t, "test.counter", p.Bundle.Globals()[0].Name())
}

const methods = `package test

type counter struct{ n int }

func (c *counter) incr() int {
	add := func(k int) int { return c.n + k }
	c.n = add(1)
	return c.n
}

func (c counter) get() int { return c.n }

type wrapper struct{ counter }

type box[T any] struct{ v T }

func (b box[T]) value() T { return b.v }
`

func TestFunctionsIncludeMethods(t *testing.T) {
	lp := buildSource(t, methods)
	var names []string
	for _, f := range lp.Functions() {
		names = append(names, f.String())
	}
	assert.Contains(t, names, "(*test.counter).incr")
	assert.Contains(t, names, "(*test.counter).incr$1")
	assert.Contains(t, names, "(test.counter).get")
	// promoted methods are wrappers
	for _, name := range names {
		assert.NotContains(t, name, "wrapper", "%s is synthetic", name)
	}
}

func TestLowerTypes(t *testing.T) {
	p := lowerSource(t, constructs, nil)
	ctx := p.Bundle.Context()

	arith, ok := p.Bundle.Function("test.arith")
	require.True(t, ok)
	ft := arith.Type()
	assert.Same(t, ctx.IntegerType(64, ar.Signed), ft.ReturnType())
	require.Len(t, ft.Params(), 4)
	assert.Same(t, ctx.IntegerType(8, ar.Signed), ft.Params()[0])
	assert.Same(t, ctx.IntegerType(16, ar.Unsigned), ft.Params()[1])
	assert.Same(t, ctx.IntegerType(64, ar.Signed), ft.Params()[2])
	assert.Same(t, ctx.FloatType(ar.Float), ft.Params()[3])

	// multiple results are not represented
	swap, ok := p.Bundle.Function("test.swap")
	require.True(t, ok)
	assert.True(t, ar.IsVoid(swap.Type().ReturnType()))

	length, ok := p.Bundle.Function("(*test.node).length")
	require.True(t, ok)
	require.Len(t, length.Type().Params(), 1)
	recv, ok := length.Type().Params()[0].(*ar.PointerType)
	require.True(t, ok)
	st, ok := recv.Pointee().(*ar.StructType)
	require.True(t, ok)
	assert.Equal(t, int64(16), st.Size())
	require.Len(t, st.Fields(), 2)
	assert.Equal(t, int64(8), st.Fields()[1].Offset)
	assert.Same(t, recv, st.Fields()[1].Type)

	// strings, maps and slices are opaque parameters
	strs, ok := p.Bundle.Function("test.strings")
	require.True(t, ok)
	for _, pt := range strs.Type().Params() {
		assert.Same(t, ctx.OpaqueType(), pt)
	}

	// the free variables of closures are extra parameters
	closure, ok := p.Bundle.Function("test.closures$1")
	require.True(t, ok)
	assert.Len(t, closure.Type().Params(), 2)
}

func TestLowerStatements(t *testing.T) {
	p := lowerSource(t, constructs, nil)

	compare, ok := p.Bundle.Function("test.compare")
	require.True(t, ok)
	// a comparison used as a value is unknown
	assert.True(t, hasCallTo(compare, "go.unknown."))

	fail, ok := p.Bundle.Function("test.fail")
	require.True(t, ok)
	assert.True(t, hasStatement(fail, func(s ar.Statement) bool { _, ok := s.(*ar.Throw); return ok }))
	assert.True(t, hasStatement(fail, func(s ar.Statement) bool {
		c, ok := s.(*ar.Comparison)
		return ok && c.Predicate() == ar.EQ
	}))

	heap, ok := p.Bundle.Function("test.heap")
	require.True(t, ok)
	assert.True(t, hasCallTo(heap, ar.IntrinsicHeapAlloc.String()))

	closures, ok := p.Bundle.Function("test.closures")
	require.True(t, ok)
	assert.True(t, hasCallTo(closures, "test.closures$1"))

	// every function has a single exit block returning the ret variable
	arith, ok := p.Bundle.Function("test.arith")
	require.True(t, ok)
	exit, ok := arith.Body().Exit()
	require.True(t, ok)
	stmts := exit.Statements()
	require.Len(t, stmts, 1)
	ret, ok := stmts[0].(*ar.ReturnValue)
	require.True(t, ok)
	assert.Equal(t, "ret", ret.Operand().(*ar.InternalVariable).Name())
}

func TestLowerOverflowChecks(t *testing.T) {
	src := `package test

func add(a, b int32) int32 { return a + b }
`
	noWrap := func(p *frontend.Program) bool {
		fn, ok := p.Bundle.Function("test.add")
		require.True(t, ok)
		return hasStatement(fn, func(s ar.Statement) bool {
			b, ok := s.(*ar.BinaryOperation)
			return ok && b.Op() == ar.Add && b.NoWrap()
		})
	}
	assert.False(t, noWrap(lowerSource(t, src, nil)))
	cfg := config.NewDefault()
	cfg.Options.OverflowChecks = true
	assert.True(t, noWrap(lowerSource(t, src, cfg)))
}

func TestLowerConfiguredFunctions(t *testing.T) {
	src := `package test

import "unsafe"

func alloc(n uintptr) unsafe.Pointer { return nil }

func skipped(x int) int { return x / 2 }

func use() int {
	p := (*int)(alloc(8))
	return *p + skipped(1)
}
`
	cfg := config.NewDefault()
	cfg.Intrinsics = []config.IntrinsicSpec{
		{Kind: "heap-alloc", Function: config.CodeIdentifier{Package: "test", Method: "alloc"}},
	}
	cfg.Exclude = []config.CodeIdentifier{{Package: "test", Method: "skipped"}}
	p := lowerSource(t, src, cfg)

	_, ok := p.Bundle.Function("test.alloc")
	assert.False(t, ok)
	skipped, ok := p.Bundle.Function("test.skipped")
	require.True(t, ok)
	assert.True(t, skipped.IsDeclaration())
	use, ok := p.Bundle.Function("test.use")
	require.True(t, ok)
	assert.True(t, use.IsDefinition())
	assert.True(t, hasCallTo(use, ar.IntrinsicHeapAlloc.String()))

	cfg = config.NewDefault()
	cfg.PkgFilter = "other"
	p = lowerSource(t, src, cfg)
	for _, fn := range p.Bundle.Functions() {
		assert.True(t, fn.IsDeclaration(), "%s is defined", fn.Name())
	}
}

func TestLoweringMaps(t *testing.T) {
	lp := buildSource(t, constructs)
	p := frontend.Translate(lp, "test", nil, nil)
	l := p.Lowering()
	for _, f := range lp.Functions() {
		fn, ok := l.Function(f)
		require.True(t, ok)
		src, ok := l.Source(fn)
		require.True(t, ok)
		assert.Same(t, f, src)
		if f.Name() == "heap" {
			var alloc *ssa.Alloc
			for _, instr := range f.Blocks[0].Instrs {
				if a, ok := instr.(*ssa.Alloc); ok {
					alloc = a
				}
			}
			require.NotNil(t, alloc)
			obj, ok := l.Object(alloc)
			require.True(t, ok)
			assert.NotNil(t, obj)
			_, ok = l.Value(f, alloc)
			assert.True(t, ok)
		}
	}
}

// each directory of testdata/src/absint holds a program annotated with the expected checks
func TestAnalyzeTestdata(t *testing.T) {
	for _, name := range []string{"arith", "bounds", "pointers"} {
		t.Run(name, func(t *testing.T) {
			dir := filepath.Join("..", "..", "testdata", "src", "absint", name)
			lp, cfg := analysistest.LoadTest(t, dir)
			p := frontend.Translate(lp, name, cfg, nil)
			require.Empty(t, ar.NewTypeVerifier().VerifyBundle(p.Bundle))

			db := results.NewDatabase()
			a := value.NewIntraproceduralValueAnalysis(p.Bundle, db, value.OptionsFromConfig(cfg), nil)
			a.PointsTo = p.PointsTo
			a.Run()
			for _, f := range db.Functions() {
				assert.NotEqual(t, results.Failed, f.Status, "analysis of %s failed", f.Name)
			}
			checks := lp.Directives.Filter(db.Checks())
			analysistest.CheckExpectations(t, analysistest.GetExpectedChecks(t, dir), checks)
		})
	}
}

func TestPointerAnalysis(t *testing.T) {
	dir := filepath.Join("..", "..", "testdata", "src", "absint", "pointers")
	lp, cfg := analysistest.LoadTest(t, dir)
	p := frontend.Translate(lp, "pointers", cfg, nil)
	require.NoError(t, p.RunPointerAnalysis())

	first, ok := p.Bundle.Function("pointers-test.first")
	require.True(t, ok)
	r := p.PointsTo(first)
	require.NotNil(t, r)
	pts := r.PointsTo(first.Params()[0])
	assert.False(t, pts.IsTop())
	assert.Len(t, pts.Objects(), 1)
}

func TestDirectives(t *testing.T) {
	dir := filepath.Join("..", "..", "testdata", "src", "absint", "arith")
	lp, _ := analysistest.LoadTest(t, dir)
	require.Len(t, lp.Directives, 1)
	for pos, d := range lp.Directives {
		assert.Equal(t, frontend.DirectiveIgnore, d.Kind)
		assert.True(t, strings.HasSuffix(pos.Filename, "main.go"))
		assert.True(t, lp.Directives.Ignores(token.Position{Filename: pos.Filename, Line: pos.Line + 1, Column: 2}))
		assert.False(t, lp.Directives.Ignores(token.Position{Filename: pos.Filename, Line: pos.Line + 2}))
	}

	_, ok := frontend.NewDirective(&ast.Comment{Text: "//absint:unknown"})
	assert.False(t, ok)
	_, ok = frontend.NewDirective(&ast.Comment{Text: "// ordinary comment"})
	assert.False(t, ok)
}

func TestLoadProgramErrors(t *testing.T) {
	pcfg := &packages.Config{Mode: frontend.PkgLoadMode, Dir: t.TempDir()}
	_, err := frontend.LoadProgram(pcfg, "", ssa.BuilderMode(0), []string{"./nonexistent"})
	assert.Error(t, err)
}

func hasStatement(fn *ar.Function, pred func(ar.Statement) bool) bool {
	for _, b := range fn.Body().Blocks() {
		for _, s := range b.Statements() {
			if pred(s) {
				return true
			}
		}
	}
	return false
}

func hasCallTo(fn *ar.Function, prefix string) bool {
	return hasStatement(fn, func(s ar.Statement) bool {
		c, ok := s.(*ar.Call)
		if !ok {
			return false
		}
		k, ok := c.Called().(*ar.FunctionPointerConstant)
		return ok && strings.HasPrefix(k.Function().Name(), prefix)
	})
}
