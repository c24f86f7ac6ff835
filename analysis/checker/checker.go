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

package checker

import (
	"fmt"
	"go/token"
	"sort"
	"strings"
	"sync"

	"github.com/awslabs/ar-go-absint/analysis/ar"
	"github.com/awslabs/ar-go-absint/analysis/config"
	"github.com/awslabs/ar-go-absint/analysis/domain/value"
	"github.com/awslabs/ar-go-absint/analysis/engine"
)

// Checker checks a property on the invariants of a function. The hooks are called in order: EnterFunction, then
// for each block EnterBlock, Check on each statement with a source position, LeaveBlock, and finally
// LeaveFunction. The invariant given to Check holds before the statement.
//
// Checkers only read the invariants. The results are sent to the sink of the checker.
type Checker interface {
	Name() string
	Description() string
	EnterFunction(fn *ar.Function, ctx *engine.CallContext)
	EnterBlock(bb *ar.BasicBlock, inv value.AbstractValue, ctx *engine.CallContext)
	Check(stmt ar.Statement, inv value.AbstractValue, ctx *engine.CallContext)
	LeaveBlock(bb *ar.BasicBlock, inv value.AbstractValue, ctx *engine.CallContext)
	LeaveFunction(fn *ar.Function, ctx *engine.CallContext)
	Sink() *Sink
}

// Result is the outcome of a check
type Result int

const (
	// Ok means the property holds
	Ok Result = iota
	// Warning means the property may not hold
	Warning
	// Error means the property never holds
	Error
	// Unreachable means the statement is never executed
	Unreachable
)

var resultNames = [...]string{"ok", "warning", "error", "unreachable"}

func (r Result) String() string { return resultNames[r] }

// Check is the result of a checker on one statement or block
type Check struct {
	Checker   string         `msgpack:"checker"`
	Kind      string         `msgpack:"kind"`
	Result    Result         `msgpack:"result"`
	Function  string         `msgpack:"function"`
	Block     string         `msgpack:"block"`
	Statement string         `msgpack:"statement"`
	Position  token.Position `msgpack:"position"`
	Message   string         `msgpack:"message"`
}

func (c Check) String() string {
	pos := c.Position.String()
	if !c.Position.IsValid() {
		pos = c.Function + ":" + c.Block
	}
	return fmt.Sprintf("%s: [%s] %s: %s", pos, c.Result, c.Kind, c.Message)
}

// Sink collects the checks of a checker. It is safe for concurrent use.
type Sink struct {
	mu     sync.Mutex
	checks []Check
}

// NewSink returns an empty sink
func NewSink() *Sink { return &Sink{} }

// Emit records a check
func (s *Sink) Emit(c Check) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.checks = append(s.checks, c)
}

// Checks returns the recorded checks, in order of emission
func (s *Sink) Checks() []Check {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Check(nil), s.checks...)
}

// Drain returns the recorded checks and empties the sink
func (s *Sink) Drain() []Check {
	s.mu.Lock()
	defer s.mu.Unlock()
	checks := s.checks
	s.checks = nil
	return checks
}

// Env is what the checkers need to read the invariants and report their results
type Env struct {
	// Eval reads the values of the operands, with the precision of the analysis
	Eval engine.Evaluator

	// Frontend resolves the source positions of the statements. It may be nil.
	Frontend ar.FrontendTable

	// Log is used for debug messages. It may be nil.
	Log *config.LogGroup
}

var registry = map[string]func(Env) Checker{
	"boa":     newBufferOverflow,
	"dbz":     newDivisionByZero,
	"dca":     newDeadCode,
	"nullity": newNullDereference,
	"prover":  newAssertProver,
	"sio":     newSignedOverflow,
	"uaf":     newUseAfterFree,
	"uio":     newUnsignedOverflow,
	"uva":     newUninitializedVariable,
}

// Names returns the names of the available checkers, sorted
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// MakeChecker returns a new checker by name
func MakeChecker(name string, env Env) (Checker, error) {
	mk, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown checker %q, expected one of %s", name, strings.Join(Names(), ", "))
	}
	return mk(env), nil
}

// base implements the hooks that are not needed by a checker, and the reporting of the results
type base struct {
	name  string
	desc  string
	env   Env
	sink  *Sink
	fn    *ar.Function
	block *ar.BasicBlock
}

func newBase(name, desc string, env Env) base {
	return base{name: name, desc: desc, env: env, sink: NewSink()}
}

func (b *base) Name() string        { return b.name }
func (b *base) Description() string { return b.desc }
func (b *base) Sink() *Sink         { return b.sink }

func (b *base) EnterFunction(fn *ar.Function, _ *engine.CallContext) { b.fn = fn }

func (b *base) EnterBlock(bb *ar.BasicBlock, _ value.AbstractValue, _ *engine.CallContext) { b.block = bb }

func (b *base) LeaveBlock(*ar.BasicBlock, value.AbstractValue, *engine.CallContext) {}

func (b *base) LeaveFunction(*ar.Function, *engine.CallContext) {}

func (b *base) position(stmt ar.Statement) token.Position {
	if b.env.Frontend == nil || !stmt.HasFrontend() {
		return token.Position{}
	}
	pos, _ := b.env.Frontend.Position(stmt.Frontend())
	return pos
}

func (b *base) emit(stmt ar.Statement, kind string, r Result, format string, args ...any) {
	c := Check{
		Checker:   b.name,
		Kind:      kind,
		Result:    r,
		Statement: stmt.String(),
		Position:  b.position(stmt),
		Message:   fmt.Sprintf(format, args...),
	}
	if b.fn != nil {
		c.Function = b.fn.Name()
	}
	if bb := stmt.Parent(); bb != nil {
		c.Block = bb.Name()
	} else if b.block != nil {
		c.Block = b.block.Name()
	}
	if b.env.Log != nil {
		b.env.Log.Debugf("%s", c)
	}
	b.sink.Emit(c)
}

// unreachable reports the check as unreachable if the normal flow is bottom
func (b *base) unreachable(stmt ar.Statement, inv value.AbstractValue, kind string) bool {
	if !inv.Normal.IsBottom() {
		return false
	}
	b.emit(stmt, kind, Unreachable, "statement is never executed")
	return true
}

func callBase(s ar.Statement) (*ar.CallBase, bool) {
	switch s := s.(type) {
	case *ar.Call:
		return &s.CallBase, true
	case *ar.Invoke:
		return &s.CallBase, true
	default:
		return nil, false
	}
}

// intrinsicCall returns the arguments of a call to the intrinsic id
func intrinsicCall(s ar.Statement, id ar.Intrinsic) ([]ar.Value, bool) {
	call, ok := callBase(s)
	if !ok {
		return nil, false
	}
	fn, ok := call.CalledFunction()
	if !ok || fn.Intrinsic() != id {
		return nil, false
	}
	return call.Args(), true
}

// dereferenced returns the pointer operand of a memory access and the type of the accessed value
func dereferenced(s ar.Statement) (ar.Value, ar.Type, bool) {
	switch s := s.(type) {
	case *ar.Load:
		return s.Operand(), s.ResultVar().Type(), true
	case *ar.Store:
		return s.Pointer(), s.Value().Type(), true
	default:
		return nil, nil, false
	}
}
