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

package value

import (
	"fmt"
	"math/big"

	"github.com/awslabs/ar-go-absint/analysis/domain/numeric"
)

// AbstractValue is the abstract state at a program point. It separates three flows of execution:
//   - Normal: the states reached without exception,
//   - Caught: the states where a call inside an invoke threw an exception, not yet routed to the landing pad,
//   - Propagated: the states where an exception escapes the function.
type AbstractValue struct {
	Normal     MemoryDomain
	Caught     MemoryDomain
	Propagated MemoryDomain
}

// Top returns the initial state of a function: any normal state, no pending exception
func Top(k numeric.Kind) AbstractValue {
	return AbstractValue{Normal: TopMemory(k), Caught: BottomMemory(k), Propagated: BottomMemory(k)}
}

// Bottom returns the unreachable state
func Bottom(k numeric.Kind) AbstractValue {
	return AbstractValue{Normal: BottomMemory(k), Caught: BottomMemory(k), Propagated: BottomMemory(k)}
}

// Kind returns the numerical domain of the integers
func (a AbstractValue) Kind() numeric.Kind { return a.Normal.kind }

// Bottom returns the unreachable state of the same numerical domain
func (a AbstractValue) Bottom() AbstractValue { return Bottom(a.Normal.kind) }

// IsBottom returns true if no flow is reachable
func (a AbstractValue) IsBottom() bool {
	return a.Normal.IsBottom() && a.Caught.IsBottom() && a.Propagated.IsBottom()
}

// IsTop returns true if all the flows are top
func (a AbstractValue) IsTop() bool {
	return a.Normal.IsTop() && a.Caught.IsTop() && a.Propagated.IsTop()
}

// Clone returns a copy that can be modified independently
func (a AbstractValue) Clone() AbstractValue {
	return AbstractValue{Normal: a.Normal.Clone(), Caught: a.Caught.Clone(), Propagated: a.Propagated.Clone()}
}

// Leq returns true if every flow of a is included in the flow of o
func (a AbstractValue) Leq(o AbstractValue) bool {
	return a.Normal.Leq(o.Normal) && a.Caught.Leq(o.Caught) && a.Propagated.Leq(o.Propagated)
}

// Equals returns true if a and o represent the same states
func (a AbstractValue) Equals(o AbstractValue) bool { return a.Leq(o) && o.Leq(a) }

// Join returns the flow-wise join
func (a AbstractValue) Join(o AbstractValue) AbstractValue {
	return AbstractValue{a.Normal.Join(o.Normal), a.Caught.Join(o.Caught), a.Propagated.Join(o.Propagated)}
}

// Widen returns the flow-wise widening
func (a AbstractValue) Widen(o AbstractValue) AbstractValue {
	return a.WidenThreshold(o, nil)
}

// WidenThreshold returns the flow-wise widening with a threshold
func (a AbstractValue) WidenThreshold(o AbstractValue, threshold *big.Int) AbstractValue {
	return AbstractValue{
		a.Normal.WidenThreshold(o.Normal, threshold),
		a.Caught.WidenThreshold(o.Caught, threshold),
		a.Propagated.WidenThreshold(o.Propagated, threshold),
	}
}

// Meet returns the flow-wise meet
func (a AbstractValue) Meet(o AbstractValue) AbstractValue {
	return AbstractValue{a.Normal.Meet(o.Normal), a.Caught.Meet(o.Caught), a.Propagated.Meet(o.Propagated)}
}

// Narrow returns the flow-wise narrowing
func (a AbstractValue) Narrow(o AbstractValue) AbstractValue {
	return AbstractValue{a.Normal.Narrow(o.Normal), a.Caught.Narrow(o.Caught), a.Propagated.Narrow(o.Propagated)}
}

// JoinWith joins o into a
func (a *AbstractValue) JoinWith(o AbstractValue) { *a = a.Join(o) }

// WidenWith widens a with o
func (a *AbstractValue) WidenWith(o AbstractValue) { *a = a.Widen(o) }

// JoinLoopWith joins o into a at the head of a loop
func (a *AbstractValue) JoinLoopWith(o AbstractValue) { *a = a.Join(o) }

// NarrowWith narrows a with o
func (a *AbstractValue) NarrowWith(o AbstractValue) { *a = a.Narrow(o) }

// SetNormalBottom makes the normal flow unreachable
func (a *AbstractValue) SetNormalBottom() { a.Normal.SetBottom() }

// MergeNormalIntoCaught joins the normal flow into the caught exceptions
func (a *AbstractValue) MergeNormalIntoCaught() { a.Caught = a.Caught.Join(a.Normal) }

// MergeNormalIntoPropagated joins the normal flow into the propagated exceptions
func (a *AbstractValue) MergeNormalIntoPropagated() { a.Propagated = a.Propagated.Join(a.Normal) }

// MergeCaughtIntoPropagated joins the caught exceptions into the propagated exceptions
func (a *AbstractValue) MergeCaughtIntoPropagated() {
	a.Propagated = a.Propagated.Join(a.Caught)
	a.Caught.SetBottom()
}

// IgnoreCaught drops the caught exceptions
func (a *AbstractValue) IgnoreCaught() { a.Caught.SetBottom() }

// CaughtToNormal makes the caught exceptions the normal flow
func (a *AbstractValue) CaughtToNormal() {
	a.Normal = a.Caught
	a.Caught = BottomMemory(a.Normal.kind)
}

func (a AbstractValue) String() string {
	return fmt.Sprintf("(normal=%s, caught=%s, propagated=%s)", a.Normal, a.Caught, a.Propagated)
}
