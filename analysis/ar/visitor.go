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

import "fmt"

// A StmtOp must implement methods for ALL possible AR statements
type StmtOp interface {
	DoAssignment(*Assignment)
	DoUnaryOperation(*UnaryOperation)
	DoBinaryOperation(*BinaryOperation)
	DoComparison(*Comparison)
	DoReturnValue(*ReturnValue)
	DoUnreachable(*Unreachable)
	DoAllocate(*Allocate)
	DoPointerShift(*PointerShift)
	DoLoad(*Load)
	DoStore(*Store)
	DoCall(*Call)
	DoInvoke(*Invoke)
	DoLandingPad(*LandingPad)
	DoResume(*Resume)
	DoThrow(*Throw)
}

// StmtSwitch maps each statement kind to the method of the visitor. It panics on a statement kind it does not know.
//
//gocyclo:ignore
func StmtSwitch(visitor StmtOp, s Statement) {
	switch s := s.(type) {
	case *Assignment:
		visitor.DoAssignment(s)
	case *UnaryOperation:
		visitor.DoUnaryOperation(s)
	case *BinaryOperation:
		visitor.DoBinaryOperation(s)
	case *Comparison:
		visitor.DoComparison(s)
	case *ReturnValue:
		visitor.DoReturnValue(s)
	case *Unreachable:
		visitor.DoUnreachable(s)
	case *Allocate:
		visitor.DoAllocate(s)
	case *PointerShift:
		visitor.DoPointerShift(s)
	case *Load:
		visitor.DoLoad(s)
	case *Store:
		visitor.DoStore(s)
	case *Call:
		visitor.DoCall(s)
	case *Invoke:
		visitor.DoInvoke(s)
	case *LandingPad:
		visitor.DoLandingPad(s)
	case *Resume:
		visitor.DoResume(s)
	case *Throw:
		visitor.DoThrow(s)
	default:
		panic(fmt.Sprintf("unexpected statement kind %T", s))
	}
}

// IsCall returns true if s is a Call or an Invoke
func IsCall(s Statement) bool {
	switch s.(type) {
	case *Call, *Invoke:
		return true
	default:
		return false
	}
}
