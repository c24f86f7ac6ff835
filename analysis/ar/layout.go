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

// PointerBitWidth is the size of pointers, in bits
const PointerBitWidth = 64

// DataLayout computes the store sizes of types, in bytes
type DataLayout struct {
	PointerSize int64
}

// DefaultDataLayout is the layout of 64-bit targets
var DefaultDataLayout = DataLayout{PointerSize: PointerBitWidth / 8}

// SizeOf returns the store size of t in bytes, and false if t has no static size
func (l DataLayout) SizeOf(t Type) (int64, bool) {
	switch t := t.(type) {
	case *IntegerType:
		return int64((t.bitWidth + 7) / 8), true
	case *FloatType:
		return int64((t.bitWidth + 7) / 8), true
	case *PointerType:
		return l.PointerSize, true
	case *ArrayType:
		elem, ok := l.SizeOf(t.element)
		if !ok {
			return 0, false
		}
		return elem * t.length, true
	case *StructType:
		return t.size, true
	default:
		return 0, false
	}
}
