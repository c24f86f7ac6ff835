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

package engine

import "fmt"

// Precision is the level of detail of the value analysis
type Precision int

const (
	// Register tracks the values of the integer registers only
	Register Precision = iota
	// Pointer also tracks the pointer registers: points-to sets, offsets and nullity
	Pointer
	// Memory also tracks the contents of the memory cells and the lifetime of the memory objects
	Memory
)

var precisionNames = [...]string{"register", "pointer", "memory"}

func (p Precision) String() string {
	if p < Register || p > Memory {
		return fmt.Sprintf("Precision(%d)", int(p))
	}
	return precisionNames[p]
}

// ParsePrecision returns the precision of the given name
func ParsePrecision(name string) (Precision, error) {
	for i, n := range precisionNames {
		if n == name {
			return Precision(i), nil
		}
	}
	return Memory, fmt.Errorf("unknown precision %q", name)
}
