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

// The small lattices of this file are sets of two abstract facts, encoded as bit sets: the empty set is bottom and
// the full set is top.

// Nullity tells whether a pointer may be null
type Nullity uint8

const (
	// NullityBottom is the nullity of unreachable pointers
	NullityBottom Nullity = 0
	// Null pointers
	Null Nullity = 1
	// NonNull pointers
	NonNull Nullity = 2
	// NullityTop is the nullity of pointers that may be null or not
	NullityTop Nullity = Null | NonNull
)

func (n Nullity) IsBottom() bool          { return n == NullityBottom }
func (n Nullity) IsTop() bool             { return n == NullityTop }
func (n Nullity) IsNull() bool            { return n == Null }
func (n Nullity) IsNonNull() bool         { return n == NonNull }
func (n Nullity) Leq(o Nullity) bool      { return n&^o == 0 }
func (n Nullity) Join(o Nullity) Nullity  { return n | o }
func (n Nullity) Meet(o Nullity) Nullity  { return n & o }
func (n Nullity) Widen(o Nullity) Nullity { return n | o }

func (n Nullity) String() string {
	return [...]string{"⊥", "null", "non-null", "T"}[n]
}

// Uninitialized tells whether a variable may hold an uninitialized value
type Uninitialized uint8

const (
	// UninitBottom is the state of unreachable variables
	UninitBottom Uninitialized = 0
	// Initialized variables
	Initialized Uninitialized = 1
	// Uninit variables
	Uninit Uninitialized = 2
	// UninitTop is the state of variables that may be initialized or not
	UninitTop Uninitialized = Initialized | Uninit
)

func (u Uninitialized) IsBottom() bool                { return u == UninitBottom }
func (u Uninitialized) IsTop() bool                   { return u == UninitTop }
func (u Uninitialized) IsInitialized() bool           { return u == Initialized }
func (u Uninitialized) IsUninitialized() bool         { return u == Uninit }
func (u Uninitialized) Leq(o Uninitialized) bool      { return u&^o == 0 }
func (u Uninitialized) Join(o Uninitialized) Uninitialized { return u | o }
func (u Uninitialized) Meet(o Uninitialized) Uninitialized { return u & o }

func (u Uninitialized) String() string {
	return [...]string{"⊥", "initialized", "uninitialized", "T"}[u]
}

// Lifetime tells whether a memory object is allocated
type Lifetime uint8

const (
	// LifetimeBottom is the lifetime of unreachable objects
	LifetimeBottom Lifetime = 0
	// Allocated objects
	Allocated Lifetime = 1
	// Deallocated objects
	Deallocated Lifetime = 2
	// LifetimeTop is the lifetime of objects that may be allocated or deallocated
	LifetimeTop Lifetime = Allocated | Deallocated
)

func (l Lifetime) IsBottom() bool           { return l == LifetimeBottom }
func (l Lifetime) IsTop() bool              { return l == LifetimeTop }
func (l Lifetime) IsAllocated() bool        { return l == Allocated }
func (l Lifetime) IsDeallocated() bool      { return l == Deallocated }
func (l Lifetime) Leq(o Lifetime) bool      { return l&^o == 0 }
func (l Lifetime) Join(o Lifetime) Lifetime { return l | o }
func (l Lifetime) Meet(o Lifetime) Lifetime { return l & o }

func (l Lifetime) String() string {
	return [...]string{"⊥", "allocated", "deallocated", "T"}[l]
}
