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

package pointer

import (
	"fmt"

	"github.com/awslabs/ar-go-absint/analysis/ar"
)

// A node of the constraint system is either a variable or the content of a memory object
type node interface{}

type contentOf struct{ obj ar.MemoryObject }

// constraint is a set constraint between nodes
type constraint interface {
	// solve propagates the points-to sets across the constraint and returns true if a set changed
	solve(a *analysis) bool

	String() string
}

// addrConstraint is dst ⊇ {obj}
type addrConstraint struct {
	dst node
	obj ar.MemoryObject
}

func (c *addrConstraint) solve(a *analysis) bool {
	return a.addObj(c.dst, c.obj)
}

func (c *addrConstraint) String() string { return fmt.Sprintf("%v ⊇ {%s}", c.dst, c.obj.MemoryName()) }

// copyConstraint is dst ⊇ src
type copyConstraint struct {
	dst node
	src node
}

func (c *copyConstraint) solve(a *analysis) bool {
	return a.addAll(c.dst, c.src)
}

func (c *copyConstraint) String() string { return fmt.Sprintf("%v ⊇ %v", c.dst, c.src) }

// loadConstraint is dst ⊇ *src
type loadConstraint struct {
	dst node
	src node
}

func (c *loadConstraint) solve(a *analysis) bool {
	if a.isTop(c.src) {
		return a.setTop(c.dst)
	}
	changed := false
	for _, o := range a.objects(c.src) {
		changed = a.addAll(c.dst, contentOf{o}) || changed
	}
	return changed
}

func (c *loadConstraint) String() string { return fmt.Sprintf("%v ⊇ *%v", c.dst, c.src) }

// storeConstraint is *dst ⊇ src
type storeConstraint struct {
	dst node
	src node
}

func (c *storeConstraint) solve(a *analysis) bool {
	if a.isTop(c.dst) {
		// the stored pointers escape to an unknown location
		return a.escape(c.src)
	}
	changed := false
	for _, o := range a.objects(c.dst) {
		changed = a.addAll(contentOf{o}, c.src) || changed
	}
	return changed
}

func (c *storeConstraint) String() string { return fmt.Sprintf("*%v ⊇ %v", c.dst, c.src) }

// topConstraint is dst = ⊤
type topConstraint struct {
	dst node
}

func (c *topConstraint) solve(a *analysis) bool { return a.setTop(c.dst) }

func (c *topConstraint) String() string { return fmt.Sprintf("%v = ⊤", c.dst) }

// escapeConstraint makes the contents of the objects reachable from src unknown, for pointers passed to unknown code
type escapeConstraint struct {
	src node
}

func (c *escapeConstraint) solve(a *analysis) bool { return a.escape(c.src) }

func (c *escapeConstraint) String() string { return fmt.Sprintf("escape(%v)", c.src) }
