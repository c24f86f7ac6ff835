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

// CallContext identifies the calling context of a function analysis. The intraprocedural analysis only uses the
// empty context.
type CallContext struct {
	parent *CallContext
	call   string
}

// IsEmpty returns true for the context of a function analyzed without caller
func (c *CallContext) IsEmpty() bool { return c.parent == nil }

func (c *CallContext) String() string {
	if c.IsEmpty() {
		return "empty"
	}
	return c.parent.String() + "/" + c.call
}

// CallContextFactory creates the call contexts. Contexts are unique: two contexts are equal if and only if they
// are the same pointer.
type CallContextFactory struct {
	empty CallContext
}

// DefaultCallContexts is the factory used by the intraprocedural analysis
var DefaultCallContexts = &CallContextFactory{}

// Empty returns the empty call context
func (f *CallContextFactory) Empty() *CallContext { return &f.empty }
