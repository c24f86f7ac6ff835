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

// Package fixpoint implements the forward fixpoint iterator of the abstract interpreter.
//
// The iterator follows a weak topological ordering (WTO) of the control flow graph. Each cycle of the ordering is
// stabilized with increasing iterations at its head, where the analysis extrapolates (join, then widening), followed
// by decreasing iterations where the analysis refines the invariant (narrowing). Both the graph and the abstract
// domain are type parameters, so the iterator is independent from the intermediate representation.
package fixpoint
