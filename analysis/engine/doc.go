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

// Package engine implements the transfer function of the value analysis.
//
// A NumericalExecutionEngine holds the invariant at one program point and updates it statement by statement,
// dispatching on the statement kind with ar.StmtSwitch. Calls are delegated to a CallEngine: the
// ContextInsensitiveCallEngine models the effect of a call from its signature only, it never analyzes the body of
// the callee.
//
// The engine reads the auxiliary results of the pre-analyses (liveness and points-to) but never modifies them.
package engine
