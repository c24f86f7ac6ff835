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

// Package ar defines the abstract representation analyzed by the value analysis: interned types and constants, the
// control flow graphs of function bodies, and the closed set of statements.
//
// All the types and constants of a bundle are created by its Context. Statements refer to front-end objects
// through FrontendKey values resolved by the FrontendTable of the bundle.
package ar
