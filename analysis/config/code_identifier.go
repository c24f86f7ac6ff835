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

package config

import "regexp"

// CodeIdentifier identifies Go functions by package path, receiver type name and function name. Each non-empty field
// is a regex if it compiles to one, otherwise it must match exactly. Empty fields match anything.
type CodeIdentifier struct {
	Package  string `yaml:"package"`
	Receiver string `yaml:"receiver"`
	Method   string `yaml:"method"`

	// This will not be part of the yaml config
	computedRegexs *codeIdentifierRegex
}

type codeIdentifierRegex struct {
	packageRegex  *regexp.Regexp
	receiverRegex *regexp.Regexp
	methodRegex   *regexp.Regexp
}

// CompileRegexes compiles the strings in the code identifier into regexes. It compiles all identifiers into regexes
// or none.
func CompileRegexes(cid CodeIdentifier) CodeIdentifier {
	packageRegex, err := regexp.Compile(anchor(cid.Package))
	if err != nil {
		return cid
	}
	receiverRegex, err := regexp.Compile(anchor(cid.Receiver))
	if err != nil {
		return cid
	}
	methodRegex, err := regexp.Compile(anchor(cid.Method))
	if err != nil {
		return cid
	}
	cid.computedRegexs = &codeIdentifierRegex{packageRegex, receiverRegex, methodRegex}
	return cid
}

// anchor makes the regex match whole identifiers
func anchor(s string) string {
	if s == "" {
		return s
	}
	return "^(" + s + ")$"
}

// Matches returns true if the function pkg.receiver.method is identified by cid
func (cid CodeIdentifier) Matches(pkg, receiver, method string) bool {
	if r := cid.computedRegexs; r != nil {
		return (cid.Package == "" || r.packageRegex.MatchString(pkg)) &&
			(cid.Receiver == "" || r.receiverRegex.MatchString(receiver)) &&
			(cid.Method == "" || r.methodRegex.MatchString(method))
	}
	return (cid.Package == "" || cid.Package == pkg) &&
		(cid.Receiver == "" || cid.Receiver == receiver) &&
		(cid.Method == "" || cid.Method == method)
}

// ExistsCid is true if there is some x in a such that f(x) is true.
func ExistsCid(a []CodeIdentifier, f func(identifier CodeIdentifier) bool) bool {
	for _, x := range a {
		if f(x) {
			return true
		}
	}
	return false
}
