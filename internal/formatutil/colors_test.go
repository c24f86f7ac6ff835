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

package formatutil

import "testing"

func TestStatus(t *testing.T) {
	defer func(e bool) { Enabled = e }(Enabled)

	Enabled = false
	if s := Status("error"); s != "error" {
		t.Errorf("disabled colors should not change %q", s)
	}
	if s := Red("x"); s != "x" {
		t.Errorf("disabled colors should not change %q", s)
	}

	Enabled = true
	for status, expected := range map[string]string{
		"error": "\033[1;31merror\033[0m",
		"ok":    "\033[1;32mok\033[0m",
		"other": "other",
	} {
		if s := Status(status); s != expected {
			t.Errorf("Status(%q) = %q, expected %q", status, s, expected)
		}
	}
}

func TestSanitize(t *testing.T) {
	if s := Sanitize("a\nb"); s != `a\nb` {
		t.Errorf("newlines should be escaped: %q", s)
	}
	if s := Sanitize("\033[1m"); s != `\x1b[1m` {
		t.Errorf("escape sequences should be escaped: %q", s)
	}
}
