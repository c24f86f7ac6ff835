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

/*
Package config provides a simple way to manage the configuration of the value analysis.

Use [Load](filename) to load a configuration from a specific filename, or [Parse] to read it from yaml contents.

Use [SetGlobalConfig](filename) to set filename as the global config, and then [LoadGlobal]() to load the global config.

A config file should be in yaml format. The top-level fields can be any of the fields defined in the Config
struct type. For example, a valid config file is as follows:

	options:
	  machine-int-domain: interval-congruence
	  precision: pointer
	  max-narrowing-iterations: 3
	  analyses: [dbz, boa, prover]
	  results-file: output.db
	intrinsics:
	  - kind: assert
	    function:
	      package: mylib/check
	      method: Assert
	exclude:
	  - package: vendor/.*

Options that are not set keep their default value (see [NewDefault]). An unknown domain or precision is replaced by
its default, and the problem is reported by [Config.Warnings].

# Identifying code elements

The config uses [CodeIdentifier] to identify specific functions. The string specifications are seen as regexes if
they can be compiled to regexes, otherwise they are strings.
*/
package config
