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

// Package results implements the database of the analysis results: the analyzed functions, the timings of the
// analysis phases and the checks. A database is safe for concurrent use and can be saved to and loaded from a file
// in the msgpack format.
package results

import (
	"fmt"
	"io"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/awslabs/ar-go-absint/analysis/checker"
	"github.com/vmihailenco/msgpack/v5"
)

// FunctionStatus is the outcome of the analysis of a function
type FunctionStatus string

const (
	// Analyzed functions have invariants and checks
	Analyzed FunctionStatus = "analyzed"
	// Declaration functions have no body to analyze
	Declaration FunctionStatus = "declaration"
	// Failed functions stopped the analysis with an error
	Failed FunctionStatus = "failed"
)

// Function is a row of the functions table
type Function struct {
	Name   string         `msgpack:"name"`
	Status FunctionStatus `msgpack:"status"`
	Error  string         `msgpack:"error,omitempty"`
}

// Time is a row of the times table
type Time struct {
	Name     string        `msgpack:"name"`
	Duration time.Duration `msgpack:"duration"`
}

// Database holds the functions, times and checks tables
type Database struct {
	mu        sync.Mutex
	functions map[string]*Function
	times     []Time
	checks    []checker.Check
}

// dump is the persisted form of a database
type dump struct {
	Functions []Function      `msgpack:"functions"`
	Times     []Time          `msgpack:"times"`
	Checks    []checker.Check `msgpack:"checks"`
}

// NewDatabase returns an empty database
func NewDatabase() *Database {
	return &Database{functions: map[string]*Function{}}
}

// AddFunction inserts a function with the given status, or updates its status
func (db *Database) AddFunction(name string, status FunctionStatus) {
	db.mu.Lock()
	defer db.mu.Unlock()
	if f, ok := db.functions[name]; ok {
		f.Status = status
		return
	}
	db.functions[name] = &Function{Name: name, Status: status}
}

// SetFailed records that the analysis of a function failed with err
func (db *Database) SetFailed(name string, err error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	f, ok := db.functions[name]
	if !ok {
		f = &Function{Name: name}
		db.functions[name] = f
	}
	f.Status = Failed
	f.Error = err.Error()
}

// Function returns a function of the database
func (db *Database) Function(name string) (Function, bool) {
	db.mu.Lock()
	defer db.mu.Unlock()
	f, ok := db.functions[name]
	if !ok {
		return Function{}, false
	}
	return *f, true
}

// Functions returns the functions table, sorted by name
func (db *Database) Functions() []Function {
	db.mu.Lock()
	defer db.mu.Unlock()
	fns := make([]Function, 0, len(db.functions))
	for _, f := range db.functions {
		fns = append(fns, *f)
	}
	sort.Slice(fns, func(i, j int) bool { return fns[i].Name < fns[j].Name })
	return fns
}

// AddTime records the duration of a phase
func (db *Database) AddTime(name string, d time.Duration) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.times = append(db.times, Time{Name: name, Duration: d})
}

// Times returns the times table, in order of insertion
func (db *Database) Times() []Time {
	db.mu.Lock()
	defer db.mu.Unlock()
	return append([]Time(nil), db.times...)
}

// AddChecks inserts checks
func (db *Database) AddChecks(checks ...checker.Check) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.checks = append(db.checks, checks...)
}

// Checks returns the checks table, in order of insertion
func (db *Database) Checks() []checker.Check {
	db.mu.Lock()
	defer db.mu.Unlock()
	return append([]checker.Check(nil), db.checks...)
}

// Summary counts the checks per result
type Summary struct {
	Ok          int
	Warning     int
	Error       int
	Unreachable int
}

func (s Summary) String() string {
	return fmt.Sprintf("%d ok, %d warnings, %d errors, %d unreachable", s.Ok, s.Warning, s.Error, s.Unreachable)
}

// Summary returns the number of checks per result
func (db *Database) Summary() Summary {
	return Summarize(db.Checks())
}

// Summarize returns the number of checks per result
func Summarize(checks []checker.Check) Summary {
	var s Summary
	for _, c := range checks {
		switch c.Result {
		case checker.Ok:
			s.Ok++
		case checker.Warning:
			s.Warning++
		case checker.Error:
			s.Error++
		case checker.Unreachable:
			s.Unreachable++
		}
	}
	return s
}

// ScopeTimer measures the duration of a phase and records it in a database when stopped
type ScopeTimer struct {
	db    *Database
	name  string
	start time.Time
}

// StartTimer starts timing the phase name
func (db *Database) StartTimer(name string) *ScopeTimer {
	return &ScopeTimer{db: db, name: name, start: time.Now()}
}

// Stop records the time elapsed since the timer started, and returns it
func (t *ScopeTimer) Stop() time.Duration {
	d := time.Since(t.start)
	t.db.AddTime(t.name, d)
	return d
}

// Save writes the database to w
func (db *Database) Save(w io.Writer) error {
	d := dump{Functions: db.Functions(), Times: db.Times(), Checks: db.Checks()}
	if err := msgpack.NewEncoder(w).Encode(&d); err != nil {
		return fmt.Errorf("could not encode results: %w", err)
	}
	return nil
}

// Load reads a database written by Save
func Load(r io.Reader) (*Database, error) {
	var d dump
	if err := msgpack.NewDecoder(r).Decode(&d); err != nil {
		return nil, fmt.Errorf("could not decode results: %w", err)
	}
	db := NewDatabase()
	for i := range d.Functions {
		f := d.Functions[i]
		db.functions[f.Name] = &f
	}
	db.times = d.Times
	db.checks = d.Checks
	return db, nil
}

// SaveFile writes the database to the file at path
func (db *Database) SaveFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("could not create results file: %w", err)
	}
	if err := db.Save(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// LoadFile reads the database from the file at path
func LoadFile(path string) (*Database, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("could not open results file: %w", err)
	}
	defer f.Close()
	return Load(f)
}
