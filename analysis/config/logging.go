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

import (
	"io"
	"log"
	"os"
)

// LogLevel is the verbosity of a LogGroup
type LogLevel int

const (
	// ErrLevel only prints errors
	ErrLevel LogLevel = iota + 1

	// WarnLevel prints warnings and errors, such as functions that could not be lowered or analyzed
	WarnLevel

	// InfoLevel prints the progress of the analysis and its timings
	InfoLevel

	// DebugLevel prints a line per analyzed function
	DebugLevel

	// TraceLevel prints the invariants at every fixpoint iteration. It should only be used on small programs.
	TraceLevel
)

var levelPrefixes = [...]string{
	ErrLevel:   "[ERROR] ",
	WarnLevel:  "[WARN] ",
	InfoLevel:  "[INFO] ",
	DebugLevel: "[DEBUG] ",
	TraceLevel: "[TRACE] ",
}

// String returns the name of the level
func (l LogLevel) String() string {
	if l < ErrLevel || l > TraceLevel {
		return "UNKNOWN"
	}
	p := levelPrefixes[l]
	return p[1 : len(p)-2]
}

// LogGroup is a set of loggers, one per level. A logger prints only when its level is at most the level of the group.
type LogGroup struct {
	level   LogLevel
	loggers [TraceLevel + 1]*log.Logger
}

// NewLogGroup returns a log group writing to stderr at the level of config
func NewLogGroup(config *Config) *LogGroup {
	l := &LogGroup{level: LogLevel(config.LogLevel)}
	for lvl := ErrLevel; lvl <= TraceLevel; lvl++ {
		l.loggers[lvl] = log.New(os.Stderr, levelPrefixes[lvl], log.LstdFlags)
	}
	return l
}

// Level returns the level of the log group
func (l *LogGroup) Level() LogLevel {
	return l.level
}

// Logger returns the logger of a level, for the libraries that take a *log.Logger.
func (l *LogGroup) Logger(level LogLevel) *log.Logger {
	if level < ErrLevel {
		level = ErrLevel
	} else if level > TraceLevel {
		level = TraceLevel
	}
	return l.loggers[level]
}

// SetAllOutput redirects every logger of the group to w
func (l *LogGroup) SetAllOutput(w io.Writer) {
	for _, lg := range l.loggers[ErrLevel:] {
		lg.SetOutput(w)
	}
}

// SetAllFlags sets the flags of every logger of the group
func (l *LogGroup) SetAllFlags(x int) {
	for _, lg := range l.loggers[ErrLevel:] {
		lg.SetFlags(x)
	}
}

func (l *LogGroup) printf(level LogLevel, format string, v []any) {
	if l.level >= level {
		l.loggers[level].Printf(format, v...)
	}
}

// Tracef prints at TraceLevel. Arguments are handled in the manner of Printf
func (l *LogGroup) Tracef(format string, v ...any) { l.printf(TraceLevel, format, v) }

// Debugf prints at DebugLevel. Arguments are handled in the manner of Printf
func (l *LogGroup) Debugf(format string, v ...any) { l.printf(DebugLevel, format, v) }

// Infof prints at InfoLevel. Arguments are handled in the manner of Printf
func (l *LogGroup) Infof(format string, v ...any) { l.printf(InfoLevel, format, v) }

// Warnf prints at WarnLevel. Arguments are handled in the manner of Printf
func (l *LogGroup) Warnf(format string, v ...any) { l.printf(WarnLevel, format, v) }

// Errorf prints at ErrLevel. Arguments are handled in the manner of Printf
func (l *LogGroup) Errorf(format string, v ...any) { l.printf(ErrLevel, format, v) }
