// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"io"

	"github.com/ai-fdocs/fdocs"
)

// loggers mirrors the teacher's own loggers.go: thin wrappers around the
// Ctx's Out/Err writers so commands never write to os.Stdout/os.Stderr
// directly.
type loggers struct {
	out, err io.Writer
}

func newLoggers(c *fdocs.Ctx) *loggers {
	return &loggers{out: c.Out, err: c.Err}
}

func (l *loggers) Printf(format string, args ...interface{}) {
	fmt.Fprintf(l.out, format, args...)
}

func (l *loggers) Errf(format string, args ...interface{}) {
	fmt.Fprintf(l.err, format, args...)
}
