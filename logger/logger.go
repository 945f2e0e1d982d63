// logger
/*
Copyright 2021 Bruce Golden and Matt Spangler

Permission is hereby granted, free of charge, to any person obtaining a copy of
this software and associated documentation files (the "Software"), to deal in
the Software without restriction, including without limitation the rights to
use, copy, modify, merge, publish, distribute, sublicense, and/or sell copies
of the Software, and to permit persons to whom the Software is furnished to do
so, subject to the following conditions:
The above copyright notice and this permission notice shall be included in all
copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
SOFTWARE.
*/
package logger

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Output modes
const (
	Verbose = "verbose" // log file plus console
	Quiet   = "quiet"   // log file only
)

type Options struct {
	Mode string // verbose or quiet
	Dir  string // directory of the log file, "." when empty
	Name string // log file is log.<Name>
}

// FileName is the log file written for a run name.
func FileName(dir, name string) string {
	if dir == "" {
		dir = "."
	}
	return filepath.Join(dir, "log."+name)
}

// New opens (appending) the run log and returns a logger writing JSON lines
// to it. In verbose mode entries are also printed to stderr.
func New(opts Options) (*zap.Logger, error) {
	if opts.Dir != "" {
		if err := os.MkdirAll(opts.Dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create log directory %s: %w", opts.Dir, err)
		}
	}
	f, err := os.OpenFile(FileName(opts.Dir, opts.Name), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	enc := zap.NewProductionEncoderConfig()
	enc.EncodeTime = zapcore.ISO8601TimeEncoder
	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewJSONEncoder(enc), zapcore.AddSync(f), zapcore.DebugLevel),
	}
	if opts.Mode == Verbose {
		con := zap.NewDevelopmentEncoderConfig()
		cores = append(cores, zapcore.NewCore(zapcore.NewConsoleEncoder(con), zapcore.Lock(os.Stderr), zapcore.InfoLevel))
	}
	return zap.New(zapcore.NewTee(cores...)).With(zap.String("run", opts.Name)), nil
}

// OrNop returns l, or a no-op logger when l is nil.
func OrNop(l *zap.Logger) *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	return l
}

// Fatal logs the error, echoes it to stderr when the console core is off,
// flushes and exits 1.
func Fatal(l *zap.Logger, mode, message string, err error) {
	l = OrNop(l)
	l.Error(message, zap.Error(err))
	_ = l.Sync()
	if mode != Verbose {
		fmt.Fprintln(os.Stderr, message+":", err)
	}
	os.Exit(1)
}
