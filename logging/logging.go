// Package logging provides the small leveled logger the binding layer and
// the network-backed sources report through. It is instance-based: each
// component receives its Logger explicitly, there is no package singleton.
package logging

import (
	"fmt"
	"log"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"
)

// Level filters which records a Logger emits.
type Level int

const (
	LevelDebug Level = iota + 1
	LevelInfo
	LevelWarning
	LevelError
)

// Printer is the sink a Logger writes formatted lines to. *log.Logger
// satisfies it.
type Printer interface {
	Println(v ...any)
}

// Config carries the Logger construction options. A nil Printer falls back
// to stdout; a zero Level falls back to LevelWarning.
type Config struct {
	Printer Printer
	Level   Level
}

// Logger emits timestamped, pipe-delimited records tagged with the calling
// file and line. All methods are safe on a nil receiver, which drops the
// record; components treat a nil Logger as "logging disabled".
type Logger struct {
	printer Printer
	flags   [4]bool
}

// New builds a Logger from conf. A nil conf yields a stdout logger at
// LevelWarning.
func New(conf *Config) *Logger {
	l := &Logger{}
	if conf == nil {
		conf = &Config{}
	}
	l.SetPrinter(conf.Printer)
	l.SetLevel(conf.Level)
	return l
}

// Discard returns a Logger that drops every record.
func Discard() *Logger {
	l := &Logger{printer: nopPrinter{}}
	return l
}

type nopPrinter struct{}

func (nopPrinter) Println(v ...any) {}

// SetPrinter replaces the sink. A nil printer restores the stdout default.
func (l *Logger) SetPrinter(p Printer) {
	if p == nil {
		p = log.New(os.Stdout, "", 0)
	}
	l.printer = p
}

// SetLevel enables every level at or above lv.
func (l *Logger) SetLevel(lv Level) {
	if lv == 0 {
		lv = LevelWarning
	}
	if lv < LevelDebug || lv > LevelError {
		lv = LevelWarning
	}
	for i := range l.flags {
		l.flags[i] = Level(i+1) >= lv
	}
}

func (l *Logger) enabled(lv Level) bool {
	return l != nil && l.flags[lv-1]
}

func (l *Logger) write(tag, message string, params []any, formatted bool) {
	_, file, line, _ := runtime.Caller(2)
	if i := strings.LastIndexByte(file, '/'); i >= 0 {
		file = file[i+1:]
	}
	rec := time.Now().Format("2006-01-02 15:04:05") + "|" + tag + "|" + file + "#" + strconv.Itoa(line) + "|"
	switch {
	case formatted:
		rec += fmt.Sprintf(message, params...)
	case len(params) > 0:
		rec += message + "|" + fmt.Sprintf("%+v", params)
	default:
		rec += message
	}
	l.printer.Println(rec)
}

func (l *Logger) Debug(message string, params ...any) {
	if l.enabled(LevelDebug) {
		l.write("debug", message, params, false)
	}
}

func (l *Logger) Debugf(format string, params ...any) {
	if l.enabled(LevelDebug) {
		l.write("debug", format, params, true)
	}
}

func (l *Logger) Info(message string, params ...any) {
	if l.enabled(LevelInfo) {
		l.write("info", message, params, false)
	}
}

func (l *Logger) Infof(format string, params ...any) {
	if l.enabled(LevelInfo) {
		l.write("info", format, params, true)
	}
}

func (l *Logger) Warning(message string, params ...any) {
	if l.enabled(LevelWarning) {
		l.write("warning", message, params, false)
	}
}

func (l *Logger) Warningf(format string, params ...any) {
	if l.enabled(LevelWarning) {
		l.write("warning", format, params, true)
	}
}

func (l *Logger) Error(message string, params ...any) {
	if l.enabled(LevelError) {
		l.write("error", message, params, false)
	}
}

func (l *Logger) Errorf(format string, params ...any) {
	if l.enabled(LevelError) {
		l.write("error", format, params, true)
	}
}
