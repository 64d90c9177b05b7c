package hooks

import (
	"fmt"
	"runtime"
	"strings"

	log "github.com/sirupsen/logrus"
)

// FileLineKey is the field the hook stores the caller location under.
const FileLineKey = "file:line"

type contextHook struct {
	trimPrefix string
}

// Path of this file relative to the module root.
const hookFile = "common/log/hooks/context_hook.go"

// NewContextHook returns a logrus hook that annotates every entry with the
// file and line of the code that logged it, trimmed to the module-relative path.
func NewContextHook() contextHook {
	return contextHook{trimPrefix: moduleRoot()}
}

// moduleRoot is the directory (or, under -trimpath, the import path) that
// source files of this module are compiled from, with a trailing slash.
func moduleRoot() string {
	_, file, _, ok := runtime.Caller(0)
	if !ok || !strings.HasSuffix(file, hookFile) {
		return ""
	}
	return strings.TrimSuffix(file, hookFile)
}

func (hook contextHook) Levels() []log.Level {
	return log.AllLevels
}

func (hook contextHook) Fire(entry *log.Entry) error {
	pcs := make([]uintptr, 32)
	n := runtime.Callers(2, pcs)
	frames := runtime.CallersFrames(pcs[:n])
	for {
		frame, more := frames.Next()
		if !isLoggingFrame(frame) {
			entry.Data[FileLineKey] = hook.location(frame)
			return nil
		}
		if !more {
			return nil
		}
	}
}

func (hook contextHook) location(frame runtime.Frame) string {
	file := frame.File
	if hook.trimPrefix != "" {
		file = strings.TrimPrefix(file, hook.trimPrefix)
	}
	return fmt.Sprintf("%s:%d", file, frame.Line)
}

func isLoggingFrame(frame runtime.Frame) bool {
	return strings.Contains(frame.File, "sirupsen/logrus") ||
		strings.Contains(frame.File, "context_hook.go")
}
