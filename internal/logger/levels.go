package logger

import (
	"fmt"
	"log"
	"os"
	"strings"
)

type level int

const (
	levelDebug level = iota
	levelInfo
	levelWarning
	levelError
)

var currentLevel = levelInfo

// SetLevel sets the minimum level that gets written. Unknown names keep the
// current level.
func SetLevel(name string) {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "DEBUG":
		currentLevel = levelDebug
	case "INFO":
		currentLevel = levelInfo
	case "WARNING", "WARN":
		currentLevel = levelWarning
	case "ERROR":
		currentLevel = levelError
	}
}

// output writes through the standard logger so the file:line flags set in
// Setup point at the caller, not this package.
func output(lvl level, prefix, msg string) {
	if lvl < currentLevel {
		return
	}
	log.Output(3, prefix+msg)
}

func Debugf(format string, args ...interface{}) {
	output(levelDebug, "[DEBUG] ", fmt.Sprintf(format, args...))
}

func Info(args ...interface{}) {
	output(levelInfo, "[INFO] ", fmt.Sprint(args...))
}

func Infof(format string, args ...interface{}) {
	output(levelInfo, "[INFO] ", fmt.Sprintf(format, args...))
}

func Warning(args ...interface{}) {
	output(levelWarning, "[WARNING] ", fmt.Sprint(args...))
}

func Warningf(format string, args ...interface{}) {
	output(levelWarning, "[WARNING] ", fmt.Sprintf(format, args...))
}

func Error(args ...interface{}) {
	output(levelError, "[ERROR] ", fmt.Sprint(args...))
}

func Errorf(format string, args ...interface{}) {
	output(levelError, "[ERROR] ", fmt.Sprintf(format, args...))
}

func Fatalf(format string, args ...interface{}) {
	output(levelError, "[FATAL] ", fmt.Sprintf(format, args...))
	os.Exit(1)
}
