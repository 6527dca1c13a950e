package lib

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fatih/color"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	LogDirectory = "logs"
	LogFileName  = "log"
)

/*
	This file implements a leveled logger (Debug, Info, Warn, Error, Fatal) with colored output.
	Output goes to any io.Writer, by default stdout plus an auto-rotating log file in the data directory.
*/

func init() {
	color.NoColor = false
}

// LoggerI defines the interface for various logging levels and formatted output
type LoggerI interface {
	Debug(msg string)
	Info(msg string)
	Warn(msg string)
	Error(msg string)
	Fatal(msg string)
	Print(msg string)
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
	Fatalf(format string, args ...interface{})
	Printf(format string, args ...interface{})
}

const (
	DebugLevel int32 = -4
	InfoLevel  int32 = 0
	WarnLevel  int32 = 4
	ErrorLevel int32 = 8
)

const (
	colorReset = iota
	colorRed
	colorGreen
	colorYellow
	colorBlue
	colorGray
)

var _ LoggerI = &Logger{}

// LoggerConfig holds configuration settings for the logger, including logging level and output writer
type LoggerConfig struct {
	Level  int32  `json:"level"`
	Prefix string `json:"prefix"` // optional module tag printed before each message
	Out    io.Writer
}

// Logger is the concrete implementation of LoggerI
type Logger struct {
	config LoggerConfig
}

// Debug() logs a message at the Debug level in blue
func (l *Logger) Debug(msg string) { l.log(DebugLevel, colorBlue, "DEBUG", msg) }

// Info() logs a message at the Info level in green
func (l *Logger) Info(msg string) { l.log(InfoLevel, colorGreen, "INFO", msg) }

// Warn() logs a message at the Warn level in yellow
func (l *Logger) Warn(msg string) { l.log(WarnLevel, colorYellow, "WARN", msg) }

// Error() logs a message at the Error level in red
func (l *Logger) Error(msg string) { l.log(ErrorLevel, colorRed, "ERROR", msg) }

// Print() logs a message without any level or color
func (l *Logger) Print(msg string) { l.write(msg) }

// Fatal() logs an error message and terminates the program
func (l *Logger) Fatal(msg string) {
	l.write(colorString(colorRed, l.tag("FATAL")+msg))
	os.Exit(1)
}

func (l *Logger) Debugf(format string, args ...interface{}) {
	l.Debug(fmt.Sprintf(format, args...))
}

func (l *Logger) Infof(format string, args ...interface{}) {
	l.Info(fmt.Sprintf(format, args...))
}

func (l *Logger) Warnf(format string, args ...interface{}) {
	l.Warn(fmt.Sprintf(format, args...))
}

func (l *Logger) Errorf(format string, args ...interface{}) {
	l.Error(fmt.Sprintf(format, args...))
}

func (l *Logger) Fatalf(format string, args ...interface{}) {
	l.Fatal(fmt.Sprintf(format, args...))
}

func (l *Logger) Printf(format string, args ...interface{}) {
	l.write(fmt.Sprintf(format, args...))
}

// log() writes the message if the configured level permits it
func (l *Logger) log(level int32, c int, levelName, msg string) {
	if l.config.Level > level {
		return
	}
	l.write(colorString(c, l.tag(levelName)+msg))
}

// tag() builds the 'LEVEL: ' or 'LEVEL [prefix]: ' header
func (l *Logger) tag(levelName string) string {
	if l.config.Prefix == "" {
		return levelName + ": "
	}
	return fmt.Sprintf("%s [%s]: ", levelName, l.config.Prefix)
}

// write() outputs the log message with a timestamp to the configured writer
func (l *Logger) write(msg string) {
	timeColored := colorString(colorGray, time.Now().Format(time.StampMilli))
	if _, err := l.config.Out.Write([]byte(fmt.Sprintf("%s %s\n", timeColored, msg))); err != nil {
		fmt.Println(newLogError(err))
	}
}

// NewLogger() creates a new Logger; with no writer configured it logs to stdout and a rotating file under the data directory
func NewLogger(config LoggerConfig, dataDirPath ...string) LoggerI {
	if config.Out == nil {
		dir := DefaultDataDirPath()
		if len(dataDirPath) != 0 && dataDirPath[0] != "" {
			dir = dataDirPath[0]
		}
		logDir := filepath.Join(dir, LogDirectory)
		if _, err := os.Stat(logDir); errors.Is(err, os.ErrNotExist) {
			if err = os.MkdirAll(logDir, os.ModePerm); err != nil {
				panic(err)
			}
		}
		logFile := &lumberjack.Logger{
			Filename:   filepath.Join(logDir, LogFileName),
			MaxSize:    1, // megabyte
			MaxBackups: 500,
			MaxAge:     14, // days
			Compress:   true,
		}
		config.Out = io.MultiWriter(os.Stdout, logFile)
	}
	return &Logger{config: config}
}

// NewDefaultLogger() creates a Logger with default settings, logging at the Debug level to stdout
func NewDefaultLogger() LoggerI {
	return NewLogger(LoggerConfig{Level: DebugLevel, Out: os.Stdout})
}

// NewNullLogger() creates a Logger that discards all log output
func NewNullLogger() LoggerI {
	return NewLogger(LoggerConfig{Level: DebugLevel, Out: io.Discard})
}

// ParseLogLevel() converts a level string like 'debug' or 'warning' into a level value
func ParseLogLevel(level string) int32 {
	switch l := strings.ToLower(level); {
	case strings.Contains(l, "deb"):
		return DebugLevel
	case strings.Contains(l, "inf"):
		return InfoLevel
	case strings.Contains(l, "war"):
		return WarnLevel
	case strings.Contains(l, "err"):
		return ErrorLevel
	default:
		return DebugLevel
	}
}

// colorString() returns a string with color applied, preserving line breaks
func colorString(c int, msg string) string {
	parts := strings.Split(msg, "\n")
	for i, part := range parts {
		parts[i] = cString(c, part)
	}
	return strings.Join(parts, "\n")
}

// cString() returns a string with a specific color applied
func cString(c int, msg string) string {
	switch c {
	case colorBlue:
		return color.BlueString(msg)
	case colorRed:
		return color.RedString(msg)
	case colorYellow:
		return color.YellowString(msg)
	case colorGreen:
		return color.GreenString(msg)
	case colorGray:
		return color.HiBlackString(msg)
	default:
		return color.WhiteString(msg)
	}
}
