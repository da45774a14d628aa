package logger

import (
	"io"
	"log"
	"os"
	"sync"
)

var (
	InfoLog  *log.Logger
	ErrorLog *log.Logger
	WarnLog  *log.Logger
	DebugLog *log.Logger
	logFile  *os.File
	level    = INFO
	initOnce sync.Once
)

const (
	INFO = iota
	DEBUG
)

const flags = log.Ldate | log.Ltime | log.Lshortfile

// InitLogger tees all output to the console and to filename.
func InitLogger(filename string, lvl int) error {
	var err error
	logFile, err = os.OpenFile(filename, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		return err
	}

	SetOutput(io.MultiWriter(os.Stdout, logFile), io.MultiWriter(os.Stderr, logFile))
	level = lvl
	return nil
}

// SetOutput directs regular messages to out and errors to errOut.
func SetOutput(out, errOut io.Writer) {
	initOnce.Do(func() {})
	InfoLog = log.New(out, "INFO: ", flags)
	WarnLog = log.New(out, "WARN: ", flags)
	DebugLog = log.New(out, "DEBUG: ", flags)
	ErrorLog = log.New(errOut, "ERROR: ", flags)
}

// SetLevel enables debug output when lvl is DEBUG.
func SetLevel(lvl int) {
	level = lvl
}

func Close() {
	if logFile != nil {
		logFile.Close()
		logFile = nil
	}
}

func Init() {
	initOnce.Do(func() {
		SetOutput(os.Stdout, os.Stderr)
	})
}

func Info(format string, v ...interface{}) {
	Init()
	InfoLog.Printf(format, v...)
}

func Infof(format string, v ...interface{}) {
	Info(format, v...)
}

func Debugf(format string, v ...interface{}) {
	if level < DEBUG {
		return
	}
	Init()
	DebugLog.Printf(format, v...)
}

func Error(format string, v ...interface{}) {
	Init()
	ErrorLog.Printf(format, v...)
}

func Errorf(format string, v ...interface{}) {
	Error(format, v...)
}

func Warn(format string, v ...interface{}) {
	Init()
	WarnLog.Printf(format, v...)
}

func Warnf(format string, v ...interface{}) {
	Warn(format, v...)
}
