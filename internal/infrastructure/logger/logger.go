package logger

import (
	"io"
	"log"
	"os"
)

var (
	Info  *log.Logger
	Error *log.Logger
	Debug *log.Logger
	Warn  *log.Logger
)

func init() {
	logFlags := log.Ldate | log.Ltime | log.LUTC | log.Lshortfile

	Info = log.New(os.Stdout, "INFO: ", logFlags)
	Error = log.New(os.Stdout, "ERROR: ", logFlags)
	Warn = log.New(os.Stdout, "WARN: ", logFlags)

	debugOut := io.Writer(os.Stdout)
	if os.Getenv("LOG_LEVEL") != "debug" {
		debugOut = io.Discard
	}
	Debug = log.New(debugOut, "DEBUG: ", logFlags)
}
