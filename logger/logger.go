// file: logger/logger.go

package logger

import (
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Log is the process-wide structured logger.
var Log = logrus.New()

// Init configures Log with the JSON formatter at info level.
func Init() {
	Configure("info", "json")
}

// Configure sets the level and output format of Log. Unknown levels fall back to info.
func Configure(level, format string) {
	Log.SetOutput(os.Stdout)

	if strings.EqualFold(format, "text") {
		Log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		Log.SetFormatter(&logrus.JSONFormatter{})
	}

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	Log.SetLevel(lvl)
}
