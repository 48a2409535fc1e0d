package utils

import (
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
)

var Logger = logrus.New()

// InitLogger configures the shared logger. In production the output goes to
// logs/app.log at the project root, everywhere else to stdout.
func InitLogger(env, level string) {
	Logger.SetReportCaller(true)

	Logger.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: "2006-01-02T15:04:05Z07:00",
		PrettyPrint:     false,
		CallerPrettyfier: func(f *runtime.Frame) (string, string) {
			filename := filepath.Base(f.File)
			return "", filename + ":" + strconv.Itoa(f.Line)
		},
	})

	Logger.SetLevel(ParseLogLevel(level))

	if env != "production" {
		Logger.Out = os.Stdout
		return
	}

	_, currentFile, _, ok := runtime.Caller(0)
	if !ok {
		Logger.Out = os.Stdout
		Logger.Warn("Failed to get caller information, using stdout instead")
		return
	}
	projectRoot, err := filepath.Abs(filepath.Join(filepath.Dir(currentFile), "../.."))
	if err != nil {
		Logger.Out = os.Stdout
		Logger.WithError(err).Warn("Failed to resolve project root path, using stdout instead")
		return
	}

	logDir := filepath.Join(projectRoot, "logs")
	if err := os.MkdirAll(logDir, 0755); err != nil {
		Logger.Out = os.Stdout
		Logger.WithError(err).Warn("Failed to create logs directory, using stdout instead")
		return
	}

	file, err := os.OpenFile(filepath.Join(logDir, "app.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		Logger.Out = os.Stdout
		Logger.WithError(err).Warn("Failed to log to file, using stdout instead")
		return
	}
	Logger.Out = file
}

func ParseLogLevel(level string) logrus.Level {
	switch strings.ToLower(level) {
	case "debug":
		return logrus.DebugLevel
	case "warn":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}
