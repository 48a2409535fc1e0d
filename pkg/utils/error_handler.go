package utils

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// ErrorHandler logs err under message and returns it wrapped with %w.
// A nil err yields nil.
func ErrorHandler(err error, message string) error {
	return ErrorHandlerWithFields(err, message, nil)
}

// ErrorHandlerWithFields is ErrorHandler with extra log fields, typically
// the ids of the rows the failing operation touched. The fields are logged
// only; the returned error carries message and cause.
func ErrorHandlerWithFields(err error, message string, fields logrus.Fields) error {
	if err == nil {
		return nil
	}
	entry := Logger.WithField("error", err.Error())
	if len(fields) > 0 {
		entry = entry.WithFields(fields)
	}
	entry.Error(message)
	return fmt.Errorf("%s: %w", message, err)
}
