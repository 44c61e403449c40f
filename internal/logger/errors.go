package logger

import (
	"errors"
	"fmt"
	"io"
	"os"
)

var (
	// ErrAppNameIsEmpty is returned if Log.AppName was not defined.
	ErrAppNameIsEmpty = errors.New("log AppName is required, it names the log files")

	// ErrServiceNameIsEmpty is returned if Log.ServiceName was not defined.
	ErrServiceNameIsEmpty = errors.New("log ServiceName is required, it labels the log counter")
)

// errorOutput receives events zerolog failed to write.
var errorOutput io.Writer = os.Stderr //nolint:gochecknoglobals

// ErrorHandler reports a log event that could not be written. The sinks are
// files and stdout, so the report goes to stderr.
func ErrorHandler(err error) {
	_, _ = fmt.Fprintf(errorOutput, "tenantgate: dropped log event: %v\n", err)
}
