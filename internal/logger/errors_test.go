package logger

import (
	"bytes"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorHandler(t *testing.T) {
	var buf bytes.Buffer

	errorOutput = &buf
	t.Cleanup(func() { errorOutput = os.Stderr })

	ErrorHandler(errors.New("disk full"))

	assert.Equal(t, "tenantgate: dropped log event: disk full\n", buf.String())
}
