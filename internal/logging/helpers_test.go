package logging

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHelpersAreNilSafe(t *testing.T) {
	assert.NotPanics(t, func() {
		Info(nil, "msg")
		Warn(nil, "msg")
		Error(nil, "msg", errors.New("boom"))
	})
}

func TestErrorAppendsErrorField(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	Error(logger, "load failed", errors.New("boom"), "path", "data")

	out := buf.String()
	assert.Contains(t, out, "load failed")
	assert.Contains(t, out, "error=boom")
	assert.Contains(t, out, "path=data")
}
