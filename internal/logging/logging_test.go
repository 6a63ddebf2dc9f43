package logging

import (
	"testing"

	"scope-service/internal/config"
)

func TestNewBuildsAStdoutLogger(t *testing.T) {
	logger, err := New(&config.LoggingConfig{Level: "info", Format: "json", Output: "stdout"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if logger == nil {
		t.Fatal("expected a non-nil logger")
	}
}

func TestNewRejectsInvalidLevel(t *testing.T) {
	if _, err := New(&config.LoggingConfig{Level: "loud", Output: "stdout"}); err == nil {
		t.Fatal("expected an error for an invalid log level")
	}
}

func TestNewDeviceLoggerTagsFields(t *testing.T) {
	base, err := New(&config.LoggingConfig{Level: "info", Output: "stdout"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	dl := NewDeviceLogger(base, "DSO-2090", 0x04B4, 0x2090)
	if dl.Logger == nil {
		t.Fatal("expected an embedded logger")
	}
	dl.LogConnection("connect", nil)
}

func TestOperationLoggerSuccessAndFailure(t *testing.T) {
	base, err := New(&config.LoggingConfig{Level: "debug", Output: "stdout"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	op := NewOperationLogger(base, "set-samplerate")
	op.Success()

	op2 := NewOperationLogger(base, "set-gain")
	op2.Failure(errBoom{})
}

type errBoom struct{}

func (errBoom) Error() string { return "boom" }
