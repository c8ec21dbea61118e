package log

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/cardiolab/ctgml/pkg/errors"
)

func TestWithStacktraces(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(WithStacktraces(slog.NewJSONHandler(&buf, nil)))

	logger.Error("prediction failed",
		ErrAttr(errors.NewNotFittedError("RandomForestClassifier", "Predict")))

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log output is not JSON: %v\n%s", err, buf.String())
	}
	trace, ok := entry[StacktraceAttrKey].(string)
	if !ok || trace == "" {
		t.Fatalf("log entry missing %q attribute: %s", StacktraceAttrKey, buf.String())
	}
	if _, ok := entry[ErrAttrKey]; !ok {
		t.Errorf("log entry missing %q attribute: %s", ErrAttrKey, buf.String())
	}
}

func TestWithStacktraces_PlainRecord(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(WithStacktraces(slog.NewJSONHandler(&buf, nil)))

	logger.Info("dataset loaded", SamplesKey, 2126)

	if strings.Contains(buf.String(), StacktraceAttrKey) {
		t.Errorf("record without an error attribute gained a stacktrace: %s", buf.String())
	}
	if !strings.Contains(buf.String(), "2126") {
		t.Errorf("attributes not passed through: %s", buf.String())
	}
}

func TestInstallWarningSink(t *testing.T) {
	var buf bytes.Buffer
	InstallWarningSink(&buf)
	t.Cleanup(func() { errors.SetZerologWarnFunc(nil) })

	errors.Warn(errors.NewUndefinedMetricWarning("auc", "only one class present", 0.5))

	out := buf.String()
	for _, want := range []string{`"level":"warn"`, `"metric":"auc"`, `"type":"UndefinedMetricWarning"`} {
		if !strings.Contains(out, want) {
			t.Errorf("warning output missing %s: %s", want, out)
		}
	}
}

func TestInstallWarningSink_PlainError(t *testing.T) {
	var buf bytes.Buffer
	InstallWarningSink(&buf)
	t.Cleanup(func() { errors.SetZerologWarnFunc(nil) })

	errors.Warn(errors.New("resample discarded"))

	if !strings.Contains(buf.String(), "resample discarded") {
		t.Errorf("plain warning not emitted: %s", buf.String())
	}
}

func TestToLogLevel(t *testing.T) {
	for level, want := range map[string]slog.Level{
		"debug": slog.LevelDebug,
		"info":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
	} {
		if got := ToLogLevel(level); got != want {
			t.Errorf("ToLogLevel(%q) = %v, want %v", level, got, want)
		}
	}
}
