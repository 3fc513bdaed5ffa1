package main

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type syncRecorder struct {
	bytes.Buffer
	synced int
}

func (s *syncRecorder) Sync() error {
	s.synced++
	return nil
}

func newRecordedLogger(out *syncRecorder) *zap.Logger {
	// Buffered output only reaches out on Sync.
	ws := &zapcore.BufferedWriteSyncer{WS: out}
	return zap.New(zapcore.NewCore(zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()), ws, zap.InfoLevel))
}

func TestFinish_FlushesLogsBeforeExit(t *testing.T) {
	t.Parallel()

	out := &syncRecorder{}
	log := newRecordedLogger(out)
	if code := finish(log, errors.New("listen: address in use")); code != 1 {
		t.Fatalf("finish code=%d, want 1", code)
	}
	if out.synced == 0 {
		t.Fatalf("logger was not synced")
	}
	if !strings.Contains(out.String(), "api exited") || !strings.Contains(out.String(), "address in use") {
		t.Fatalf("final error not flushed: %q", out.String())
	}
}

func TestFinish_CleanExit(t *testing.T) {
	t.Parallel()

	out := &syncRecorder{}
	if code := finish(newRecordedLogger(out), nil); code != 0 {
		t.Fatalf("finish code=%d, want 0", code)
	}
	if out.synced == 0 {
		t.Fatalf("logger was not synced")
	}
}
