package ingest

import (
	"log/slog"
	"strings"
	"testing"

	"github.com/baseindex/baseindex/log"
)

func TestCatchingUp(t *testing.T) {
	h := NewHealth()
	if h.CatchingUp() {
		t.Error("zero lag must not report catching up")
	}
	h.HeadLag.Set(catchupThreshold)
	if h.CatchingUp() {
		t.Errorf("lag at threshold %d must not report catching up", catchupThreshold)
	}
	h.HeadLag.Set(catchupThreshold + 1)
	if !h.CatchingUp() {
		t.Errorf("lag %d must report catching up", catchupThreshold+1)
	}
}

func TestHealthSnapshotReportsCatchupState(t *testing.T) {
	var buf strings.Builder
	logger := log.NewWithHandler(slog.NewTextHandler(&buf, nil))

	h := NewHealth()
	h.HeadLag.Set(catchupThreshold + 100)
	h.logSnapshot(logger)
	if !strings.Contains(buf.String(), "catching_up=true") {
		t.Errorf("snapshot missing catching_up=true: %s", buf.String())
	}

	buf.Reset()
	h.HeadLag.Set(1)
	h.logSnapshot(logger)
	if !strings.Contains(buf.String(), "catching_up=false") {
		t.Errorf("snapshot missing catching_up=false: %s", buf.String())
	}
}
