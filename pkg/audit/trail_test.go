package audit

import (
	"context"
	"testing"
	"time"

	"github.com/u9401066/medvision-mcp/pkg/events"
)

type recordedLine struct {
	module  string
	message string
	details map[string]interface{}
}

type recordingLogger struct {
	lines []recordedLine
}

func (l *recordingLogger) Debug(module, message string, details map[string]interface{}) {}
func (l *recordingLogger) Info(module, message string, details map[string]interface{}) {
	l.lines = append(l.lines, recordedLine{module, message, details})
}
func (l *recordingLogger) Warn(module, message string, details map[string]interface{})  {}
func (l *recordingLogger) Error(module, message string, details map[string]interface{}) {}
func (l *recordingLogger) Sync() error                                                  { return nil }

func TestTrailRecordsEventToLog(t *testing.T) {
	log := &recordingLogger{}
	trail := NewTrail(nil, log)

	event := events.BaseEvent{
		Type:       events.TypeSessionOpened,
		Data:       map[string]interface{}{"session_id": "abc", "name": "reading-room"},
		OccurredAt: time.Now(),
	}

	if err := trail.record(context.Background(), event); err != nil {
		t.Fatalf("record returned error: %v", err)
	}

	if len(log.lines) != 1 {
		t.Fatalf("expected 1 log line, got %d", len(log.lines))
	}
	line := log.lines[0]
	if line.module != "AuditTrail" {
		t.Errorf("module = %q, want AuditTrail", line.module)
	}
	if line.message != events.TypeSessionOpened {
		t.Errorf("message = %q, want %q", line.message, events.TypeSessionOpened)
	}
	if line.details["session_id"] != "abc" {
		t.Errorf("details missing session_id, got %v", line.details)
	}
}
