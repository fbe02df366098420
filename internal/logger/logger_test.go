package logger

import "testing"

func TestNewRejectsNilConfig(t *testing.T) {
	if _, err := New(nil); err == nil {
		t.Errorf("expected an error for a nil config")
	}
}

func TestNewDefaultsToInfoOnBadLevel(t *testing.T) {
	m, err := New(&Config{Level: "not-a-level", Output: "stdout", Format: "text"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if m.logger.GetLevel().String() != "info" {
		t.Errorf("expected fallback to info level, got %s", m.logger.GetLevel())
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := New(&Config{Level: "info", Output: "stdout", Format: "xml"}); err == nil {
		t.Errorf("expected an error for an unsupported format")
	}
}

func TestUpdateConfigChangesLevel(t *testing.T) {
	m, err := New(&Config{Level: "info", Output: "stdout", Format: "json"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := m.UpdateConfig(&Config{Level: "debug", Output: "stdout", Format: "json"}); err != nil {
		t.Fatalf("UpdateConfig: %v", err)
	}
	if m.logger.GetLevel().String() != "debug" {
		t.Errorf("expected level debug after update, got %s", m.logger.GetLevel())
	}
}

func TestSatisfiesProtoLoggerInterface(t *testing.T) {
	var _ interface {
		Debugf(format string, args ...interface{})
	} = (*Manager)(nil)
}
