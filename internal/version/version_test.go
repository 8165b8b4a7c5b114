package version

import (
	"strings"
	"testing"
)

func TestInfo(t *testing.T) {
	info := Info()

	if info.Version != version {
		t.Errorf("expected version %s, got %s", version, info.Version)
	}

	if info.Commit != commit {
		t.Errorf("expected commit %s, got %s", commit, info.Commit)
	}

	if info.Date != date {
		t.Errorf("expected date %s, got %s", date, info.Date)
	}
}

func TestString(t *testing.T) {
	s := String()

	if !strings.Contains(s, "version=") {
		t.Errorf("expected string to contain 'version=', got %s", s)
	}

	if !strings.Contains(s, "commit=") {
		t.Errorf("expected string to contain 'commit=', got %s", s)
	}

	if !strings.Contains(s, "date=") {
		t.Errorf("expected string to contain 'date=', got %s", s)
	}
}
