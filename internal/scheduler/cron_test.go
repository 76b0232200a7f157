package scheduler

import (
	"testing"
	"time"
)

func TestNextRunEvery(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		expr string
		want time.Time
	}{
		{"@every 1m", base.Add(time.Minute)},
		{"@every 30s", base.Add(30 * time.Second)},
		{"@every 2h", base.Add(2 * time.Hour)},
		{"@every 7d", base.Add(7 * 24 * time.Hour)},
	}

	for _, tt := range tests {
		got, err := NextRun(tt.expr, base)
		if err != nil {
			t.Errorf("%s: %v", tt.expr, err)
			continue
		}
		if !got.Equal(tt.want) {
			t.Errorf("%s: got %v, want %v", tt.expr, got, tt.want)
		}
	}
}

func TestNextRunNamed(t *testing.T) {
	base := time.Date(2025, 6, 15, 13, 42, 10, 0, time.UTC)

	hourly, err := NextRun("@hourly", base)
	if err != nil {
		t.Fatal(err)
	}
	if want := time.Date(2025, 6, 15, 14, 0, 0, 0, time.UTC); !hourly.Equal(want) {
		t.Errorf("@hourly: got %v, want %v", hourly, want)
	}

	daily, err := NextRun("@daily", base)
	if err != nil {
		t.Fatal(err)
	}
	if want := time.Date(2025, 6, 16, 0, 0, 0, 0, time.UTC); !daily.Equal(want) {
		t.Errorf("@daily: got %v, want %v", daily, want)
	}

	monthly, err := NextRun("@monthly", base)
	if err != nil {
		t.Fatal(err)
	}
	if want := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC); !monthly.Equal(want) {
		t.Errorf("@monthly: got %v, want %v", monthly, want)
	}
}

func TestNextRunRejectsInvalid(t *testing.T) {
	for _, expr := range []string{"", "@every", "@every -5m", "@every banana", "0 * * * *", "@fortnightly"} {
		if _, err := NextRun(expr, time.Now()); err == nil {
			t.Errorf("expected error for %q", expr)
		}
	}
}

func TestValidate(t *testing.T) {
	if err := Validate("@every 1m"); err != nil {
		t.Errorf("valid expression rejected: %v", err)
	}
	if err := Validate("not-a-schedule"); err == nil {
		t.Error("invalid expression accepted")
	}
}
