package utils

import (
	"testing"
	"time"
)

func TestGetEnvAsBool(t *testing.T) {
	t.Setenv("T_BOOL", "true")
	if !GetEnvAsBool("T_BOOL", false) {
		t.Error("true not parsed")
	}
	t.Setenv("T_BOOL", "0")
	if GetEnvAsBool("T_BOOL", true) {
		t.Error("0 not parsed as false")
	}
	t.Setenv("T_BOOL", "garbage")
	if !GetEnvAsBool("T_BOOL", true) {
		t.Error("default not used for unparseable value")
	}
}

func TestGetEnvAsInt(t *testing.T) {
	t.Setenv("T_INT", "42")
	if got := GetEnvAsInt("T_INT", 7); got != 42 {
		t.Errorf("got %d", got)
	}
	t.Setenv("T_INT", "not-a-number")
	if got := GetEnvAsInt("T_INT", 7); got != 7 {
		t.Errorf("default not used, got %d", got)
	}
	if got := GetEnvAsInt("T_INT_UNSET", 7); got != 7 {
		t.Errorf("default not used for unset, got %d", got)
	}
}

func TestGetEnvAsInt64(t *testing.T) {
	t.Setenv("T_INT64", "2097152")
	if got := GetEnvAsInt64("T_INT64", 1); got != 2097152 {
		t.Errorf("got %d", got)
	}
}

func TestGetEnvAsDuration(t *testing.T) {
	t.Setenv("T_DUR", "90s")
	if got := GetEnvAsDuration("T_DUR", time.Minute); got != 90*time.Second {
		t.Errorf("got %v", got)
	}
	t.Setenv("T_DUR", "ninety")
	if got := GetEnvAsDuration("T_DUR", time.Minute); got != time.Minute {
		t.Errorf("default not used, got %v", got)
	}
}

func TestGetEnvAsSlice(t *testing.T) {
	t.Setenv("T_SLICE", "a, b ,c")
	got := GetEnvAsSlice("T_SLICE", nil, ",")
	if len(got) != 3 || got[0] != "a" || got[1] != "b" || got[2] != "c" {
		t.Errorf("got %v", got)
	}
}
