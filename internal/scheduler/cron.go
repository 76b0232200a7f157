// Package scheduler runs named housekeeping jobs (limiter sweeps, memory
// reclaim) on schedules written as @-expressions.
package scheduler

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// NextRun computes the next execution instant for expr after baseTime.
// Supported forms: @every <duration> (with a "d" suffix for days), @hourly,
// @daily, @weekly, @monthly, @yearly/@annually.
func NextRun(expr string, baseTime time.Time) (time.Time, error) {
	expr = strings.TrimSpace(expr)

	switch {
	case expr == "@yearly" || expr == "@annually":
		return time.Date(baseTime.Year()+1, 1, 1, 0, 0, 0, 0, baseTime.Location()), nil
	case expr == "@monthly":
		year, month := baseTime.Year(), baseTime.Month()+1
		if month > 12 {
			month = 1
			year++
		}
		return time.Date(year, month, 1, 0, 0, 0, 0, baseTime.Location()), nil
	case expr == "@weekly":
		days := (7 - int(baseTime.Weekday())) % 7
		if days == 0 {
			days = 7
		}
		return time.Date(baseTime.Year(), baseTime.Month(), baseTime.Day()+days, 0, 0, 0, 0, baseTime.Location()), nil
	case expr == "@daily":
		return time.Date(baseTime.Year(), baseTime.Month(), baseTime.Day()+1, 0, 0, 0, 0, baseTime.Location()), nil
	case expr == "@hourly":
		return baseTime.Add(time.Hour).Truncate(time.Hour), nil
	case strings.HasPrefix(expr, "@every "):
		d, err := parseEvery(strings.TrimPrefix(expr, "@every "))
		if err != nil {
			return time.Time{}, err
		}
		return baseTime.Add(d), nil
	default:
		return time.Time{}, fmt.Errorf("unsupported schedule expression: %s", expr)
	}
}

// parseEvery accepts time.ParseDuration syntax plus a "d" suffix for days.
func parseEvery(s string) (time.Duration, error) {
	if strings.HasSuffix(s, "d") {
		days, err := strconv.Atoi(strings.TrimSuffix(s, "d"))
		if err != nil {
			return 0, fmt.Errorf("invalid duration: %s", s)
		}
		return time.Duration(days) * 24 * time.Hour, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration: %s", s)
	}
	if d <= 0 {
		return 0, fmt.Errorf("duration must be positive: %s", s)
	}
	return d, nil
}

// Validate checks expr without computing a run time.
func Validate(expr string) error {
	_, err := NextRun(expr, time.Now())
	return err
}
