package leave

import (
	"errors"
	"testing"
	"time"
)

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func TestRequestedDays(t *testing.T) {
	tests := []struct {
		name    string
		from    time.Time
		to      time.Time
		halfDay bool
		want    string
	}{
		{"single day", date(2025, time.March, 10), date(2025, time.March, 10), false, "1"},
		{"inclusive range", date(2025, time.March, 10), date(2025, time.March, 14), false, "5"},
		{"half day", date(2025, time.March, 10), date(2025, time.March, 10), true, "0.5"},
		{"half day ignores range length", date(2025, time.March, 10), date(2025, time.March, 14), true, "0.5"},
		{"cross month", date(2025, time.January, 30), date(2025, time.February, 2), false, "4"},
		{"cross year", date(2025, time.December, 30), date(2026, time.January, 2), false, "4"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := RequestedDays(tt.from, tt.to, tt.halfDay)
			if err != nil {
				t.Fatalf("RequestedDays returned error: %v", err)
			}
			if got.String() != tt.want {
				t.Fatalf("RequestedDays = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestRequestedDaysRejectsInvertedRange(t *testing.T) {
	_, err := RequestedDays(date(2025, time.March, 14), date(2025, time.March, 10), false)
	if err == nil {
		t.Fatal("expected error for inverted range")
	}
	var validation *ValidationError
	if !errors.As(err, &validation) {
		t.Fatalf("expected ValidationError, got %T", err)
	}
}

func TestRequestedDaysNormalizesTimestamps(t *testing.T) {
	from := time.Date(2025, time.March, 10, 23, 59, 0, 0, time.UTC)
	to := time.Date(2025, time.March, 11, 0, 1, 0, 0, time.UTC)
	got, err := RequestedDays(from, to, false)
	if err != nil {
		t.Fatalf("RequestedDays returned error: %v", err)
	}
	if got.String() != "2" {
		t.Fatalf("RequestedDays = %s, want 2", got)
	}
}

func TestRangeDays(t *testing.T) {
	days := RangeDays(date(2025, time.February, 27), date(2025, time.March, 2))
	if len(days) != 4 {
		t.Fatalf("expected 4 days, got %d", len(days))
	}
	if !days[0].Equal(date(2025, time.February, 27)) {
		t.Fatalf("first day = %s", days[0])
	}
	if !days[3].Equal(date(2025, time.March, 2)) {
		t.Fatalf("last day = %s", days[3])
	}
}
