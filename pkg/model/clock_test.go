package model

import "testing"

func TestParseClock(t *testing.T) {
	tests := []struct {
		name      string
		clock     string
		want      int
		wantError bool
	}{
		{"midnight", "00:00", 0, false},
		{"morning", "09:30", 570, false},
		{"end of day", "23:59", 1439, false},
		{"whitespace tolerated", " 10:00 ", 600, false},
		{"hour out of range", "24:00", 0, true},
		{"minute out of range", "09:60", 0, true},
		{"unpadded hour", "9:00", 0, true},
		{"garbage", "noonish", 0, true},
		{"empty", "", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseClock(tt.clock)
			if tt.wantError {
				if err == nil {
					t.Fatalf("expected error for %q", tt.clock)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %d minutes, got %d", tt.want, got)
			}
		})
	}
}

func TestParseDateAndWeekdayName(t *testing.T) {
	day, err := ParseDate("2026-01-05")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := WeekdayName(day); got != "monday" {
		t.Errorf("expected monday, got %q", got)
	}

	sunday, err := ParseDate("2026-01-04")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := WeekdayName(sunday); got != "sunday" {
		t.Errorf("expected sunday, got %q", got)
	}

	for _, bad := range []string{"05-01-2026", "2026/01/05", "2026-13-01", "tomorrow", ""} {
		if _, err := ParseDate(bad); err == nil {
			t.Errorf("expected error for %q", bad)
		}
	}
}

func TestDayHoursCovers(t *testing.T) {
	window := &DayHours{Start: "09:00", End: "17:00"}

	tests := []struct {
		name      string
		timeOfDay string
		want      bool
	}{
		{"inside", "12:00", true},
		{"start is inclusive", "09:00", true},
		{"end is inclusive", "17:00", true},
		{"before start", "08:59", false},
		{"after end", "17:01", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := window.Covers(tt.timeOfDay)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Covers(%q) = %v, want %v", tt.timeOfDay, got, tt.want)
			}
		})
	}

	if _, err := window.Covers("25:00"); err == nil {
		t.Error("expected error for malformed time of day")
	}
}

func TestDayHoursValid(t *testing.T) {
	tests := []struct {
		name   string
		window DayHours
		want   bool
	}{
		{"normal window", DayHours{Start: "09:00", End: "17:00"}, true},
		{"zero-length window", DayHours{Start: "09:00", End: "09:00"}, true},
		{"inverted window", DayHours{Start: "17:00", End: "09:00"}, false},
		{"malformed start", DayHours{Start: "9am", End: "17:00"}, false},
		{"malformed end", DayHours{Start: "09:00", End: ""}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.window.Valid(); got != tt.want {
				t.Errorf("Valid() = %v, want %v", got, tt.want)
			}
		})
	}
}
