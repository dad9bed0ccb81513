package availability

import (
	"errors"
	"math"
	"testing"
	"time"
)

func TestGenerateSlotsWorkday(t *testing.T) {
	slots, err := GenerateSlots("2025-03-03", "09:00", "17:00")
	if err != nil {
		t.Fatalf("GenerateSlots: %v", err)
	}

	want := [][2]string{
		{"9:00 AM", "11:00 AM"},
		{"12:00 PM", "2:00 PM"},
		{"3:00 PM", "5:00 PM"},
	}
	if len(slots) != len(want) {
		t.Fatalf("got %d slots, want %d: %+v", len(slots), len(want), slots)
	}
	for i, w := range want {
		if slots[i].Start != w[0] || slots[i].End != w[1] {
			t.Errorf("slot %d = %s-%s, want %s-%s", i, slots[i].Start, slots[i].End, w[0], w[1])
		}
		if !slots[i].Available {
			t.Errorf("slot %d should be available", i)
		}
	}
}

func TestGenerateSlotsEmptyWindow(t *testing.T) {
	for _, tc := range []struct{ start, end string }{
		{"17:00", "09:00"},
		{"09:00", "09:00"},
	} {
		slots, err := GenerateSlots("2025-03-03", tc.start, tc.end)
		if err != nil {
			t.Fatalf("%s-%s: %v", tc.start, tc.end, err)
		}
		if len(slots) != 0 {
			t.Errorf("%s-%s: got %d slots, want 0", tc.start, tc.end, len(slots))
		}
	}
}

func TestGenerateSlotsCountAndDisjoint(t *testing.T) {
	for startH := 0; startH < 24; startH++ {
		for endH := startH + 1; endH <= 23; endH++ {
			start := time.Date(0, 1, 1, startH, 0, 0, 0, time.UTC).Format(ClockLayout)
			end := time.Date(0, 1, 1, endH, 0, 0, 0, time.UTC).Format(ClockLayout)

			slots, err := GenerateSlots("2025-01-15", start, end)
			if err != nil {
				t.Fatalf("%s-%s: %v", start, end, err)
			}

			// one slot per started 3h period of the window
			span := float64(endH - startH)
			want := int(math.Ceil(span / 3))
			if len(slots) != want {
				t.Errorf("%s-%s: got %d slots, want %d", start, end, len(slots), want)
			}

			endAt := slots[0].StartAt.Add(time.Duration(endH-startH) * time.Hour)
			for i, s := range slots {
				if !s.StartAt.Before(endAt) {
					t.Errorf("%s-%s: slot %d starts at/after end", start, end, i)
				}
				if s.EndAt.Sub(s.StartAt) != SlotDuration {
					t.Errorf("%s-%s: slot %d has wrong duration", start, end, i)
				}
				if i > 0 && !slots[i-1].EndAt.Before(s.StartAt) {
					t.Errorf("%s-%s: slots %d and %d overlap", start, end, i-1, i)
				}
			}
		}
	}
}

func TestGenerateSlotsAcceptsSeconds(t *testing.T) {
	slots, err := GenerateSlots("2025-03-03", "08:30:00", "12:00:00")
	if err != nil {
		t.Fatal(err)
	}
	if len(slots) != 2 || slots[0].Start != "8:30 AM" || slots[1].Start != "11:30 AM" {
		t.Errorf("unexpected slots %+v", slots)
	}
}

func TestGenerateSlotsBadInput(t *testing.T) {
	if _, err := GenerateSlots("03/03/2025", "09:00", "17:00"); !errors.Is(err, ErrInvalidDate) {
		t.Errorf("want ErrInvalidDate, got %v", err)
	}
	if _, err := GenerateSlots("2025-03-03", "9am", "17:00"); !errors.Is(err, ErrInvalidClock) {
		t.Errorf("want ErrInvalidClock, got %v", err)
	}
}

func TestMarkBooked(t *testing.T) {
	slots, _ := GenerateSlots("2025-03-03", "09:00", "17:00")
	marked := MarkBooked(slots, []string{"12:00 PM"})

	if !marked[0].Available || marked[1].Available || !marked[2].Available {
		t.Errorf("unexpected availability %+v", marked)
	}
	if !slots[1].Available {
		t.Error("MarkBooked must not modify its input")
	}
}

func TestWeekday(t *testing.T) {
	cases := map[string]string{
		"2025-03-03": "Monday",
		"2025-03-08": "Saturday",
		"2025-03-09": "Sunday",
		"2024-02-29": "Thursday",
	}
	for date, want := range cases {
		got, err := Weekday(date)
		if err != nil {
			t.Fatalf("%s: %v", date, err)
		}
		if got != want {
			t.Errorf("Weekday(%s) = %s, want %s", date, got, want)
		}
	}
}

func TestValidateServiceDay(t *testing.T) {
	allowed := []string{"Monday", "Wednesday", "Friday"}

	start, _ := ParseDate("2025-03-02")
	for i := 0; i < 14; i++ {
		date := start.AddDate(0, 0, i).Format(DateLayout)
		day, _ := Weekday(date)
		inSet := day == "Monday" || day == "Wednesday" || day == "Friday"

		err := ValidateServiceDay(date, allowed)
		if inSet && err != nil {
			t.Errorf("%s (%s) rejected: %v", date, day, err)
		}
		if !inSet {
			var de *DayUnavailableError
			if !errors.As(err, &de) {
				t.Fatalf("%s (%s) accepted", date, day)
			}
			if de.Day != day || len(de.Allowed) != 3 {
				t.Errorf("unexpected error detail %+v", de)
			}
			if !errors.Is(err, ErrDayUnavailable) {
				t.Error("DayUnavailableError must match ErrDayUnavailable")
			}
		}
	}
}

func TestValidateServiceDayEmptySet(t *testing.T) {
	if err := ValidateServiceDay("2025-03-03", nil); !errors.Is(err, ErrDayUnavailable) {
		t.Errorf("want ErrDayUnavailable, got %v", err)
	}
}

func TestNormalizeDays(t *testing.T) {
	got, err := NormalizeDays([]string{"friday", " Monday", "MONDAY"})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0] != "Monday" || got[1] != "Friday" {
		t.Errorf("NormalizeDays = %v", got)
	}
	if _, err := NormalizeDays([]string{"Funday"}); !errors.Is(err, ErrInvalidDayName) {
		t.Errorf("want ErrInvalidDayName, got %v", err)
	}
}

func TestValidateWindow(t *testing.T) {
	if err := ValidateWindow("09:00", "17:00"); err != nil {
		t.Error(err)
	}
	if err := ValidateWindow("17:00", "09:00"); err == nil {
		t.Error("reversed window accepted")
	}
	if err := ValidateWindow("25:00", "26:00"); err == nil {
		t.Error("invalid clock accepted")
	}
}

func TestNormalizeClock(t *testing.T) {
	cases := []struct {
		in, want string
		ok       bool
	}{
		{"09:00", "09:00", true},
		{"9:30", "09:30", true},
		{"17:00:00", "17:00", true},
		{"17:00:30", "", false},
		{"25:00", "", false},
		{"noon", "", false},
	}
	for _, tc := range cases {
		got, err := NormalizeClock(tc.in)
		if tc.ok && (err != nil || got != tc.want) {
			t.Errorf("NormalizeClock(%q) = %q, %v; want %q", tc.in, got, err, tc.want)
		}
		if !tc.ok && !errors.Is(err, ErrInvalidClock) {
			t.Errorf("NormalizeClock(%q) err = %v", tc.in, err)
		}
	}
}
