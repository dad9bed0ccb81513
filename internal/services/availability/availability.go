// Package availability turns a freelancer's declared working window and service days
// into bookable time slots.
package availability

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	SlotDuration = 2 * time.Hour
	SlotGap      = time.Hour

	DateLayout  = "2006-01-02"
	ClockLayout = "15:04"
	LabelLayout = "3:04 PM"
)

var (
	ErrInvalidDate     = errors.New("invalid date, expected YYYY-MM-DD")
	ErrInvalidClock    = errors.New("invalid time, expected HH:MM")
	ErrInvalidDayName  = errors.New("invalid weekday name")
	ErrDayUnavailable  = errors.New("freelancer does not work on this day")
	ErrSlotUnavailable = errors.New("time slot is not offered on this date")
)

var weekdays = []string{"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"}

type Slot struct {
	Start     string    `json:"start"`
	End       string    `json:"end"`
	Available bool      `json:"available"`
	StartAt   time.Time `json:"-"`
	EndAt     time.Time `json:"-"`
}

// GenerateSlots returns 2h windows separated by a 1h gap, starting at start and
// continuing while the window start is before end. start >= end yields no slots.
func GenerateSlots(date, start, end string) ([]Slot, error) {
	day, err := ParseDate(date)
	if err != nil {
		return nil, err
	}
	from, err := clockOn(day, start)
	if err != nil {
		return nil, err
	}
	to, err := clockOn(day, end)
	if err != nil {
		return nil, err
	}

	slots := []Slot{}
	for cur := from; cur.Before(to); cur = cur.Add(SlotDuration + SlotGap) {
		slotEnd := cur.Add(SlotDuration)
		slots = append(slots, Slot{
			Start:     cur.Format(LabelLayout),
			End:       slotEnd.Format(LabelLayout),
			Available: true,
			StartAt:   cur,
			EndAt:     slotEnd,
		})
	}
	return slots, nil
}

// MarkBooked flags every slot whose start label is in taken as unavailable.
func MarkBooked(slots []Slot, taken []string) []Slot {
	if len(taken) == 0 {
		return slots
	}
	set := make(map[string]struct{}, len(taken))
	for _, t := range taken {
		set[strings.TrimSpace(t)] = struct{}{}
	}
	out := make([]Slot, len(slots))
	for i, s := range slots {
		if _, ok := set[s.Start]; ok {
			s.Available = false
		}
		out[i] = s
	}
	return out
}

func FindSlot(slots []Slot, start string) (Slot, bool) {
	start = strings.TrimSpace(start)
	for _, s := range slots {
		if s.Start == start {
			return s, true
		}
	}
	return Slot{}, false
}

func ParseDate(date string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, strings.TrimSpace(date), time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, date)
	}
	return t, nil
}

// ParseClock accepts "HH:MM" and the "HH:MM:SS" form postgres returns for time columns.
func ParseClock(v string) (time.Duration, error) {
	v = strings.TrimSpace(v)
	layout := ClockLayout
	if strings.Count(v, ":") == 2 {
		layout = "15:04:05"
	}
	t, err := time.Parse(layout, v)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, v)
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute + time.Duration(t.Second())*time.Second, nil
}

// NormalizeClock returns v as "HH:MM". A seconds part is accepted only when it
// is zero.
func NormalizeClock(v string) (string, error) {
	d, err := ParseClock(v)
	if err != nil {
		return "", err
	}
	if d%time.Minute != 0 {
		return "", fmt.Errorf("%w: %q", ErrInvalidClock, v)
	}
	return time.Time{}.Add(d).Format(ClockLayout), nil
}

func clockOn(day time.Time, v string) (time.Time, error) {
	d, err := ParseClock(v)
	if err != nil {
		return time.Time{}, err
	}
	return day.Add(d), nil
}

// Weekday returns the English weekday name of date on the UTC calendar.
func Weekday(date string) (string, error) {
	t, err := ParseDate(date)
	if err != nil {
		return "", err
	}
	return t.Weekday().String(), nil
}

type DayUnavailableError struct {
	Day     string
	Allowed []string
}

func (e *DayUnavailableError) Error() string {
	if len(e.Allowed) == 0 {
		return fmt.Sprintf("%s is not a service day; this freelancer has not set any service days", e.Day)
	}
	return fmt.Sprintf("%s is not a service day. Available days are: %s", e.Day, strings.Join(e.Allowed, ", "))
}

func (e *DayUnavailableError) Is(target error) bool { return target == ErrDayUnavailable }

// ValidateServiceDay rejects date when its weekday is not in allowed.
func ValidateServiceDay(date string, allowed []string) error {
	day, err := Weekday(date)
	if err != nil {
		return err
	}
	for _, a := range allowed {
		if strings.EqualFold(strings.TrimSpace(a), day) {
			return nil
		}
	}
	return &DayUnavailableError{Day: day, Allowed: allowed}
}

// NormalizeDays canonicalizes weekday names ("monday" -> "Monday") and drops duplicates,
// keeping week order.
func NormalizeDays(days []string) ([]string, error) {
	seen := map[string]bool{}
	for _, d := range days {
		name, ok := canonicalDay(d)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrInvalidDayName, d)
		}
		seen[name] = true
	}
	out := make([]string, 0, len(seen))
	for _, w := range weekdays {
		if seen[w] {
			out = append(out, w)
		}
	}
	return out, nil
}

func canonicalDay(v string) (string, bool) {
	v = strings.TrimSpace(v)
	for _, w := range weekdays {
		if strings.EqualFold(w, v) {
			return w, true
		}
	}
	return "", false
}

// ValidateWindow checks that start and end parse and start is before end.
func ValidateWindow(start, end string) error {
	s, err := ParseClock(start)
	if err != nil {
		return err
	}
	e, err := ParseClock(end)
	if err != nil {
		return err
	}
	if s >= e {
		return errors.New("start_time must be before end_time")
	}
	return nil
}
