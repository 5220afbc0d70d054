package feed

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ScheduleConfig restricts when a feed may receive dispatches
type ScheduleConfig struct {
	// Enabled turns on the weekday/time-of-day window. The date range
	// below applies regardless of this flag.
	Enabled bool

	// Days holds enabled weekdays as uppercased English names
	// ("MONDAY", "TUESDAY", ...)
	Days []string

	// TimeStart and TimeEnd bound the eligible time of day, inclusive,
	// as "HH:MM" wall-clock values
	TimeStart string
	TimeEnd   string

	// StartDate and EndDate optionally bound the feed's overall life
	StartDate *time.Time
	EndDate   *time.Time
}

// Eligible decides whether the schedule admits a dispatch at the given
// instant. On rejection the returned reason names the violated clause.
// The gate is a pure function of the config and the clock.
func (s *ScheduleConfig) Eligible(now time.Time) (bool, string) {
	if s == nil {
		return true, ""
	}

	if s.StartDate != nil && now.Before(*s.StartDate) {
		return false, fmt.Sprintf("feed is not live until %s", s.StartDate.Format("2006-01-02"))
	}
	if s.EndDate != nil && now.After(*s.EndDate) {
		return false, fmt.Sprintf("feed expired on %s", s.EndDate.Format("2006-01-02"))
	}

	if !s.Enabled {
		return true, ""
	}

	weekday := strings.ToUpper(now.Weekday().String())
	if !s.dayEnabled(weekday) {
		return false, fmt.Sprintf("feed does not accept leads on %s", weekday)
	}

	minutes := now.Hour()*60 + now.Minute()
	start, err := parseClock(s.TimeStart)
	if err != nil {
		return false, fmt.Sprintf("invalid schedule start time %q", s.TimeStart)
	}
	end, err := parseClock(s.TimeEnd)
	if err != nil {
		return false, fmt.Sprintf("invalid schedule end time %q", s.TimeEnd)
	}
	if minutes < start || minutes > end {
		return false, fmt.Sprintf("current time is outside the window %s-%s", s.TimeStart, s.TimeEnd)
	}

	return true, ""
}

func (s *ScheduleConfig) dayEnabled(weekday string) bool {
	for _, d := range s.Days {
		if strings.ToUpper(d) == weekday {
			return true
		}
	}
	return false
}

// parseClock converts an "HH:MM" value to minutes since midnight
func parseClock(v string) (int, error) {
	parts := strings.SplitN(v, ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("malformed clock value %q", v)
	}
	hours, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, err
	}
	mins, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, err
	}
	if hours < 0 || hours > 23 || mins < 0 || mins > 59 {
		return 0, fmt.Errorf("clock value %q out of range", v)
	}
	return hours*60 + mins, nil
}
