// Package datepart extracts calendar components from timestamps so they can serve as seasonal
// explanatory variables.
package datepart

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rickar/cal/v2"
	"github.com/rickar/cal/v2/us"
)

var ErrUnknownDatePart = errors.New("unknown date part")

type DatePart int

const (
	None DatePart = iota
	Year
	Quarter
	Month
	DayOfMonth
	DayOfYear
	DayOfWeek
	HourOfDay
	HourOfWeek
	MinuteOfHour
	MinuteOfDay
	SecondOfDay
	WorkdayOfMonth
)

var names = map[DatePart]string{
	None:           "none",
	Year:           "year",
	Quarter:        "quarter",
	Month:          "month",
	DayOfMonth:     "day_of_month",
	DayOfYear:      "day_of_year",
	DayOfWeek:      "day_of_week",
	HourOfDay:      "hour_of_day",
	HourOfWeek:     "hour_of_week",
	MinuteOfHour:   "minute_of_hour",
	MinuteOfDay:    "minute_of_day",
	SecondOfDay:    "second_of_day",
	WorkdayOfMonth: "workday_of_month",
}

// businessCalendar counts US federal holidays as non working days
var businessCalendar = newBusinessCalendar()

func newBusinessCalendar() *cal.BusinessCalendar {
	c := cal.NewBusinessCalendar()
	c.AddHoliday(us.Holidays...)
	return c
}

func (d DatePart) String() string {
	if name, exists := names[d]; exists {
		return name
	}
	return fmt.Sprintf("datepart(%d)", int(d))
}

// Parse returns the date part for its snake case name
func Parse(name string) (DatePart, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return None, nil
	}
	for d, n := range names {
		if n == name {
			return d, nil
		}
	}
	return None, fmt.Errorf("%q, %w", name, ErrUnknownDatePart)
}

func (d DatePart) MarshalText() ([]byte, error) {
	if _, exists := names[d]; !exists {
		return nil, fmt.Errorf("%d, %w", int(d), ErrUnknownDatePart)
	}
	return []byte(d.String()), nil
}

func (d *DatePart) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Period returns the length of one cycle of the date part. Year has no cycle and returns 0.
func (d DatePart) Period() float64 {
	switch d {
	case Quarter:
		return 4
	case Month:
		return 12
	case DayOfMonth:
		return 31
	case DayOfYear:
		return 366
	case DayOfWeek:
		return 7
	case HourOfDay:
		return 24
	case HourOfWeek:
		return 168
	case MinuteOfHour:
		return 60
	case MinuteOfDay:
		return 1440
	case SecondOfDay:
		return 86400
	case WorkdayOfMonth:
		return 23
	}
	return 0
}

// Strip extracts the date part from t. Days of the week start on Monday at 0.
func (d DatePart) Strip(t time.Time) (float64, error) {
	switch d {
	case Year:
		return float64(t.Year()), nil
	case Quarter:
		return float64((int(t.Month())-1)/3 + 1), nil
	case Month:
		return float64(t.Month()), nil
	case DayOfMonth:
		return float64(t.Day()), nil
	case DayOfYear:
		return float64(t.YearDay()), nil
	case DayOfWeek:
		return float64(weekday(t)), nil
	case HourOfDay:
		return float64(t.Hour()), nil
	case HourOfWeek:
		return float64(weekday(t)*24 + t.Hour()), nil
	case MinuteOfHour:
		return float64(t.Minute()), nil
	case MinuteOfDay:
		return float64(t.Hour()*60 + t.Minute()), nil
	case SecondOfDay:
		return float64(t.Hour()*3600 + t.Minute()*60 + t.Second()), nil
	case WorkdayOfMonth:
		return float64(workdayOfMonth(t)), nil
	}
	return 0, fmt.Errorf("%s, %w", d, ErrUnknownDatePart)
}

func weekday(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

// workdayOfMonth returns the count of business days from the first of the month up to and
// including t. Non working days report the count of the preceding workday.
func workdayOfMonth(t time.Time) int {
	day := time.Date(t.Year(), t.Month(), 1, 12, 0, 0, 0, t.Location())
	var n int
	for day.Day() <= t.Day() && day.Month() == t.Month() {
		if businessCalendar.IsWorkday(day) {
			n++
		}
		day = day.AddDate(0, 0, 1)
	}
	return n
}
