package account

import (
	"encoding/json"
	"time"
)

const DateLayout = "2006-01-02"

const MinimumAge = 18

// Date is a calendar date with no time-of-day, serialised as YYYY-MM-DD.
type Date struct {
	time.Time
}

func NewDate(year int, month time.Month, day int) Date {
	return Date{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf drops the clock part of t in t's own location.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), t.Month(), t.Day())
}

func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, err
	}
	return Date{t}, nil
}

func (d Date) String() string {
	return d.Format(DateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// AgeOn counts whole years from d to on, the same way a birthday does.
func (d Date) AgeOn(on time.Time) int {
	years := on.Year() - d.Year()
	if on.Month() < d.Month() || (on.Month() == d.Month() && on.Day() < d.Day()) {
		years--
	}
	return years
}

// IsPast reports whether d falls on a calendar day before now.
func (d Date) IsPast(now time.Time) bool {
	return d.Time.Before(DateOf(now).Time)
}

func IsAdult(birth Date, on time.Time) bool {
	return birth.AgeOn(on) >= MinimumAge
}
