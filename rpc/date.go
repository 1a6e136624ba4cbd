package rpc

import (
	"fmt"
	"math"
	"time"
)

// Date is a calendar date without time of day or zone.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// DateOf returns the calendar date of t in t's location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// Time returns midnight of d in loc.
func (d Date) Time(loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, loc)
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// DateHandler encodes Date as {"year", "month", "day"} with a 1-based month.
type DateHandler struct{}

var _ TypeHandler = DateHandler{}

func (DateHandler) Tag() string { return "date" }

func (DateHandler) Handles(v any) bool {
	_, ok := v.(Date)
	return ok
}

func (DateHandler) ToJSON(v any, _ EncodeFunc) (map[string]any, error) {
	d := v.(Date)
	return map[string]any{
		"year":  int64(d.Year),
		"month": int64(d.Month),
		"day":   int64(d.Day),
	}, nil
}

func (DateHandler) FromJSON(fields map[string]any, _ DecodeFunc) (any, error) {
	year, err := intField(fields, "year")
	if err != nil {
		return nil, err
	}
	month, err := intField(fields, "month")
	if err != nil {
		return nil, err
	}
	day, err := intField(fields, "day")
	if err != nil {
		return nil, err
	}
	if year < math.MinInt || year > math.MaxInt {
		return nil, fmt.Errorf("year %d out of range", year)
	}
	if month < 1 || month > 12 {
		return nil, fmt.Errorf("month %d out of range 1..12", month)
	}
	if day < 1 || day > 31 {
		return nil, fmt.Errorf("day %d out of range 1..31", day)
	}
	return Date{Year: int(year), Month: time.Month(month), Day: int(day)}, nil
}
