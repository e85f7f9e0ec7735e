// Package date is a calendar day with no time of day, and the periods the HTTP caches expire with.
package date

import (
	"fmt"
	"time"
)

// Date is a calendar day. The zero Date is not a valid day.
type Date struct {
	y int
	m time.Month
	d int
}

// New returns the day, normalizing overflowing months and days like time.Date does.
func New(year int, month time.Month, day int) Date {
	y, m, d := time.Date(year, month, day, 0, 0, 0, 0, time.UTC).Date()
	return Date{y, m, d}
}

// Of returns the day of t in t's location.
func Of(t time.Time) Date { return New(t.Date()) }

// Today returns the local current day.
func Today() Date { return Of(time.Now()) }

func (d Date) Year() int         { return d.y }
func (d Date) Month() time.Month { return d.m }
func (d Date) Day() int          { return d.d }

func (d Date) IsZero() bool { return d == Date{} }

func (d Date) String() string { return fmt.Sprintf("%04d-%02d-%02d", d.y, d.m, d.d) }

// Period is how long a cached response stays fresh.
type Period int

const (
	Daily Period = iota
	Monthly
)

func (p Period) String() string {
	if p == Monthly {
		return "monthly"
	}
	return "daily"
}

// Identifier is the same for every day of the period containing d, and differs from the previous
// and next periods.
func (p Period) Identifier(d Date) string {
	if p == Monthly {
		return fmt.Sprintf("%04d-%02d", d.y, d.m)
	}
	return d.String()
}
