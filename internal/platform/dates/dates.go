// Package dates modela fechas de calendario sin hora ni zona (YYYY-MM-DD).
package dates

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

const Layout = "2006-01-02"

// Date es una fecha de calendario. Internamente es medianoche UTC.
type Date struct {
	t time.Time
}

// Parse acepta solo YYYY-MM-DD y rechaza fechas imposibles (2024-02-30).
func Parse(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if len(s) != len(Layout) {
		return Date{}, fmt.Errorf("date %q must be YYYY-MM-DD", s)
	}
	t, err := time.Parse(Layout, s)
	if err != nil {
		return Date{}, fmt.Errorf("date %q must be YYYY-MM-DD", s)
	}
	return Date{t: t}, nil
}

// ParsePtr parsea un valor opcional: "" o nil => nil.
func ParsePtr(s *string) (*Date, error) {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil, nil
	}
	d, err := Parse(*s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func New(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// Of trunca un instante a su fecha en la zona del propio instante.
func Of(t time.Time) Date {
	y, m, d := t.Date()
	return New(y, m, d)
}

// FromTime es para valores que vienen de columnas DATE (medianoche, zona irrelevante).
func FromTime(t time.Time) Date {
	y, m, d := t.Date()
	return New(y, m, d)
}

func FromTimePtr(t *time.Time) *Date {
	if t == nil {
		return nil
	}
	d := FromTime(*t)
	return &d
}

func (d Date) Time() time.Time { return d.t }

func (d *Date) TimePtr() *time.Time {
	if d == nil {
		return nil
	}
	t := d.t
	return &t
}

func (d Date) IsZero() bool { return d.t.IsZero() }

func (d Date) AddDays(n int) Date { return Date{t: d.t.AddDate(0, 0, n)} }

func (d Date) Before(o Date) bool { return d.t.Before(o.t) }

func (d Date) After(o Date) bool { return d.t.After(o.t) }

func (d Date) Equal(o Date) bool { return d.t.Equal(o.t) }

// Compare devuelve -1, 0 o +1.
func (d Date) Compare(o Date) int { return d.t.Compare(o.t) }

func (d Date) String() string {
	if d.t.IsZero() {
		return ""
	}
	return d.t.Format(Layout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("date must be a YYYY-MM-DD string")
	}
	parsed, err := Parse(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
