package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Establishment is a tenant business offering services and working hours.
type Establishment struct {
	ID                 int64               `db:"id" json:"id"`
	OwnerID            int64               `db:"owner_id" json:"owner_id"`
	Name               string              `db:"name" json:"name"`
	Timezone           string              `db:"timezone" json:"timezone"`
	WorkingHoursConfig *WorkingHoursConfig `db:"working_hours_config" json:"working_hours_config"`
	CreatedAt          time.Time           `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time           `db:"updated_at" json:"updated_at"`
}

// DayWindow is the open window for one weekday, with an optional lunch break.
// Times are local "HH:MM" or "HH:MM:SS" strings as submitted by the settings form.
type DayWindow struct {
	IsActive            bool   `json:"is_active"`
	StartTime           string `json:"start_time,omitempty"`
	EndTime             string `json:"end_time,omitempty"`
	LunchBreakStartTime string `json:"lunch_break_start_time,omitempty"`
	LunchBreakEndTime   string `json:"lunch_break_end_time,omitempty"`
}

// HasLunchBreak reports whether both lunch bounds are configured.
func (w DayWindow) HasLunchBreak() bool {
	return w.LunchBreakStartTime != "" && w.LunchBreakEndTime != ""
}

// WorkingHoursConfig holds per-weekday windows plus the slot offering
// granularity. The JSON shape keeps the weekday keys at the top level,
// matching what the dashboard settings form submits.
type WorkingHoursConfig struct {
	Monday                     DayWindow `json:"monday"`
	Tuesday                    DayWindow `json:"tuesday"`
	Wednesday                  DayWindow `json:"wednesday"`
	Thursday                   DayWindow `json:"thursday"`
	Friday                     DayWindow `json:"friday"`
	Saturday                   DayWindow `json:"saturday"`
	Sunday                     DayWindow `json:"sunday"`
	AppointmentIntervalMinutes int       `json:"appointment_interval_minutes"`
}

// DayFor returns the window for the weekday of the given date.
func (c *WorkingHoursConfig) DayFor(weekday time.Weekday) DayWindow {
	switch weekday {
	case time.Monday:
		return c.Monday
	case time.Tuesday:
		return c.Tuesday
	case time.Wednesday:
		return c.Wednesday
	case time.Thursday:
		return c.Thursday
	case time.Friday:
		return c.Friday
	case time.Saturday:
		return c.Saturday
	default:
		return c.Sunday
	}
}

// Days lists the windows keyed by weekday name, monday first.
func (c *WorkingHoursConfig) Days() map[string]DayWindow {
	return map[string]DayWindow{
		"monday":    c.Monday,
		"tuesday":   c.Tuesday,
		"wednesday": c.Wednesday,
		"thursday":  c.Thursday,
		"friday":    c.Friday,
		"saturday":  c.Saturday,
		"sunday":    c.Sunday,
	}
}

// Value serialises the config to JSONB for storage.
func (c WorkingHoursConfig) Value() (driver.Value, error) {
	return json.Marshal(c)
}

// Scan loads the config from a JSONB column.
func (c *WorkingHoursConfig) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		return json.Unmarshal(v, c)
	case string:
		return json.Unmarshal([]byte(v), c)
	default:
		return fmt.Errorf("unsupported working_hours_config source %T", src)
	}
}
