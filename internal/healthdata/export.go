package healthdata

import (
	"encoding/json"
	"fmt"
	"time"
)

// Layouts used by Health Auto Export JSON files.
const (
	exportTimeLayout = "2006-01-02 15:04:05 -0700"
	exportDateLayout = "2006-01-02"
)

// exportTime parses the export's "2006-01-02 15:04:05 -0700" timestamps,
// falling back to date-only values.
type exportTime struct {
	time.Time
}

func (t *exportTime) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := parseExportTime(s)
	if err != nil {
		return err
	}
	t.Time = parsed
	return nil
}

func parseExportTime(s string) (time.Time, error) {
	if t, err := time.Parse(exportTimeLayout, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(exportDateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("cannot parse export time %q", s)
	}
	return t, nil
}

// exportFile is the top level of a Health Auto Export JSON document.
type exportFile struct {
	Data struct {
		Metrics  []exportMetric  `json:"metrics"`
		Workouts []exportWorkout `json:"workouts"`
	} `json:"data"`
}

type exportMetric struct {
	Name  string            `json:"name"`
	Units string            `json:"units"`
	Data  []json.RawMessage `json:"data"`
}

// exportPoint covers the quantity, heart-rate and sleep point shapes. Only
// the fields present in a given metric are set.
type exportPoint struct {
	Date exportTime `json:"date"`
	Qty  *float64   `json:"qty"`
	Avg  *float64   `json:"Avg"`

	// Sleep stage segments.
	StartDate *exportTime `json:"startDate"`
	EndDate   *exportTime `json:"endDate"`

	// Aggregated nightly sleep.
	SleepStart *exportTime `json:"sleepStart"`
	SleepEnd   *exportTime `json:"sleepEnd"`
	TotalSleep *float64    `json:"totalSleep"`
}

type exportQuantity struct {
	Qty   float64 `json:"qty"`
	Units string  `json:"units"`
}

type exportWorkout struct {
	ID                 string          `json:"id"`
	Name               string          `json:"name"`
	Start              *exportTime     `json:"start"`
	End                *exportTime     `json:"end"`
	ActiveEnergyBurned *exportQuantity `json:"activeEnergyBurned"`
	Distance           *exportQuantity `json:"distance"`
}

// metres converts an export distance to metres.
func (q exportQuantity) metres() float64 {
	switch q.Units {
	case "km":
		return q.Qty * 1000
	case "mi":
		return q.Qty * 1609.344
	case "yd":
		return q.Qty * 0.9144
	case "ft":
		return q.Qty * 0.3048
	default:
		return q.Qty
	}
}

// sample converts a point into a RawSample. Sleep points use their own
// interval; everything else is an instant at Date.
func (p exportPoint) sample() (RawSample, bool) {
	switch {
	case p.StartDate != nil && p.EndDate != nil:
		v := 0.0
		if p.Qty != nil {
			v = *p.Qty
		}
		return RawSample{Value: v, Start: p.StartDate.Time, End: p.EndDate.Time}, true
	case p.SleepStart != nil && p.SleepEnd != nil:
		v := 0.0
		if p.TotalSleep != nil {
			v = *p.TotalSleep
		}
		return RawSample{Value: v, Start: p.SleepStart.Time, End: p.SleepEnd.Time}, true
	case p.Qty != nil:
		return RawSample{Value: *p.Qty, Start: p.Date.Time, End: p.Date.Time}, true
	case p.Avg != nil:
		return RawSample{Value: *p.Avg, Start: p.Date.Time, End: p.Date.Time}, true
	}
	return RawSample{}, false
}
