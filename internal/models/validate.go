package models

import (
	"fmt"
	"time"
)

// DateLayout is the calendar-day format used for every date field.
const DateLayout = "2006-01-02"

// ValidationError reports a record rejected before it reaches storage.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func invalid(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// ValidDate reports whether s is a YYYY-MM-DD calendar date.
func ValidDate(s string) bool {
	_, err := time.Parse(DateLayout, s)
	return err == nil
}

// CheckRange validates both bounds of r when set.
func CheckRange(r DateRange) error {
	if r.Start != "" && !ValidDate(r.Start) {
		return invalid("startDate must be YYYY-MM-DD, got %q", r.Start)
	}
	if r.End != "" && !ValidDate(r.End) {
		return invalid("endDate must be YYYY-MM-DD, got %q", r.End)
	}
	return nil
}

func checkDate(date string) error {
	if !ValidDate(date) {
		return invalid("date must be YYYY-MM-DD, got %q", date)
	}
	return nil
}

// StepsInput is the POST body for steps. Pointer fields detect missing values.
type StepsInput struct {
	Date     string   `json:"date"`
	Count    *int64   `json:"count"`
	Distance *float64 `json:"distance"`
	Calories *float64 `json:"calories"`
}

// Validate checks required fields and returns the record to store.
func (in StepsInput) Validate() (Steps, error) {
	if in.Date == "" || in.Count == nil {
		return Steps{}, invalid("Date and count are required")
	}
	if err := checkDate(in.Date); err != nil {
		return Steps{}, err
	}
	if *in.Count < 0 {
		return Steps{}, invalid("count must not be negative")
	}
	return Steps{Date: in.Date, Count: *in.Count, Distance: in.Distance, Calories: in.Calories}, nil
}

// HeartRateInput is the POST body for a heart-rate sample.
type HeartRateInput struct {
	Date      string `json:"date"`
	Timestamp string `json:"timestamp"`
	BPM       *int64 `json:"bpm"`
}

func (in HeartRateInput) Validate() (HeartRate, error) {
	if in.Date == "" || in.Timestamp == "" || in.BPM == nil || *in.BPM == 0 {
		return HeartRate{}, invalid("Date, timestamp, and bpm are required")
	}
	if err := checkDate(in.Date); err != nil {
		return HeartRate{}, err
	}
	return HeartRate{Date: in.Date, Timestamp: in.Timestamp, BPM: *in.BPM}, nil
}

// SleepInput is the POST body for sleep.
type SleepInput struct {
	Date            string  `json:"date"`
	StartTime       string  `json:"start_time"`
	EndTime         string  `json:"end_time"`
	DurationMinutes *int64  `json:"duration_minutes"`
	Quality         *string `json:"quality"`
}

func (in SleepInput) Validate() (Sleep, error) {
	if in.Date == "" || in.StartTime == "" || in.EndTime == "" || in.DurationMinutes == nil {
		return Sleep{}, invalid("Date, start_time, end_time, and duration_minutes are required")
	}
	if err := checkDate(in.Date); err != nil {
		return Sleep{}, err
	}
	return Sleep{
		Date:            in.Date,
		StartTime:       in.StartTime,
		EndTime:         in.EndTime,
		DurationMinutes: *in.DurationMinutes,
		Quality:         in.Quality,
	}, nil
}

// CaloriesInput is the POST body for calories.
type CaloriesInput struct {
	Date            string   `json:"date"`
	ActiveCalories  *float64 `json:"active_calories"`
	RestingCalories *float64 `json:"resting_calories"`
	TotalCalories   *float64 `json:"total_calories"`
}

func (in CaloriesInput) Validate() (Calories, error) {
	if in.Date == "" || in.ActiveCalories == nil || in.RestingCalories == nil || in.TotalCalories == nil {
		return Calories{}, invalid("Date, active_calories, resting_calories, and total_calories are required")
	}
	if err := checkDate(in.Date); err != nil {
		return Calories{}, err
	}
	return Calories{
		Date:            in.Date,
		ActiveCalories:  *in.ActiveCalories,
		RestingCalories: *in.RestingCalories,
		TotalCalories:   *in.TotalCalories,
	}, nil
}

// WorkoutInput is the POST body for a workout.
type WorkoutInput struct {
	Date            string   `json:"date"`
	StartTime       string   `json:"start_time"`
	EndTime         string   `json:"end_time"`
	DurationMinutes *int64   `json:"duration_minutes"`
	Type            string   `json:"type"`
	Calories        *float64 `json:"calories"`
	Distance        *float64 `json:"distance"`
}

func (in WorkoutInput) Validate() (Workout, error) {
	if in.Date == "" || in.StartTime == "" || in.EndTime == "" || in.DurationMinutes == nil || in.Type == "" {
		return Workout{}, invalid("Date, start_time, end_time, duration_minutes, and type are required")
	}
	if err := checkDate(in.Date); err != nil {
		return Workout{}, err
	}
	return Workout{
		Date:            in.Date,
		StartTime:       in.StartTime,
		EndTime:         in.EndTime,
		DurationMinutes: *in.DurationMinutes,
		Type:            in.Type,
		Calories:        in.Calories,
		Distance:        in.Distance,
	}, nil
}

// DistanceInput is the POST body for distance. Kilometres are derived from
// metres when omitted.
type DistanceInput struct {
	Date           string   `json:"date"`
	DistanceMeters *float64 `json:"distance_meters"`
	DistanceKM     *float64 `json:"distance_km"`
}

func (in DistanceInput) Validate() (Distance, error) {
	if in.Date == "" || in.DistanceMeters == nil {
		return Distance{}, invalid("Date and distance_meters are required")
	}
	if err := checkDate(in.Date); err != nil {
		return Distance{}, err
	}
	km := *in.DistanceMeters / 1000
	if in.DistanceKM != nil {
		km = *in.DistanceKM
	}
	return Distance{Date: in.Date, DistanceMeters: *in.DistanceMeters, DistanceKM: km}, nil
}
