package models

import "time"

// Kind identifies one of the persisted record types.
type Kind string

const (
	KindSteps     Kind = "steps"
	KindHeartRate Kind = "heart_rate"
	KindSleep     Kind = "sleep"
	KindCalories  Kind = "calories"
	KindWorkouts  Kind = "workouts"
	KindDistance  Kind = "distance"
)

// DateRange is an inclusive range of YYYY-MM-DD dates. Either bound may be empty.
type DateRange struct {
	Start string
	End   string
}

// Steps is the daily step total. One row per date.
type Steps struct {
	ID        int64     `json:"id,omitzero"`
	Date      string    `json:"date"`
	Count     int64     `json:"count"`
	Distance  *float64  `json:"distance"`
	Calories  *float64  `json:"calories"`
	CreatedAt time.Time `json:"created_at,omitzero"`
	UpdatedAt time.Time `json:"updated_at,omitzero"`
}

// HeartRate is a single heart-rate sample. Many rows per date.
type HeartRate struct {
	ID        int64     `json:"id,omitzero"`
	Date      string    `json:"date"`
	Timestamp string    `json:"timestamp"`
	BPM       int64     `json:"bpm"`
	CreatedAt time.Time `json:"created_at,omitzero"`
}

// Sleep is the nightly sleep record. One row per date.
type Sleep struct {
	ID              int64     `json:"id,omitzero"`
	Date            string    `json:"date"`
	StartTime       string    `json:"start_time"`
	EndTime         string    `json:"end_time"`
	DurationMinutes int64     `json:"duration_minutes"`
	Quality         *string   `json:"quality"`
	CreatedAt       time.Time `json:"created_at,omitzero"`
	UpdatedAt       time.Time `json:"updated_at,omitzero"`
}

// Calories is the daily energy total. One row per date.
type Calories struct {
	ID              int64     `json:"id,omitzero"`
	Date            string    `json:"date"`
	ActiveCalories  float64   `json:"active_calories"`
	RestingCalories float64   `json:"resting_calories"`
	TotalCalories   float64   `json:"total_calories"`
	CreatedAt       time.Time `json:"created_at,omitzero"`
	UpdatedAt       time.Time `json:"updated_at,omitzero"`
}

// Workout is a single workout session. Many rows per date.
type Workout struct {
	ID              int64     `json:"id,omitzero"`
	Date            string    `json:"date"`
	StartTime       string    `json:"start_time"`
	EndTime         string    `json:"end_time"`
	DurationMinutes int64     `json:"duration_minutes"`
	Type            string    `json:"type"`
	Calories        *float64  `json:"calories"`
	Distance        *float64  `json:"distance"`
	CreatedAt       time.Time `json:"created_at,omitzero"`
	UpdatedAt       time.Time `json:"updated_at,omitzero"`
}

// Distance is the daily walking/running distance. One row per date.
type Distance struct {
	ID             int64     `json:"id,omitzero"`
	Date           string    `json:"date"`
	DistanceMeters float64   `json:"distance_meters"`
	DistanceKM     float64   `json:"distance_km"`
	CreatedAt      time.Time `json:"created_at,omitzero"`
	UpdatedAt      time.Time `json:"updated_at,omitzero"`
}

// HeartRateStats aggregates all heart-rate samples of one date.
type HeartRateStats struct {
	Avg     float64 `json:"avg_bpm"`
	Min     int64   `json:"min_bpm"`
	Max     int64   `json:"max_bpm"`
	Samples int64   `json:"samples"`
}

// DailySummary combines every kind for one date. A nil pointer means no
// record exists for that date, which is different from a record holding zero.
type DailySummary struct {
	Date       string          `json:"date"`
	Steps      *Steps          `json:"steps"`
	Calories   *Calories       `json:"calories"`
	Sleep      *Sleep          `json:"sleep"`
	Workouts   []Workout       `json:"workouts"`
	HeartRate  *HeartRateStats `json:"heartRate"`
	Incomplete []Kind          `json:"incomplete,omitempty"`
}
