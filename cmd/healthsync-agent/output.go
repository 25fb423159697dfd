package main

import (
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"

	"github.com/claude/healthsync/internal/healthdata"
)

func printSnapshot(w io.Writer, snap *healthdata.Snapshot, merge bool) {
	if snap == nil {
		fmt.Fprintln(w, "No data.")
		return
	}
	faint := color.New(color.Faint)
	failed := color.New(color.FgRed)

	field := func(label string, f healthdata.Field, value string) {
		if snap.Failed(f) {
			failed.Fprintf(w, "  %-12s unavailable (%v)\n", label, snap.Errors[f])
			return
		}
		fmt.Fprintf(w, "  %-12s %s\n", label, value)
	}

	fmt.Fprintf(w, "%s %s\n", color.New(color.Bold).Sprint(snap.Date), faint.Sprintf("captured %s", snap.CapturedAt.Local().Format(time.DateTime)))
	field("Steps", healthdata.FieldSteps, fmt.Sprintf("%d", snap.Steps))
	field("Calories", healthdata.FieldCalories, fmt.Sprintf("%.0f kcal", snap.Calories))

	hr := "no samples"
	if avg, ok := healthdata.AverageHeartRate(snap.HeartRate); ok {
		hr = fmt.Sprintf("%d bpm avg over %d samples", avg, len(snap.HeartRate))
	}
	field("Heart rate", healthdata.FieldHeartRate, hr)
	field("Sleep", healthdata.FieldSleep, formatSleep(snap.Sleep, merge))

	if len(snap.Workouts) == 0 {
		fmt.Fprintf(w, "  %-12s none\n", "Workouts")
		return
	}
	fmt.Fprintf(w, "  %-12s %d\n", "Workouts", len(snap.Workouts))
	for _, wo := range snap.Workouts {
		fmt.Fprintf(w, "    %s\n", formatWorkout(wo))
	}
}

func formatSleep(samples []healthdata.RawSample, merge bool) string {
	start, end, ok := healthdata.SleepBounds(samples)
	if !ok {
		return "none"
	}
	hours := healthdata.TotalSleepHours(samples, healthdata.SleepOptions{MergeOverlaps: merge})
	return fmt.Sprintf("%.1f h (%s to %s)", hours, start.Format("15:04"), end.Format("15:04"))
}

func formatWorkout(wo healthdata.WorkoutSample) string {
	name := wo.ActivityName
	if name == "" {
		name = "Workout"
	}
	s := name
	if wo.Start != nil && wo.End != nil {
		s += fmt.Sprintf(" %s-%s (%.0f min)", wo.Start.Format("15:04"), wo.End.Format("15:04"), wo.End.Sub(*wo.Start).Minutes())
	}
	if wo.DistanceMeters != nil {
		s += fmt.Sprintf(" %.2f km", *wo.DistanceMeters/1000)
	}
	if wo.Calories != nil {
		s += fmt.Sprintf(" %.0f kcal", *wo.Calories)
	}
	return s
}
