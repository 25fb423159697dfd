package healthdata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"
)

// Metric names in Health Auto Export files.
const (
	metricSteps        = "step_count"
	metricActiveEnergy = "active_energy"
	metricHeartRate    = "heart_rate"
	metricSleep        = "sleep_analysis"
)

// FileProvider serves samples from a Health Auto Export JSON file. Each
// Available call re-reads the file, so every fetch cycle sees the export as
// it is on disk at that moment. Read errors are never kept.
type FileProvider struct {
	path string

	mu   sync.Mutex
	file *exportFile
}

var _ WorkoutSource = (*FileProvider)(nil)

// NewFileProvider creates a provider backed by the export at path.
func NewFileProvider(path string) *FileProvider {
	return &FileProvider{path: path}
}

func (p *FileProvider) read() (*exportFile, error) {
	data, err := os.ReadFile(p.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrCapabilityUnavailable, p.path)
		}
		return nil, fmt.Errorf("reading export: %w", err)
	}
	var f exportFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing export: %w", err)
	}
	return &f, nil
}

// reload replaces the parsed export with the current file contents. On
// failure the previous contents are dropped.
func (p *FileProvider) reload() (*exportFile, error) {
	f, err := p.read()
	p.mu.Lock()
	defer p.mu.Unlock()
	p.file = f
	return f, err
}

// current returns the export parsed by the last Available call, reading the
// file if there is none.
func (p *FileProvider) current() (*exportFile, error) {
	p.mu.Lock()
	f := p.file
	p.mu.Unlock()
	if f != nil {
		return f, nil
	}
	return p.reload()
}

// Available re-reads the export and reports ErrCapabilityUnavailable when
// it is missing.
func (p *FileProvider) Available(_ context.Context) error {
	_, err := p.reload()
	return err
}

// RequestPermissions always grants: a readable file needs no prompt.
func (p *FileProvider) RequestPermissions(_ context.Context) (PermissionState, error) {
	return PermissionGranted, nil
}

func (p *FileProvider) samples(name string, w Window, byStart bool) ([]RawSample, error) {
	f, err := p.current()
	if err != nil {
		return nil, err
	}
	out := []RawSample{}
	for _, m := range f.Data.Metrics {
		if m.Name != name {
			continue
		}
		for i, raw := range m.Data {
			var pt exportPoint
			if err := json.Unmarshal(raw, &pt); err != nil {
				return nil, fmt.Errorf("%s point %d: %w", name, i, err)
			}
			s, ok := pt.sample()
			if !ok {
				continue
			}
			at := s.End
			if byStart {
				at = s.Start
			}
			if w.Contains(at) {
				out = append(out, s)
			}
		}
	}
	return out, nil
}

func (p *FileProvider) Steps(_ context.Context, w Window) (Quantity, error) {
	s, err := p.samples(metricSteps, w, true)
	return Quantity{Samples: s}, err
}

func (p *FileProvider) ActiveEnergy(_ context.Context, w Window) (Quantity, error) {
	s, err := p.samples(metricActiveEnergy, w, true)
	return Quantity{Samples: s}, err
}

func (p *FileProvider) HeartRate(_ context.Context, w Window) ([]RawSample, error) {
	return p.samples(metricHeartRate, w, true)
}

// Sleep selects sessions by end time so a night is attributed to the
// morning it ends on.
func (p *FileProvider) Sleep(_ context.Context, w Window) ([]RawSample, error) {
	return p.samples(metricSleep, w, false)
}

func (p *FileProvider) Workouts(_ context.Context, w Window) ([]WorkoutSample, error) {
	f, err := p.current()
	if err != nil {
		return nil, err
	}
	out := []WorkoutSample{}
	for _, ew := range f.Data.Workouts {
		if ew.Start == nil || !w.Contains(ew.Start.Time) {
			continue
		}
		ws := WorkoutSample{ID: ew.ID, ActivityName: ew.Name}
		start := ew.Start.Time
		ws.Start = &start
		if ew.End != nil {
			end := ew.End.Time
			ws.End = &end
		}
		if ew.ActiveEnergyBurned != nil {
			kcal := ew.ActiveEnergyBurned.Qty
			ws.Calories = &kcal
		}
		if ew.Distance != nil {
			m := ew.Distance.metres()
			ws.DistanceMeters = &m
		}
		out = append(out, ws)
	}
	return out, nil
}
