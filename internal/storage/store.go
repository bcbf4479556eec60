// Package storage persists evaluated step responses under a data directory,
// one subdirectory per run.
package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/san-kum/pidlab/internal/controllers"
	"github.com/san-kum/pidlab/internal/dynamo"
	"github.com/san-kum/pidlab/internal/tf"
)

const (
	metadataFile = "metadata.json"
	responseFile = "response.csv"
)

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

func (s *Store) Dir() string { return s.baseDir }

// Rational is a transfer function as coefficient lists in descending
// powers of s.
type Rational struct {
	Num []float64 `json:"num"`
	Den []float64 `json:"den"`
}

func RationalOf(g tf.TransferFunction) Rational {
	return Rational{Num: g.Num(), Den: g.Den()}
}

// TransferFunction rebuilds the stored transfer function.
func (r Rational) TransferFunction() (tf.TransferFunction, error) {
	return tf.New(r.Num, r.Den)
}

type RunMetadata struct {
	ID         string             `json:"id"`
	Label      string             `json:"label"`
	Timestamp  time.Time          `json:"timestamp"`
	Plant      Rational           `json:"plant"`
	Gains      controllers.Gains  `json:"gains"`
	ClosedLoop Rational           `json:"closed_loop"`
	Integrator string             `json:"integrator"`
	Setpoint   float64            `json:"setpoint"`
	Tolerance  float64            `json:"tolerance"`
	Amplitude  float64            `json:"amplitude"`
	Points     int                `json:"points"`
	Metrics    map[string]float64 `json:"metrics"`
}

var runSeq atomic.Uint64

// Save writes meta and the sampled response to a new run directory and
// returns its ID. ID and Timestamp are assigned here. Non-finite metrics
// are dropped since JSON cannot carry them.
func (s *Store) Save(meta RunMetadata, result *dynamo.Result) (string, error) {
	if len(result.Times) != len(result.Output) {
		return "", fmt.Errorf("%w: %d times, %d samples", dynamo.ErrDimensionMismatch, len(result.Times), len(result.Output))
	}
	if err := s.Init(); err != nil {
		return "", err
	}

	meta.Timestamp = time.Now()
	meta.Points = len(result.Times)
	meta.Metrics = finite(meta.Metrics)

	runDir, runID, err := s.createRunDir(meta.Label, meta.Timestamp)
	if err != nil {
		return "", err
	}
	meta.ID = runID

	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", err
	}

	f, err := os.Create(filepath.Join(runDir, responseFile))
	if err != nil {
		return "", err
	}
	defer f.Close()

	if err := WriteCSV(f, result.Times, result.Output); err != nil {
		return "", err
	}
	return runID, f.Close()
}

func (s *Store) createRunDir(label string, ts time.Time) (string, string, error) {
	for {
		runID := fmt.Sprintf("%s_%d_%d", slug(label), ts.Unix(), runSeq.Add(1))
		runDir := filepath.Join(s.baseDir, runID)
		err := os.Mkdir(runDir, 0755)
		if err == nil {
			return runDir, runID, nil
		}
		if !errors.Is(err, os.ErrExist) {
			return "", "", err
		}
	}
}

// slug keeps letters, digits, dots and dashes from label.
func slug(label string) string {
	var b strings.Builder
	for _, r := range label {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-':
			b.WriteRune(r)
		case r == '=' || r == ' ' || r == ',' || r == '_':
			b.WriteByte('-')
		}
	}
	s := strings.Trim(b.String(), "-.")
	if s == "" {
		return "run"
	}
	return s
}

func finite(m map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(m))
	for k, v := range m {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			out[k] = v
		}
	}
	return out
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return err
	}
	return f.Close()
}

// List returns all readable runs, oldest first. Directories without valid
// metadata are skipped.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.SliceStable(runs, func(i, j int) bool {
		if !runs[i].Timestamp.Equal(runs[j].Timestamp) {
			return runs[i].Timestamp.Before(runs[j].Timestamp)
		}
		return runs[i].ID < runs[j].ID
	})
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("run %s: %w", runID, err)
	}
	return &meta, nil
}

// LoadResponse reads the sampled response of a run.
func (s *Store) LoadResponse(runID string) (times, output []float64, err error) {
	f, err := os.Open(filepath.Join(s.baseDir, runID, responseFile))
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	return ReadCSV(csv.NewReader(f))
}
