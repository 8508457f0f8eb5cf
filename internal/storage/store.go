// Package storage keeps recorded runs on disk, one directory per run holding
// metadata.json and trajectories.csv.
package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/san-kum/crowdsim/internal/config"
	"github.com/san-kum/crowdsim/internal/experiment"
	"github.com/san-kum/crowdsim/internal/socialforce"
)

const (
	metadataFile     = "metadata.json"
	trajectoriesFile = "trajectories.csv"
)

var trajectoryHeader = []string{"step", "time", "id", "x", "y", "vx", "vy", "waypoint"}

var ErrRunNotFound = errors.New("storage: run not found")

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID         string                 `json:"id"`
	Scenario   string                 `json:"scenario"`
	Timestamp  time.Time              `json:"timestamp"`
	Seed       int64                  `json:"seed"`
	Dt         float64                `json:"dt"`
	Duration   float64                `json:"duration"`
	Steps      int                    `json:"steps"`
	Frames     int                    `json:"frames"`
	AgentCount int                    `json:"agent_count"`
	Params     config.ParamsConfig    `json:"params"`
	Metrics    map[string]float64     `json:"metrics"`
	Walls      [][4]float64           `json:"walls"`
	Agents     []experiment.AgentInfo `json:"agents"`
	Errors     []string               `json:"errors,omitempty"`
}

// WallList rebuilds the walls recorded with the run.
func (m *RunMetadata) WallList() []socialforce.Wall {
	walls := make([]socialforce.Wall, len(m.Walls))
	for i, w := range m.Walls {
		walls[i] = socialforce.NewWall(w[0], w[1], w[2], w[3])
	}
	return walls
}

// Save writes a run and returns its id, derived from the scenario name and
// the current time.
func (s *Store) Save(sc *config.Scenario, result *experiment.Result) (string, error) {
	runID, runDir, err := s.newRunDir(sc.Name)
	if err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:         runID,
		Scenario:   sc.Name,
		Timestamp:  time.Now(),
		Seed:       sc.Seed,
		Dt:         sc.Dt,
		Duration:   sc.Duration,
		Steps:      result.StepsTaken,
		Frames:     len(result.Frames),
		AgentCount: len(result.Agents),
		Params:     sc.Params,
		Metrics:    result.Metrics,
		Walls:      make([][4]float64, len(result.Walls)),
		Agents:     result.Agents,
	}
	for i, w := range result.Walls {
		a, b := w.Start(), w.End()
		meta.Walls[i] = [4]float64{a.X, a.Y, b.X, b.Y}
	}
	for _, err := range result.Errors {
		meta.Errors = append(meta.Errors, err.Error())
	}

	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", err
	}

	csvFile, err := os.Create(filepath.Join(runDir, trajectoriesFile))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	if err := WriteTrajectories(csvFile, result.Frames); err != nil {
		return "", err
	}
	return runID, csvFile.Close()
}

func (s *Store) newRunDir(name string) (string, string, error) {
	if err := s.Init(); err != nil {
		return "", "", err
	}
	base := fmt.Sprintf("%s_%d", name, time.Now().Unix())
	runID := base
	for n := 2; ; n++ {
		runDir := filepath.Join(s.baseDir, runID)
		err := os.Mkdir(runDir, 0755)
		if err == nil {
			return runID, runDir, nil
		}
		if !os.IsExist(err) {
			return "", "", err
		}
		runID = fmt.Sprintf("%s_%d", base, n)
	}
}

// WriteTrajectories writes one CSV row per agent per frame.
func WriteTrajectories(out io.Writer, frames []experiment.Frame) error {
	w := csv.NewWriter(out)
	if err := w.Write(trajectoryHeader); err != nil {
		return err
	}

	for _, f := range frames {
		step := strconv.Itoa(f.Step)
		t := strconv.FormatFloat(f.Time, 'f', 6, 64)
		for _, a := range f.Agents {
			row := []string{
				step, t, strconv.Itoa(a.ID),
				strconv.FormatFloat(a.X, 'f', 6, 64),
				strconv.FormatFloat(a.Y, 'f', 6, 64),
				strconv.FormatFloat(a.VX, 'f', 6, 64),
				strconv.FormatFloat(a.VY, 'f', 6, 64),
				strconv.Itoa(a.Waypoint),
			}
			if err := w.Write(row); err != nil {
				return err
			}
		}
	}

	w.Flush()
	return w.Error()
}

// List returns the metadata of every readable run, oldest first.
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
		return runs[i].Timestamp.Before(runs[j].Timestamp)
	})
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("run %s: %w", runID, err)
	}
	return &meta, nil
}

// LoadFrames reads the recorded trajectories back into frames.
func (s *Store) LoadFrames(runID string) ([]experiment.Frame, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, trajectoriesFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, err
	}
	defer file.Close()

	return ReadTrajectories(file)
}

// ReadTrajectories parses rows written by WriteTrajectories. Consecutive rows
// with the same step form one frame.
func ReadTrajectories(in io.Reader) ([]experiment.Frame, error) {
	r := csv.NewReader(in)
	r.FieldsPerRecord = len(trajectoryHeader)

	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return []experiment.Frame{}, nil
	}

	var frames []experiment.Frame
	for line, record := range records[1:] {
		nums, err := parseRow(record)
		if err != nil {
			return nil, fmt.Errorf("trajectories line %d: %w", line+2, err)
		}

		step := int(nums[0])
		if len(frames) == 0 || frames[len(frames)-1].Step != step {
			frames = append(frames, experiment.Frame{Step: step, Time: nums[1]})
		}
		f := &frames[len(frames)-1]
		f.Agents = append(f.Agents, experiment.AgentRecord{
			ID:       int(nums[2]),
			X:        nums[3],
			Y:        nums[4],
			VX:       nums[5],
			VY:       nums[6],
			Waypoint: int(nums[7]),
		})
	}
	return frames, nil
}

func parseRow(record []string) ([]float64, error) {
	nums := make([]float64, len(record))
	for i, field := range record {
		v, err := strconv.ParseFloat(field, 64)
		if err != nil {
			return nil, err
		}
		nums[i] = v
	}
	return nums, nil
}

// LoadResult reassembles a stored run into the shape the runner produces.
func (s *Store) LoadResult(runID string) (*RunMetadata, *experiment.Result, error) {
	meta, err := s.Load(runID)
	if err != nil {
		return nil, nil, err
	}
	frames, err := s.LoadFrames(runID)
	if err != nil {
		return nil, nil, err
	}
	return meta, &experiment.Result{
		Agents:     meta.Agents,
		Walls:      meta.WallList(),
		Frames:     frames,
		Metrics:    meta.Metrics,
		StepsTaken: meta.Steps,
	}, nil
}

// CopyTrajectories streams the raw trajectories CSV of a run.
func (s *Store) CopyTrajectories(runID string, w io.Writer) error {
	file, err := os.Open(filepath.Join(s.baseDir, runID, trajectoriesFile))
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return err
	}
	defer file.Close()

	_, err = io.Copy(w, file)
	return err
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
