package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pfrederiksen/concert-calendar/internal/event"
)

// ErrNoSnapshot is returned when no snapshot has been written for the requested period
var ErrNoSnapshot = errors.New("no snapshot found")

// Storage handles persistence of run snapshots
type Storage struct {
	dataDir string
}

// New creates a new Storage instance
func New(dataDir string) (*Storage, error) {
	dataDir, err := ExpandPath(dataDir)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	return &Storage{
		dataDir: dataDir,
	}, nil
}

// ExpandPath expands a leading ~/ to the home directory
func ExpandPath(path string) (string, error) {
	if !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, path[2:]), nil
}

// Dir returns the data directory
func (s *Storage) Dir() string {
	return s.dataDir
}

// SnapshotPath returns the snapshot file of a period; the zero period names the latest snapshot
func (s *Storage) SnapshotPath(period event.Period) string {
	if period.Month == 0 {
		return filepath.Join(s.dataDir, "snapshot.json")
	}
	return filepath.Join(s.dataDir, fmt.Sprintf("snapshot_%04d-%02d.json", period.Year, period.Month))
}

// LoadSnapshot loads the snapshot of a period (zero period: the latest one)
func (s *Storage) LoadSnapshot(period event.Period) (*event.Snapshot, error) {
	path := s.SnapshotPath(period)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w at %s", ErrNoSnapshot, path)
		}
		return nil, fmt.Errorf("reading snapshot: %w", err)
	}

	var snapshot event.Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("parsing snapshot: %w", err)
	}

	if snapshot.HealthSummary == nil {
		snapshot.HealthSummary = make(map[event.Health]int)
	}

	return &snapshot, nil
}

// SaveSnapshot writes the snapshot as its period file and as the latest snapshot
func (s *Storage) SaveSnapshot(snapshot *event.Snapshot) error {
	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}

	for _, path := range []string{s.SnapshotPath(snapshot.Period()), s.SnapshotPath(event.Period{})} {
		if err := WriteFileAtomic(path, data); err != nil {
			return fmt.Errorf("writing snapshot: %w", err)
		}
	}

	return nil
}

// GetEventByID retrieves an event by ID from the latest snapshot
func (s *Storage) GetEventByID(eventID string) (*event.Event, error) {
	snapshot, err := s.LoadSnapshot(event.Period{})
	if err != nil {
		return nil, fmt.Errorf("loading snapshot: %w", err)
	}

	for _, evt := range snapshot.AllEvents() {
		if evt.ID == eventID {
			return evt, nil
		}
	}

	return nil, fmt.Errorf("event not found: %s", eventID)
}

// WriteFileAtomic replaces path with data so readers never see a partial file
func WriteFileAtomic(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}
