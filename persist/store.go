// Package persist stores the state that outlives a battle: per-player pity
// counters and passive proc history. Storage goes through gdata so the same
// code works on every platform; a Store constructed without a manager runs
// in memory-only mode and every save becomes a no-op.
package persist

import (
	"fmt"

	"github.com/quasilyte/gdata/v2"
	"gopkg.in/yaml.v3"

	"cardclash/server/battle"
)

const (
	acquisitionObject = "acquisition"
	pityProperty      = "pity"

	battleObject    = "battle"
	historyProperty = "passive-history"
)

// Store wraps a gdata manager with typed load/save operations. The zero
// value is usable and persists nothing.
type Store struct {
	manager *gdata.Manager
}

// Open creates a store backed by the platform's data directory for appName.
func Open(appName string) (*Store, error) {
	manager, err := gdata.Open(gdata.Config{AppName: appName})
	if err != nil {
		return nil, fmt.Errorf("open data store: %w", err)
	}
	return &Store{manager: manager}, nil
}

// NewMemoryStore returns a store that never touches disk. Loads report
// nothing saved; saves succeed and discard.
func NewMemoryStore() *Store {
	return &Store{}
}

// SavePity writes the pity snapshot exported by the acquisition engine.
func (s *Store) SavePity(snapshot map[string]int) error {
	return s.saveProp(acquisitionObject, pityProperty, snapshot)
}

// LoadPity reads the stored pity snapshot. A missing snapshot is not an
// error; callers get an empty map and start fresh.
func (s *Store) LoadPity() (map[string]int, error) {
	snapshot := make(map[string]int)
	if err := s.loadProp(acquisitionObject, pityProperty, &snapshot); err != nil {
		return nil, err
	}
	for playerID, count := range snapshot {
		if count < 0 {
			snapshot[playerID] = 0
		}
	}
	return snapshot, nil
}

// SavePassiveHistory writes proc history keyed by passive ID.
func (s *Store) SavePassiveHistory(history map[string]battle.PassiveHistory) error {
	return s.saveProp(battleObject, historyProperty, history)
}

// LoadPassiveHistory reads the stored proc history.
func (s *Store) LoadPassiveHistory() (map[string]battle.PassiveHistory, error) {
	history := make(map[string]battle.PassiveHistory)
	if err := s.loadProp(battleObject, historyProperty, &history); err != nil {
		return nil, err
	}
	return history, nil
}

func (s *Store) saveProp(object, property string, value any) error {
	if s == nil || s.manager == nil {
		return nil
	}
	data, err := yaml.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal %s/%s: %w", object, property, err)
	}
	if err := s.manager.SaveObjectProp(object, property, data); err != nil {
		return fmt.Errorf("save %s/%s: %w", object, property, err)
	}
	return nil
}

func (s *Store) loadProp(object, property string, out any) error {
	if s == nil || s.manager == nil {
		return nil
	}
	if !s.manager.ObjectPropExists(object, property) {
		return nil
	}
	data, err := s.manager.LoadObjectProp(object, property)
	if err != nil {
		return fmt.Errorf("load %s/%s: %w", object, property, err)
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("unmarshal %s/%s: %w", object, property, err)
	}
	return nil
}
