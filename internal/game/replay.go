package game

import (
	"compress/gzip"
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Replay is an ordered sequence of match snapshots with a playback cursor.
type Replay struct {
	MatchID string
	States  []*Snapshot

	mu     sync.RWMutex
	cursor int
}

// NewReplay creates an empty replay for a match.
func NewReplay(matchID string) *Replay {
	return &Replay{MatchID: matchID}
}

// Append adds a snapshot at the end of the sequence.
func (r *Replay) Append(snap *Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.States = append(r.States, snap)
}

// Start rewinds the playback cursor to the first snapshot.
func (r *Replay) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cursor = 0
}

// Next returns the snapshot at the cursor and advances it, or nil at the end.
func (r *Replay) Next() *Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cursor >= len(r.States) {
		return nil
	}
	snap := r.States[r.cursor]
	r.cursor++
	return snap
}

// Previous steps the cursor back and returns that snapshot, or nil at the
// beginning.
func (r *Replay) Previous() *Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cursor == 0 {
		return nil
	}
	r.cursor--
	return r.States[r.cursor]
}

// Skip moves the cursor by count (negative moves backward), clamped to the
// sequence, and returns the snapshot there.
func (r *Replay) Skip(count int) *Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	next := r.cursor + count
	if next >= len(r.States) {
		next = len(r.States) - 1
	}
	if next < 0 {
		next = 0
	}
	r.cursor = next
	if r.cursor < len(r.States) {
		return r.States[r.cursor]
	}
	return nil
}

// Size returns the number of recorded snapshots.
func (r *Replay) Size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.States)
}

// StateAt returns the snapshot at index without moving the cursor.
func (r *Replay) StateAt(index int) *Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if index < 0 || index >= len(r.States) {
		return nil
	}
	return r.States[index]
}

// replayMetadata is the file header preceding the snapshot stream.
type replayMetadata struct {
	MatchID    string
	Timestamp  time.Time
	Version    int
	StateCount int
}

// SaveToFile writes the replay as a gzipped gob stream: one metadata record
// followed by StateCount snapshots.
func (r *Replay) SaveToFile(directory string) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if err := os.MkdirAll(directory, 0755); err != nil {
		return fmt.Errorf("failed to create replay directory: %w", err)
	}
	file, err := os.Create(replayPath(directory, r.MatchID))
	if err != nil {
		return fmt.Errorf("failed to create replay file: %w", err)
	}
	defer file.Close()

	gz := gzip.NewWriter(file)
	defer gz.Close()
	encoder := gob.NewEncoder(gz)

	meta := replayMetadata{
		MatchID:    r.MatchID,
		Timestamp:  time.Now(),
		Version:    1,
		StateCount: len(r.States),
	}
	if err := encoder.Encode(&meta); err != nil {
		return fmt.Errorf("failed to encode replay metadata: %w", err)
	}
	for i, snap := range r.States {
		if err := encoder.Encode(snap); err != nil {
			return fmt.Errorf("failed to encode snapshot %d: %w", i, err)
		}
	}
	return nil
}

// LoadReplayFromFile reads a replay previously written by SaveToFile.
func LoadReplayFromFile(directory, matchID string) (*Replay, error) {
	file, err := os.Open(replayPath(directory, matchID))
	if err != nil {
		return nil, fmt.Errorf("failed to open replay file: %w", err)
	}
	defer file.Close()

	gz, err := gzip.NewReader(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read replay file: %w", err)
	}
	defer gz.Close()
	decoder := gob.NewDecoder(gz)

	var meta replayMetadata
	if err := decoder.Decode(&meta); err != nil {
		return nil, fmt.Errorf("failed to decode replay metadata: %w", err)
	}
	if meta.Version != 1 {
		return nil, fmt.Errorf("unsupported replay version %d", meta.Version)
	}

	replay := NewReplay(meta.MatchID)
	for i := 0; i < meta.StateCount; i++ {
		var snap Snapshot
		if err := decoder.Decode(&snap); err != nil {
			return nil, fmt.Errorf("failed to decode snapshot %d: %w", i, err)
		}
		replay.States = append(replay.States, &snap)
	}
	return replay, nil
}

func replayPath(directory, matchID string) string {
	return filepath.Join(directory, matchID+".replay")
}

// ReplayRecorder collects snapshots per match and saves finished matches to
// disk.
type ReplayRecorder struct {
	logger  *zap.Logger
	saveDir string

	mu      sync.RWMutex
	replays map[string]*Replay
	enabled map[string]bool
}

// NewReplayRecorder creates a recorder writing into saveDir.
func NewReplayRecorder(saveDir string, logger *zap.Logger) *ReplayRecorder {
	return &ReplayRecorder{
		logger:  logger,
		saveDir: saveDir,
		replays: make(map[string]*Replay),
		enabled: make(map[string]bool),
	}
}

// StartRecording begins collecting snapshots for a match.
func (rr *ReplayRecorder) StartRecording(matchID string) {
	rr.mu.Lock()
	defer rr.mu.Unlock()
	rr.replays[matchID] = NewReplay(matchID)
	rr.enabled[matchID] = true
	if rr.logger != nil {
		rr.logger.Info("started replay recording", zap.String("match_id", matchID))
	}
}

// StopRecording stops collecting without discarding what was recorded.
func (rr *ReplayRecorder) StopRecording(matchID string) {
	rr.mu.Lock()
	defer rr.mu.Unlock()
	rr.enabled[matchID] = false
}

// IsRecording reports whether a match is currently being recorded.
func (rr *ReplayRecorder) IsRecording(matchID string) bool {
	rr.mu.RLock()
	defer rr.mu.RUnlock()
	return rr.enabled[matchID]
}

// Record appends a snapshot when recording is enabled for the match.
func (rr *ReplayRecorder) Record(matchID string, snap *Snapshot) {
	rr.mu.RLock()
	enabled := rr.enabled[matchID]
	replay := rr.replays[matchID]
	rr.mu.RUnlock()
	if !enabled || replay == nil {
		return
	}
	replay.Append(snap)
}

// Get returns the in-memory replay for a match.
func (rr *ReplayRecorder) Get(matchID string) (*Replay, bool) {
	rr.mu.RLock()
	defer rr.mu.RUnlock()
	replay, ok := rr.replays[matchID]
	return replay, ok
}

// Save writes the replay to disk and drops it from memory.
func (rr *ReplayRecorder) Save(matchID string) error {
	rr.mu.Lock()
	replay, ok := rr.replays[matchID]
	if !ok {
		rr.mu.Unlock()
		return fmt.Errorf("no replay recorded for match %s", matchID)
	}
	delete(rr.replays, matchID)
	delete(rr.enabled, matchID)
	rr.mu.Unlock()

	if err := replay.SaveToFile(rr.saveDir); err != nil {
		return err
	}
	if rr.logger != nil {
		rr.logger.Info("saved replay",
			zap.String("match_id", matchID),
			zap.Int("state_count", replay.Size()),
			zap.String("directory", rr.saveDir),
		)
	}
	return nil
}

// Load reads a previously saved replay from disk.
func (rr *ReplayRecorder) Load(matchID string) (*Replay, error) {
	return LoadReplayFromFile(rr.saveDir, matchID)
}
