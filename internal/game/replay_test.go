package game

import (
	"testing"

	"github.com/hexturf/turf-server-go/internal/game/hex"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestReplayCursor(t *testing.T) {
	st := snapshotState(t)
	replay := NewReplay("m1")
	replay.Append(CaptureSnapshot(st))
	require.NoError(t, st.MoveToken("t1", hex.New(1, 0)))
	replay.Append(CaptureSnapshot(st))
	require.NoError(t, st.MoveToken("t1", hex.New(1, -1)))
	replay.Append(CaptureSnapshot(st))

	require.Equal(t, 3, replay.Size())

	replay.Start()
	first := replay.Next()
	require.NotNil(t, first)
	assert.Equal(t, hex.New(0, 0), first.Tokens["t1"].At)

	second := replay.Next()
	require.NotNil(t, second)
	assert.Equal(t, hex.New(1, 0), second.Tokens["t1"].At)

	back := replay.Previous()
	require.NotNil(t, back)
	assert.Equal(t, hex.New(1, 0), back.Tokens["t1"].At)

	last := replay.Skip(10)
	require.NotNil(t, last)
	assert.Equal(t, hex.New(1, -1), last.Tokens["t1"].At)

	replay.Start()
	replay.Next()
	replay.Next()
	replay.Next()
	assert.Nil(t, replay.Next(), "cursor past the end yields nil")
}

func TestReplayFileRoundTrip(t *testing.T) {
	dir := t.TempDir()
	st := snapshotState(t)

	replay := NewReplay("m1")
	replay.Append(CaptureSnapshot(st))
	require.NoError(t, st.MoveToken("t1", hex.New(1, 0)))
	replay.Append(CaptureSnapshot(st))
	require.NoError(t, replay.SaveToFile(dir))

	loaded, err := LoadReplayFromFile(dir, "m1")
	require.NoError(t, err)
	require.Equal(t, 2, loaded.Size())
	assert.Equal(t,
		replay.StateAt(0).ComputeChecksum().Hash,
		loaded.StateAt(0).ComputeChecksum().Hash)
	assert.Equal(t,
		replay.StateAt(1).ComputeChecksum().Hash,
		loaded.StateAt(1).ComputeChecksum().Hash)
}

func TestRecorderLifecycle(t *testing.T) {
	dir := t.TempDir()
	rr := NewReplayRecorder(dir, zap.NewNop())
	st := snapshotState(t)

	// Not recording yet: drops on the floor.
	rr.Record("m1", CaptureSnapshot(st))
	_, ok := rr.Get("m1")
	assert.False(t, ok)

	rr.StartRecording("m1")
	assert.True(t, rr.IsRecording("m1"))
	rr.Record("m1", CaptureSnapshot(st))
	require.NoError(t, st.MoveToken("t1", hex.New(1, 0)))
	rr.Record("m1", CaptureSnapshot(st))

	rr.StopRecording("m1")
	rr.Record("m1", CaptureSnapshot(st))
	replay, ok := rr.Get("m1")
	require.True(t, ok)
	assert.Equal(t, 2, replay.Size(), "stopped recorder ignores snapshots")

	require.NoError(t, rr.Save("m1"))
	_, ok = rr.Get("m1")
	assert.False(t, ok, "saved replay leaves memory")

	loaded, err := rr.Load("m1")
	require.NoError(t, err)
	assert.Equal(t, 2, loaded.Size())
}

func TestEngineRecordsMatchToGameEnd(t *testing.T) {
	dir := t.TempDir()
	e := newTestEngine(t)
	recorder := NewReplayRecorder(dir, zap.NewNop())
	e.SetRecorder(recorder)

	id := startMatch(t, e, 21)
	require.NoError(t, e.Advance(id, e.opts.GameLimit+1))

	loaded, err := recorder.Load(id)
	require.NoError(t, err)
	require.GreaterOrEqual(t, loaded.Size(), 2)
	assert.True(t, loaded.StateAt(0).Phase.IsTurn())
	lastIdx := loaded.Size() - 1
	assert.Equal(t, "GAME_END", loaded.StateAt(lastIdx).Phase.String())
}
