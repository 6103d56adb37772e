package audit

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/piwi3910/lotcut/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeRecord(id string, at time.Time) model.RunRecord {
	return model.RunRecord{
		RunID:       id,
		Strategy:    model.StrategyGreedy,
		JobName:     "spring",
		Customer:    "Generic",
		Plans:       3,
		TotalPieces: 960,
		UsedLength:  1210.5,
		Duration:    1500 * time.Millisecond,
		CreatedAt:   at,
	}
}

type memorySink struct {
	mu      sync.Mutex
	records []model.RunRecord
	block   chan struct{}
	closed  bool
	fail    bool
}

func (m *memorySink) Write(_ context.Context, rec model.RunRecord) error {
	if m.block != nil {
		<-m.block
	}
	if m.fail {
		return errors.New("disk full")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, rec)
	return nil
}

func (m *memorySink) Close() error {
	m.closed = true
	return nil
}

func TestRecorderDeliversToAllSinks(t *testing.T) {
	a, b := &memorySink{}, &memorySink{}
	r := NewRecorder(nil, 8, a, b)
	r.Record(makeRecord("run-1", time.Now()))
	r.Record(makeRecord("run-2", time.Now()))
	require.NoError(t, r.Close())

	assert.Len(t, a.records, 2)
	assert.Len(t, b.records, 2)
	assert.True(t, a.closed)
	assert.Equal(t, "run-1", a.records[0].RunID)
}

func TestRecorderNeverBlocks(t *testing.T) {
	sink := &memorySink{block: make(chan struct{})}
	r := NewRecorder(nil, 1, sink)

	done := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			r.Record(makeRecord("run", time.Now()))
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Record blocked on a slow sink")
	}

	close(sink.block)
	require.NoError(t, r.Close())
	assert.LessOrEqual(t, len(sink.records), 2)
}

func TestRecorderSinkErrorIsSwallowed(t *testing.T) {
	sink := &memorySink{fail: true}
	r := NewRecorder(nil, 4, sink)
	r.Record(makeRecord("run-1", time.Now()))
	require.NoError(t, r.Close())
	assert.Empty(t, sink.records)
}

func TestRecorderIgnoresRecordsAfterClose(t *testing.T) {
	sink := &memorySink{}
	r := NewRecorder(nil, 4, sink)
	require.NoError(t, r.Close())
	r.Record(makeRecord("late", time.Now()))
	require.NoError(t, r.Close())
	assert.Empty(t, sink.records)
}

func TestJSONLSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit", "runs.jsonl")
	sink, err := NewJSONLSink(path)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, sink.Write(ctx, makeRecord("run-1", time.Now())))
	require.NoError(t, sink.Write(ctx, makeRecord("run-2", time.Now())))

	recent, err := sink.Recent(ctx, 1)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, "run-2", recent[0].RunID)
	require.NoError(t, sink.Close())

	all, err := ReadJSONL(path)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, 960, all[0].TotalPieces)
	assert.Equal(t, 1500*time.Millisecond, all[0].Duration)
}

func TestSQLiteSink(t *testing.T) {
	ctx := context.Background()
	sink, err := NewSQLiteSink(ctx, filepath.Join(t.TempDir(), "audit.db"))
	require.NoError(t, err)
	defer sink.Close()

	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, sink.Write(ctx, makeRecord("old", base)))
	require.NoError(t, sink.Write(ctx, makeRecord("new", base.Add(time.Hour))))

	recent, err := sink.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "new", recent[0].RunID)
	assert.Equal(t, model.StrategyGreedy, recent[0].Strategy)
	assert.Equal(t, 1500*time.Millisecond, recent[0].Duration)
	assert.True(t, base.Equal(recent[1].CreatedAt))
	assert.InDelta(t, 1210.5, recent[1].UsedLength, 1e-9)
}

func TestOpenSinksNoneConfigured(t *testing.T) {
	sinks, err := OpenSinks(context.Background(), Config{}, nil)
	require.NoError(t, err)
	assert.Empty(t, sinks)
}

func TestOpenSinksFileBacked(t *testing.T) {
	dir := t.TempDir()
	sinks, err := OpenSinks(context.Background(), Config{
		JSONLPath:  filepath.Join(dir, "runs.jsonl"),
		SQLitePath: filepath.Join(dir, "runs.db"),
	}, nil)
	require.NoError(t, err)
	require.Len(t, sinks, 2)

	r := NewRecorder(nil, 4, sinks...)
	r.Record(makeRecord("run-1", time.Now()))
	require.NoError(t, r.Close())

	all, err := ReadJSONL(filepath.Join(dir, "runs.jsonl"))
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestPostgresSink(t *testing.T) {
	dsn := os.Getenv("TEST_PG_DSN")
	if dsn == "" {
		t.Skip("No test database configured - set TEST_PG_DSN")
	}
	ctx := context.Background()
	sink, err := NewPostgresSink(ctx, dsn, nil)
	require.NoError(t, err)
	defer sink.Close()

	id := "test-" + time.Now().Format("150405.000000000")
	require.NoError(t, sink.Write(ctx, makeRecord(id, time.Now().UTC())))

	recent, err := sink.Recent(ctx, 50)
	require.NoError(t, err)
	found := false
	for _, r := range recent {
		if r.RunID == id {
			found = true
		}
	}
	assert.True(t, found)
}
