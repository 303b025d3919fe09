package events

import (
	"bufio"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock(t *testing.T) {
	t.Helper()
	orig := Now
	Now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }
	t.Cleanup(func() { Now = orig })
}

func TestLogger_EmitsTaggedEvents(t *testing.T) {
	fixedClock(t)
	rec := &Recorder{}
	log := NewLogger(rec, nil).WithOperation("import")

	log.Infof("created %d variables", 3)
	log.Warnf("unresolved alias %s", "{A.B}")
	log.Errorf("boom")
	log.Progress("Setting values: %d/%d", 20, 40)
	log.Result(map[string]int{"values": 40})
	log.Fail(errors.New("fatal"))

	events := rec.Events()
	require.Len(t, events, 6)
	for _, e := range events {
		assert.Equal(t, "import", e.Operation)
		assert.Equal(t, 2026, e.Time.Year())
	}
	assert.Equal(t, Event{Kind: KindLog, Level: LevelInfo, Message: "created 3 variables", Operation: "import", Time: Now()}, events[0])
	assert.Len(t, rec.Logs(LevelWarn), 1)
	assert.Len(t, rec.Logs(LevelError), 1)
	assert.Equal(t, "Setting values: 20/40", rec.OfKind(KindProgress)[0].Message)
	assert.Equal(t, map[string]int{"values": 40}, rec.OfKind(KindResult)[0].Payload)
	assert.Equal(t, "fatal", rec.OfKind(KindError)[0].Message)
}

func TestLogger_NilSinkDiscards(t *testing.T) {
	log := NewLogger(nil, nil)
	assert.NotPanics(t, func() { log.Warnf("nothing listens") })
}

func TestMulti(t *testing.T) {
	a, b := &Recorder{}, &Recorder{}
	sink := Multi(a, nil, b)
	sink.Emit(Event{Kind: KindProgress, Message: "x"})
	assert.Len(t, a.Events(), 1)
	assert.Len(t, b.Events(), 1)
}

func TestJSONLWriter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "events.jsonl")
	w, err := OpenJSONL(path)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.Emit(Event{Kind: KindLog, Level: LevelInfo, Message: "hello"})
		}()
	}
	wg.Wait()
	require.NoError(t, w.Err())
	require.NoError(t, w.Close())

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	lines := 0
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var e Event
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &e))
		assert.Equal(t, "hello", e.Message)
		lines++
	}
	assert.Equal(t, 10, lines)
}

func TestOpenJSONL_EmptyPathDisabled(t *testing.T) {
	w, err := OpenJSONL("")
	require.NoError(t, err)
	assert.Nil(t, w)
	// A nil writer is safe to use.
	w.Emit(Event{})
	assert.NoError(t, w.Close())
}

func TestBroadcaster(t *testing.T) {
	b := NewBroadcaster(1)
	ch, cancel := b.Subscribe()
	assert.Equal(t, 1, b.Len())

	b.Emit(Event{Message: "first"})
	b.Emit(Event{Message: "dropped"})

	got := <-ch
	assert.Equal(t, "first", got.Message)

	cancel()
	cancel()
	assert.Equal(t, 0, b.Len())
	_, open := <-ch
	assert.False(t, open)
}
