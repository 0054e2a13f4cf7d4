// ABOUTME: Tests for the state store and update fan-out.
// ABOUTME: Covers snapshots, history ordering, watcher delivery and teardown.

package state

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/agentwire/internal/protocol"
)

func TestStore_TranscriptSnapshotIsCopy(t *testing.T) {
	s := NewStore(nil)
	defer s.Close()

	s.AppendCell(Cell{Kind: CellMessage, Source: "user", Text: "hello"})

	snap := s.Transcript()
	require.Len(t, snap, 1)
	snap[0].Text = "mutated"

	assert.Equal(t, "hello", s.Transcript()[0].Text)
}

func TestStore_HistoryPreservesArrivalOrder(t *testing.T) {
	s := NewStore(nil)
	defer s.Close()

	s.RecordFrame(protocol.ActionFrame{ID: 1, Action: protocol.ActionMessage})
	s.RecordFrame(protocol.ObservationFrame{ID: 2, Observation: protocol.ObservationRun})
	s.RecordFrame(protocol.StatusFrame{Message: "hi"})

	h := s.History()
	require.Len(t, h, 3)
	assert.Equal(t, int64(1), h[0].(protocol.ActionFrame).ID)
	assert.Equal(t, int64(2), h[1].(protocol.ObservationFrame).ID)
	assert.Equal(t, "hi", h[2].(protocol.StatusFrame).Message)
}

func TestStore_CurrentStatusOverwrites(t *testing.T) {
	s := NewStore(nil)
	defer s.Close()

	s.SetCurrentStatus("building runtime")
	s.SetCurrentStatus("cloning repository")

	assert.Equal(t, "cloning repository", s.CurrentStatus())
}

func TestStore_AgentStateAndRisk(t *testing.T) {
	s := NewStore(nil)
	defer s.Close()

	s.SetAgentState(protocol.AgentRunning)
	assert.Equal(t, protocol.AgentRunning, s.AgentState())

	s.SetRisk(42, protocol.RiskHigh)
	r, ok := s.Risk(42)
	require.True(t, ok)
	assert.Equal(t, protocol.RiskHigh, r)

	_, ok = s.Risk(43)
	assert.False(t, ok)
}

func TestStore_WatchReceivesUpdates(t *testing.T) {
	s := NewStore(nil)
	defer s.Close()

	ch, id := s.Watch()
	defer s.Unwatch(id)

	s.AppendTerminal("file1\nfile2")

	select {
	case u := <-ch:
		assert.Equal(t, UpdateTerminal, u.Kind)
		assert.Equal(t, "file1\nfile2", u.Text)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for update")
	}
}

func TestStore_UnwatchClosesChannel(t *testing.T) {
	s := NewStore(nil)
	defer s.Close()

	ch, id := s.Watch()
	s.Unwatch(id)

	_, open := <-ch
	assert.False(t, open, "channel should be closed after Unwatch")
}

func TestStore_SlowSubscriberDropsWithoutBlocking(t *testing.T) {
	s := NewStore(nil)
	defer s.Close()

	_, id := s.Watch()
	defer s.Unwatch(id)

	done := make(chan struct{})
	go func() {
		// Publish more than the buffer can hold; must not block.
		for i := 0; i < subscriberBufferSize*2; i++ {
			s.AppendTerminal("line")
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publish blocked on slow subscriber")
	}
}

func TestStore_BrowserAndCode(t *testing.T) {
	s := NewStore(nil)
	defer s.Close()

	s.SetBrowser("https://example.com", "img-base64")
	b := s.BrowserState()
	assert.Equal(t, "https://example.com", b.URL)
	assert.Equal(t, "img-base64", b.Screenshot)

	s.SetCode("main.go", "package main")
	c := s.Code()
	assert.Equal(t, "main.go", c.Path)
	assert.Equal(t, "package main", c.Content)
}
