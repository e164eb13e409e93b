package webserver

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/satvika/web/internal/upstream"
)

func alertsByID(ids ...int) []upstream.Alert {
	out := make([]upstream.Alert, 0, len(ids))
	for _, id := range ids {
		out = append(out, upstream.Alert{ID: id, Title: "alert"})
	}
	return out
}

func TestAlertFeed_InitialFillIsNotNews(t *testing.T) {
	hub := NewHub(zap.NewNop())
	hub.Run()
	defer hub.Close()

	feed := NewAlertFeed(hub, zap.NewNop())
	feed.Update(alertsByID(1, 2, 3))

	assert.Equal(t, 0, feed.UnseenCount())
	assert.Len(t, feed.Latest(), 3)
}

func TestAlertFeed_NewAlertsCountAsUnseen(t *testing.T) {
	hub := NewHub(zap.NewNop())
	hub.Run()
	defer hub.Close()

	feed := NewAlertFeed(hub, zap.NewNop())
	feed.Update(alertsByID(1, 2))
	feed.Update(alertsByID(1, 2, 3, 4))

	assert.Equal(t, 2, feed.UnseenCount())

	feed.MarkSeen()
	assert.Equal(t, 0, feed.UnseenCount())
}

func TestAlertFeed_RepeatUpdateIsIdempotent(t *testing.T) {
	hub := NewHub(zap.NewNop())
	hub.Run()
	defer hub.Close()

	feed := NewAlertFeed(hub, zap.NewNop())
	feed.Update(alertsByID(1))
	feed.Update(alertsByID(1, 2))
	feed.Update(alertsByID(1, 2))

	assert.Equal(t, 1, feed.UnseenCount())
}

func TestHub_SnapshotDeliveredFirstOnRegister(t *testing.T) {
	hub := NewHub(zap.NewNop())
	hub.Run()
	defer hub.Close()

	client := &wsClient{
		send:     make(chan []byte, 8),
		snapshot: []byte(`{"type":"snapshot","alerts":[{"id":1}]}`),
	}
	hub.register <- client

	select {
	case msg := <-client.send:
		assert.JSONEq(t, `{"type":"snapshot","alerts":[{"id":1}]}`, string(msg))
	case <-time.After(time.Second):
		t.Fatal("snapshot was not queued on register")
	}

	hub.Broadcast([]byte(`{"type":"alerts","alerts":[]}`))
	select {
	case msg := <-client.send:
		assert.Contains(t, string(msg), `"alerts"`)
	case <-time.After(time.Second):
		t.Fatal("broadcast after snapshot never arrived")
	}
}

func TestHub_BroadcastAfterCloseDoesNotBlock(t *testing.T) {
	hub := NewHub(zap.NewNop())
	hub.Run()
	hub.Close()

	done := make(chan struct{})
	go func() {
		hub.Broadcast([]byte("late"))
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("broadcast blocked after close")
	}
}
