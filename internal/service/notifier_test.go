package service

import (
	"context"
	"testing"
	"time"

	"tracer-store/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNotifierExpires(t *testing.T) {
	sink := &recordingSink{}
	n := NewNotifier("s1", 50*time.Millisecond, sink, zap.NewNop())

	n.Notify("Added ATLAS Detector Blueprint Tee to manifest")
	require.NotNil(t, n.Current())
	assert.Equal(t, "Added ATLAS Detector Blueprint Tee to manifest", n.Current().Message)

	assert.Eventually(t, func() bool { return n.Current() == nil }, time.Second, 5*time.Millisecond)
	assert.Eventually(t, func() bool { return len(sink.all()) == 2 }, time.Second, 5*time.Millisecond)

	events := sink.all()
	require.Len(t, events, 2)
	assert.Equal(t, models.NotificationShown, events[0].Type)
	assert.Equal(t, "s1", events[0].SessionID)
	assert.Equal(t, models.NotificationCleared, events[1].Type)
}

func TestNotifierNewMessageRestartsWindow(t *testing.T) {
	n := NewNotifier("s1", 150*time.Millisecond, nil, zap.NewNop())

	n.Notify("first")
	time.Sleep(100 * time.Millisecond)
	n.Notify("second")

	// the first timer would have fired by now
	time.Sleep(80 * time.Millisecond)
	require.NotNil(t, n.Current())
	assert.Equal(t, "second", n.Current().Message)

	assert.Eventually(t, func() bool { return n.Current() == nil }, time.Second, 5*time.Millisecond)
}

func TestNotifierCloseStopsTimer(t *testing.T) {
	sink := &recordingSink{}
	n := NewNotifier("s1", 30*time.Millisecond, sink, zap.NewNop())

	n.Notify("hello")
	n.Close()
	assert.Nil(t, n.Current())

	n.Notify("after close")
	assert.Nil(t, n.Current())

	assert.Eventually(t, func() bool { return len(sink.all()) == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(80 * time.Millisecond)
	events := sink.all()
	require.Len(t, events, 1)
	assert.Equal(t, models.NotificationShown, events[0].Type)
}

func TestNotifierDefaultTTL(t *testing.T) {
	n := NewNotifier("s1", 0, nil, zap.NewNop())
	assert.Equal(t, DefaultNotificationTTL, n.ttl)
	n.Close()
}

// stalledSink blocks every publish until release is closed
type stalledSink struct {
	release chan struct{}
	recordingSink
}

func (s *stalledSink) PublishNotification(ctx context.Context, event *models.NotificationEvent) error {
	<-s.release
	return s.recordingSink.PublishNotification(ctx, event)
}

func TestNotifierSlowSinkDoesNotBlock(t *testing.T) {
	sink := &stalledSink{release: make(chan struct{})}
	n := NewNotifier("s1", time.Hour, sink, zap.NewNop())
	defer n.Close()

	done := make(chan struct{})
	go func() {
		n.Notify("first")
		n.Notify("second")
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(500 * time.Millisecond):
		t.Fatal("Notify blocked on the sink")
	}
	require.NotNil(t, n.Current())
	assert.Equal(t, "second", n.Current().Message)

	close(sink.release)
	assert.Eventually(t, func() bool { return len(sink.all()) == 2 }, time.Second, 5*time.Millisecond)
	events := sink.all()
	assert.Equal(t, "first", events[0].Message)
	assert.Equal(t, "second", events[1].Message)
}
