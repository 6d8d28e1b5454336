package service

import (
	"context"
	"sync"
	"sync/atomic"

	"tracer-store/internal/genai"
	"tracer-store/internal/models"
)

// stubText is a TextGenerator returning canned text or error
type stubText struct {
	text  string
	err   error
	calls atomic.Int32
	last  *genai.Request
}

func (s *stubText) GenerateText(ctx context.Context, req *genai.Request) (string, error) {
	s.calls.Add(1)
	s.last = req
	return s.text, s.err
}

// gatedWriter is a CopyWriter that blocks until released
type gatedWriter struct {
	release chan struct{}
	content models.AIGeneratedContent
	calls   atomic.Int32
}

func newGatedWriter(content models.AIGeneratedContent) *gatedWriter {
	return &gatedWriter{release: make(chan struct{}), content: content}
}

func (w *gatedWriter) Generate(ctx context.Context, name, promptContext string) models.AIGeneratedContent {
	w.calls.Add(1)
	<-w.release
	return w.content
}

// recordingPublisher captures published events
type recordingPublisher struct {
	mu     sync.Mutex
	added  []*models.ItemAddedEvent
	placed []*models.OrderPlacedEvent
	err    error
}

func (p *recordingPublisher) PublishItemAdded(ctx context.Context, event *models.ItemAddedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.added = append(p.added, event)
	return p.err
}

func (p *recordingPublisher) PublishOrderPlaced(ctx context.Context, event *models.OrderPlacedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.placed = append(p.placed, event)
	return p.err
}

func (p *recordingPublisher) orders() []*models.OrderPlacedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*models.OrderPlacedEvent(nil), p.placed...)
}

// recordingSink captures notification events
type recordingSink struct {
	mu     sync.Mutex
	events []models.NotificationEvent
}

func (s *recordingSink) PublishNotification(ctx context.Context, event *models.NotificationEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, *event)
	return nil
}

func (s *recordingSink) all() []models.NotificationEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.NotificationEvent(nil), s.events...)
}
