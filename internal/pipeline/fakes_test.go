package pipeline

import (
	"context"
	"fmt"
	"sync"

	"github.com/aa-dank/review-sender/internal/events"
	"github.com/aa-dank/review-sender/internal/mail"
)

// fakeBlobs backs the renderer and attachment resolver in tests.
type fakeBlobs struct {
	mu      sync.Mutex
	blobs   map[string][]byte
	trashed []string
}

func newFakeBlobs() *fakeBlobs {
	return &fakeBlobs{blobs: make(map[string][]byte)}
}

func (f *fakeBlobs) Content(_ context.Context, ref string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.blobs[ref]
	if !ok {
		return nil, fmt.Errorf("blob %s not found", ref)
	}
	return data, nil
}

func (f *fakeBlobs) Size(_ context.Context, ref string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.blobs[ref]
	if !ok {
		return 0, fmt.Errorf("blob %s not found", ref)
	}
	return int64(len(data)), nil
}

func (f *fakeBlobs) Trash(_ context.Context, ref string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.blobs, ref)
	f.trashed = append(f.trashed, ref)
	return nil
}

// fakeTransport records sent messages and can be forced to fail.
type fakeTransport struct {
	mu       sync.Mutex
	sent     []*mail.Message
	sendErr  error
	failOnce bool
}

func (f *fakeTransport) Send(_ context.Context, msg *mail.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		err := f.sendErr
		if f.failOnce {
			f.sendErr = nil
		}
		return err
	}
	f.sent = append(f.sent, msg)
	return nil
}

func (f *fakeTransport) sentMessages() []*mail.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*mail.Message(nil), f.sent...)
}

// fakePublisher collects published distribution results.
type fakePublisher struct {
	mu      sync.Mutex
	results []*events.DistributionResult
}

func (f *fakePublisher) Publish(_ context.Context, result *events.DistributionResult) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.results = append(f.results, result)
	return nil
}

func (f *fakePublisher) published() []*events.DistributionResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*events.DistributionResult(nil), f.results...)
}
