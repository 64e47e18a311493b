// Package queue runs jobs out of band from the request that triggers them.
//
// Producers build a Descriptor naming a registered job and hand it to a
// Dispatcher. Workers pull descriptors, rebuild the job through a Registry
// and run it, retrying with backoff and dead-lettering what keeps failing.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/google/uuid"
)

var (
	// ErrUnknownJob is returned when a descriptor names no registered job.
	ErrUnknownJob = errors.New("queue: unknown job")
	// ErrEmpty is returned by Dequeue when nothing arrived before the timeout.
	ErrEmpty = errors.New("queue: empty")
	// ErrMalformed is returned by Dequeue for an entry that is not a descriptor.
	// The entry has already been dead-lettered.
	ErrMalformed = errors.New("queue: malformed descriptor")
)

// Job is a unit of work that can be run by a worker.
type Job interface {
	Run(ctx context.Context) error
}

// Permanent marks err as not worth retrying. Workers dead-letter the job
// after the attempt that returned it.
func Permanent(err error) error {
	return retry.Unrecoverable(err)
}

// Descriptor is the serialized form of a queued job.
type Descriptor struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Payload    json.RawMessage `json:"payload"`
	Attempts   uint            `json:"attempts"`
	EnqueuedAt time.Time       `json:"enqueuedAt"`
	LastError  string          `json:"lastError,omitempty"`
}

// NewDescriptor builds a descriptor for job name with payload encoded as JSON.
func NewDescriptor(name string, payload any) (Descriptor, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Descriptor{}, fmt.Errorf("queue: encode payload for %s: %w", name, err)
	}
	return Descriptor{
		ID:         uuid.NewString(),
		Name:       name,
		Payload:    raw,
		EnqueuedAt: time.Now().UTC(),
	}, nil
}

// Dispatcher accepts jobs for later execution.
type Dispatcher interface {
	Enqueue(ctx context.Context, d Descriptor) error
}

// Factory rebuilds a job from its payload.
type Factory func(payload json.RawMessage) (Job, error)

// Registry maps job names to factories.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry creates an empty Registry
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds a factory. Registering a name twice panics.
func (r *Registry) Register(name string, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.factories[name]; exists {
		panic("queue: job registered twice: " + name)
	}
	r.factories[name] = factory
}

// Build rebuilds the job a descriptor refers to.
func (r *Registry) Build(d Descriptor) (Job, error) {
	r.mu.RLock()
	factory, ok := r.factories[d.Name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownJob, d.Name)
	}

	job, err := factory(d.Payload)
	if err != nil {
		return nil, fmt.Errorf("queue: decode %s: %w", d.Name, err)
	}
	return job, nil
}
