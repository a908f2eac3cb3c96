package communication

import (
	"context"

	"tvfleet/pkg/database"
	"tvfleet/pkg/models"
)

// PublishingRepo wraps a repository and publishes events on mutations.
// The status cache consumes the events to track inventory membership
// without restarts.
type PublishingRepo[T any] struct {
	inner   database.Repository[T]
	eventCh chan<- models.Event
}

// NewPublishingRepo creates a wrapper that publishes events on Create/Update/Delete.
func NewPublishingRepo[T any](inner database.Repository[T], eventCh chan<- models.Event) *PublishingRepo[T] {
	return &PublishingRepo[T]{inner: inner, eventCh: eventCh}
}

func (r *PublishingRepo[T]) Create(ctx context.Context, entity *T) (*T, error) {
	result, err := r.inner.Create(ctx, entity)
	if err == nil {
		r.eventCh <- models.Event{Type: models.EventCreate, Payload: result}
	}
	return result, err
}

func (r *PublishingRepo[T]) Update(ctx context.Context, id int64, entity *T) (*T, error) {
	result, err := r.inner.Update(ctx, id, entity)
	if err == nil {
		r.eventCh <- models.Event{Type: models.EventUpdate, Payload: result}
	}
	return result, err
}

func (r *PublishingRepo[T]) Delete(ctx context.Context, id int64) error {
	entity, _ := r.inner.Get(ctx, id)
	err := r.inner.Delete(ctx, id)
	if err == nil && entity != nil {
		r.eventCh <- models.Event{Type: models.EventDelete, Payload: entity}
	}
	return err
}

// Inner exposes the wrapped repository for queries the generic
// interface cannot express.
func (r *PublishingRepo[T]) Inner() database.Repository[T] {
	return r.inner
}

// List passes through to the inner repository (no event).
func (r *PublishingRepo[T]) List(ctx context.Context) ([]*T, error) {
	return r.inner.List(ctx)
}

// Get passes through to the inner repository (no event).
func (r *PublishingRepo[T]) Get(ctx context.Context, id int64) (*T, error) {
	return r.inner.Get(ctx, id)
}

// GetByField passes through to the inner repository (no event).
func (r *PublishingRepo[T]) GetByField(ctx context.Context, field string, value any) (*T, error) {
	return r.inner.GetByField(ctx, field, value)
}
