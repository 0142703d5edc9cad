// Package retention mantiene acotado el historial de stories por cuenta.
// Corre como handler reactivo de story.created: tras cada insert se relee la
// colección y se borra todo lo que exceda el cap, empezando por lo más viejo.
package retention

import (
	"context"
	"fmt"

	"github.com/dropDatabas3/fabula/internal/events"
	"github.com/dropDatabas3/fabula/internal/metrics"
	"github.com/dropDatabas3/fabula/internal/observability/logger"
	"github.com/dropDatabas3/fabula/internal/store/core"
)

// DefaultMaxStories es el cap de historial por cuenta.
const DefaultMaxStories = 100

// Store es lo que el pruner necesita del repositorio.
type Store interface {
	ListStories(ctx context.Context, accountID string) ([]core.Story, error)
	DeleteStories(ctx context.Context, accountID string, ids []string) error
}

type Pruner struct {
	store      Store
	maxStories int
}

func New(store Store, maxStories int) *Pruner {
	if maxStories <= 0 {
		maxStories = DefaultMaxStories
	}
	return &Pruner{store: store, maxStories: maxStories}
}

// MaxStories expone el cap efectivo.
func (p *Pruner) MaxStories() int { return p.maxStories }

// HandleStoryCreated es el handler de bus para story.created.
func (p *Pruner) HandleStoryCreated(ctx context.Context, evt events.Event) error {
	return p.Prune(ctx, evt.AccountID)
}

// Prune borra las stories que exceden el cap para una cuenta. El conteo se
// evalúa post-insert: con cap N y N+k stories, se borran las k más viejas.
// Idempotente: sin exceso no borra nada.
func (p *Pruner) Prune(ctx context.Context, accountID string) error {
	stories, err := p.store.ListStories(ctx, accountID) // más nueva primero
	if err != nil {
		return fmt.Errorf("retention: list stories: %w", err)
	}
	if len(stories) <= p.maxStories {
		return nil
	}

	excess := stories[p.maxStories:]
	ids := make([]string, len(excess))
	for i, s := range excess {
		ids[i] = s.ID
	}

	if err := p.store.DeleteStories(ctx, accountID, ids); err != nil {
		return fmt.Errorf("retention: delete %d stories: %w", len(ids), err)
	}

	metrics.StoriesPruned.Add(float64(len(ids)))
	logger.From(ctx).Info("stories pruned",
		logger.Job("retention"),
		logger.AccountID(accountID),
		logger.Count(len(ids)),
	)
	return nil
}
