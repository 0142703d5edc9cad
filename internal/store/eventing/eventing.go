// Package eventing decora core.Repository para emitir eventos de creación
// de documentos (el equivalente de los triggers onCreate del store original).
// El evento se publica recién después del write durable, así los handlers
// reactivos siempre ven el conteo post-insert.
package eventing

import (
	"context"

	"github.com/dropDatabas3/fabula/internal/events"
	"github.com/dropDatabas3/fabula/internal/store/core"
)

type Repository struct {
	core.Repository
	bus *events.Bus
}

// Wrap decora repo para publicar en bus tras cada create relevante.
func Wrap(repo core.Repository, bus *events.Bus) *Repository {
	return &Repository{Repository: repo, bus: bus}
}

func (r *Repository) CreateStory(ctx context.Context, s *core.Story) error {
	if err := r.Repository.CreateStory(ctx, s); err != nil {
		return err
	}
	r.bus.Publish(ctx, events.Event{
		Kind:      events.KindStoryCreated,
		AccountID: s.AccountID,
		Story:     s,
	})
	return nil
}

func (r *Repository) CreateAchievement(ctx context.Context, a *core.Achievement) error {
	if err := r.Repository.CreateAchievement(ctx, a); err != nil {
		return err
	}
	r.bus.Publish(ctx, events.Event{
		Kind:        events.KindAchievementCreated,
		AccountID:   a.AccountID,
		Achievement: a,
	})
	return nil
}
