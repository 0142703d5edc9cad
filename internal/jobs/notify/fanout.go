// Package notify materializa notificaciones in-app a partir de achievements
// desbloqueados. Corre como handler reactivo de achievement.created.
package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dropDatabas3/fabula/internal/events"
	"github.com/dropDatabas3/fabula/internal/metrics"
	"github.com/dropDatabas3/fabula/internal/observability/logger"
	"github.com/dropDatabas3/fabula/internal/store/core"
)

// Strings de producto (el cliente es ruso).
const (
	notificationType  = "achievement"
	notificationTitle = "Новое достижение!"
	messageFormat     = "Поздравляем! Вы разблокировали достижение \"%s\""
)

// Store es lo que el fan-out necesita del repositorio.
type Store interface {
	CreateNotification(ctx context.Context, n *core.Notification) error
}

type Fanout struct {
	store Store
	now   func() time.Time
	newID func() string
}

func New(store Store) *Fanout {
	return &Fanout{
		store: store,
		now:   time.Now,
		newID: func() string { return uuid.NewString() },
	}
}

// HandleAchievementCreated es el handler de bus para achievement.created.
// Solo los achievements desbloqueados generan notificación: los creados con
// unlocked=false (pre-registro de logros futuros) se ignoran en silencio.
func (f *Fanout) HandleAchievementCreated(ctx context.Context, evt events.Event) error {
	a := evt.Achievement
	if a == nil {
		return fmt.Errorf("notify: achievement event without payload")
	}
	if !a.Unlocked {
		return nil
	}

	n := &core.Notification{
		AccountID: a.AccountID,
		ID:        f.newID(),
		Type:      notificationType,
		Title:     notificationTitle,
		Message:   fmt.Sprintf(messageFormat, a.Title),
		IsRead:    false,
		CreatedAt: f.now().UTC(),
	}

	if err := f.store.CreateNotification(ctx, n); err != nil {
		return fmt.Errorf("notify: create notification: %w", err)
	}

	metrics.NotificationsCreated.Inc()
	logger.From(ctx).Info("notification created",
		logger.Job("notify"),
		logger.AccountID(a.AccountID),
		logger.AchievementID(a.ID),
	)
	return nil
}
