package core

import (
	"context"
	"time"
)

// Interfaces del documento store. Los consumidores dependen de la interfaz
// mínima que usan; los adapters implementan Repository completo.

type AccountStore interface {
	// GetAccount retorna ErrNotFound si la cuenta no existe.
	GetAccount(ctx context.Context, localID string) (*Account, error)

	// CreateAccount es create-if-absent: retorna ErrConflict si el LocalID
	// ya existe (el perdedor de una carrera de creación debe re-leer).
	CreateAccount(ctx context.Context, a *Account) error

	// TouchLastLogin actualiza solo lastLoginAt; no pisa campos sticky.
	TouchLastLogin(ctx context.Context, localID string, at time.Time) error

	// ListAccountIDs pagina por keyset: retorna hasta limit IDs > afterID,
	// en orden ascendente. Slice vacío al terminar.
	ListAccountIDs(ctx context.Context, afterID string, limit int) ([]string, error)
}

type ChildStore interface {
	ListChildren(ctx context.Context, accountID string) ([]ChildProfile, error)

	// UpsertChild crea o reemplaza un perfil (stats normalizados por el caller).
	UpsertChild(ctx context.Context, c *ChildProfile) error

	// UpdatePetStats aplica todas las actualizaciones de una cuenta como un
	// batch atómico (cada entrada es un write de documento individual).
	UpdatePetStats(ctx context.Context, accountID string, stats map[string]PetStats) error
}

type StoryStore interface {
	CreateStory(ctx context.Context, s *Story) error

	// ListStories retorna las stories de la cuenta ordenadas por
	// createdAt descendente (la más nueva primero).
	ListStories(ctx context.Context, accountID string) ([]Story, error)

	// DeleteStories borra el conjunto dado en un batch atómico.
	DeleteStories(ctx context.Context, accountID string, ids []string) error
}

type AchievementStore interface {
	CreateAchievement(ctx context.Context, a *Achievement) error
}

type NotificationStore interface {
	CreateNotification(ctx context.Context, n *Notification) error
	ListNotifications(ctx context.Context, accountID string) ([]Notification, error)
}

// Repository agrega todas las colecciones del store.
type Repository interface {
	Ping(ctx context.Context) error
	Close()

	AccountStore
	ChildStore
	StoryStore
	AchievementStore
	NotificationStore
}
