package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/dropDatabas3/fabula/internal/http/helpers"
	"github.com/dropDatabas3/fabula/internal/store/core"
)

// ContentStore es el subset del repositorio que usa la API de contenido.
type ContentStore interface {
	core.ChildStore
	core.StoryStore
	core.AchievementStore
	core.NotificationStore
}

// ContentHandler sirve stories, achievements, notificaciones y perfiles.
// Los creates pasan por el repositorio decorado con eventos: el pruning de
// retención y el fan-out de notificaciones salen de ahí, no de acá.
type ContentHandler struct {
	store ContentStore
	now   func() time.Time
}

func NewContentHandler(store ContentStore) *ContentHandler {
	return &ContentHandler{store: store, now: time.Now}
}

// ───── Stories ─────

type storyRequest struct {
	ID      string `json:"id,omitempty"`
	Content string `json:"content"`
}

type storyResponse struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

func (h *ContentHandler) CreateStory(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "accountID")

	var in storyRequest
	if err := helpers.ReadJSON(w, r, &in); err != nil {
		helpers.WriteError(w, r, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if in.Content == "" {
		helpers.WriteError(w, r, http.StatusBadRequest, "invalid_request", "content is required")
		return
	}
	if in.ID == "" {
		in.ID = uuid.NewString()
	}

	s := &core.Story{
		AccountID: accountID,
		ID:        in.ID,
		Content:   in.Content,
		CreatedAt: h.now().UTC(),
	}
	if err := h.store.CreateStory(r.Context(), s); err != nil {
		if errors.Is(err, core.ErrConflict) {
			helpers.WriteError(w, r, http.StatusConflict, "already_exists", "story id already exists")
			return
		}
		helpers.WriteError(w, r, http.StatusInternalServerError, "internal_error", "could not store story")
		return
	}
	helpers.WriteJSON(w, http.StatusCreated, storyResponse{ID: s.ID, Content: s.Content, CreatedAt: s.CreatedAt})
}

func (h *ContentHandler) ListStories(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "accountID")

	stories, err := h.store.ListStories(r.Context(), accountID)
	if err != nil {
		helpers.WriteError(w, r, http.StatusInternalServerError, "internal_error", "could not list stories")
		return
	}
	out := make([]storyResponse, 0, len(stories))
	for _, s := range stories {
		out = append(out, storyResponse{ID: s.ID, Content: s.Content, CreatedAt: s.CreatedAt})
	}
	helpers.WriteJSON(w, http.StatusOK, map[string]any{"stories": out})
}

// ───── Achievements ─────

type achievementRequest struct {
	ID       string `json:"id,omitempty"`
	Title    string `json:"title"`
	Unlocked bool   `json:"unlocked"`
}

func (h *ContentHandler) CreateAchievement(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "accountID")

	var in achievementRequest
	if err := helpers.ReadJSON(w, r, &in); err != nil {
		helpers.WriteError(w, r, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if in.Title == "" {
		helpers.WriteError(w, r, http.StatusBadRequest, "invalid_request", "title is required")
		return
	}
	if in.ID == "" {
		in.ID = uuid.NewString()
	}

	a := &core.Achievement{
		AccountID: accountID,
		ID:        in.ID,
		Title:     in.Title,
		Unlocked:  in.Unlocked,
		CreatedAt: h.now().UTC(),
	}
	if err := h.store.CreateAchievement(r.Context(), a); err != nil {
		if errors.Is(err, core.ErrConflict) {
			helpers.WriteError(w, r, http.StatusConflict, "already_exists", "achievement id already exists")
			return
		}
		helpers.WriteError(w, r, http.StatusInternalServerError, "internal_error", "could not store achievement")
		return
	}
	helpers.WriteJSON(w, http.StatusCreated, map[string]any{
		"id":        a.ID,
		"title":     a.Title,
		"unlocked":  a.Unlocked,
		"createdAt": a.CreatedAt,
	})
}

// ───── Notifications ─────

type notificationResponse struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	IsRead    bool      `json:"isRead"`
	CreatedAt time.Time `json:"createdAt"`
}

func (h *ContentHandler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "accountID")

	ns, err := h.store.ListNotifications(r.Context(), accountID)
	if err != nil {
		helpers.WriteError(w, r, http.StatusInternalServerError, "internal_error", "could not list notifications")
		return
	}
	out := make([]notificationResponse, 0, len(ns))
	for _, n := range ns {
		out = append(out, notificationResponse{
			ID:        n.ID,
			Type:      n.Type,
			Title:     n.Title,
			Message:   n.Message,
			IsRead:    n.IsRead,
			CreatedAt: n.CreatedAt,
		})
	}
	helpers.WriteJSON(w, http.StatusOK, map[string]any{"notifications": out})
}

// ───── Children ─────

type childRequest struct {
	PetStats *core.PetStats `json:"petStats,omitempty"`
}

type childResponse struct {
	ChildID  string        `json:"childId"`
	PetStats core.PetStats `json:"petStats"`
}

// UpsertChild crea o reemplaza un perfil infantil. Sin stats en el body se
// arranca con los defaults (50/50/50); stats fuera de rango se normalizan.
func (h *ContentHandler) UpsertChild(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "accountID")
	childID := chi.URLParam(r, "childID")

	var in childRequest
	if err := helpers.ReadJSON(w, r, &in); err != nil {
		helpers.WriteError(w, r, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	stats := core.DefaultPetStats()
	if in.PetStats != nil {
		stats = in.PetStats.Normalize()
	}

	c := &core.ChildProfile{AccountID: accountID, ChildID: childID, PetStats: stats}
	if err := h.store.UpsertChild(r.Context(), c); err != nil {
		helpers.WriteError(w, r, http.StatusInternalServerError, "internal_error", "could not store child profile")
		return
	}
	helpers.WriteJSON(w, http.StatusOK, childResponse{ChildID: c.ChildID, PetStats: c.PetStats})
}

func (h *ContentHandler) ListChildren(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "accountID")

	children, err := h.store.ListChildren(r.Context(), accountID)
	if err != nil {
		helpers.WriteError(w, r, http.StatusInternalServerError, "internal_error", "could not list children")
		return
	}
	out := make([]childResponse, 0, len(children))
	for _, c := range children {
		out = append(out, childResponse{ChildID: c.ChildID, PetStats: c.PetStats})
	}
	helpers.WriteJSON(w, http.StatusOK, map[string]any{"children": out})
}
