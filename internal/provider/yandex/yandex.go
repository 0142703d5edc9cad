// Package yandex verifica access tokens OAuth de Yandex contra login.yandex.ru.
//
// A diferencia de VK, Yandex sí tiene endpoint de info del dueño del token:
// el UserID sale de la respuesta, no del request. Un 401 es rechazo; todo lo
// demás que no sea 200 es indisponibilidad.
package yandex

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dropDatabas3/fabula/internal/provider"
)

const (
	defaultInfoURL    = "https://login.yandex.ru/info"
	defaultAvatarBase = "https://avatars.yandex.net/get-yapic"
)

type Config struct {
	// InfoURL permite apuntar a un mock en tests. Vacío = producción.
	InfoURL    string
	AvatarBase string
	Timeout    time.Duration
}

type Provider struct {
	infoURL    string
	avatarBase string
	http       *http.Client
}

var _ provider.Provider = (*Provider)(nil)

func New(cfg Config) *Provider {
	infoURL := cfg.InfoURL
	if infoURL == "" {
		infoURL = defaultInfoURL
	}
	avatarBase := cfg.AvatarBase
	if avatarBase == "" {
		avatarBase = defaultAvatarBase
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Provider{
		infoURL:    infoURL,
		avatarBase: strings.TrimRight(avatarBase, "/"),
		http:       &http.Client{Timeout: timeout},
	}
}

func (p *Provider) Name() string { return "yandex" }

type infoResponse struct {
	ID              string `json:"id"`
	Login           string `json:"login"`
	DefaultEmail    string `json:"default_email"`
	RealName        string `json:"real_name"`
	DisplayName     string `json:"display_name"`
	DefaultAvatarID string `json:"default_avatar_id"`
	IsAvatarEmpty   bool   `json:"is_avatar_empty"`
}

func (p *Provider) Verify(ctx context.Context, creds provider.Credentials) (*provider.VerifiedProfile, error) {
	if creds.AccessToken == "" {
		return nil, fmt.Errorf("yandex: accessToken is required: %w", provider.ErrMissingCredentials)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.infoURL, nil)
	if err != nil {
		return nil, fmt.Errorf("yandex: build request: %w", provider.ErrUnavailable)
	}
	// Yandex usa el scheme "OAuth", no "Bearer".
	req.Header.Set("Authorization", "OAuth "+creds.AccessToken)

	resp, err := p.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("yandex: info: %v: %w", err, provider.ErrUnavailable)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, fmt.Errorf("yandex: token rejected: %w", provider.ErrInvalidToken)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("yandex: info status %d: %w", resp.StatusCode, provider.ErrUnavailable)
	}

	var body infoResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("yandex: decode response: %v: %w", err, provider.ErrUnavailable)
	}
	if body.ID == "" {
		return nil, fmt.Errorf("yandex: info without user id: %w", provider.ErrInvalidToken)
	}

	// Si el cliente declaró un UserID, tiene que coincidir con el dueño
	// real del token.
	if creds.UserID != "" && creds.UserID != body.ID {
		return nil, fmt.Errorf("yandex: token resolves to different user: %w", provider.ErrInvalidToken)
	}

	name := body.RealName
	if name == "" {
		name = body.DisplayName
	}

	avatar := ""
	if body.DefaultAvatarID != "" && !body.IsAvatarEmpty {
		avatar = fmt.Sprintf("%s/%s/islands-200", p.avatarBase, body.DefaultAvatarID)
	}

	return &provider.VerifiedProfile{
		UserID:    body.ID,
		Name:      name,
		Email:     body.DefaultEmail,
		AvatarURL: avatar,
	}, nil
}

func (p *Provider) DefaultEmail(providerUserID string) string {
	return providerUserID + "@yandex.local"
}

func (p *Provider) DefaultDisplayName(vp *provider.VerifiedProfile) string {
	if vp != nil && vp.Name != "" {
		return vp.Name
	}
	return "Yandex User"
}

func (p *Provider) DefaultAvatar(vp *provider.VerifiedProfile) string {
	if vp != nil {
		return vp.AvatarURL
	}
	return ""
}
