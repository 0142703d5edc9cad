// Package vk verifica access tokens de VK contra el método users.get.
//
// VK no expone un endpoint de introspección dedicado: un token es válido si
// users.get responde con el perfil del usuario consultado. El error_code 5
// ("User authorization failed") es el rechazo canónico del token.
package vk

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/dropDatabas3/fabula/internal/observability/logger"
	"github.com/dropDatabas3/fabula/internal/provider"
)

const (
	defaultAPIBase    = "https://api.vk.com"
	defaultAPIVersion = "5.131"

	// error_code de VK para token inválido/expirado.
	codeAuthFailed = 5
)

type Config struct {
	// APIBase permite apuntar a un mock en tests. Vacío = producción.
	APIBase    string
	APIVersion string
	Timeout    time.Duration
}

type Provider struct {
	apiBase    string
	apiVersion string
	http       *http.Client
}

var _ provider.Provider = (*Provider)(nil)

func New(cfg Config) *Provider {
	base := cfg.APIBase
	if base == "" {
		base = defaultAPIBase
	}
	ver := cfg.APIVersion
	if ver == "" {
		ver = defaultAPIVersion
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Provider{
		apiBase:    strings.TrimRight(base, "/"),
		apiVersion: ver,
		http:       &http.Client{Timeout: timeout},
	}
}

func (p *Provider) Name() string { return "vk" }

type usersGetResponse struct {
	Response []vkUser `json:"response"`
	Error    *vkError `json:"error"`
}

type vkUser struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Photo200  string `json:"photo_200"`
}

type vkError struct {
	Code    int    `json:"error_code"`
	Message string `json:"error_msg"`
}

// Verify consulta users.get por el UserID declarado. El token tiene que
// poder resolver exactamente ese usuario; cualquier otra cosa es rechazo.
func (p *Provider) Verify(ctx context.Context, creds provider.Credentials) (*provider.VerifiedProfile, error) {
	if creds.UserID == "" || creds.AccessToken == "" {
		return nil, fmt.Errorf("vk: userId and accessToken are required: %w", provider.ErrMissingCredentials)
	}

	q := url.Values{}
	q.Set("user_ids", creds.UserID)
	q.Set("fields", "photo_200,first_name,last_name")
	q.Set("access_token", creds.AccessToken)
	q.Set("v", p.apiVersion)

	endpoint := p.apiBase + "/method/users.get?" + q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("vk: build request: %w", provider.ErrUnavailable)
	}

	resp, err := p.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("vk: users.get: %v: %w", err, provider.ErrUnavailable)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("vk: users.get status %d: %w", resp.StatusCode, provider.ErrUnavailable)
	}

	var body usersGetResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("vk: decode response: %v: %w", err, provider.ErrUnavailable)
	}

	if body.Error != nil {
		logger.From(ctx).Debug("vk api error",
			logger.Int("code", body.Error.Code),
			logger.String("msg", body.Error.Message),
		)
		if body.Error.Code == codeAuthFailed {
			return nil, fmt.Errorf("vk: %s: %w", body.Error.Message, provider.ErrInvalidToken)
		}
		return nil, fmt.Errorf("vk: api error %d: %w", body.Error.Code, provider.ErrUnavailable)
	}

	if len(body.Response) == 0 {
		return nil, fmt.Errorf("vk: empty users.get response: %w", provider.ErrInvalidToken)
	}
	u := body.Response[0]

	// El token puede ser válido pero de OTRO usuario: eso también es rechazo.
	if strconv.FormatInt(u.ID, 10) != creds.UserID {
		return nil, fmt.Errorf("vk: token resolves to different user: %w", provider.ErrInvalidToken)
	}

	return &provider.VerifiedProfile{
		UserID:    creds.UserID,
		Name:      strings.TrimSpace(u.FirstName + " " + u.LastName),
		AvatarURL: u.Photo200,
	}, nil
}

// VK no entrega email por users.get; se sintetiza uno estable por usuario.
func (p *Provider) DefaultEmail(providerUserID string) string {
	return providerUserID + "@vk.local"
}

func (p *Provider) DefaultDisplayName(vp *provider.VerifiedProfile) string {
	if vp != nil && vp.Name != "" {
		return vp.Name
	}
	return "VK User"
}

func (p *Provider) DefaultAvatar(vp *provider.VerifiedProfile) string {
	if vp != nil {
		return vp.AvatarURL
	}
	return ""
}
