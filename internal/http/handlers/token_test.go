package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/fabula/internal/bridge"
	"github.com/dropDatabas3/fabula/internal/identity"
	"github.com/dropDatabas3/fabula/internal/jwt"
	"github.com/dropDatabas3/fabula/internal/provider"
	"github.com/dropDatabas3/fabula/internal/provider/vk"
)

type stubExchanger struct {
	got bridge.Request
	res *bridge.Result
	err error
}

func (s *stubExchanger) Exchange(_ context.Context, req bridge.Request) (*bridge.Result, error) {
	s.got = req
	return s.res, s.err
}

func doExchange(t *testing.T, svc Exchanger, providerName, body string) *httptest.ResponseRecorder {
	t.Helper()
	r := chi.NewRouter()
	r.Post("/v1/auth/{provider}/token", NewTokenHandler(svc).Exchange)

	req := httptest.NewRequest(http.MethodPost, "/v1/auth/"+providerName+"/token", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestExchange_OK(t *testing.T) {
	exp := time.Date(2026, 8, 29, 12, 15, 0, 0, time.UTC)
	svc := &stubExchanger{res: &bridge.Result{
		Credential: "signed.jwt.here",
		ExpiresAt:  exp,
		Profile:    bridge.Profile{LocalID: "vk:42", DisplayName: "Anna"},
	}}

	rec := doExchange(t, svc, "vk", `{"userId":"42","accessToken":"tok","email":"a@b.c"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, bridge.Request{Provider: "vk", UserID: "42", AccessToken: "tok", Email: "a@b.c"}, svc.got)

	var out bridge.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, "signed.jwt.here", out.Credential)
	assert.Equal(t, "vk:42", out.Profile.LocalID)
	assert.True(t, exp.Equal(out.ExpiresAt))
}

func TestExchange_ErrorMapping(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"invalid input", bridge.ErrInvalidInput, http.StatusBadRequest, "invalid_request"},
		{"unauthorized", bridge.ErrUnauthorized, http.StatusUnauthorized, "invalid_token"},
		{"upstream down", bridge.ErrUpstream, http.StatusInternalServerError, "provider_unavailable"},
		{"internal", bridge.ErrInternal, http.StatusInternalServerError, "internal_error"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := doExchange(t, &stubExchanger{err: tc.err}, "vk", `{"accessToken":"tok"}`)
			assert.Equal(t, tc.wantStatus, rec.Code)

			var body map[string]any
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tc.wantCode, body["error"])
		})
	}
}

// VK exige userId además del accessToken: sin él la respuesta es 400, no
// 401 — el provider nunca llegó a rechazar nada. Pasa por el bridge real
// para cubrir el mapeo completo provider → bridge → handler.
func TestExchange_VKWithoutUserIDIsBadRequest(t *testing.T) {
	reg := provider.NewRegistry()
	reg.Register(vk.New(vk.Config{}))

	ks, err := jwt.EphemeralKeystore()
	require.NoError(t, err)
	svc := bridge.NewService(reg, identity.NewResolver(nil), jwt.NewIssuer("https://fabula.test", "fabula-app", ks, time.Minute))

	rec := doExchange(t, svc, "vk", `{"accessToken":"tok123"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "invalid_request", body["error"])
}

func TestExchange_MalformedBody(t *testing.T) {
	svc := &stubExchanger{}
	rec := doExchange(t, svc, "vk", `{not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, svc.got.Provider, "service must not be called on malformed body")
}

func TestExchange_UnknownFieldRejected(t *testing.T) {
	rec := doExchange(t, &stubExchanger{}, "vk", `{"accessToken":"tok","surprise":true}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
