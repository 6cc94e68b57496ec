package flowkey

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/layer-3/flowkey/adapters/events"
	"github.com/layer-3/flowkey/adapters/store"
	"github.com/layer-3/flowkey/adapters/tokenizer"
	"github.com/layer-3/flowkey/adapters/verifier"
	"github.com/layer-3/flowkey/core"
	"github.com/layer-3/flowkey/metrics"
	"github.com/layer-3/flowkey/service"
	transport "github.com/layer-3/flowkey/transport/http"
)

func newServer(t *testing.T) *httptest.Server {
	t.Helper()

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	authService := service.NewAuthService(
		store.NewMemoryNonceStore(5*time.Minute),
		verifier.NewMulti(verifier.NewEd25519Verifier(), verifier.NewEVMVerifier()),
		tokenizer.NewJWTTokenizer([]byte("client-test-secret")),
		store.NewMemoryStore(),
		events.NopPublisher{},
		m,
	)

	router := transport.SetupRouter(authService, service.NewProfileService(zap.NewNop()), transport.RouterOptions{
		BasePath: "/api",
		Metrics:  m,
		Gatherer: reg,
		Logger:   zap.NewNop(),
	})

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

func TestClient_LoginFlow(t *testing.T) {
	srv := newServer(t)
	ctx := context.Background()

	for _, scheme := range []string{verifier.SchemeSolana, verifier.SchemeEVM} {
		t.Run(scheme, func(t *testing.T) {
			signer, err := GenerateSigner(scheme)
			require.NoError(t, err)

			c := NewClient(srv.URL+"/api", signer)

			token, err := c.Login(ctx)
			require.NoError(t, err)
			assert.Equal(t, token, c.Token())

			profile, err := c.Me(ctx)
			require.NoError(t, err)
			assert.Equal(t, signer.Address(), profile.PublicAddress)
			assert.Equal(t, core.ShortAddress(signer.Address()), profile.Username)
			assert.False(t, profile.Config.Gating.Enabled)

			require.NoError(t, c.SaveLayouts(ctx, []json.RawMessage{json.RawMessage(`{"id":"main"}`)}))

			require.NoError(t, c.Logout(ctx))
			assert.Empty(t, c.Token())

			// The old token is revoked server side
			stale := NewClient(srv.URL+"/api", signer, WithToken(token))
			_, err = stale.Me(ctx)
			require.Error(t, err)
			assert.ErrorIs(t, err, core.ErrTokenRevoked)

			var apiErr *APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
		})
	}
}

func TestClient_Access(t *testing.T) {
	srv := newServer(t)

	decision, err := NewClient(srv.URL+"/api", nil).Access(context.Background())
	require.NoError(t, err)
	assert.True(t, decision.Access)
	assert.Nil(t, decision.Reason)
}

func TestClient_NotLoggedIn(t *testing.T) {
	srv := newServer(t)
	signer, err := GenerateEd25519Signer()
	require.NoError(t, err)

	c := NewClient(srv.URL+"/api", signer)

	_, err = c.Me(context.Background())
	assert.ErrorIs(t, err, ErrNotLoggedIn)
	assert.ErrorIs(t, c.Logout(context.Background()), ErrNotLoggedIn)
}

type badSigner struct {
	Signer
}

func (badSigner) SignMessage(string) (string, error) {
	return "1111111111111111111111111111111111111111111111111111111111111111", nil
}

func TestClient_LoginRejected(t *testing.T) {
	srv := newServer(t)
	signer, err := GenerateEd25519Signer()
	require.NoError(t, err)

	c := NewClient(srv.URL+"/api", badSigner{signer})

	_, err = c.Login(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrInvalidSignature)
	assert.Empty(t, c.Token())
}

type fixedAddress string

func (a fixedAddress) Address() string                  { return string(a) }
func (fixedAddress) SignMessage(string) (string, error) { return "", nil }

func TestClient_ChallengeInvalidAddress(t *testing.T) {
	srv := newServer(t)

	_, err := NewClient(srv.URL+"/api", fixedAddress("not-a-wallet")).Challenge(context.Background())
	assert.ErrorIs(t, err, core.ErrInvalidAddress)
}

func TestClient_UnexpectedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer srv.Close()

	signer, err := GenerateEd25519Signer()
	require.NoError(t, err)

	_, err = NewClient(srv.URL, signer).Challenge(context.Background())
	assert.ErrorIs(t, err, ErrUnexpectedResponse)
}

func TestClient_ErrorWithoutBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, nil).Access(context.Background())

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
	assert.Equal(t, "Bad Gateway", apiErr.Message)
	assert.Nil(t, apiErr.Unwrap())
}
