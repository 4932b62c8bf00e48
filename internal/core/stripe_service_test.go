package core

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"coachgest-backend/internal/crypto"
	"coachgest-backend/internal/events"
	"coachgest-backend/internal/models"
)

type mockExchanger struct {
	mock.Mock
}

func (m *mockExchanger) Exchange(ctx context.Context, code string) (*StripeTokens, error) {
	args := m.Called(ctx, code)
	tokens, _ := args.Get(0).(*StripeTokens)
	return tokens, args.Error(1)
}

func (m *mockExchanger) Deauthorize(ctx context.Context, clientID, accountID string) error {
	return m.Called(ctx, clientID, accountID).Error(0)
}

type stripeFixture struct {
	svc       *stripeService
	store     *memConfig
	exchanger *mockExchanger
	cipher    *crypto.Cipher
	pub       *recordingPublisher
}

func newStripeFixture(t *testing.T) *stripeFixture {
	cipher, err := crypto.NewCipher([]byte("0123456789abcdef0123456789abcdef"))
	require.NoError(t, err)
	states, _ := newTestCache(t)
	f := &stripeFixture{
		store:     &memConfig{},
		exchanger: &mockExchanger{},
		cipher:    cipher,
		pub:       &recordingPublisher{},
	}
	f.svc = NewStripeService(f.store, states, f.exchanger, cipher, f.pub, StripeServiceConfig{
		ClientOrigin: "https://app.coachgest.it/",
		StateTTL:     10 * time.Minute,
	}, zaptest.NewLogger(t)).(*stripeService)
	f.svc.now = func() time.Time { return fixedNow }
	return f
}

func (f *stripeFixture) configure(t *testing.T) {
	t.Helper()
	_, err := f.svc.SaveConfig(context.Background(), StripeSettingsInput{
		PublicKey:     "pk_test_1",
		ClientID:      "ca_123",
		Mode:          models.StripeModeTest,
		WebhookSecret: "whsec_abc",
	})
	require.NoError(t, err)
}

func stateOf(t *testing.T, raw string) string {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u.Query().Get("state")
}

func TestGetConfig_Defaults(t *testing.T) {
	f := newStripeFixture(t)

	cfg, err := f.svc.GetConfig(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.StripeModeTest, cfg.Mode)
	assert.False(t, cfg.Connected)
	assert.Empty(t, cfg.ClientID)
}

func TestSaveConfig_EncryptsWebhookSecret(t *testing.T) {
	f := newStripeFixture(t)
	f.configure(t)

	doc := f.store.storedStripe(t)
	assert.NotEqual(t, "whsec_abc", doc.WebhookSecret)
	plain, err := f.cipher.Decrypt(doc.WebhookSecret)
	require.NoError(t, err)
	assert.Equal(t, "whsec_abc", plain)

	cfg, err := f.svc.GetConfig(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "whsec_abc", cfg.WebhookSecret)
	assert.Equal(t, "ca_123", cfg.ClientID)

	_, err = f.svc.SaveConfig(context.Background(), StripeSettingsInput{Mode: "sandbox"})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestBuildAuthorizeURL(t *testing.T) {
	f := newStripeFixture(t)
	f.configure(t)
	ctx := context.Background()

	first, err := f.svc.BuildAuthorizeURL(ctx)
	require.NoError(t, err)
	second, err := f.svc.BuildAuthorizeURL(ctx)
	require.NoError(t, err)

	u, err := url.Parse(first)
	require.NoError(t, err)
	assert.Equal(t, "connect.stripe.com", u.Host)
	assert.Equal(t, "/oauth/authorize", u.Path)

	q := u.Query()
	assert.Equal(t, "ca_123", q.Get("client_id"))
	assert.Equal(t, "code", q.Get("response_type"))
	assert.Equal(t, "read_write", q.Get("scope"))
	assert.Equal(t, "https://app.coachgest.it/admin/settings/stripe/callback", q.Get("redirect_uri"))
	assert.True(t, strings.HasSuffix(q.Get("redirect_uri"), "/admin/settings/stripe/callback"))

	assert.NotEmpty(t, stateOf(t, first))
	assert.NotEqual(t, stateOf(t, first), stateOf(t, second))
}

func TestBuildAuthorizeURL_RequiresClientID(t *testing.T) {
	f := newStripeFixture(t)

	authorizeURL, err := f.svc.BuildAuthorizeURL(context.Background())
	assert.Empty(t, authorizeURL)
	assert.ErrorIs(t, err, ErrValidation)
	assert.ErrorIs(t, err, ErrStripeClientIDMissing)
	assert.Equal(t, "Inserisci prima il Client ID di Stripe", UserMessage(err))
}

func TestHandleCallback_Connects(t *testing.T) {
	f := newStripeFixture(t)
	f.configure(t)
	ctx := context.Background()

	authorizeURL, err := f.svc.BuildAuthorizeURL(ctx)
	require.NoError(t, err)
	state := stateOf(t, authorizeURL)

	f.exchanger.On("Exchange", mock.Anything, "ac_code").
		Return(&StripeTokens{AccountID: "acct_42", AccessToken: "sk_access", RefreshToken: "rt_refresh"}, nil).Once()

	cfg, err := f.svc.HandleCallback(ctx, "ac_code", state)
	require.NoError(t, err)
	assert.True(t, cfg.Connected)
	assert.Equal(t, "acct_42", cfg.AccountID)
	assert.Empty(t, cfg.AccessToken)
	require.NotNil(t, cfg.ConnectedAt)

	doc := f.store.storedStripe(t)
	assert.True(t, doc.Connected)
	assert.NotEqual(t, "sk_access", doc.AccessToken)
	access, err := f.cipher.Decrypt(doc.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "sk_access", access)

	published := f.pub.published()
	require.Len(t, published, 1)
	assert.Equal(t, events.StripeConnected{AccountID: "acct_42", Mode: models.StripeModeTest}, published[0])

	// The state is single use.
	_, err = f.svc.HandleCallback(ctx, "ac_code", state)
	assert.ErrorIs(t, err, ErrStripeStateInvalid)
	f.exchanger.AssertExpectations(t)
}

func TestHandleCallback_Rejections(t *testing.T) {
	f := newStripeFixture(t)
	f.configure(t)
	ctx := context.Background()

	_, err := f.svc.HandleCallback(ctx, "", "whatever")
	assert.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, "Codice di autorizzazione mancante", UserMessage(err))

	_, err = f.svc.HandleCallback(ctx, "ac_code", "")
	assert.ErrorIs(t, err, ErrStripeStateInvalid)

	_, err = f.svc.HandleCallback(ctx, "ac_code", "forged-state")
	assert.ErrorIs(t, err, ErrStripeStateInvalid)

	f.exchanger.AssertNotCalled(t, "Exchange", mock.Anything, mock.Anything)
	cfg, err := f.svc.GetConfig(ctx)
	require.NoError(t, err)
	assert.False(t, cfg.Connected)
}

func TestHandleCallback_ExchangeFailure(t *testing.T) {
	f := newStripeFixture(t)
	f.configure(t)
	ctx := context.Background()

	for _, tc := range []struct {
		name string
		err  error
		kind error
	}{
		{"rejected", errors.New("invalid_grant"), ErrUpstreamFailure},
		{"breaker open", ErrUpstreamUnavailable, ErrUpstreamUnavailable},
	} {
		t.Run(tc.name, func(t *testing.T) {
			authorizeURL, err := f.svc.BuildAuthorizeURL(ctx)
			require.NoError(t, err)
			f.exchanger.On("Exchange", mock.Anything, "bad_code").Return(nil, tc.err).Once()

			_, err = f.svc.HandleCallback(ctx, "bad_code", stateOf(t, authorizeURL))
			assert.ErrorIs(t, err, tc.kind)
			assert.Equal(t, "Errore durante la connessione con Stripe", UserMessage(err))
		})
	}
	assert.False(t, f.store.storedStripe(t).Connected)
}

func TestDisconnect(t *testing.T) {
	f := newStripeFixture(t)
	f.configure(t)
	ctx := context.Background()

	authorizeURL, err := f.svc.BuildAuthorizeURL(ctx)
	require.NoError(t, err)
	f.exchanger.On("Exchange", mock.Anything, "ac_code").
		Return(&StripeTokens{AccountID: "acct_42", AccessToken: "sk_access"}, nil).Once()
	_, err = f.svc.HandleCallback(ctx, "ac_code", stateOf(t, authorizeURL))
	require.NoError(t, err)

	f.exchanger.On("Deauthorize", mock.Anything, "ca_123", "acct_42").Return(errors.New("already revoked")).Once()
	cfg, err := f.svc.Disconnect(ctx)
	require.NoError(t, err)
	assert.False(t, cfg.Connected)
	assert.Empty(t, cfg.AccountID)

	doc := f.store.storedStripe(t)
	assert.Empty(t, doc.AccessToken)
	assert.Empty(t, doc.RefreshToken)
	assert.Nil(t, doc.ConnectedAt)
	assert.Equal(t, "ca_123", doc.ClientID)

	// Disconnecting twice is a no-op.
	_, err = f.svc.Disconnect(ctx)
	require.NoError(t, err)
	f.exchanger.AssertExpectations(t)
}

func TestWebhookURL(t *testing.T) {
	f := newStripeFixture(t)
	assert.Equal(t, "https://app.coachgest.it/api/webhooks/stripe", f.svc.WebhookURL())
}
