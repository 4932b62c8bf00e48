package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"coachgest-backend/internal/access"
	"coachgest-backend/internal/core"
	"coachgest-backend/internal/middleware"
	"coachgest-backend/internal/models"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testServer struct {
	router   *gin.Engine
	auth     *mockAuthService
	coaches  *mockCoachService
	subs     *mockSubscriptionService
	catalog  *mockCatalogService
	team     *mockTeamService
	profiles *mockProfileService
	stripe   *mockStripeService
}

type fakePinger struct{ err error }

func (p fakePinger) Ping(context.Context) error { return p.err }

var (
	adminUser    = &models.User{ID: "admin-1", Email: "admin@coachgest.it", Role: models.RoleSuperAdmin}
	coachUser    = &models.User{ID: "coach-1", Email: "coach@coachgest.it", Nome: "Mario", Cognome: "Rossi", Role: models.RoleCoach}
	subcoachUser = &models.User{ID: "sub-1", Email: "sub@coachgest.it", Role: models.RoleSubcoach, CoachID: "coach-1"}
	coacheeUser  = &models.User{ID: "cee-1", Email: "cee@coachgest.it", Role: models.RoleCoachee, CoachID: "coach-1"}
)

func newTestServer(t *testing.T, health Pinger) *testServer {
	t.Helper()
	logger := zaptest.NewLogger(t)
	nav, err := access.DefaultNavigation()
	require.NoError(t, err)

	ts := &testServer{
		auth:     &mockAuthService{},
		coaches:  &mockCoachService{},
		subs:     &mockSubscriptionService{},
		catalog:  &mockCatalogService{},
		team:     &mockTeamService{},
		profiles: &mockProfileService{},
		stripe:   &mockStripeService{},
	}
	sessions := stubSessions{
		"admin-token":    adminUser,
		"coach-token":    coachUser,
		"subcoach-token": subcoachUser,
		"coachee-token":  coacheeUser,
	}

	ts.router = gin.New()
	SetupRoutes(ts.router, Handlers{
		Auth:       NewAuthHandler(ts.auth, nav, logger),
		Navigation: NewNavigationHandler(nav),
		Admin:      NewAdminHandler(ts.coaches, ts.subs, ts.catalog, logger),
		Stripe:     NewStripeHandler(ts.stripe, logger),
		Coach:      NewCoachHandler(ts.team, ts.subs, logger),
		Profile:    NewProfileHandler(ts.profiles, logger),
		Member:     NewMemberHandler(ts.team, logger),
	}, middleware.NewAuthMiddleware(sessions, logger), health, logger)
	return ts
}

func (ts *testServer) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), dst))
}

func TestRoleGating(t *testing.T) {
	ts := newTestServer(t, nil)
	ts.coaches.On("AdminDashboard", mock.Anything).Return(&core.AdminStats{TotalCoaches: 2}, nil)
	ts.team.On("CoachDashboard", mock.Anything, "coach-1").Return(&core.CoachStats{TotalCoachees: 1}, nil)

	tests := []struct {
		name       string
		path       string
		token      string
		wantStatus int
	}{
		{"anonymous admin", "/api/v1/admin/dashboard", "", http.StatusUnauthorized},
		{"bad token", "/api/v1/admin/dashboard", "nope", http.StatusUnauthorized},
		{"coach on admin", "/api/v1/admin/dashboard", "coach-token", http.StatusForbidden},
		{"admin on admin", "/api/v1/admin/dashboard", "admin-token", http.StatusOK},
		{"admin on coach", "/api/v1/coach/dashboard", "admin-token", http.StatusForbidden},
		{"coach on coach", "/api/v1/coach/dashboard", "coach-token", http.StatusOK},
		{"coachee on subcoach", "/api/v1/subcoach/dashboard", "coachee-token", http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := ts.do(http.MethodGet, tt.path, tt.token, nil)
			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}
}

func TestForbiddenReportsRoleHome(t *testing.T) {
	ts := newTestServer(t, nil)
	w := ts.do(http.MethodGet, "/api/v1/admin/coaches", "coach-token", nil)
	require.Equal(t, http.StatusForbidden, w.Code)

	var resp ErrorResponse
	decode(t, w, &resp)
	assert.Equal(t, "/coach", resp.Details)
}

func TestRegister(t *testing.T) {
	ts := newTestServer(t, nil)
	in := core.RegisterInput{
		Email: "new@coachgest.it", Password: "segreto1", ConfirmPassword: "segreto1", Nome: "Anna", Cognome: "Bianchi",
	}
	ts.auth.On("Register", mock.Anything, in).Return(&core.Registration{
		User:         &models.User{ID: "uid-1", Email: in.Email, Role: models.RoleCoach},
		Subscription: &models.Subscription{ID: "uid-1", Plan: models.TierTrial},
	}, nil)

	w := ts.do(http.MethodPost, "/api/v1/auth/register", "", RegisterRequest{
		Email: in.Email, Password: in.Password, ConfirmPassword: in.ConfirmPassword, Nome: in.Nome, Cognome: in.Cognome,
	})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), `"plan":"trial"`)
	ts.auth.AssertExpectations(t)
}

func TestRegister_ValidationError(t *testing.T) {
	ts := newTestServer(t, nil)
	ts.auth.On("Register", mock.Anything, mock.Anything).
		Return((*core.Registration)(nil), &core.Error{Kind: core.ErrValidation, Message: "Le password non coincidono"})

	w := ts.do(http.MethodPost, "/api/v1/auth/register", "", RegisterRequest{Email: "a@b.it", Password: "x", ConfirmPassword: "y"})
	require.Equal(t, http.StatusBadRequest, w.Code)

	var resp ErrorResponse
	decode(t, w, &resp)
	assert.Equal(t, "Le password non coincidono", resp.Error)
}

func TestRegister_MalformedBody(t *testing.T) {
	ts := newTestServer(t, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", strings.NewReader("{"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	ts.auth.AssertNotCalled(t, "Register", mock.Anything, mock.Anything)
}

func TestLogin_InvalidCredentials(t *testing.T) {
	ts := newTestServer(t, nil)
	ts.auth.On("Login", mock.Anything, "coach@coachgest.it", "wrong").
		Return((*core.LoginResult)(nil), &core.Error{Kind: core.ErrUnauthenticated, Message: "Email o password non validi"})

	w := ts.do(http.MethodPost, "/api/v1/auth/login", "", LoginRequest{Email: "coach@coachgest.it", Password: "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLogout(t *testing.T) {
	ts := newTestServer(t, nil)
	ts.auth.On("Logout", mock.Anything, "coach-1").Return(nil)

	assert.Equal(t, http.StatusUnauthorized, ts.do(http.MethodPost, "/api/v1/auth/logout", "", nil).Code)
	assert.Equal(t, http.StatusNoContent, ts.do(http.MethodPost, "/api/v1/auth/logout", "coach-token", nil).Code)
	ts.auth.AssertExpectations(t)
}

func TestSessionAndMenu(t *testing.T) {
	ts := newTestServer(t, nil)

	w := ts.do(http.MethodGet, "/api/v1/session", "coach-token", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var session SessionResponse
	decode(t, w, &session)
	assert.Equal(t, "coach-1", session.User.ID)
	assert.Equal(t, "/coach", session.Home)
	require.NotEmpty(t, session.Menu)

	w = ts.do(http.MethodGet, "/api/v1/navigation/menu", "coachee-token", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var menu MenuResponse
	decode(t, w, &menu)
	require.NotEmpty(t, menu.Items)
	assert.Equal(t, "/coachee", menu.Items[0].Path)
}

func TestNavigationGuard(t *testing.T) {
	ts := newTestServer(t, nil)

	w := ts.do(http.MethodGet, "/api/v1/navigation/guard?path=/admin/coaches", "coach-token", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var res struct {
		Decision string `json:"decision"`
		Target   string `json:"target"`
	}
	decode(t, w, &res)
	assert.Equal(t, "redirect_to_home", res.Decision)
	assert.Equal(t, "/coach", res.Target)

	w = ts.do(http.MethodGet, "/api/v1/navigation/guard", "coach-token", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateSubcoach_PlanLimit(t *testing.T) {
	ts := newTestServer(t, nil)
	in := core.NewSubcoachInput{Email: "s@coachgest.it", Password: "segreto1", Nome: "Luca", Cognome: "Verdi"}
	ts.team.On("CreateSubcoach", mock.Anything, "coach-1", in).Return((*models.User)(nil), &core.Error{
		Kind:    core.ErrPlanLimitReached,
		Message: "Hai raggiunto il numero massimo di subcoach previsto dal tuo piano",
	})

	w := ts.do(http.MethodPost, "/api/v1/coach/team", "coach-token", in)
	require.Equal(t, http.StatusPaymentRequired, w.Code)
	var resp ErrorResponse
	decode(t, w, &resp)
	assert.Contains(t, resp.Error, "numero massimo di subcoach")
}

func TestCreateCoachee(t *testing.T) {
	ts := newTestServer(t, nil)
	in := core.NewCoacheeInput{Email: "c@coachgest.it", Nome: "Sara", Cognome: "Neri", SubcoachID: "sub-1"}
	ts.team.On("CreateCoachee", mock.Anything, "coach-1", in).
		Return(&models.User{ID: "auto-1", Email: in.Email, Role: models.RoleCoachee, CoachID: "coach-1"}, nil)

	w := ts.do(http.MethodPost, "/api/v1/coach/coachees", "coach-token", in)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), `"id":"auto-1"`)
}

func TestUnexpectedFailureHidesCause(t *testing.T) {
	ts := newTestServer(t, nil)
	ts.team.On("ListCoacheesForCoach", mock.Anything, "coach-1").
		Return([]*models.User(nil), &core.Error{Kind: core.ErrOperationFailed, Message: "Errore nel caricamento dei dati", Err: errors.New("firestore: deadline exceeded")})

	w := ts.do(http.MethodGet, "/api/v1/coach/coachees", "coach-token", nil)
	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "firestore")
	assert.Contains(t, w.Body.String(), "Errore nel caricamento dei dati")
}

func TestAdminSetPlan(t *testing.T) {
	ts := newTestServer(t, nil)
	ts.subs.On("SetCoachPlan", mock.Anything, "coach-1", models.TierPro).
		Return(&models.Subscription{ID: "coach-1", Plan: models.TierPro, MaxCoachee: 20, MaxSubcoach: 3}, nil)

	w := ts.do(http.MethodPut, "/api/v1/admin/subscriptions/coach-1/plan", "admin-token", SetPlanRequest{Plan: models.TierPro})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Abbonamento aggiornato con successo")

	w = ts.do(http.MethodPut, "/api/v1/admin/subscriptions/coach-1/plan", "admin-token", gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	ts.subs.AssertNumberOfCalls(t, "SetCoachPlan", 1)
}

func TestAdminCatalog(t *testing.T) {
	ts := newTestServer(t, nil)
	ts.catalog.On("ResetToDefault").Return(models.DefaultPlanCatalog())
	ts.catalog.On("SaveCatalog", mock.Anything, mock.AnythingOfType("models.PlanCatalog")).Return(nil)

	w := ts.do(http.MethodPost, "/api/v1/admin/settings/subscriptions/reset", "admin-token", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var catalog models.PlanCatalog
	decode(t, w, &catalog)
	assert.Equal(t, models.DefaultPlanCatalog(), catalog)
	ts.catalog.AssertNotCalled(t, "SaveCatalog", mock.Anything, mock.Anything)

	w = ts.do(http.MethodPut, "/api/v1/admin/settings/subscriptions", "admin-token", catalog)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Piani di abbonamento aggiornati con successo")
}

func TestStripeSettings(t *testing.T) {
	ts := newTestServer(t, nil)
	ts.stripe.On("WebhookURL").Return("https://app.coachgest.it/api/webhooks/stripe")
	ts.stripe.On("GetConfig", mock.Anything).Return(&models.StripeConfig{
		Mode: models.StripeModeTest, ClientID: "ca_123", AccessToken: "sk_secret",
	}, nil)

	w := ts.do(http.MethodGet, "/api/v1/admin/settings/stripe", "admin-token", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `"webhookUrl":"https://app.coachgest.it/api/webhooks/stripe"`)
	assert.Contains(t, body, `"clientId":"ca_123"`)
	assert.NotContains(t, body, "sk_secret")
}

func TestStripeConnectAndCallback(t *testing.T) {
	ts := newTestServer(t, nil)
	ts.stripe.On("WebhookURL").Return("https://app.coachgest.it/api/webhooks/stripe")
	ts.stripe.On("BuildAuthorizeURL", mock.Anything).Return("https://connect.stripe.com/oauth/authorize?state=abc", nil)
	ts.stripe.On("HandleCallback", mock.Anything, "ac_code", "abc").
		Return(&models.StripeConfig{Mode: models.StripeModeTest, Connected: true, AccountID: "acct_1"}, nil)
	ts.stripe.On("HandleCallback", mock.Anything, "ac_code", "forged").
		Return((*models.StripeConfig)(nil), &core.Error{Kind: core.ErrValidation, Message: "Richiesta di autorizzazione non valida"})

	w := ts.do(http.MethodPost, "/api/v1/admin/settings/stripe/connect", "admin-token", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var auth StripeAuthorizeResponse
	decode(t, w, &auth)
	assert.Contains(t, auth.URL, "state=abc")

	w = ts.do(http.MethodPost, "/api/v1/admin/settings/stripe/callback", "admin-token", StripeCallbackRequest{Code: "ac_code", State: "abc"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"accountId":"acct_1"`)

	w = ts.do(http.MethodPost, "/api/v1/admin/settings/stripe/callback", "admin-token", StripeCallbackRequest{Code: "ac_code", State: "forged"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestProfileBilling(t *testing.T) {
	ts := newTestServer(t, nil)
	billing := models.BillingData{RagioneSociale: "Rossi Coaching", PartitaIva: "12345678901", CodiceDestinatario: "abc1234"}
	ts.profiles.On("UpdateBilling", mock.Anything, "coach-1", billing).
		Return(&models.BillingData{RagioneSociale: "Rossi Coaching", PartitaIva: "12345678901", CodiceDestinatario: "ABC1234"}, nil)

	w := ts.do(http.MethodPut, "/api/v1/coach/profile/billing", "coach-token", billing)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"codiceDestinatario":"ABC1234"`)
}

func TestSubcoachCoachees(t *testing.T) {
	ts := newTestServer(t, nil)
	ts.team.On("ListCoacheesForSubcoach", mock.Anything, subcoachUser).
		Return([]*models.User{{ID: "cee-1", Role: models.RoleCoachee}}, nil)

	w := ts.do(http.MethodGet, "/api/v1/subcoach/coachees", "subcoach-token", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"id":"cee-1"`)
}

func TestHealth(t *testing.T) {
	ok := newTestServer(t, fakePinger{})
	assert.Equal(t, http.StatusOK, ok.do(http.MethodGet, "/health", "", nil).Code)

	down := newTestServer(t, fakePinger{err: errors.New("connection refused")})
	assert.Equal(t, http.StatusServiceUnavailable, down.do(http.MethodGet, "/health", "", nil).Code)
}
