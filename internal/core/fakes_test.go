package core

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/require"

	"coachgest-backend/internal/db"
	"coachgest-backend/internal/events"
	"coachgest-backend/internal/models"
	"coachgest-backend/pkg/cache"
)

var fixedNow = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

// fakeIDP is an in-memory identity provider. Passwords are kept in clear for assertions.
type fakeIDP struct {
	mu        sync.Mutex
	passwords map[string]string // uid -> password
	emails    map[string]string // email -> uid
	tokens    map[string]string // id token -> uid
	seq       int

	createErr error
	signInErr error
	updateErr error
	deleted   []string
	revoked   []string
}

func newFakeIDP() *fakeIDP {
	return &fakeIDP{
		passwords: map[string]string{},
		emails:    map[string]string{},
		tokens:    map[string]string{},
	}
}

// add registers an identity directly and returns its uid.
func (f *fakeIDP) add(email, password string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	uid := fmt.Sprintf("uid-%d", f.seq)
	f.emails[email] = uid
	f.passwords[uid] = password
	f.tokens["token-"+uid] = uid
	return uid
}

func (f *fakeIDP) VerifyIDToken(_ context.Context, idToken string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	uid, ok := f.tokens[idToken]
	if !ok {
		return "", &AuthError{Code: CodeInvalidIDToken}
	}
	return uid, nil
}

func (f *fakeIDP) SignInWithPassword(_ context.Context, email, password string) (*SignInResult, error) {
	if f.signInErr != nil {
		return nil, f.signInErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	uid, ok := f.emails[email]
	if !ok {
		return nil, &AuthError{Code: CodeUserNotFound}
	}
	if f.passwords[uid] != password {
		return nil, &AuthError{Code: CodeWrongPassword}
	}
	return &SignInResult{UID: uid, IDToken: "token-" + uid, RefreshToken: "refresh-" + uid, ExpiresIn: time.Hour}, nil
}

func (f *fakeIDP) CreateUser(_ context.Context, email, password, _ string) (string, error) {
	if f.createErr != nil {
		return "", f.createErr
	}
	f.mu.Lock()
	_, exists := f.emails[email]
	f.mu.Unlock()
	if exists {
		return "", &AuthError{Code: CodeEmailAlreadyInUse}
	}
	return f.add(email, password), nil
}

func (f *fakeIDP) GetUserIDByEmail(_ context.Context, email string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	uid, ok := f.emails[email]
	if !ok {
		return "", &AuthError{Code: CodeUserNotFound}
	}
	return uid, nil
}

func (f *fakeIDP) UpdatePassword(_ context.Context, uid, password string) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.passwords[uid] = password
	return nil
}

func (f *fakeIDP) DeleteUser(_ context.Context, uid string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, uid)
	delete(f.passwords, uid)
	for email, id := range f.emails {
		if id == uid {
			delete(f.emails, email)
		}
	}
	return nil
}

func (f *fakeIDP) RevokeRefreshTokens(_ context.Context, uid string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.revoked = append(f.revoked, uid)
	return nil
}

func (f *fakeIDP) identities() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.passwords)
}

// memUsers is an in-memory db.UserRepository.
type memUsers struct {
	mu        sync.Mutex
	docs      map[string]models.User
	seq       int
	createErr error
	getErr    error
}

func newMemUsers(users ...*models.User) *memUsers {
	m := &memUsers{docs: map[string]models.User{}}
	for _, u := range users {
		m.docs[u.ID] = *u
	}
	return m
}

func (m *memUsers) Create(_ context.Context, user *models.User) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.docs[user.ID]; ok {
		return db.ErrAlreadyExists
	}
	m.docs[user.ID] = *user
	return nil
}

func (m *memUsers) CreateWithAutoID(_ context.Context, user *models.User) (string, error) {
	if m.createErr != nil {
		return "", m.createErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	user.ID = fmt.Sprintf("auto-%d", m.seq)
	m.docs[user.ID] = *user
	return user.ID, nil
}

func (m *memUsers) GetByID(_ context.Context, userID string) (*models.User, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.docs[userID]
	if !ok {
		return nil, db.ErrNotFound
	}
	return &u, nil
}

func (m *memUsers) update(userID string, fn func(u *models.User)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.docs[userID]
	if !ok {
		return db.ErrNotFound
	}
	fn(&u)
	u.UpdatedAt = fixedNow
	m.docs[userID] = u
	return nil
}

func (m *memUsers) UpdateProfile(_ context.Context, userID, nome, cognome string) error {
	return m.update(userID, func(u *models.User) { u.Nome, u.Cognome = nome, cognome })
}

func (m *memUsers) UpdateBilling(_ context.Context, userID string, billing *models.BillingData) error {
	return m.update(userID, func(u *models.User) {
		b := *billing
		u.Billing = &b
	})
}

func (m *memUsers) UpdateStatus(_ context.Context, userID string, status models.UserStatus) error {
	return m.update(userID, func(u *models.User) { u.Status = status })
}

func (m *memUsers) Delete(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.docs, userID)
	return nil
}

func (m *memUsers) filter(keep func(u models.User) bool) []*models.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.User
	for _, u := range m.docs {
		if keep(u) {
			u := u
			out = append(out, &u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (m *memUsers) ListByRole(_ context.Context, role models.Role) ([]*models.User, error) {
	return m.filter(func(u models.User) bool { return u.Role == role }), nil
}

func (m *memUsers) ListByCoach(_ context.Context, coachID string, role models.Role) ([]*models.User, error) {
	return m.filter(func(u models.User) bool { return u.CoachID == coachID && u.Role == role }), nil
}

func (m *memUsers) ListBySubcoach(_ context.Context, coachID, subcoachID string) ([]*models.User, error) {
	return m.filter(func(u models.User) bool {
		return u.CoachID == coachID && u.SubcoachID == subcoachID && u.Role == models.RoleCoachee
	}), nil
}

func (m *memUsers) CountByCoach(ctx context.Context, coachID string, role models.Role) (int, error) {
	users, err := m.ListByCoach(ctx, coachID, role)
	return len(users), err
}

func (m *memUsers) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.docs)
}

// memSubscriptions is an in-memory db.SubscriptionRepository.
type memSubscriptions struct {
	mu        sync.Mutex
	docs      map[string]models.Subscription
	createErr error
}

func newMemSubscriptions(subs ...*models.Subscription) *memSubscriptions {
	m := &memSubscriptions{docs: map[string]models.Subscription{}}
	for _, s := range subs {
		m.docs[s.ID] = *s
	}
	return m
}

func (m *memSubscriptions) Create(_ context.Context, sub *models.Subscription) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[sub.ID] = *sub
	return nil
}

func (m *memSubscriptions) GetByID(_ context.Context, id string) (*models.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.docs[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	return &s, nil
}

func (m *memSubscriptions) ListAll(_ context.Context) ([]*models.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*models.Subscription, 0, len(m.docs))
	for _, s := range m.docs {
		s := s
		out = append(out, &s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memSubscriptions) UpdatePlan(_ context.Context, id string, plan models.SubscriptionPlan) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.docs[id]
	if !ok {
		return db.ErrNotFound
	}
	s.ApplyPlan(plan)
	s.UpdatedAt = fixedNow
	m.docs[id] = s
	return nil
}

func (m *memSubscriptions) UpdateStatus(_ context.Context, id string, status models.SubscriptionStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.docs[id]
	if !ok {
		return db.ErrNotFound
	}
	s.Status = status
	s.UpdatedAt = fixedNow
	m.docs[id] = s
	return nil
}

// memConfig keeps the config documents serialized, like the real store does.
type memConfig struct {
	mu          sync.Mutex
	stripe      []byte
	catalog     []byte
	catalogSave int
}

func (m *memConfig) GetStripeConfig(_ context.Context) (*models.StripeConfig, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stripe == nil {
		return nil, db.ErrNotFound
	}
	var doc stripeDoc
	if err := json.Unmarshal(m.stripe, &doc); err != nil {
		return nil, err
	}
	cfg := doc.StripeConfig
	cfg.AccessToken, cfg.RefreshToken = doc.AccessToken, doc.RefreshToken
	return &cfg, nil
}

// stripeDoc mirrors the stored shape, including the fields hidden from JSON.
type stripeDoc struct {
	models.StripeConfig
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

func (m *memConfig) SaveStripeConfig(_ context.Context, cfg *models.StripeConfig) error {
	raw, err := json.Marshal(stripeDoc{StripeConfig: *cfg, AccessToken: cfg.AccessToken, RefreshToken: cfg.RefreshToken})
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stripe = raw
	return nil
}

func (m *memConfig) storedStripe(t *testing.T) stripeDoc {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	require.NotNil(t, m.stripe)
	var doc stripeDoc
	require.NoError(t, json.Unmarshal(m.stripe, &doc))
	return doc
}

func (m *memConfig) GetPlanCatalog(_ context.Context) (models.PlanCatalog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.catalog == nil {
		return nil, db.ErrNotFound
	}
	var c models.PlanCatalog
	if err := json.Unmarshal(m.catalog, &c); err != nil {
		return nil, err
	}
	return c, nil
}

func (m *memConfig) SavePlanCatalog(_ context.Context, catalog models.PlanCatalog) error {
	raw, err := json.Marshal(catalog)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.catalog = raw
	m.catalogSave++
	return nil
}

type memTransactions struct {
	byUser map[string][]*models.Transaction
}

func (m *memTransactions) ListByUser(_ context.Context, userID string) ([]*models.Transaction, error) {
	return m.byUser[userID], nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, evt events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, evt)
	return nil
}

func (p *recordingPublisher) published() []events.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]events.Event(nil), p.events...)
}

func newTestCache(t *testing.T) (cache.Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return cache.NewRedisCacheFromClient(client, "test:"), mr
}

func coachFixture(id string) *models.User {
	return &models.User{ID: id, Email: id + "@example.com", Role: models.RoleCoach, Nome: "Mario", Cognome: "Rossi", Status: models.UserStatusActive}
}

func subscriptionFixture(coachID string, tier models.Tier, status models.SubscriptionStatus) *models.Subscription {
	sub := &models.Subscription{ID: coachID, UserID: coachID, Status: status, StartDate: fixedNow, EndDate: fixedNow.Add(models.TrialDuration)}
	sub.ApplyPlan(models.DefaultPlanCatalog()[tier])
	return sub
}
