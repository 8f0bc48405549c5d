package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/surdiana/auth-service/internal/dto"
	domainerrors "github.com/surdiana/auth-service/internal/errors"
	"github.com/surdiana/auth-service/internal/model"
)

// --- fakes ---

type fakeUserStore struct {
	mu     sync.Mutex
	nextID uint
	byID   map[uint]*model.User

	createErr error
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{
		nextID: 1,
		byID:   make(map[uint]*model.User),
	}
}

func (f *fakeUserStore) GetByEmail(_ context.Context, email string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.byID {
		if u.Email == email {
			copy := *u
			return &copy, nil
		}
	}
	return nil, domainerrors.ErrIdentityNotFound
}

func (f *fakeUserStore) GetByID(_ context.Context, id uint) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.byID[id]; ok {
		copy := *u
		return &copy, nil
	}
	return nil, domainerrors.ErrIdentityNotFound
}

func (f *fakeUserStore) Create(_ context.Context, user *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	for _, u := range f.byID {
		if u.Email == user.Email {
			return domainerrors.ErrDuplicateIdentity
		}
	}
	user.ID = f.nextID
	f.nextID++
	stored := *user
	f.byID[user.ID] = &stored
	return nil
}

func (f *fakeUserStore) ExistsByEmail(_ context.Context, email string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.byID {
		if u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeUserStore) delete(id uint) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.byID, id)
}

type ledgerRow struct {
	userID    uint
	expiresAt time.Time
}

type fakeAccessLedger struct {
	mu   sync.Mutex
	rows map[string]ledgerRow

	saveErr error
}

func newFakeAccessLedger() *fakeAccessLedger {
	return &fakeAccessLedger{rows: make(map[string]ledgerRow)}
}

func (f *fakeAccessLedger) Save(_ context.Context, token *model.AccessToken) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return f.saveErr
	}
	f.rows[token.JTI] = ledgerRow{userID: token.UserID, expiresAt: token.ExpiresAt}
	return nil
}

func (f *fakeAccessLedger) ExistsByJTI(_ context.Context, jti string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.rows[jti]
	return ok, nil
}

func (f *fakeAccessLedger) DeleteByJTI(_ context.Context, jti string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.rows[jti]; !ok {
		return 0, nil
	}
	delete(f.rows, jti)
	return 1, nil
}

func (f *fakeAccessLedger) DeleteByUserID(_ context.Context, userID uint) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for jti, row := range f.rows {
		if row.userID == userID {
			delete(f.rows, jti)
			n++
		}
	}
	return n, nil
}

func (f *fakeAccessLedger) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.rows)
}

type fakeRefreshLedger struct {
	fakeAccessLedger
}

func newFakeRefreshLedger() *fakeRefreshLedger {
	return &fakeRefreshLedger{fakeAccessLedger{rows: make(map[string]ledgerRow)}}
}

func (f *fakeRefreshLedger) Save(_ context.Context, token *model.RefreshToken) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return f.saveErr
	}
	f.rows[token.JTI] = ledgerRow{userID: token.UserID, expiresAt: token.ExpiresAt}
	return nil
}

type fakeAccessLogStore struct {
	mu      sync.Mutex
	entries []*model.AccessLog

	createErr error
}

func (f *fakeAccessLogStore) Create(_ context.Context, entry *model.AccessLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	f.entries = append(f.entries, entry)
	return nil
}

func (f *fakeAccessLogStore) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.entries)
}

// --- harness ---

type authFixture struct {
	users    *fakeUserStore
	access   *fakeAccessLedger
	refresh  *fakeRefreshLedger
	logs     *fakeAccessLogStore
	tokens   *TokenService
	svc      *AuthService
	password string
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()

	users := newFakeUserStore()
	access := newFakeAccessLedger()
	refresh := newFakeRefreshLedger()
	logs := &fakeAccessLogStore{}

	passwords, err := NewPasswordService(testPasswordParams())
	if err != nil {
		t.Fatalf("NewPasswordService returned error: %v", err)
	}

	tokens, err := NewTokenService("fixture-secret")
	if err != nil {
		t.Fatalf("NewTokenService returned error: %v", err)
	}

	svc, err := NewAuthService(users, access, refresh, logs, passwords, tokens, "15m", "7d")
	if err != nil {
		t.Fatalf("NewAuthService returned error: %v", err)
	}

	return &authFixture{
		users:    users,
		access:   access,
		refresh:  refresh,
		logs:     logs,
		tokens:   tokens,
		svc:      svc,
		password: "sup3r-secret-pw",
	}
}

func (fx *authFixture) signup(t *testing.T, email string) *dto.UserSummary {
	t.Helper()
	summary, err := fx.svc.Signup(context.Background(), dto.SignupRequest{
		Name:     "Test User",
		Email:    email,
		Password: fx.password,
	})
	if err != nil {
		t.Fatalf("Signup returned error: %v", err)
	}
	return summary
}

func (fx *authFixture) login(t *testing.T, email string) *dto.LoginResponse {
	t.Helper()
	resp, err := fx.svc.Login(context.Background(), dto.LoginRequest{
		Email:    email,
		Password: fx.password,
	}, dto.RequestInfo{IP: "10.0.0.1", Endpoint: "POST /api/v1/auth/login", UserAgent: "go-test"})
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}
	return resp
}

// --- construction ---

func TestNewAuthService_InvalidExpiry(t *testing.T) {
	fx := newAuthFixture(t)

	for _, pair := range [][2]string{{"2x", "7d"}, {"15m", "bogus"}} {
		_, err := NewAuthService(fx.users, fx.access, fx.refresh, fx.logs,
			fx.svc.passwords, fx.tokens, pair[0], pair[1])
		if !errors.Is(err, domainerrors.ErrInvalidExpiryFormat) {
			t.Errorf("Expected ErrInvalidExpiryFormat for %v, got %v", pair, err)
		}
	}
}

// --- signup ---

func TestSignup_HashesPassword(t *testing.T) {
	fx := newAuthFixture(t)
	summary := fx.signup(t, "alice@example.com")

	stored := fx.users.byID[summary.ID]
	if stored.Password == fx.password {
		t.Error("Password stored in plaintext")
	}
	if stored.Role != "user" {
		t.Errorf("Expected default role user, got %q", stored.Role)
	}
}

func TestSignup_DuplicateEmail(t *testing.T) {
	fx := newAuthFixture(t)
	fx.signup(t, "alice@example.com")

	_, err := fx.svc.Signup(context.Background(), dto.SignupRequest{
		Name:     "Other",
		Email:    "alice@example.com",
		Password: "different-pw-123",
	})
	if !errors.Is(err, domainerrors.ErrDuplicateIdentity) {
		t.Errorf("Expected ErrDuplicateIdentity, got %v", err)
	}
}

// --- login ---

func TestLogin_IssuesDistinctTokenPair(t *testing.T) {
	fx := newAuthFixture(t)
	fx.signup(t, "alice@example.com")

	resp := fx.login(t, "alice@example.com")

	if resp.AccessToken == "" || resp.RefreshToken == "" {
		t.Fatal("Expected both tokens to be issued")
	}
	if resp.AccessToken == resp.RefreshToken {
		t.Error("Access and refresh tokens must differ")
	}
	if resp.ExpiresIn != 900 {
		t.Errorf("Expected expires_in 900 for 15m, got %d", resp.ExpiresIn)
	}

	accessPayload, err := fx.tokens.Verify(resp.AccessToken)
	if err != nil {
		t.Fatalf("Access token failed verification: %v", err)
	}
	refreshPayload, err := fx.tokens.Verify(resp.RefreshToken)
	if err != nil {
		t.Fatalf("Refresh token failed verification: %v", err)
	}

	if accessPayload.JTI == refreshPayload.JTI {
		t.Error("Access and refresh tokens must carry distinct jtis")
	}
	if !accessPayload.IssuedAt.Equal(refreshPayload.IssuedAt) {
		t.Error("Both tokens of one login must share the issuance instant")
	}

	if live, _ := fx.access.ExistsByJTI(context.Background(), accessPayload.JTI); !live {
		t.Error("Access jti missing from ledger")
	}
	if live, _ := fx.refresh.ExistsByJTI(context.Background(), refreshPayload.JTI); !live {
		t.Error("Refresh jti missing from ledger")
	}

	// Refresh outlives access.
	accessRow := fx.access.rows[accessPayload.JTI]
	refreshRow := fx.refresh.rows[refreshPayload.JTI]
	if !refreshRow.expiresAt.After(accessRow.expiresAt) {
		t.Error("Refresh token must expire after the access token")
	}

	if fx.logs.count() != 1 {
		t.Errorf("Expected exactly one audit row, got %d", fx.logs.count())
	}
}

func TestLogin_UniformFailure(t *testing.T) {
	fx := newAuthFixture(t)
	fx.signup(t, "alice@example.com")

	_, unknownErr := fx.svc.Login(context.Background(), dto.LoginRequest{
		Email:    "nobody@example.com",
		Password: fx.password,
	}, dto.RequestInfo{})
	_, wrongPwErr := fx.svc.Login(context.Background(), dto.LoginRequest{
		Email:    "alice@example.com",
		Password: "wrong-password",
	}, dto.RequestInfo{})

	if !errors.Is(unknownErr, domainerrors.ErrInvalidCredentials) {
		t.Errorf("Unknown email: expected ErrInvalidCredentials, got %v", unknownErr)
	}
	if !errors.Is(wrongPwErr, domainerrors.ErrInvalidCredentials) {
		t.Errorf("Wrong password: expected ErrInvalidCredentials, got %v", wrongPwErr)
	}
	if unknownErr.Error() != wrongPwErr.Error() {
		t.Error("Both login failure modes must be indistinguishable")
	}

	if fx.access.count() != 0 || fx.refresh.count() != 0 {
		t.Error("Failed logins must not leave ledger rows")
	}
	if fx.logs.count() != 0 {
		t.Error("Failed logins must not be audited as access")
	}
}

func TestLogin_AuditFailureAborts(t *testing.T) {
	fx := newAuthFixture(t)
	fx.signup(t, "alice@example.com")
	fx.logs.createErr = errors.New("audit store down")

	_, err := fx.svc.Login(context.Background(), dto.LoginRequest{
		Email:    "alice@example.com",
		Password: fx.password,
	}, dto.RequestInfo{})

	if !errors.Is(err, domainerrors.ErrInternal) {
		t.Errorf("Expected ErrInternal, got %v", err)
	}
	if fx.access.count() != 0 || fx.refresh.count() != 0 {
		t.Error("Tokens issued before a failed audit must be revoked")
	}
}

func TestLogin_PartialPersistIsCompensated(t *testing.T) {
	fx := newAuthFixture(t)
	fx.signup(t, "alice@example.com")
	fx.refresh.saveErr = errors.New("refresh ledger down")

	_, err := fx.svc.Login(context.Background(), dto.LoginRequest{
		Email:    "alice@example.com",
		Password: fx.password,
	}, dto.RequestInfo{})

	if !errors.Is(err, domainerrors.ErrInternal) {
		t.Errorf("Expected ErrInternal, got %v", err)
	}
	if fx.access.count() != 0 {
		t.Error("Surviving access row must be deleted after partial failure")
	}
}

func TestLogin_ConcurrentLoginsGetDistinctJTIs(t *testing.T) {
	fx := newAuthFixture(t)
	fx.signup(t, "alice@example.com")

	const logins = 8
	responses := make([]*dto.LoginResponse, logins)

	var wg sync.WaitGroup
	for i := 0; i < logins; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			resp, err := fx.svc.Login(context.Background(), dto.LoginRequest{
				Email:    "alice@example.com",
				Password: fx.password,
			}, dto.RequestInfo{})
			if err != nil {
				t.Errorf("Concurrent login returned error: %v", err)
				return
			}
			responses[i] = resp
		}(i)
	}
	wg.Wait()

	seen := make(map[string]bool)
	for _, resp := range responses {
		if resp == nil {
			continue
		}
		for _, token := range []string{resp.AccessToken, resp.RefreshToken} {
			payload, err := fx.tokens.Verify(token)
			if err != nil {
				t.Fatalf("Verify returned error: %v", err)
			}
			if seen[payload.JTI] {
				t.Errorf("Duplicate jti across concurrent logins: %s", payload.JTI)
			}
			seen[payload.JTI] = true
		}
	}

	if fx.access.count() != logins || fx.refresh.count() != logins {
		t.Errorf("Expected %d rows in each ledger, got %d access and %d refresh",
			logins, fx.access.count(), fx.refresh.count())
	}
}

// --- authenticate ---

func TestAuthenticate(t *testing.T) {
	fx := newAuthFixture(t)
	summary := fx.signup(t, "alice@example.com")
	resp := fx.login(t, "alice@example.com")

	payload, err := fx.tokens.Verify(resp.AccessToken)
	if err != nil {
		t.Fatalf("Verify returned error: %v", err)
	}

	user, err := fx.svc.Authenticate(context.Background(), payload)
	if err != nil {
		t.Fatalf("Authenticate returned error: %v", err)
	}
	if user.ID != summary.ID {
		t.Errorf("Expected user %d, got %d", summary.ID, user.ID)
	}

	// Deleting the ledger row revokes the still-valid token.
	if _, err := fx.access.DeleteByJTI(context.Background(), payload.JTI); err != nil {
		t.Fatalf("DeleteByJTI returned error: %v", err)
	}
	if _, err := fx.svc.Authenticate(context.Background(), payload); !errors.Is(err, domainerrors.ErrTokenRevoked) {
		t.Errorf("Expected ErrTokenRevoked, got %v", err)
	}
}

func TestAuthenticate_DeletedUser(t *testing.T) {
	fx := newAuthFixture(t)
	summary := fx.signup(t, "alice@example.com")
	resp := fx.login(t, "alice@example.com")

	payload, err := fx.tokens.Verify(resp.AccessToken)
	if err != nil {
		t.Fatalf("Verify returned error: %v", err)
	}

	fx.users.delete(summary.ID)

	if _, err := fx.svc.Authenticate(context.Background(), payload); !errors.Is(err, domainerrors.ErrIdentityNotFound) {
		t.Errorf("Expected ErrIdentityNotFound, got %v", err)
	}
}

// --- refresh ---

func TestRefresh_RotatesPair(t *testing.T) {
	fx := newAuthFixture(t)
	fx.signup(t, "alice@example.com")
	resp := fx.login(t, "alice@example.com")

	oldPayload, err := fx.tokens.Verify(resp.RefreshToken)
	if err != nil {
		t.Fatalf("Verify returned error: %v", err)
	}

	rotated, err := fx.svc.Refresh(context.Background(), resp.RefreshToken, dto.RequestInfo{})
	if err != nil {
		t.Fatalf("Refresh returned error: %v", err)
	}

	if live, _ := fx.refresh.ExistsByJTI(context.Background(), oldPayload.JTI); live {
		t.Error("Consumed refresh jti must be gone from the ledger")
	}

	newPayload, err := fx.tokens.Verify(rotated.RefreshToken)
	if err != nil {
		t.Fatalf("Verify returned error: %v", err)
	}
	if newPayload.JTI == oldPayload.JTI {
		t.Error("Rotation must mint a fresh refresh jti")
	}
	if live, _ := fx.refresh.ExistsByJTI(context.Background(), newPayload.JTI); !live {
		t.Error("New refresh jti missing from ledger")
	}

	// Replaying the consumed token is a revocation, not a crypto failure.
	if _, err := fx.svc.Refresh(context.Background(), resp.RefreshToken, dto.RequestInfo{}); !errors.Is(err, domainerrors.ErrTokenRevoked) {
		t.Errorf("Expected ErrTokenRevoked on replay, got %v", err)
	}
}

func TestRefresh_MalformedToken(t *testing.T) {
	fx := newAuthFixture(t)

	if _, err := fx.svc.Refresh(context.Background(), "garbage", dto.RequestInfo{}); !errors.Is(err, domainerrors.ErrInvalidToken) {
		t.Errorf("Expected ErrInvalidToken, got %v", err)
	}
}

// --- logout ---

func TestLogout(t *testing.T) {
	fx := newAuthFixture(t)
	fx.signup(t, "alice@example.com")
	resp := fx.login(t, "alice@example.com")

	payload, err := fx.tokens.Verify(resp.AccessToken)
	if err != nil {
		t.Fatalf("Verify returned error: %v", err)
	}

	if err := fx.svc.Logout(context.Background(), payload); err != nil {
		t.Fatalf("Logout returned error: %v", err)
	}
	if live, _ := fx.access.ExistsByJTI(context.Background(), payload.JTI); live {
		t.Error("Access jti must be gone after logout")
	}

	// Second logout finds no row.
	if err := fx.svc.Logout(context.Background(), payload); !errors.Is(err, domainerrors.ErrTokenRevoked) {
		t.Errorf("Expected ErrTokenRevoked on repeated logout, got %v", err)
	}
}

func TestLogoutAll(t *testing.T) {
	fx := newAuthFixture(t)
	summary := fx.signup(t, "alice@example.com")
	fx.login(t, "alice@example.com")
	fx.login(t, "alice@example.com")

	if fx.access.count() != 2 || fx.refresh.count() != 2 {
		t.Fatalf("Expected two sessions, got %d access and %d refresh rows",
			fx.access.count(), fx.refresh.count())
	}

	if err := fx.svc.LogoutAll(context.Background(), summary.ID); err != nil {
		t.Fatalf("LogoutAll returned error: %v", err)
	}

	if fx.access.count() != 0 || fx.refresh.count() != 0 {
		t.Error("LogoutAll must empty both ledgers for the user")
	}
}
