package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/shopfront-dev/storefront/internal/auth"
	"github.com/shopfront-dev/storefront/internal/domain"
	apperrors "github.com/shopfront-dev/storefront/pkg/util/errorutil"
)

type fakeAccounts struct {
	mu     sync.Mutex
	byID   map[string]*domain.AdminAccount
	failID bool
}

func (f *fakeAccounts) add(t *testing.T, h *auth.Hasher, id, username, password string, super bool) {
	t.Helper()
	digest, err := h.Hash(password)
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.byID[id] = &domain.AdminAccount{ID: id, Username: username, PasswordHash: digest, IsSuperAdmin: super}
}

func (f *fakeAccounts) FindByUsername(_ context.Context, username string) (*domain.AdminAccount, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.byID {
		if a.Username == username {
			cp := *a
			return &cp, nil
		}
	}
	return nil, apperrors.NewNotFound("admin account", nil)
}

func (f *fakeAccounts) GetByID(_ context.Context, id string) (*domain.AdminAccount, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failID {
		return nil, errors.New("connection reset")
	}
	a, ok := f.byID[id]
	if !ok {
		return nil, apperrors.NewNotFound("admin account", nil)
	}
	cp := *a
	return &cp, nil
}

func newTestManager(t *testing.T, verifyRole bool) (*Manager, *fakeAccounts) {
	t.Helper()
	hasher := auth.NewHasher(bcrypt.DefaultCost)
	accounts := &fakeAccounts{byID: map[string]*domain.AdminAccount{}}
	accounts.add(t, hasher, "id-root", "root", "s3cr3t", true)
	accounts.add(t, hasher, "id-alice", "alice", "pw", false)

	m, err := NewManager(NewMemoryStore(), accounts, hasher, auth.NewCookieSigner("test-secret"),
		Options{TTL: time.Hour, VerifyRolePerRequest: verifyRole}, nil)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	return m, accounts
}

func TestLoginCopiesRoleClaim(t *testing.T) {
	m, _ := newTestManager(t, true)
	ctx := context.Background()

	for _, tc := range []struct {
		username, password string
		super              bool
	}{
		{"root", "s3cr3t", true},
		{"alice", "pw", false},
	} {
		session, cookie, err := m.Login(ctx, tc.username, tc.password)
		if err != nil {
			t.Fatalf("Login(%s): %v", tc.username, err)
		}
		if !session.IsAuthenticated || session.IsSuperAdmin != tc.super {
			t.Fatalf("Login(%s): unexpected claims %+v", tc.username, session)
		}
		resolved, state := m.Resolve(ctx, cookie)
		if state != domain.SessionAuthenticated {
			t.Fatalf("Resolve(%s): state %s", tc.username, state)
		}
		if resolved.AccountID != session.AccountID || resolved.IsSuperAdmin != tc.super {
			t.Fatalf("Resolve(%s): got %+v", tc.username, resolved)
		}
	}
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	m, _ := newTestManager(t, true)
	ctx := context.Background()

	_, _, wrongPassword := m.Login(ctx, "root", "nope")
	_, _, unknownUser := m.Login(ctx, "nobody", "nope")
	_, _, emptyPassword := m.Login(ctx, "root", "")

	for name, err := range map[string]error{
		"wrong password": wrongPassword,
		"unknown user":   unknownUser,
		"empty password": emptyPassword,
	} {
		if !errors.Is(err, apperrors.ErrInvalidCredentials) {
			t.Fatalf("%s: want invalid credentials, got %v", name, err)
		}
	}
	a := apperrors.ToDomainError(wrongPassword)
	b := apperrors.ToDomainError(unknownUser)
	if a.Message != b.Message || a.HTTPStatus != b.HTTPStatus || a.Code != b.Code {
		t.Fatalf("failure shapes differ: %+v vs %+v", a, b)
	}
}

func TestLogoutTerminatesSession(t *testing.T) {
	m, _ := newTestManager(t, true)
	ctx := context.Background()

	_, cookie, err := m.Login(ctx, "alice", "pw")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if err := m.Logout(ctx, cookie); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if _, state := m.Resolve(ctx, cookie); state != domain.SessionAnonymous {
		t.Fatalf("state after logout: %s", state)
	}
	if err := m.Logout(ctx, "garbage"); err != nil {
		t.Fatalf("logout with garbage cookie should be a no-op: %v", err)
	}
}

func TestResolveRejectsForgedCookie(t *testing.T) {
	m, _ := newTestManager(t, true)
	forged, err := auth.NewCookieSigner("other-secret").Sign("whatever")
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	if _, state := m.Resolve(context.Background(), forged); state != domain.SessionAnonymous {
		t.Fatalf("forged cookie state: %s", state)
	}
}

func TestResolveRefreshesRoleClaim(t *testing.T) {
	m, accounts := newTestManager(t, true)
	ctx := context.Background()

	_, cookie, err := m.Login(ctx, "root", "s3cr3t")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	accounts.mu.Lock()
	accounts.byID["id-root"].IsSuperAdmin = false
	accounts.mu.Unlock()

	session, state := m.Resolve(ctx, cookie)
	if state != domain.SessionAuthenticated || session.IsSuperAdmin {
		t.Fatalf("demotion should apply immediately, got %+v %s", session, state)
	}
}

func TestResolveTrustsClaimWhenVerificationDisabled(t *testing.T) {
	m, accounts := newTestManager(t, false)
	ctx := context.Background()

	_, cookie, err := m.Login(ctx, "root", "s3cr3t")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	accounts.mu.Lock()
	accounts.byID["id-root"].IsSuperAdmin = false
	accounts.mu.Unlock()

	session, state := m.Resolve(ctx, cookie)
	if state != domain.SessionAuthenticated || !session.IsSuperAdmin {
		t.Fatalf("cached claim expected, got %+v %s", session, state)
	}
}

func TestResolveTerminatesDeletedAccount(t *testing.T) {
	m, accounts := newTestManager(t, true)
	ctx := context.Background()

	_, cookie, err := m.Login(ctx, "alice", "pw")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	accounts.mu.Lock()
	delete(accounts.byID, "id-alice")
	accounts.mu.Unlock()

	if _, state := m.Resolve(ctx, cookie); state != domain.SessionTerminated {
		t.Fatalf("state: got %s want %s", state, domain.SessionTerminated)
	}
	if _, state := m.Resolve(ctx, cookie); state != domain.SessionAnonymous {
		t.Fatalf("terminated session must resolve anonymous afterwards, got %s", state)
	}
}

func TestResolveFailsClosedOnStoreError(t *testing.T) {
	m, accounts := newTestManager(t, true)
	ctx := context.Background()

	_, cookie, err := m.Login(ctx, "root", "s3cr3t")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	accounts.mu.Lock()
	accounts.failID = true
	accounts.mu.Unlock()

	if _, state := m.Resolve(ctx, cookie); state != domain.SessionAnonymous {
		t.Fatalf("state: got %s", state)
	}
}

func TestRevokeAccount(t *testing.T) {
	m, _ := newTestManager(t, false)
	ctx := context.Background()

	_, first, err := m.Login(ctx, "alice", "pw")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	_, second, err := m.Login(ctx, "alice", "pw")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	_, rootCookie, err := m.Login(ctx, "root", "s3cr3t")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	if err := m.RevokeAccount(ctx, "id-alice"); err != nil {
		t.Fatalf("RevokeAccount: %v", err)
	}
	for _, c := range []string{first, second} {
		if _, state := m.Resolve(ctx, c); state != domain.SessionAnonymous {
			t.Fatalf("revoked session state: %s", state)
		}
	}
	if _, state := m.Resolve(ctx, rootCookie); state != domain.SessionAuthenticated {
		t.Fatalf("unrelated session state: %s", state)
	}
}

// logoutAfterGet deletes the session right after it was read, as a logout
// racing with an in-flight request would.
type logoutAfterGet struct {
	*MemoryStore
}

func (s logoutAfterGet) Get(ctx context.Context, token string) (*domain.Session, error) {
	session, err := s.MemoryStore.Get(ctx, token)
	if err == nil {
		_ = s.MemoryStore.Delete(ctx, token)
	}
	return session, err
}

func TestResolveClaimRefreshDoesNotUndoLogout(t *testing.T) {
	hasher := auth.NewHasher(bcrypt.DefaultCost)
	accounts := &fakeAccounts{byID: map[string]*domain.AdminAccount{}}
	accounts.add(t, hasher, "id-alice", "alice", "pw", false)
	store := NewMemoryStore()
	ctx := context.Background()

	m, err := NewManager(store, accounts, hasher, auth.NewCookieSigner("test-secret"),
		Options{TTL: time.Hour, VerifyRolePerRequest: true}, nil)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	_, cookie, err := m.Login(ctx, "alice", "pw")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	accounts.mu.Lock()
	accounts.byID["id-alice"].IsSuperAdmin = true
	accounts.mu.Unlock()
	m.store = logoutAfterGet{store}

	if _, state := m.Resolve(ctx, cookie); state != domain.SessionTerminated {
		t.Fatalf("racing logout: got %s want %s", state, domain.SessionTerminated)
	}
	m.store = store
	if _, state := m.Resolve(ctx, cookie); state != domain.SessionAnonymous {
		t.Fatalf("logged-out session must stay anonymous, got %s", state)
	}
}
