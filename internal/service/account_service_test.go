package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/shopfront-dev/storefront/internal/auth"
	"github.com/shopfront-dev/storefront/internal/events"
	"github.com/shopfront-dev/storefront/internal/repository/repotest"
	apperrors "github.com/shopfront-dev/storefront/pkg/util/errorutil"
)

type countingHasher struct {
	mu    sync.Mutex
	calls int
	inner *auth.Hasher
}

func (h *countingHasher) Hash(plain string) (string, error) {
	h.mu.Lock()
	h.calls++
	h.mu.Unlock()
	return h.inner.Hash(plain)
}

type recordedEvents struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recordedEvents) handler(_ context.Context, e events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *recordedEvents) types() []events.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]events.EventType, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}

func newAccountService(t *testing.T) (*AccountService, *repotest.AdminRepository, *countingHasher, *recordedEvents) {
	t.Helper()
	repo := repotest.NewAdminRepository()
	hasher := &countingHasher{inner: auth.NewHasher(4)}
	dispatcher := events.NewInMemoryDispatcher(nil)
	rec := &recordedEvents{}
	dispatcher.Subscribe(events.EventAccountCreated, rec.handler)
	dispatcher.Subscribe(events.EventAccountDeleted, rec.handler)
	svc := NewAccountService(AccountDependencies{
		AdminRepo:  repo,
		Hasher:     hasher,
		Dispatcher: dispatcher,
	})
	return svc, repo, hasher, rec
}

func TestLastSuperAdminScenario(t *testing.T) {
	svc, repo, _, rec := newAccountService(t)
	ctx := context.Background()

	if _, err := svc.EnsureSuperAdmin(ctx, "root", "s3cr3t"); err != nil {
		t.Fatalf("EnsureSuperAdmin: %v", err)
	}
	root, err := repo.FindByUsername(ctx, "root")
	if err != nil {
		t.Fatalf("find root: %v", err)
	}
	alice, err := svc.CreateAccount(ctx, "alice", "pw", false)
	if err != nil {
		t.Fatalf("CreateAccount alice: %v", err)
	}

	if err := svc.DeleteAccount(ctx, root.ID); !errors.Is(err, apperrors.ErrCannotDeleteLastSuperAdmin) {
		t.Fatalf("delete root: want last super admin error, got %v", err)
	}
	if err := svc.DeleteAccount(ctx, alice.ID); err != nil {
		t.Fatalf("delete alice: %v", err)
	}

	list, err := svc.ListAccounts(ctx)
	if err != nil {
		t.Fatalf("ListAccounts: %v", err)
	}
	if len(list) != 1 || list[0].Username != "root" || !list[0].IsSuperAdmin {
		t.Fatalf("final state: %+v", list)
	}

	got := rec.types()
	if len(got) != 2 || got[0] != events.EventAccountCreated || got[1] != events.EventAccountDeleted {
		t.Fatalf("events: %v", got)
	}
}

func TestDeleteSuperAdminAllowedWhenAnotherRemains(t *testing.T) {
	svc, _, _, _ := newAccountService(t)
	ctx := context.Background()

	a, err := svc.CreateAccount(ctx, "a", "pw", true)
	if err != nil {
		t.Fatalf("create a: %v", err)
	}
	if _, err := svc.CreateAccount(ctx, "b", "pw", true); err != nil {
		t.Fatalf("create b: %v", err)
	}
	if err := svc.DeleteAccount(ctx, a.ID); err != nil {
		t.Fatalf("delete a: %v", err)
	}
}

func TestConcurrentDeletesKeepOneSuperAdmin(t *testing.T) {
	svc, repo, _, _ := newAccountService(t)
	ctx := context.Background()

	var ids []string
	for _, name := range []string{"a", "b"} {
		acct, err := svc.CreateAccount(ctx, name, "pw", true)
		if err != nil {
			t.Fatalf("create %s: %v", name, err)
		}
		ids = append(ids, acct.ID)
	}

	var wg sync.WaitGroup
	errs := make([]error, len(ids))
	for i, id := range ids {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			errs[i] = svc.DeleteAccount(ctx, id)
		}(i, id)
	}
	wg.Wait()

	count, _ := repo.CountSuperAdmins(ctx)
	if count != 1 {
		t.Fatalf("super admins left: %d (errs=%v)", count, errs)
	}
	failures := 0
	for _, err := range errs {
		if errors.Is(err, apperrors.ErrCannotDeleteLastSuperAdmin) {
			failures++
		}
	}
	if failures != 1 {
		t.Fatalf("exactly one delete should be refused, errs=%v", errs)
	}
}

func TestDeleteUnknownAccount(t *testing.T) {
	svc, _, _, rec := newAccountService(t)
	err := svc.DeleteAccount(context.Background(), "missing")
	if !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("want not found, got %v", err)
	}
	if len(rec.types()) != 0 {
		t.Fatalf("no event expected on failure")
	}
}

func TestCreateAccountDuplicateSkipsHashing(t *testing.T) {
	svc, repo, hasher, _ := newAccountService(t)
	ctx := context.Background()

	if _, err := svc.CreateAccount(ctx, "alice", "pw", false); err != nil {
		t.Fatalf("create: %v", err)
	}
	before := hasher.calls

	_, err := svc.CreateAccount(ctx, "  alice ", "other", true)
	if !errors.Is(err, apperrors.ErrDuplicateUsername) {
		t.Fatalf("want duplicate, got %v", err)
	}
	if hasher.calls != before {
		t.Fatalf("duplicate should be rejected before hashing")
	}
	if repo.Len() != 1 {
		t.Fatalf("accounts: %d", repo.Len())
	}

	if _, err := svc.CreateAccount(ctx, "Alice", "pw", false); err != nil {
		t.Fatalf("usernames are case-sensitive: %v", err)
	}
}

func TestCreateAccountStoresOnlyHash(t *testing.T) {
	svc, repo, _, _ := newAccountService(t)
	ctx := context.Background()

	acct, err := svc.CreateAccount(ctx, "bob", "hunter2", false)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	stored, _ := repo.GetByID(ctx, acct.ID)
	if stored.PasswordHash == "hunter2" || !strings.HasPrefix(stored.PasswordHash, "$2") {
		t.Fatalf("password stored in plain or unexpected format: %q", stored.PasswordHash)
	}
	if !auth.NewHasher(4).Verify("hunter2", stored.PasswordHash) {
		t.Fatalf("stored hash does not verify")
	}
}

func TestCreateAccountValidation(t *testing.T) {
	svc, _, _, _ := newAccountService(t)
	cases := []struct {
		name, username, password string
	}{
		{"empty username", "", "pw"},
		{"blank username", "   ", "pw"},
		{"empty password", "carol", ""},
		{"long username", strings.Repeat("x", maxUsernameLength+1), "pw"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.CreateAccount(context.Background(), tc.username, tc.password, false)
			if apperrors.ToDomainError(err).Code != apperrors.CodeValidationFailed {
				t.Fatalf("want validation error, got %v", err)
			}
		})
	}
}

func TestStoreFailureSurfacesAsUnavailable(t *testing.T) {
	svc, repo, _, _ := newAccountService(t)
	repo.Err = errors.New("connection refused")

	_, err := svc.CreateAccount(context.Background(), "dave", "pw", false)
	if !errors.Is(err, apperrors.ErrStoreUnavailable) {
		t.Fatalf("create: want store unavailable, got %v", err)
	}
	if err := svc.DeleteAccount(context.Background(), "x"); !errors.Is(err, apperrors.ErrStoreUnavailable) {
		t.Fatalf("delete: want store unavailable, got %v", err)
	}
}

func TestEnsureSuperAdminIsIdempotent(t *testing.T) {
	svc, repo, _, _ := newAccountService(t)
	ctx := context.Background()

	changed, err := svc.EnsureSuperAdmin(ctx, "root", "s3cr3t")
	if err != nil || !changed {
		t.Fatalf("first run: changed=%v err=%v", changed, err)
	}
	if _, err := svc.CreateAccount(ctx, "alice", "pw", false); err != nil {
		t.Fatalf("create alice: %v", err)
	}

	changed, err = svc.EnsureSuperAdmin(ctx, "root", "different")
	if err != nil || changed {
		t.Fatalf("second run: changed=%v err=%v", changed, err)
	}
	if repo.Len() != 2 {
		t.Fatalf("bootstrap must not drop accounts, have %d", repo.Len())
	}
	root, _ := repo.FindByUsername(ctx, "root")
	if !auth.NewHasher(4).Verify("s3cr3t", root.PasswordHash) {
		t.Fatalf("bootstrap must not rewrite an existing password")
	}
}

func TestEnsureSuperAdminPromotesExisting(t *testing.T) {
	svc, repo, _, _ := newAccountService(t)
	ctx := context.Background()

	alice, err := svc.CreateAccount(ctx, "alice", "pw", false)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	changed, err := svc.EnsureSuperAdmin(ctx, "alice", "")
	if err != nil || !changed {
		t.Fatalf("promote: changed=%v err=%v", changed, err)
	}
	got, _ := repo.GetByID(ctx, alice.ID)
	if !got.IsSuperAdmin {
		t.Fatalf("alice should be super admin")
	}
}

func TestEnsureSuperAdminRequiresCredentials(t *testing.T) {
	svc, repo, _, _ := newAccountService(t)
	if _, err := svc.EnsureSuperAdmin(context.Background(), "", ""); err == nil {
		t.Fatalf("expected error without bootstrap credentials")
	}
	if _, err := svc.EnsureSuperAdmin(context.Background(), "root", ""); err == nil {
		t.Fatalf("expected error without bootstrap password")
	}
	if repo.Len() != 0 {
		t.Fatalf("nothing should be created")
	}
}

func TestPromoteToSuperAdmin(t *testing.T) {
	svc, _, _, _ := newAccountService(t)
	ctx := context.Background()

	if _, err := svc.CreateAccount(ctx, "alice", "pw", false); err != nil {
		t.Fatalf("create: %v", err)
	}
	acct, err := svc.PromoteToSuperAdmin(ctx, "alice")
	if err != nil || !acct.IsSuperAdmin {
		t.Fatalf("promote: %+v %v", acct, err)
	}
	if _, err := svc.PromoteToSuperAdmin(ctx, "nobody"); !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("promote unknown: %v", err)
	}
}

func TestEventsCarryActor(t *testing.T) {
	svc, _, _, rec := newAccountService(t)
	ctx := WithActor(context.Background(), "id-root", "root")

	if _, err := svc.CreateAccount(ctx, "erin", "pw", false); err != nil {
		t.Fatalf("create: %v", err)
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	if len(rec.events) != 1 || rec.events[0].Actor.AccountID != "id-root" {
		t.Fatalf("events: %+v", rec.events)
	}
}
