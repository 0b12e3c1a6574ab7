package service

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/gatehouse/accessadmin/internal/core/domain"
	"github.com/gatehouse/accessadmin/internal/core/ports"
)

func TestCommunityService_Create(t *testing.T) {
	f := newFixture(t)

	c, err := f.communitySvc.Create(context.Background(), "Maple")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if c.ID == "" || c.Name != "Maple" {
		t.Fatalf("unexpected community: %+v", c)
	}
	if c.Addresses == nil || len(c.Addresses) != 0 || c.AllowedUsers == nil || len(c.AllowedUsers) != 0 {
		t.Fatalf("expected empty, non-nil collections: %+v", c)
	}

	if _, err := f.communitySvc.Create(context.Background(), "Maple"); !errors.Is(err, domain.ErrCommunityExists) {
		t.Fatalf("expected ErrCommunityExists, got %v", err)
	}
	for _, bad := range []string{"", "two words", "tab\there"} {
		if _, err := f.communitySvc.Create(context.Background(), bad); !errors.Is(err, domain.ErrInvalidInput) {
			t.Fatalf("name %q: expected ErrInvalidInput, got %v", bad, err)
		}
	}
}

func TestCommunityService_Create_Cap(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for i := 0; i < domain.DefaultMaxCommunities; i++ {
		f.createCommunity(t, fmt.Sprintf("c%d", i))
	}

	if _, err := f.communitySvc.Create(ctx, "overflow"); !errors.Is(err, domain.ErrCommunityLimit) {
		t.Fatalf("expected ErrCommunityLimit, got %v", err)
	}
	list, err := f.communities.List(ctx)
	if err != nil || len(list) != domain.DefaultMaxCommunities {
		t.Fatalf("expected %d communities persisted, got %d (%v)", domain.DefaultMaxCommunities, len(list), err)
	}
	if _, err := f.communities.FindByName(ctx, "overflow"); !errors.Is(err, domain.ErrCommunityNotFound) {
		t.Fatalf("rejected community must not be stored, got %v", err)
	}
}

func TestCommunityService_Visibility(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	bob := f.createUser(t, "bob", domain.RoleUser)
	north := f.createCommunity(t, "north")
	f.createCommunity(t, "south")
	if _, err := f.communitySvc.SetAllowedUsers(ctx, north.ID, []string{"BOB"}); err != nil {
		t.Fatalf("SetAllowedUsers: %v", err)
	}

	all, err := f.communitySvc.List(ctx, adminPrincipal)
	if err != nil || len(all) != 2 {
		t.Fatalf("admin should see 2 communities, got %d (%v)", len(all), err)
	}

	visible, err := f.communitySvc.List(ctx, principal(bob))
	if err != nil || len(visible) != 1 || visible[0].Name != "north" {
		t.Fatalf("bob should only see north, got %+v (%v)", visible, err)
	}

	south, _ := f.communities.FindByName(ctx, "south")
	if _, err := f.communitySvc.Get(ctx, principal(bob), south.ID); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if _, err := f.communitySvc.AddAddress(ctx, principal(bob), south.ID, "1 Main St"); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden on sub-resource, got %v", err)
	}
}

func TestCommunityService_SetAllowedUsers_FiltersInvalid(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.createUser(t, "bob", domain.RoleUser)
	f.createUser(t, "ann", domain.RoleAdmin)
	if _, err := f.userSvc.EnsureSuperuser(ctx, "root", "secret1"); err != nil {
		t.Fatalf("EnsureSuperuser: %v", err)
	}
	c := f.createCommunity(t, "north")

	res, err := f.communitySvc.SetAllowedUsers(ctx, c.ID, []string{"bob", "Bob", "ann", "root", "ghost"})
	if err != nil {
		t.Fatalf("SetAllowedUsers: %v", err)
	}
	if len(res.Community.AllowedUsers) != 1 || res.Community.AllowedUsers[0] != "bob" {
		t.Fatalf("expected only bob allowed, got %v", res.Community.AllowedUsers)
	}
	if len(res.InvalidUsers) != 3 {
		t.Fatalf("expected ann, root and ghost invalid, got %v", res.InvalidUsers)
	}

	if _, err := f.communitySvc.SetAllowedUsers(ctx, "missing", nil); !errors.Is(err, domain.ErrCommunityNotFound) {
		t.Fatalf("expected ErrCommunityNotFound, got %v", err)
	}
}

func TestCommunityService_Tree(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.createCommunity(t, "north")

	addr, err := f.communitySvc.AddAddress(ctx, adminPrincipal, c.ID, " 1 Main St ")
	if err != nil || addr.Street != "1 Main St" {
		t.Fatalf("AddAddress: %+v, %v", addr, err)
	}
	person, err := f.communitySvc.AddPerson(ctx, adminPrincipal, c.ID, addr.ID, ports.PersonInput{Username: "steve", PlayerID: "p-1"})
	if err != nil {
		t.Fatalf("AddPerson: %v", err)
	}
	code, err := f.communitySvc.AddCode(ctx, adminPrincipal, c.ID, addr.ID, ports.CodeInput{
		Description: "guest", Code: "1234", ExpiresAt: time.Now().Add(time.Hour),
	})
	if err != nil {
		t.Fatalf("AddCode: %v", err)
	}

	got, err := f.communitySvc.GetAddress(ctx, adminPrincipal, c.ID, addr.ID)
	if err != nil || len(got.People) != 1 || len(got.Codes) != 1 {
		t.Fatalf("GetAddress: %+v, %v", got, err)
	}

	if _, err := f.communitySvc.AddPerson(ctx, adminPrincipal, c.ID, "nope", ports.PersonInput{Username: "x", PlayerID: "y"}); !errors.Is(err, domain.ErrAddressNotFound) {
		t.Fatalf("expected ErrAddressNotFound, got %v", err)
	}
	if err := f.communitySvc.DeletePerson(ctx, adminPrincipal, c.ID, addr.ID, "nope"); !errors.Is(err, domain.ErrPersonNotFound) {
		t.Fatalf("expected ErrPersonNotFound, got %v", err)
	}
	if err := f.communitySvc.DeleteCode(ctx, adminPrincipal, c.ID, addr.ID, "nope"); !errors.Is(err, domain.ErrCodeNotFound) {
		t.Fatalf("expected ErrCodeNotFound, got %v", err)
	}

	if err := f.communitySvc.DeletePerson(ctx, adminPrincipal, c.ID, addr.ID, person.ID); err != nil {
		t.Fatalf("DeletePerson: %v", err)
	}
	if err := f.communitySvc.DeleteCode(ctx, adminPrincipal, c.ID, addr.ID, code.ID); err != nil {
		t.Fatalf("DeleteCode: %v", err)
	}
	if err := f.communitySvc.DeleteAddress(ctx, adminPrincipal, c.ID, addr.ID); err != nil {
		t.Fatalf("DeleteAddress: %v", err)
	}
	addresses, err := f.communitySvc.ListAddresses(ctx, adminPrincipal, c.ID)
	if err != nil || len(addresses) != 0 {
		t.Fatalf("expected no addresses, got %+v (%v)", addresses, err)
	}
}

func TestCommunityService_Delete_RemovesLogs(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	north := f.createCommunity(t, "north")
	f.createCommunity(t, "south")

	for i, name := range []string{"north", "north", "south"} {
		if _, err := f.access.Record(ctx, ports.AccessAttempt{Community: name, Player: fmt.Sprintf("p%d", i), Action: "enter"}); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	if err := f.communitySvc.Delete(ctx, north.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	remaining, err := f.logs.ListByCommunity(ctx, "north", domain.MaxAccessLogs)
	if err != nil || len(remaining) != 0 {
		t.Fatalf("expected zero north logs, got %d (%v)", len(remaining), err)
	}
	south, _ := f.logs.ListByCommunity(ctx, "south", domain.MaxAccessLogs)
	if len(south) != 1 {
		t.Fatalf("south logs must survive, got %d", len(south))
	}
	if err := f.communitySvc.Delete(ctx, north.ID); !errors.Is(err, domain.ErrCommunityNotFound) {
		t.Fatalf("expected ErrCommunityNotFound, got %v", err)
	}
}

// failingDeleteRepo rejects the first DeleteWithLogs call without touching
// the store.
type failingDeleteRepo struct {
	ports.CommunityRepository
	failed atomic.Bool
}

func (r *failingDeleteRepo) DeleteWithLogs(ctx context.Context, id string) (int64, error) {
	if r.failed.CompareAndSwap(false, true) {
		return 0, errors.New("disk full")
	}
	return r.CommunityRepository.DeleteWithLogs(ctx, id)
}

func TestCommunityService_Delete_FailureIsRetryable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	elm := f.createCommunity(t, "Elm")
	if _, err := f.access.Record(ctx, ports.AccessAttempt{Community: "Elm", Player: "steve", Action: "enter"}); err != nil {
		t.Fatalf("Record: %v", err)
	}

	svc := NewCommunityService(&failingDeleteRepo{CommunityRepository: f.communities}, f.users, 0, zerolog.Nop())
	if err := svc.Delete(ctx, elm.ID); err == nil {
		t.Fatalf("expected first delete to fail")
	}
	if _, err := svc.Get(ctx, adminPrincipal, elm.ID); err != nil {
		t.Fatalf("community must survive a failed delete: %v", err)
	}
	logs, _ := f.logs.ListByCommunity(ctx, "Elm", domain.MaxAccessLogs)
	if len(logs) != 1 {
		t.Fatalf("logs must survive a failed delete, got %d", len(logs))
	}

	if err := svc.Delete(ctx, elm.ID); err != nil {
		t.Fatalf("retry delete: %v", err)
	}
	f.createCommunity(t, "Elm")
	logs, _ = f.logs.ListByCommunity(ctx, "Elm", domain.MaxAccessLogs)
	if len(logs) != 0 {
		t.Fatalf("recreated community inherited %d stale log entries", len(logs))
	}
}

func TestCommunityService_SweepExpiredCodes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.createCommunity(t, "north")
	addr, err := f.communitySvc.AddAddress(ctx, adminPrincipal, c.ID, "1 Main St")
	if err != nil {
		t.Fatalf("AddAddress: %v", err)
	}

	now := time.Now().UTC()
	past, err := f.communitySvc.AddCode(ctx, adminPrincipal, c.ID, addr.ID, ports.CodeInput{Description: "old", Code: "1111", ExpiresAt: now.Add(-time.Minute)})
	if err != nil {
		t.Fatalf("AddCode past: %v", err)
	}
	future, err := f.communitySvc.AddCode(ctx, adminPrincipal, c.ID, addr.ID, ports.CodeInput{Description: "new", Code: "2222", ExpiresAt: now.Add(time.Hour)})
	if err != nil {
		t.Fatalf("AddCode future: %v", err)
	}
	f.createCommunity(t, "untouched")
	untouched, _ := f.communities.FindByName(ctx, "untouched")

	removed, err := f.communitySvc.SweepExpiredCodes(ctx, now)
	if err != nil || removed != 1 {
		t.Fatalf("expected 1 removed, got %d (%v)", removed, err)
	}

	got, _ := f.communitySvc.GetAddress(ctx, adminPrincipal, c.ID, addr.ID)
	if len(got.Codes) != 1 || got.Codes[0].ID != future.ID {
		t.Fatalf("expected only the future code to survive, got %+v (past %s)", got.Codes, past.ID)
	}

	after, _ := f.communities.FindByID(ctx, untouched.ID)
	if after.Version != untouched.Version {
		t.Fatalf("community without expired codes must not be rewritten")
	}

	removed, err = f.communitySvc.SweepExpiredCodes(ctx, now)
	if err != nil || removed != 0 {
		t.Fatalf("second sweep: expected 0, got %d (%v)", removed, err)
	}
}

// conflictingRepo fails the first n updates with ErrConflict.
type conflictingRepo struct {
	ports.CommunityRepository
	failures atomic.Int32
}

func (r *conflictingRepo) Update(ctx context.Context, c *domain.Community) error {
	if r.failures.Add(-1) >= 0 {
		return domain.ErrConflict
	}
	return r.CommunityRepository.Update(ctx, c)
}

func TestCommunityService_MutateRetriesOnConflict(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.createCommunity(t, "north")

	repo := &conflictingRepo{CommunityRepository: f.communities}
	svc := NewCommunityService(repo, f.users, 0, zerolog.Nop())

	repo.failures.Store(2)
	if _, err := svc.AddAddress(ctx, adminPrincipal, c.ID, "1 Main St"); err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}

	repo.failures.Store(maxMutateAttempts)
	if _, err := svc.AddAddress(ctx, adminPrincipal, c.ID, "2 Main St"); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected ErrConflict after exhausting retries, got %v", err)
	}
}
