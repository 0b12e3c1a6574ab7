package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/gatehouse/accessadmin/internal/core/domain"
	"github.com/gatehouse/accessadmin/internal/core/ports"
)

func TestAccessService_Debounce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.createCommunity(t, "north")
	attempt := ports.AccessAttempt{Community: "north", Player: "steve", Action: "enter"}

	if _, err := f.access.Record(ctx, attempt); err != nil {
		t.Fatalf("first report: %v", err)
	}

	f.clock.Advance(4 * time.Second)
	if _, err := f.access.Record(ctx, attempt); !errors.Is(err, domain.ErrThrottled) {
		t.Fatalf("second report within 5s: expected ErrThrottled, got %v", err)
	}

	other := attempt
	other.Player = "alex"
	if _, err := f.access.Record(ctx, other); err != nil {
		t.Fatalf("other player must not be throttled: %v", err)
	}

	f.clock.Advance(2 * time.Second)
	if _, err := f.access.Record(ctx, attempt); err != nil {
		t.Fatalf("report after window: %v", err)
	}

	logs, _ := f.logs.ListByCommunity(ctx, "north", domain.MaxAccessLogs)
	if len(logs) != 3 {
		t.Fatalf("expected 3 recorded entries, got %d", len(logs))
	}
}

func TestAccessService_Record_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.access.Record(ctx, ports.AccessAttempt{Community: "ghost", Player: "p", Action: "enter"}); !errors.Is(err, domain.ErrCommunityNotFound) {
		t.Fatalf("expected ErrCommunityNotFound, got %v", err)
	}
	if _, err := f.access.Record(ctx, ports.AccessAttempt{Community: "north", Player: " "}); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

type failingThrottle struct{}

func (failingThrottle) Allow(context.Context, string, string) (bool, error) {
	return false, errors.New("store unavailable")
}

func TestAccessService_ThrottleFailureRecordsAnyway(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.createCommunity(t, "north")

	svc := NewAccessService(f.communities, f.logs, failingThrottle{}, zerolog.Nop())
	if _, err := svc.Record(ctx, ports.AccessAttempt{Community: "north", Player: "steve", Action: "enter"}); err != nil {
		t.Fatalf("expected entry recorded despite throttle failure, got %v", err)
	}
}

func TestAccessService_Logs(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.createCommunity(t, "north")
	bob := f.createUser(t, "bob", domain.RoleUser)

	for i := 0; i < domain.MaxAccessLogs+5; i++ {
		if _, err := f.access.Record(ctx, ports.AccessAttempt{Community: "north", Player: fmt.Sprintf("p%d", i), Action: "enter"}); err != nil {
			t.Fatalf("Record %d: %v", i, err)
		}
	}

	byID, err := f.access.Logs(ctx, adminPrincipal, c.ID)
	if err != nil || len(byID) != domain.MaxAccessLogs {
		t.Fatalf("expected %d logs, got %d (%v)", domain.MaxAccessLogs, len(byID), err)
	}
	for i := 1; i < len(byID); i++ {
		if byID[i].Timestamp.After(byID[i-1].Timestamp) {
			t.Fatalf("logs not newest first at %d", i)
		}
	}

	byName, err := f.access.Logs(ctx, adminPrincipal, "north")
	if err != nil || len(byName) != domain.MaxAccessLogs {
		t.Fatalf("lookup by name: %d (%v)", len(byName), err)
	}

	if _, err := f.access.Logs(ctx, principal(bob), c.ID); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if _, err := f.access.Logs(ctx, adminPrincipal, "ghost"); !errors.Is(err, domain.ErrCommunityNotFound) {
		t.Fatalf("expected ErrCommunityNotFound, got %v", err)
	}

	empty := f.createCommunity(t, "south")
	logs, err := f.access.Logs(ctx, adminPrincipal, empty.ID)
	if err != nil || logs == nil || len(logs) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v (%v)", logs, err)
	}
}
