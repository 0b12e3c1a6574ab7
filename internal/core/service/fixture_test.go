package service

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/gatehouse/accessadmin/internal/core/domain"
	"github.com/gatehouse/accessadmin/internal/core/ports"
	"github.com/gatehouse/accessadmin/internal/infrastructure/db/jsonstore"
	"github.com/gatehouse/accessadmin/internal/infrastructure/memory"
)

// fakeClock is a manually advanced time source.
type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

type fixture struct {
	users       ports.UserRepository
	communities ports.CommunityRepository
	logs        ports.AccessLogRepository

	auth         *AuthService
	userSvc      *UserService
	communitySvc *CommunityService
	access       ports.AccessService
	clock        *fakeClock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store, err := jsonstore.OpenFile(filepath.Join(t.TempDir(), "db.json"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	log := zerolog.Nop()
	clock := &fakeClock{t: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}

	f := &fixture{
		users:       store.Users(),
		communities: store.Communities(),
		logs:        store.AccessLogs(),
		clock:       clock,
	}
	f.auth = NewAuthService(f.users, log)
	f.userSvc = NewUserService(f.users, f.communities, bcrypt.MinCost, log)
	f.communitySvc = NewCommunityService(f.communities, f.users, domain.DefaultMaxCommunities, log)
	f.access = NewAccessService(f.communities, f.logs, memory.NewAccessThrottle(5*time.Second, clock.Now), log)
	return f
}

func (f *fixture) createUser(t *testing.T, username string, role domain.Role) *domain.User {
	t.Helper()
	u, err := f.userSvc.Create(context.Background(), ports.CreateUserInput{Username: username, Password: "secret1", Role: role})
	if err != nil {
		t.Fatalf("create user %s: %v", username, err)
	}
	return u
}

func (f *fixture) createCommunity(t *testing.T, name string) *domain.Community {
	t.Helper()
	c, err := f.communitySvc.Create(context.Background(), name)
	if err != nil {
		t.Fatalf("create community %s: %v", name, err)
	}
	return c
}

func principal(u *domain.User) domain.Principal {
	return domain.Principal{UserID: u.ID, Username: u.Username, Role: u.Role}
}

var adminPrincipal = domain.Principal{UserID: "admin-id", Username: "boss", Role: domain.RoleAdmin}
