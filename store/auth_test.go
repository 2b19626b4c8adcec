package store

import (
	"testing"
	"time"

	"github.com/webmaild/webmaild/model"
)

func TestRegisterFirstUserIsAdmin(t *testing.T) {
	auth := testAuthStore(t)

	first, err := auth.Register("a@x.com", "password123", true)
	if err != nil {
		t.Fatalf("register first: %v", err)
	}
	if !first.IsAdmin {
		t.Error("first user should be admin")
	}

	second, err := auth.Register("b@x.com", "password123", false)
	if err != nil {
		t.Fatalf("register second: %v", err)
	}
	if second.IsAdmin {
		t.Error("second user should not be admin")
	}

	has, err := auth.HasUsers()
	if err != nil {
		t.Fatalf("HasUsers: %v", err)
	}
	if !has {
		t.Error("HasUsers = false after registrations")
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	auth := testAuthStore(t)
	if _, err := auth.Register("dup@x.com", "password123", true); err != nil {
		t.Fatalf("register: %v", err)
	}
	// Case-normalized, so the upper-cased variant collides too.
	if _, err := auth.Register("DUP@x.com", "password456", false); err != ErrDuplicateEmail {
		t.Errorf("duplicate register: err = %v, want ErrDuplicateEmail", err)
	}
}

func TestLoginRoundTrip(t *testing.T) {
	auth := testAuthStore(t)
	if _, err := auth.Register("login@x.com", "password123", true); err != nil {
		t.Fatalf("register: %v", err)
	}

	session, err := auth.Login("login@x.com", "password123")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if session == nil {
		t.Fatal("login with valid credentials returned nil")
	}

	lo := time.Now().Add(29 * 24 * time.Hour).UnixMilli()
	hi := time.Now().Add(31 * 24 * time.Hour).UnixMilli()
	if session.ExpiresAt < lo || session.ExpiresAt > hi {
		t.Errorf("expires_at = %d, want between %d and %d", session.ExpiresAt, lo, hi)
	}
}

func TestLoginMismatchReturnsNil(t *testing.T) {
	auth := testAuthStore(t)
	if _, err := auth.Register("known@x.com", "password123", true); err != nil {
		t.Fatalf("register: %v", err)
	}

	// Unknown address and wrong password must be indistinguishable.
	for _, tt := range []struct{ email, password string }{
		{"unknown@x.com", "password123"},
		{"known@x.com", "wrongpassword"},
	} {
		session, err := auth.Login(tt.email, tt.password)
		if err != nil {
			t.Fatalf("login(%s): %v", tt.email, err)
		}
		if session != nil {
			t.Errorf("login(%s, %s) returned a session", tt.email, tt.password)
		}
	}
}

func TestValidateSession(t *testing.T) {
	auth := testAuthStore(t)
	user, err := auth.Register("sess@x.com", "password123", true)
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	session, err := auth.Login("sess@x.com", "password123")
	if err != nil || session == nil {
		t.Fatalf("login: session=%v err=%v", session, err)
	}

	info, err := auth.ValidateSession(session.ID)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if info == nil {
		t.Fatal("valid session rejected")
	}
	if info.UserID != user.ID || info.Email != "sess@x.com" || !info.IsAdmin {
		t.Errorf("session info = %+v, want user %s", info, user.ID)
	}

	if info, err := auth.ValidateSession("no-such-token"); err != nil || info != nil {
		t.Errorf("unknown token: info=%v err=%v, want nil, nil", info, err)
	}
}

func TestValidateSessionExpiry(t *testing.T) {
	auth := testAuthStore(t)
	if _, err := auth.Register("exp@x.com", "password123", true); err != nil {
		t.Fatalf("register: %v", err)
	}
	session, err := auth.Login("exp@x.com", "password123")
	if err != nil || session == nil {
		t.Fatalf("login: session=%v err=%v", session, err)
	}

	// Force the session into the past.
	past := time.Now().Add(-time.Hour).UnixMilli()
	if err := auth.db.Model(&model.Session{}).Where("id = ?", session.ID).Update("expires_at", past).Error; err != nil {
		t.Fatalf("expire session: %v", err)
	}

	info, err := auth.ValidateSession(session.ID)
	if err != nil {
		t.Fatalf("validate expired: %v", err)
	}
	if info != nil {
		t.Error("expired session validated")
	}

	// The expired row must have been deleted on access.
	var count int64
	if err := auth.db.Model(&model.Session{}).Where("id = ?", session.ID).Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 0 {
		t.Error("expired session row still present")
	}
}

func TestAdminFlagReadLive(t *testing.T) {
	auth := testAuthStore(t)
	user, err := auth.Register("live@x.com", "password123", true)
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	session, err := auth.Login("live@x.com", "password123")
	if err != nil || session == nil {
		t.Fatalf("login: session=%v err=%v", session, err)
	}

	if err := auth.db.Model(&model.User{}).Where("id = ?", user.ID).Update("is_admin", false).Error; err != nil {
		t.Fatalf("revoke admin: %v", err)
	}

	info, err := auth.ValidateSession(session.ID)
	if err != nil || info == nil {
		t.Fatalf("validate: info=%v err=%v", info, err)
	}
	if info.IsAdmin {
		t.Error("admin revocation not visible on next validation")
	}
}

func TestLogoutIdempotent(t *testing.T) {
	auth := testAuthStore(t)
	if _, err := auth.Register("out@x.com", "password123", true); err != nil {
		t.Fatalf("register: %v", err)
	}
	session, err := auth.Login("out@x.com", "password123")
	if err != nil || session == nil {
		t.Fatalf("login: session=%v err=%v", session, err)
	}

	if err := auth.Logout(session.ID); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if err := auth.Logout(session.ID); err != nil {
		t.Fatalf("second logout: %v", err)
	}
	if info, err := auth.ValidateSession(session.ID); err != nil || info != nil {
		t.Errorf("session survived logout: info=%v err=%v", info, err)
	}
}

func TestEnsureDefaultAdminsIdempotent(t *testing.T) {
	auth := testAuthStore(t)
	admins := []string{"root@x.com", "ops@x.com"}

	if err := auth.EnsureDefaultAdmins(admins, "changeme-now"); err != nil {
		t.Fatalf("first seed: %v", err)
	}
	if err := auth.EnsureDefaultAdmins(admins, "changeme-now"); err != nil {
		t.Fatalf("second seed: %v", err)
	}

	var count int64
	if err := auth.db.Model(&model.User{}).Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 2 {
		t.Errorf("user count = %d, want 2", count)
	}

	// Seeded admins can log in with the bootstrap password.
	session, err := auth.Login("root@x.com", "changeme-now")
	if err != nil || session == nil {
		t.Errorf("seeded admin login failed: session=%v err=%v", session, err)
	}
}

func TestEnsureDefaultAdminsNoOpWithUsers(t *testing.T) {
	auth := testAuthStore(t)
	if _, err := auth.Register("existing@x.com", "password123", true); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := auth.EnsureDefaultAdmins([]string{"root@x.com"}, "changeme-now"); err != nil {
		t.Fatalf("seed: %v", err)
	}
	var count int64
	if err := auth.db.Model(&model.User{}).Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Errorf("user count = %d, want 1 (seeding must be a no-op)", count)
	}
}

func TestGrantLastWins(t *testing.T) {
	auth := testAuthStore(t)

	if err := auth.Grant("u1", "box@x.com", model.RoleRead); err != nil {
		t.Fatalf("grant read: %v", err)
	}
	if err := auth.Grant("u1", "box@x.com", model.RoleWrite); err != nil {
		t.Fatalf("grant write: %v", err)
	}

	grants, err := auth.GrantsForUser("u1")
	if err != nil {
		t.Fatalf("list grants: %v", err)
	}
	if len(grants) != 1 {
		t.Fatalf("grant count = %d, want 1", len(grants))
	}
	if grants[0].Role != model.RoleWrite {
		t.Errorf("role = %q, want %q (last grant wins)", grants[0].Role, model.RoleWrite)
	}

	if err := auth.Revoke("u1", "box@x.com"); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if g, err := auth.GrantFor("u1", "box@x.com"); err != nil || g != nil {
		t.Errorf("grant after revoke: %v, %v", g, err)
	}
}

func TestSweepExpiredSessions(t *testing.T) {
	auth := testAuthStore(t)
	if _, err := auth.Register("sweep@x.com", "password123", true); err != nil {
		t.Fatalf("register: %v", err)
	}
	live, err := auth.Login("sweep@x.com", "password123")
	if err != nil || live == nil {
		t.Fatalf("login: %v", err)
	}
	dead, err := auth.Login("sweep@x.com", "password123")
	if err != nil || dead == nil {
		t.Fatalf("login: %v", err)
	}
	past := time.Now().Add(-time.Minute).UnixMilli()
	if err := auth.db.Model(&model.Session{}).Where("id = ?", dead.ID).Update("expires_at", past).Error; err != nil {
		t.Fatalf("expire: %v", err)
	}

	removed, err := auth.SweepExpiredSessions()
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if removed != 1 {
		t.Errorf("removed = %d, want 1", removed)
	}
	if info, err := auth.ValidateSession(live.ID); err != nil || info == nil {
		t.Errorf("live session lost in sweep: info=%v err=%v", info, err)
	}
}
