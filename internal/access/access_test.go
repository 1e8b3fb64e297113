package access

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/golden-turf/backoffice/internal/db"
	"github.com/golden-turf/backoffice/internal/models"
	"github.com/golden-turf/backoffice/internal/permissions"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()
	conn, err := db.Open("file:" + filepath.Join(t.TempDir(), "gtbo-test.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if errMigrate := db.Migrate(conn); errMigrate != nil {
		t.Fatalf("migrate: %v", errMigrate)
	}
	return NewService(conn), conn
}

func mustRegister(t *testing.T, s *Service, name, email string) *models.User {
	t.Helper()
	user, err := s.Register(context.Background(), name, email, "hashed-secret", nil)
	if err != nil {
		t.Fatalf("register %s: %v", email, err)
	}
	return user
}

func userIDs(t *testing.T, conn *gorm.DB) []uint64 {
	t.Helper()
	var ids []uint64
	if err := conn.Model(&models.User{}).Order("id ASC").Pluck("id", &ids).Error; err != nil {
		t.Fatalf("list ids: %v", err)
	}
	return ids
}

func adminCount(t *testing.T, conn *gorm.DB) int64 {
	t.Helper()
	var count int64
	if err := conn.Model(&models.User{}).Where("role = ?", models.RoleAdmin).Count(&count).Error; err != nil {
		t.Fatalf("count admins: %v", err)
	}
	return count
}

func TestHasPermission_BootstrapOverride(t *testing.T) {
	sess := Session{UserID: 1, Role: models.RoleUser, Permissions: nil}
	for _, module := range append(permissions.AllModules(), "nonsense", "") {
		if !HasPermission(sess, module) {
			t.Fatalf("user 1 must pass every check, failed for %q", module)
		}
	}
}

func TestHasPermission_AdminAndSet(t *testing.T) {
	admin := Session{UserID: 7, Role: models.RoleAdmin}
	if !HasPermission(admin, "clients") {
		t.Fatalf("admin must pass")
	}

	user := Session{UserID: 8, Role: models.RoleUser, Permissions: []string{"clients", "pebbles"}}
	if !HasPermission(user, "clients") {
		t.Fatalf("granted module must pass")
	}
	if !HasPermission(user, "products") {
		t.Fatalf("legacy product tag must satisfy products")
	}
	if HasPermission(user, "payments") {
		t.Fatalf("ungranted module must fail")
	}
	if HasPermission(user, "unknown_module") {
		t.Fatalf("unknown module must fail, not panic")
	}
}

func TestRegister_FirstUserBecomesAdmin(t *testing.T) {
	s, _ := newTestService(t)

	alice := mustRegister(t, s, "Alice", "alice@example.com")
	if alice.Role != models.RoleAdmin {
		t.Fatalf("expected first user to be admin, got %s", alice.Role)
	}
	got := permissions.Parse(alice.Permissions)
	want := permissions.Normalize(permissions.AllModules())
	if len(got) != len(want) {
		t.Fatalf("expected full permission set %v, got %v", want, got)
	}

	bob := mustRegister(t, s, "Bob", "bob@example.com")
	if bob.Role != models.RoleUser {
		t.Fatalf("expected second user to be a plain user, got %s", bob.Role)
	}
	if perms := permissions.Parse(bob.Permissions); len(perms) != 0 {
		t.Fatalf("expected empty permissions, got %v", perms)
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	s, _ := newTestService(t)
	mustRegister(t, s, "Alice", "alice@example.com")

	_, err := s.Register(context.Background(), "Imposter", "ALICE@example.com", "x", nil)
	if !errors.Is(err, ErrEmailConflict) {
		t.Fatalf("expected ErrEmailConflict, got %v", err)
	}
}

func TestPromoteAndDemote(t *testing.T) {
	s, conn := newTestService(t)
	ctx := context.Background()
	mustRegister(t, s, "Alice", "alice@example.com")
	bob := mustRegister(t, s, "Bob", "bob@example.com")

	if err := s.PromoteToAdmin(ctx, bob.ID); err != nil {
		t.Fatalf("promote: %v", err)
	}
	var reloaded models.User
	if err := conn.First(&reloaded, bob.ID).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.Role != models.RoleAdmin {
		t.Fatalf("expected admin after promote, got %s", reloaded.Role)
	}
	if got := permissions.Parse(reloaded.Permissions); len(got) != len(permissions.AllModules()) {
		t.Fatalf("expected full set after promote, got %v", got)
	}

	if err := s.DemoteFromAdmin(ctx, bob.ID, 1); err != nil {
		t.Fatalf("demote: %v", err)
	}
	if err := conn.First(&reloaded, bob.ID).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.Role != models.RoleUser {
		t.Fatalf("expected user after demote, got %s", reloaded.Role)
	}
	if got := permissions.Parse(reloaded.Permissions); len(got) != 0 {
		t.Fatalf("expected cleared permissions, got %v", got)
	}
}

func TestDemote_SelfProtectionBeforeLastAdmin(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()
	alice := mustRegister(t, s, "Alice", "alice@example.com")

	// Alice is the sole admin; the self check must still win.
	if err := s.DemoteFromAdmin(ctx, alice.ID, alice.ID); !errors.Is(err, ErrSelfRoleChange) {
		t.Fatalf("expected ErrSelfRoleChange, got %v", err)
	}
}

func TestDemote_LastAdminProtected(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()
	alice := mustRegister(t, s, "Alice", "alice@example.com")
	bob := mustRegister(t, s, "Bob", "bob@example.com")

	if err := s.DemoteFromAdmin(ctx, alice.ID, bob.ID); !errors.Is(err, ErrLastAdmin) {
		t.Fatalf("expected ErrLastAdmin, got %v", err)
	}
}

func TestDemote_NotFound(t *testing.T) {
	s, _ := newTestService(t)
	mustRegister(t, s, "Alice", "alice@example.com")
	if err := s.DemoteFromAdmin(context.Background(), 99, 1); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdatePermissions(t *testing.T) {
	s, conn := newTestService(t)
	ctx := context.Background()
	mustRegister(t, s, "Alice", "alice@example.com")
	bob := mustRegister(t, s, "Bob", "bob@example.com")

	if err := s.UpdatePermissions(ctx, bob.ID, []string{"clients", "quotes"}); err != nil {
		t.Fatalf("update permissions: %v", err)
	}
	var reloaded models.User
	if err := conn.First(&reloaded, bob.ID).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if !permissions.Contains(permissions.Parse(reloaded.Permissions), "quotes") {
		t.Fatalf("expected quotes granted")
	}
	if reloaded.Role != models.RoleUser {
		t.Fatalf("role must be untouched by permission updates")
	}

	if err := s.UpdatePermissions(ctx, bob.ID, []string{"bogus"}); err == nil {
		t.Fatalf("expected validation error for unknown permission")
	}
	if err := s.UpdatePermissions(ctx, 99, []string{"clients"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteUser_DenseResequencing(t *testing.T) {
	s, conn := newTestService(t)
	ctx := context.Background()
	mustRegister(t, s, "Alice", "alice@example.com")
	bob := mustRegister(t, s, "Bob", "bob@example.com")
	mustRegister(t, s, "Cara", "cara@example.com")
	mustRegister(t, s, "Dave", "dave@example.com")

	outcome, err := s.DeleteUser(ctx, bob.ID, 1)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if outcome.SelfDeleted || outcome.AutoPromoted {
		t.Fatalf("unexpected outcome %+v", outcome)
	}

	ids := userIDs(t, conn)
	if len(ids) != 3 {
		t.Fatalf("expected 3 users, got %d", len(ids))
	}
	for i, id := range ids {
		if id != uint64(i+1) {
			t.Fatalf("expected dense ids {1,2,3}, got %v", ids)
		}
	}

	// Relative order preserved: Cara (was 3) is now 2, Dave (was 4) is now 3.
	var cara models.User
	if errFind := conn.First(&cara, 2).Error; errFind != nil {
		t.Fatalf("find id 2: %v", errFind)
	}
	if cara.Name != "Cara" {
		t.Fatalf("expected Cara at id 2, got %s", cara.Name)
	}
}

func TestDeleteUser_OwnerColumnsFollow(t *testing.T) {
	s, conn := newTestService(t)
	ctx := context.Background()
	mustRegister(t, s, "Alice", "alice@example.com")
	bob := mustRegister(t, s, "Bob", "bob@example.com")
	cara := mustRegister(t, s, "Cara", "cara@example.com")

	bobClient := models.Client{Name: "Bob's client", OwnerID: bob.ID}
	caraClient := models.Client{Name: "Cara's client", OwnerID: cara.ID}
	caraTask := models.Task{Title: "Measure lawn", OwnerID: cara.ID}
	for _, record := range []any{&bobClient, &caraClient, &caraTask} {
		if errCreate := conn.Create(record).Error; errCreate != nil {
			t.Fatalf("seed record: %v", errCreate)
		}
	}

	if _, err := s.DeleteUser(ctx, bob.ID, 1); err != nil {
		t.Fatalf("delete: %v", err)
	}

	// Bob's records are culled with the account.
	var clientCount int64
	if errCount := conn.Model(&models.Client{}).Count(&clientCount).Error; errCount != nil {
		t.Fatalf("count clients: %v", errCount)
	}
	if clientCount != 1 {
		t.Fatalf("expected only Cara's client to survive, got %d", clientCount)
	}

	// Cara moved from id 3 to id 2 and her records moved with her.
	var survivors []models.Client
	if errFind := conn.Where("owner_id = ?", 2).Find(&survivors).Error; errFind != nil {
		t.Fatalf("find clients: %v", errFind)
	}
	if len(survivors) != 1 || survivors[0].Name != "Cara's client" {
		t.Fatalf("expected Cara's client at owner 2, got %+v", survivors)
	}
	var task models.Task
	if errFind := conn.Where("owner_id = ?", 2).First(&task).Error; errFind != nil {
		t.Fatalf("expected Cara's task remapped: %v", errFind)
	}
}

func TestDeleteUser_AutoPromotesNewFirstUser(t *testing.T) {
	s, conn := newTestService(t)
	ctx := context.Background()
	alice := mustRegister(t, s, "Alice", "alice@example.com")
	mustRegister(t, s, "Bob", "bob@example.com")

	// Alice is the only admin and deletes herself: Bob becomes id 1 and must
	// be promoted so the system is never left without an admin.
	outcome, err := s.DeleteUser(ctx, alice.ID, alice.ID)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if !outcome.SelfDeleted {
		t.Fatalf("expected self-deletion flag")
	}
	if !outcome.AutoPromoted || outcome.PromotedUserID != 1 {
		t.Fatalf("expected auto-promotion of user 1, got %+v", outcome)
	}
	if adminCount(t, conn) != 1 {
		t.Fatalf("expected exactly one admin after auto-promotion")
	}
	var bob models.User
	if errFind := conn.First(&bob, 1).Error; errFind != nil {
		t.Fatalf("find id 1: %v", errFind)
	}
	if bob.Name != "Bob" || bob.Role != models.RoleAdmin {
		t.Fatalf("expected Bob promoted at id 1, got %+v", bob)
	}
}

func TestDeleteUser_NotFound(t *testing.T) {
	s, _ := newTestService(t)
	mustRegister(t, s, "Alice", "alice@example.com")
	if _, err := s.DeleteUser(context.Background(), 42, 1); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteUser_LastUserLeavesEmptySystem(t *testing.T) {
	s, conn := newTestService(t)
	alice := mustRegister(t, s, "Alice", "alice@example.com")

	outcome, err := s.DeleteUser(context.Background(), alice.ID, alice.ID)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if outcome.AutoPromoted {
		t.Fatalf("nothing to promote in an empty system")
	}
	if ids := userIDs(t, conn); len(ids) != 0 {
		t.Fatalf("expected no users, got %v", ids)
	}
}

func TestAdminInvariant_AcrossDeletions(t *testing.T) {
	s, conn := newTestService(t)
	ctx := context.Background()
	mustRegister(t, s, "Alice", "alice@example.com")
	for _, u := range []struct{ name, email string }{
		{"Bob", "bob@example.com"},
		{"Cara", "cara@example.com"},
		{"Dave", "dave@example.com"},
	} {
		mustRegister(t, s, u.name, u.email)
	}

	// Delete id 1 repeatedly; after every call an admin must remain while
	// users exist, and ids stay dense.
	for remaining := 3; remaining >= 1; remaining-- {
		if _, err := s.DeleteUser(ctx, 1, 2); err != nil {
			t.Fatalf("delete with %d remaining: %v", remaining, err)
		}
		ids := userIDs(t, conn)
		if len(ids) != remaining {
			t.Fatalf("expected %d users, got %v", remaining, ids)
		}
		for i, id := range ids {
			if id != uint64(i+1) {
				t.Fatalf("expected dense ids, got %v", ids)
			}
		}
		if adminCount(t, conn) < 1 {
			t.Fatalf("admin invariant violated with %d users", remaining)
		}
	}
}

func TestStrictTxRetriesSerializationAborts(t *testing.T) {
	s, _ := newTestService(t)

	attempts := 0
	err := s.strictTx(context.Background(), func(tx *gorm.DB) error {
		attempts++
		if attempts < serializationRetries {
			return &pgconn.PgError{Code: "40001"}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("expected retry to succeed, got %v", err)
	}
	if attempts != serializationRetries {
		t.Fatalf("expected %d attempts, got %d", serializationRetries, attempts)
	}

	attempts = 0
	err = s.strictTx(context.Background(), func(tx *gorm.DB) error {
		attempts++
		return &pgconn.PgError{Code: "40001"}
	})
	if !isSerializationFailure(err) {
		t.Fatalf("exhausted retries must surface the abort, got %v", err)
	}
	if attempts != serializationRetries {
		t.Fatalf("expected %d attempts, got %d", serializationRetries, attempts)
	}

	if err := s.strictTx(context.Background(), func(tx *gorm.DB) error {
		return ErrLastAdmin
	}); !errors.Is(err, ErrLastAdmin) {
		t.Fatalf("non-serialization errors must not be retried, got %v", err)
	}
}

func TestSerializationFailureDetection(t *testing.T) {
	if !isSerializationFailure(&pgconn.PgError{Code: "40001"}) {
		t.Fatalf("expected SQLSTATE 40001 to be detected")
	}
	if isSerializationFailure(&pgconn.PgError{Code: "23505"}) {
		t.Fatalf("unique violations are not serialization aborts")
	}
	if isSerializationFailure(errors.New("boom")) || isSerializationFailure(nil) {
		t.Fatalf("plain errors and nil must not be detected")
	}
}

func TestEndToEndScenario(t *testing.T) {
	s, conn := newTestService(t)
	ctx := context.Background()

	alice := mustRegister(t, s, "Alice", "alice@example.com")
	if alice.Role != models.RoleAdmin || alice.ID != 1 {
		t.Fatalf("expected Alice admin at id 1, got %+v", alice)
	}
	bob := mustRegister(t, s, "Bob", "bob@example.com")
	if bob.Role != models.RoleUser {
		t.Fatalf("expected Bob plain user")
	}

	if err := s.PromoteToAdmin(ctx, bob.ID); err != nil {
		t.Fatalf("promote Bob: %v", err)
	}

	outcome, err := s.DeleteUser(ctx, alice.ID, bob.ID)
	if err != nil {
		t.Fatalf("delete Alice: %v", err)
	}
	if outcome.SelfDeleted {
		t.Fatalf("Bob deleted Alice, not himself")
	}
	if outcome.AutoPromoted {
		t.Fatalf("Bob was already admin, no auto-promotion expected")
	}

	var newFirst models.User
	if errFind := conn.First(&newFirst, 1).Error; errFind != nil {
		t.Fatalf("find id 1: %v", errFind)
	}
	if newFirst.Name != "Bob" {
		t.Fatalf("expected Bob at id 1, got %s", newFirst.Name)
	}
	if adminCount(t, conn) != 1 {
		t.Fatalf("expected exactly one admin")
	}
}
