// Package access owns role and permission decisions for user accounts and
// maintains the system invariants around them: at least one admin exists
// whenever any user exists, user identifiers stay dense after deletions, and
// the identifier-1 account can never be locked out.
package access

import (
	"context"
	"errors"
	"fmt"
	"strings"

	dbutil "github.com/golden-turf/backoffice/internal/db"
	"github.com/golden-turf/backoffice/internal/models"
	"github.com/golden-turf/backoffice/internal/permissions"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Typed failures surfaced to callers. Handlers translate these into
// user-visible messages; the service itself never renders text.
var (
	// ErrNotFound reports that the referenced user does not exist.
	ErrNotFound = errors.New("user not found")
	// ErrSelfRoleChange reports an attempt to change one's own role.
	ErrSelfRoleChange = errors.New("users cannot change their own role")
	// ErrLastAdmin reports an attempt to demote the only remaining admin.
	ErrLastAdmin = errors.New("cannot demote the last admin")
	// ErrEmailConflict reports a duplicate email on create.
	ErrEmailConflict = errors.New("email already registered")
)

// Session is the caller's identity snapshot, supplied explicitly by the HTTP
// layer instead of read from ambient state.
type Session struct {
	UserID      uint64
	Role        models.Role
	Permissions []string
}

// HasPermission reports whether the session may act in the module. True when
// the caller holds identifier 1 (bootstrap override), is an admin, or the
// module is in the permission set. Pure and total: unknown module names
// simply return false.
func HasPermission(sess Session, module string) bool {
	if sess.UserID == 1 {
		return true
	}
	if sess.Role == models.RoleAdmin {
		return true
	}
	return permissions.Contains(sess.Permissions, module)
}

// DeletionOutcome reports the side effects of a user deletion.
type DeletionOutcome struct {
	SelfDeleted    bool   // The acting user deleted their own account.
	AutoPromoted   bool   // A user was promoted to keep an admin in the system.
	PromotedUserID uint64 // ID of the auto-promoted user, when any.
}

// Service applies mutating account operations against the record store.
type Service struct {
	db *gorm.DB
}

// NewService constructs a Service.
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// Register creates a user account. The first account ever created becomes an
// admin with the full permission set; later accounts default to the user role
// with the caller-supplied permission subset. The password must already be
// hashed. Duplicate emails fail with ErrEmailConflict.
func (s *Service) Register(ctx context.Context, name, email, hashedPassword string, perms []string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	user := &models.User{
		Name:     strings.TrimSpace(name),
		Email:    email,
		Password: hashedPassword,
	}

	errTx := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if errCount := tx.Model(&models.User{}).Count(&count).Error; errCount != nil {
			return fmt.Errorf("count users: %w", errCount)
		}
		if count == 0 {
			user.Role = models.RoleAdmin
			perms = permissions.AllModules()
		} else {
			user.Role = models.RoleUser
		}

		encoded, errMarshal := permissions.Marshal(perms)
		if errMarshal != nil {
			return fmt.Errorf("marshal permissions: %w", errMarshal)
		}
		user.Permissions = datatypes.JSON(encoded)

		if errCreate := tx.Create(user).Error; errCreate != nil {
			if isUniqueViolation(errCreate) {
				return ErrEmailConflict
			}
			return fmt.Errorf("create user: %w", errCreate)
		}
		return nil
	})
	if errTx != nil {
		return nil, errTx
	}
	return user, nil
}

// PromoteToAdmin sets the target's role to admin and grants the full
// permission set.
func (s *Service) PromoteToAdmin(ctx context.Context, targetID uint64) error {
	encoded, errMarshal := permissions.Marshal(permissions.AllModules())
	if errMarshal != nil {
		return fmt.Errorf("marshal permissions: %w", errMarshal)
	}
	res := s.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", targetID).
		Updates(map[string]any{
			"role":        models.RoleAdmin,
			"permissions": datatypes.JSON(encoded),
		})
	if res.Error != nil {
		return fmt.Errorf("promote user: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DemoteFromAdmin sets the target's role to user and clears the permission
// set. The self-protection check runs before the last-admin check so that
// error messages stay specific.
func (s *Service) DemoteFromAdmin(ctx context.Context, targetID, actingID uint64) error {
	if targetID == actingID {
		return ErrSelfRoleChange
	}
	return s.strictTx(ctx, func(tx *gorm.DB) error {
		var target models.User
		if errFind := tx.First(&target, targetID).Error; errFind != nil {
			if errors.Is(errFind, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("find user: %w", errFind)
		}

		if target.Role == models.RoleAdmin {
			var admins int64
			if errCount := tx.Model(&models.User{}).Where("role = ?", models.RoleAdmin).Count(&admins).Error; errCount != nil {
				return fmt.Errorf("count admins: %w", errCount)
			}
			if admins <= 1 {
				return ErrLastAdmin
			}
		}

		errUpdate := tx.Model(&models.User{}).
			Where("id = ?", targetID).
			Updates(map[string]any{
				"role":        models.RoleUser,
				"permissions": datatypes.JSON("[]"),
			}).Error
		if errUpdate != nil {
			return fmt.Errorf("demote user: %w", errUpdate)
		}
		return nil
	})
}

// UpdatePermissions overwrites the target's stored permission set. The role
// is untouched; admins keep full access regardless of the stored set.
func (s *Service) UpdatePermissions(ctx context.Context, targetID uint64, perms []string) error {
	if errValidate := permissions.Validate(perms); errValidate != nil {
		return errValidate
	}
	encoded, errMarshal := permissions.Marshal(perms)
	if errMarshal != nil {
		return fmt.Errorf("marshal permissions: %w", errMarshal)
	}
	res := s.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", targetID).
		Update("permissions", datatypes.JSON(encoded))
	if res.Error != nil {
		return fmt.Errorf("update permissions: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ownedTables are the tables whose owner_id column follows user
// re-sequencing.
var ownedTables = []string{"clients", "invoices", "quotes", "tasks"}

// DeleteUser removes the target account inside one transaction: delete, cull
// the target's owned records, re-sequence the remaining user IDs to be dense
// starting at 1 (owner columns follow), reset the ID sequence, and promote
// the user now holding ID 1 if no admin remains. Any previously cached user
// ID is invalid after this call.
func (s *Service) DeleteUser(ctx context.Context, targetID, actingID uint64) (DeletionOutcome, error) {
	var outcome DeletionOutcome

	errTx := s.strictTx(ctx, func(tx *gorm.DB) error {
		// Reset on entry so a serialization retry starts from a clean slate.
		outcome = DeletionOutcome{SelfDeleted: targetID == actingID}

		var target models.User
		if errFind := tx.First(&target, targetID).Error; errFind != nil {
			if errors.Is(errFind, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("find user: %w", errFind)
		}

		for _, table := range ownedTables {
			if errCull := tx.Exec(fmt.Sprintf("DELETE FROM %s WHERE owner_id = ?", table), targetID).Error; errCull != nil {
				return fmt.Errorf("delete owned %s: %w", table, errCull)
			}
		}
		if errDelete := tx.Delete(&models.User{}, targetID).Error; errDelete != nil {
			return fmt.Errorf("delete user: %w", errDelete)
		}

		if errResequence := resequenceUsers(tx); errResequence != nil {
			return errResequence
		}

		var admins int64
		if errCount := tx.Model(&models.User{}).Where("role = ?", models.RoleAdmin).Count(&admins).Error; errCount != nil {
			return fmt.Errorf("count admins: %w", errCount)
		}
		if admins > 0 {
			return nil
		}

		var first models.User
		errFirst := tx.First(&first, 1).Error
		if errors.Is(errFirst, gorm.ErrRecordNotFound) {
			// No users remain; the invariant only binds while users exist.
			return nil
		}
		if errFirst != nil {
			return fmt.Errorf("find user 1: %w", errFirst)
		}

		encoded, errMarshal := permissions.Marshal(permissions.AllModules())
		if errMarshal != nil {
			return fmt.Errorf("marshal permissions: %w", errMarshal)
		}
		errPromote := tx.Model(&models.User{}).
			Where("id = ?", first.ID).
			Updates(map[string]any{
				"role":        models.RoleAdmin,
				"permissions": datatypes.JSON(encoded),
			}).Error
		if errPromote != nil {
			return fmt.Errorf("auto-promote user 1: %w", errPromote)
		}
		outcome.AutoPromoted = true
		outcome.PromotedUserID = first.ID
		return nil
	})
	if errTx != nil {
		return DeletionOutcome{}, errTx
	}
	return outcome, nil
}

// resequenceUsers relabels user IDs to 1..N preserving relative order, and
// rewrites owner columns to match. Ascending order keeps the relabeling
// collision-free: each new ID is strictly smaller than any untouched old ID.
func resequenceUsers(tx *gorm.DB) error {
	var ids []uint64
	if errIDs := tx.Model(&models.User{}).Order("id ASC").Pluck("id", &ids).Error; errIDs != nil {
		return fmt.Errorf("list user ids: %w", errIDs)
	}
	for index, oldID := range ids {
		newID := uint64(index + 1)
		if newID == oldID {
			continue
		}
		if errUpdate := tx.Exec("UPDATE users SET id = ? WHERE id = ?", newID, oldID).Error; errUpdate != nil {
			return fmt.Errorf("relabel user %d: %w", oldID, errUpdate)
		}
		for _, table := range ownedTables {
			errOwner := tx.Exec(fmt.Sprintf("UPDATE %s SET owner_id = ? WHERE owner_id = ?", table), newID, oldID).Error
			if errOwner != nil {
				return fmt.Errorf("remap %s owners: %w", table, errOwner)
			}
		}
	}
	return dbutil.ResetUserIDSequence(tx)
}

// serializationRetries bounds how often a strict transaction is retried after
// a serialization abort.
const serializationRetries = 3

// strictTx runs fn in a transaction at serializable isolation on dialects
// that need it. The last-admin check and the ID re-sequencing read row sets
// they then act on, so weaker isolation would let two concurrent demotions
// or deletions both pass their checks. Postgres aborts one of the
// transactions instead; such aborts are retried.
func (s *Service) strictTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	opts := dbutil.StrictTxOptions(s.db)
	var err error
	for attempt := 0; attempt < serializationRetries; attempt++ {
		err = s.db.WithContext(ctx).Transaction(fn, opts...)
		if !isSerializationFailure(err) {
			return err
		}
	}
	return err
}

// isSerializationFailure reports a Postgres serialization abort (SQLSTATE 40001).
func isSerializationFailure(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "40001"
}

// isUniqueViolation reports whether the error is a unique constraint failure
// on either supported dialect.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return true
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
