package workflow

import (
	"context"
	"log"

	"campus-backend/internal/model"
	"campus-backend/internal/repository"

	"github.com/google/uuid"
)

// Directory resolves which user should approve at a given level. Selection
// prefers the configured pool (least pending load first) and degrades to the
// oldest active user holding the level's fallback role.
type Directory struct {
	approvers repository.ApproverRepository
	users     repository.UserRepository
}

func NewDirectory(approvers repository.ApproverRepository, users repository.UserRepository) *Directory {
	return &Directory{approvers: approvers, users: users}
}

// Assign picks the approver for a level. Returns nil with no error when no
// eligible user exists anywhere — the caller decides whether that is fatal.
func (d *Directory) Assign(ctx context.Context, level int) (*model.User, error) {
	assignments, err := d.approvers.FindByLevel(ctx, level)
	if err != nil {
		return nil, err
	}

	// FindByLevel orders by pending_count, so the first active user wins.
	for _, a := range assignments {
		if a.User != nil && a.User.IsActive {
			return a.User, nil
		}
	}

	role, ok := fallbackRole[level]
	if !ok {
		return nil, nil
	}

	user, err := d.users.FindFirstActiveByRole(ctx, role)
	if err != nil {
		// No pool and no role holder: surface as "nobody", not as an error.
		return nil, nil
	}

	log.Printf("WARNING: no approver pool configured for level %d, falling back to first active %q user %s", level, role, user.ID)
	return user, nil
}

// HasPermission reports whether the user may decide the application at its
// current level: either configured in the level's pool, or holding a role
// whose static mapping covers the level. Inactive users never pass.
func (d *Directory) HasPermission(ctx context.Context, app *model.Application, userID uuid.UUID) (bool, error) {
	user, err := d.users.GetByID(ctx, userID.String())
	if err != nil {
		return false, nil
	}
	if !user.IsActive {
		return false, nil
	}

	if _, err := d.approvers.FindByLevelAndUser(ctx, app.CurrentLevel, userID); err == nil {
		return true, nil
	}

	return RoleCoversLevel(user.Role, app.CurrentLevel), nil
}

// RoleLevel returns the levels the user's role may approve at, or nil for
// users with no approval authority (including inactive accounts).
func (d *Directory) RoleLevel(ctx context.Context, userID uuid.UUID) []int {
	user, err := d.users.GetByID(ctx, userID.String())
	if err != nil || !user.IsActive {
		return nil
	}
	return RoleLevels(user.Role)
}
