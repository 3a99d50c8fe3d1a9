package workflow

import "campus-backend/internal/model"

// roleLevels is the single source of truth for which approval levels a role
// may act at when no explicit pool assignment exists. Students never approve.
var roleLevels = map[string][]int{
	model.RoleTeacher: {1},
	model.RoleDean:    {2},
	model.RoleAdmin:   {2, 3},
	model.RoleStudent: {},
}

// fallbackRole maps each level to the role consulted when the configured pool
// for that level is empty.
var fallbackRole = map[int]string{
	1: model.RoleTeacher,
	2: model.RoleDean,
	3: model.RoleAdmin,
}

// RoleLevels returns the approval levels a role may cover, or nil for roles
// with no approval authority.
func RoleLevels(role string) []int {
	return roleLevels[role]
}

// RoleCoversLevel reports whether the role's static mapping includes level.
func RoleCoversLevel(role string, level int) bool {
	for _, l := range roleLevels[role] {
		if l == level {
			return true
		}
	}
	return false
}
