package accesskit

// Checker evaluates permissions for one loaded user. It is pure: building it
// takes one user load, after which every check is an in-memory scan. It is
// typically created by the Service and stored in context for use in handlers.
type Checker struct {
	userID int64
	active bool
	admin  bool
	roles  []string
	grants []Grant
}

// NewChecker builds a Checker from a user with roles and permissions loaded.
// A soft-deleted or inactive user yields a checker that denies everything,
// admin role or not.
func NewChecker(user *User) *Checker {
	c := &Checker{
		userID: user.ID,
		active: user.IsActive && !user.IsDeleted(),
	}
	for _, role := range user.Roles {
		if role == nil {
			continue
		}
		c.roles = append(c.roles, role.Name)
		if role.Name == AdminRoleName {
			c.admin = true
		}
		for _, p := range role.Permissions {
			if p != nil {
				c.grants = append(c.grants, p.Grant())
			}
		}
	}
	return c
}

// UserID returns the user ID this checker is for.
func (c *Checker) UserID() int64 {
	return c.userID
}

// IsActive reports whether the user can pass any check at all.
func (c *Checker) IsActive() bool {
	return c.active
}

// IsAdmin reports whether the user holds the superuser role and is active.
func (c *Checker) IsAdmin() bool {
	return c.active && c.admin
}

// Allows decides whether the user may perform action on resource.
//
// Evaluation order:
//  1. Inactive or soft-deleted user: deny (fail closed).
//  2. Role literally named "admin": allow, no further checks.
//  3. First grant matching (resource, action), wildcards included: allow.
//  4. Otherwise: deny.
func (c *Checker) Allows(resource, action string) bool {
	if !c.active {
		return false
	}
	if c.admin {
		return true
	}
	return MatchAnyGrant(c.grants, resource, action)
}

// AllowsAll reports whether every pair is allowed.
func (c *Checker) AllowsAll(pairs ...Grant) bool {
	for _, p := range pairs {
		if !c.Allows(p.Resource, p.Action) {
			return false
		}
	}
	return true
}

// AllowsAny reports whether at least one pair is allowed.
func (c *Checker) AllowsAny(pairs ...Grant) bool {
	for _, p := range pairs {
		if c.Allows(p.Resource, p.Action) {
			return true
		}
	}
	return false
}

// HasRole reports whether the user holds a role with the given name.
// Matching is case-sensitive.
func (c *Checker) HasRole(name string) bool {
	for _, r := range c.roles {
		if r == name {
			return true
		}
	}
	return false
}

// Roles returns the user's role names.
func (c *Checker) Roles() []string {
	out := make([]string, len(c.roles))
	copy(out, c.roles)
	return out
}

// Grants returns the user's flattened grants across all roles, duplicates
// preserved. Intended for introspection and UI.
func (c *Checker) Grants() []Grant {
	out := make([]Grant, len(c.grants))
	copy(out, c.grants)
	return out
}

// IsEmpty reports whether the user has no roles at all.
func (c *Checker) IsEmpty() bool {
	return len(c.roles) == 0
}
