package accesskit

// Grant is a single (resource, action, scope) capability as seen by the
// evaluation engine.
//
// Matching is exact string equality with two wildcards:
//   - Resource "*" matches every resource
//   - Action "*" matches every action
//
// There is no hierarchical resource namespacing: "file" and "file.meta" are
// unrelated resources.
type Grant struct {
	Resource string
	Action   string
	Scope    string
}

// Matches reports whether this grant covers the requested (resource, action)
// pair.
//
// Examples:
//
//	Grant{Resource: "*", Action: "read"}.Matches("file", "read")    // true
//	Grant{Resource: "file", Action: "*"}.Matches("file", "delete")  // true
//	Grant{Resource: "file", Action: "read"}.Matches("file", "read") // true
//	Grant{Resource: "file", Action: "read"}.Matches("note", "read") // false
func (g Grant) Matches(resource, action string) bool {
	if g.Resource != resource && g.Resource != Wildcard {
		return false
	}
	return g.Action == action || g.Action == Wildcard
}

// String renders the grant for logs and introspection.
func (g Grant) String() string {
	scope := g.Scope
	if scope == "" {
		scope = ScopeOwn
	}
	return g.Resource + ":" + g.Action + "@" + scope
}

// MatchAnyGrant reports whether any grant in the list covers the requested
// pair. First match wins; the result is boolean so order is irrelevant.
func MatchAnyGrant(grants []Grant, resource, action string) bool {
	for _, g := range grants {
		if g.Matches(resource, action) {
			return true
		}
	}
	return false
}

// ValidateGrant checks that a resource/action pair is well-formed: either the
// wildcard or a non-empty identifier of letters, digits and underscores.
func ValidateGrant(resource, action string) error {
	if err := validateIdentifier(resource); err != nil {
		return NewError(ErrInvalidArgument, "invalid resource").WithGrant(resource, action)
	}
	if err := validateIdentifier(action); err != nil {
		return NewError(ErrInvalidArgument, "invalid action").WithGrant(resource, action)
	}
	return nil
}

func validateIdentifier(s string) error {
	if s == "" {
		return ErrInvalidArgument
	}
	if s == Wildcard {
		return nil
	}
	for _, c := range s {
		if !isValidIdentChar(c) {
			return ErrInvalidArgument
		}
	}
	return nil
}

func isValidIdentChar(c rune) bool {
	return (c >= 'a' && c <= 'z') ||
		(c >= 'A' && c <= 'Z') ||
		(c >= '0' && c <= '9') ||
		c == '_'
}
