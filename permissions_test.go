package accesskit

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestGrantMatches tests wildcard and exact grant matching
func TestGrantMatches(t *testing.T) {
	tests := []struct {
		name     string
		grant    Grant
		resource string
		action   string
		want     bool
	}{
		{"exact match", Grant{Resource: "document", Action: "read"}, "document", "read", true},
		{"wrong action", Grant{Resource: "document", Action: "read"}, "document", "update", false},
		{"wrong resource", Grant{Resource: "document", Action: "read"}, "note", "read", false},
		{"wildcard resource", Grant{Resource: "*", Action: "read"}, "anything", "read", true},
		{"wildcard resource wrong action", Grant{Resource: "*", Action: "read"}, "anything", "delete", false},
		{"wildcard action", Grant{Resource: "document", Action: "*"}, "document", "delete", true},
		{"wildcard action wrong resource", Grant{Resource: "document", Action: "*"}, "note", "delete", false},
		{"double wildcard", Grant{Resource: "*", Action: "*"}, "anything", "whatever", true},
		{"no prefix matching", Grant{Resource: "doc", Action: "read"}, "document", "read", false},
		{"no substring matching", Grant{Resource: "document", Action: "read"}, "doc", "read", false},
		{"star is not a pattern", Grant{Resource: "doc*", Action: "read"}, "document", "read", false},
		{"case sensitive resource", Grant{Resource: "Document", Action: "read"}, "document", "read", false},
		{"case sensitive action", Grant{Resource: "document", Action: "Read"}, "document", "read", false},
		{"empty request never matches exact", Grant{Resource: "document", Action: "read"}, "", "", false},
		{"empty request matches double wildcard", Grant{Resource: "*", Action: "*"}, "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.grant.Matches(tt.resource, tt.action))
		})
	}
}

// TestMatchAnyGrant tests union evaluation over a grant list
func TestMatchAnyGrant(t *testing.T) {
	grants := []Grant{
		{Resource: "document", Action: "read"},
		{Resource: "note", Action: "*"},
	}

	t.Run("first grant matches", func(t *testing.T) {
		assert.True(t, MatchAnyGrant(grants, "document", "read"))
	})

	t.Run("later grant matches", func(t *testing.T) {
		assert.True(t, MatchAnyGrant(grants, "note", "delete"))
	})

	t.Run("no grant matches", func(t *testing.T) {
		assert.False(t, MatchAnyGrant(grants, "document", "delete"))
	})

	t.Run("empty list denies", func(t *testing.T) {
		assert.False(t, MatchAnyGrant(nil, "document", "read"))
	})
}

// TestGrantString tests grant rendering
func TestGrantString(t *testing.T) {
	t.Run("with scope", func(t *testing.T) {
		g := Grant{Resource: "document", Action: "read", Scope: ScopeTenant}
		assert.Equal(t, "document:read@tenant", g.String())
	})

	t.Run("defaults scope to own", func(t *testing.T) {
		g := Grant{Resource: "document", Action: "read"}
		assert.Equal(t, "document:read@own", g.String())
	})
}

// TestValidateGrant tests grant identifier validation
func TestValidateGrant(t *testing.T) {
	t.Run("valid identifiers", func(t *testing.T) {
		assert.NoError(t, ValidateGrant("document", "read"))
		assert.NoError(t, ValidateGrant("audit_log", "create"))
		assert.NoError(t, ValidateGrant("v2", "read"))
	})

	t.Run("wildcards are valid", func(t *testing.T) {
		assert.NoError(t, ValidateGrant("*", "read"))
		assert.NoError(t, ValidateGrant("document", "*"))
		assert.NoError(t, ValidateGrant("*", "*"))
	})

	t.Run("empty resource", func(t *testing.T) {
		err := ValidateGrant("", "read")
		assert.Error(t, err)
		assert.True(t, IsInvalidArgument(err))
	})

	t.Run("empty action", func(t *testing.T) {
		err := ValidateGrant("document", "")
		assert.Error(t, err)
		assert.True(t, IsInvalidArgument(err))
	})

	t.Run("punctuation rejected", func(t *testing.T) {
		assert.Error(t, ValidateGrant("doc.file", "read"))
		assert.Error(t, ValidateGrant("document", "read write"))
		assert.Error(t, ValidateGrant("doc*", "read"))
	})
}
