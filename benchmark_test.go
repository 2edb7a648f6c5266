package accesskit

import (
	"fmt"
	"testing"
)

// BenchmarkCheckerAllows measures in-memory permission evaluation.
func BenchmarkCheckerAllows(b *testing.B) {
	roles := make([]*Role, 0, 10)
	for i := 0; i < 10; i++ {
		roles = append(roles, roleWithGrants(fmt.Sprintf("role%d", i),
			Grant{Resource: fmt.Sprintf("resource%d", i), Action: "read"},
			Grant{Resource: fmt.Sprintf("resource%d", i), Action: "update"},
		))
	}
	c := NewChecker(activeUser(1, roles...))

	b.Run("hit", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			c.Allows("resource9", "update")
		}
	})

	b.Run("miss", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			c.Allows("resource9", "delete")
		}
	})
}

// BenchmarkContentHash measures the canonical hashing rule.
func BenchmarkContentHash(b *testing.B) {
	u := &User{Username: "ada", Email: "ada@example.com", CredentialHash: "x", IsActive: true}
	u.TenantID = 3

	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		ContentHash(u)
	}
}
