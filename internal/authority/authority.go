// Package authority models the opaque authority tokens the core accepts
// by read-only reference on mutating operations. The core never mints or
// validates a token; that is an upstream runtime/auth-gateway concern
// (SPEC_FULL.md §6/§6a). This package only carries the shape.
package authority

import "github.com/google/uuid"

// Kind distinguishes a read-only token from one permitted to mutate
// state.
type Kind uint32

const (
	KindReadOnly Kind = iota
	KindMutating
)

// MutationClass bits select which category of mutation a MUTATING token
// is scoped to.
const (
	MutationTransformative uint32 = 1 << 0
	MutationTransactional  uint32 = 1 << 1
	MutationEpistemic      uint32 = 1 << 2
)

// Token is an opaque handle describing (jurisdiction, domain,
// mutation-class mask, audit-identity). Handlers accept it by read-only
// reference and pass it through; they never construct or validate one.
type Token struct {
	AuditIdentity uuid.UUID
	Jurisdiction  string
	DomainID      uint64
	Kind          Kind
	MutationClass uint32
}

// Allows reports whether the token is a MUTATING token scoped to every
// bit set in class.
func (t *Token) Allows(class uint32) bool {
	if t == nil || t.Kind != KindMutating {
		return false
	}
	return t.MutationClass&class == class
}
