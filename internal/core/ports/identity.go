package ports

import "github.com/krush/market-core/internal/core/domain"

// IdentityResolver turns an opaque credential into an actor. It never fails
// loudly: any malformed, unsigned, expired or tampered credential yields false.
type IdentityResolver interface {
	Resolve(credential string) (domain.Actor, bool)
}
