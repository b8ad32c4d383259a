package validate

import (
	"github.com/nodalync/engine/internal/errs"
	"github.com/nodalync/engine/internal/manifest"
	"github.com/nodalync/engine/internal/primitives"
)

// Access checks whether requester may query a manifest's content (§9.6):
//   - Private: always denied externally
//   - Unlisted: allowlist (if set) must contain requester, then denylist
//     (if set) must not
//   - Shared: allowlist is ignored; denylist (if set) must not contain
//     requester
//
// If the manifest requires a bond, bondChecker must confirm the requester
// has posted at least the required amount; a nil bondChecker with a
// nonzero bond requirement is treated as not satisfied.
func Access(requester primitives.PeerId, m manifest.Manifest, bondChecker BondChecker) error {
	switch m.Visibility {
	case manifest.Private:
		return errs.New(errs.AccessDenied, "content is private")
	case manifest.Unlisted:
		if m.Access.Allowlist != nil && !containsPeer(m.Access.Allowlist, requester) {
			return errs.New(errs.AccessDenied, "requester not in allowlist")
		}
		if m.Access.Denylist != nil && containsPeer(m.Access.Denylist, requester) {
			return errs.New(errs.AccessDenied, "requester in denylist")
		}
	case manifest.Shared:
		if m.Access.Denylist != nil && containsPeer(m.Access.Denylist, requester) {
			return errs.New(errs.AccessDenied, "requester in denylist")
		}
	default:
		return errs.New(errs.AccessDenied, "unrecognized visibility")
	}

	if m.Access.RequireBond && m.Access.BondAmount > 0 {
		if bondChecker == nil || !bondChecker.HasBond(requester, m.Access.BondAmount) {
			return errs.New(errs.PaymentRequired, "bond required")
		}
	}
	return nil
}

// AccessBasic validates access without bond checking.
func AccessBasic(requester primitives.PeerId, m manifest.Manifest) error {
	return Access(requester, m, nil)
}

// IsOwner reports whether requester owns the manifest's content.
func IsOwner(requester primitives.PeerId, m manifest.Manifest) bool {
	return requester == m.Owner
}

// AccessWithOwnerBypass validates access, granting the owner unconditional
// access regardless of visibility or bond requirements.
func AccessWithOwnerBypass(requester primitives.PeerId, m manifest.Manifest, bondChecker BondChecker) error {
	if IsOwner(requester, m) {
		return nil
	}
	return Access(requester, m, bondChecker)
}

func containsPeer(list []primitives.PeerId, p primitives.PeerId) bool {
	for _, q := range list {
		if q == p {
			return true
		}
	}
	return false
}
