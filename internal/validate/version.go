// Package validate implements the protocol's structural and semantic
// validators: version chains, provenance shape, payments, channel access,
// wire messages, and content access control (§4.H).
package validate

import (
	"github.com/nodalync/engine/internal/errs"
	"github.com/nodalync/engine/internal/manifest"
)

// Version checks a manifest's place in its version chain (§9.2).
//
// For v1 (first version): previous must be nil and root must equal the
// content hash. For v2+: previous must be set, and if the previous
// manifest is supplied, its hash must match, root must equal the
// previous version's root, the version number must increment by exactly
// one, and the timestamp must strictly follow the previous one.
func Version(m *manifest.Manifest, previous *manifest.Manifest) error {
	v := m.Version
	if v.Number == 1 {
		return validateV1(m)
	}
	return validateV2Plus(m, previous)
}

func validateV1(m *manifest.Manifest) error {
	v := m.Version
	if v.Previous != nil {
		return errs.New(errs.InvalidVersion, "v1 must not have a previous hash")
	}
	if v.Root != m.Hash {
		return errs.New(errs.InvalidVersion, "v1 root must equal content hash")
	}
	return nil
}

func validateV2Plus(m *manifest.Manifest, previous *manifest.Manifest) error {
	v := m.Version
	if v.Previous == nil {
		return errs.New(errs.InvalidVersion, "v2+ must have a previous hash")
	}
	if previous == nil {
		return nil
	}

	if *v.Previous != previous.Hash {
		return errs.New(errs.InvalidVersion, "previous hash mismatch")
	}
	if v.Root != previous.Version.Root {
		return errs.New(errs.InvalidVersion, "root must equal previous version's root")
	}
	if expected := previous.Version.Number + 1; v.Number != expected {
		return errs.New(errs.InvalidVersion, "version number must increment by one")
	}
	if v.Timestamp <= previous.Version.Timestamp {
		return errs.New(errs.InvalidVersion, "timestamp must be after previous version")
	}
	return nil
}
