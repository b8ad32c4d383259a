package validate

import (
	"github.com/nodalync/engine/internal/errs"
	"github.com/nodalync/engine/internal/manifest"
)

// Provenance checks a manifest's provenance shape against its content type
// (§9.3): L0 content must carry exactly `[self], [], depth=0`; L3 content
// must carry a non-empty root set, a non-empty direct-source list, a
// depth of at least one, and must not list itself as its own direct
// source.
func Provenance(m *manifest.Manifest) error {
	switch m.ContentType {
	case manifest.L0:
		return validateL0Provenance(m)
	case manifest.L3:
		return validateL3Provenance(m)
	default:
		// L1/L2 carry no publish-time provenance invariant of their own;
		// they inherit whatever their producing L0/L3 operation set.
		return nil
	}
}

func validateL0Provenance(m *manifest.Manifest) error {
	p := m.Provenance
	if len(p.RootL0L1) != 1 || p.RootL0L1[0].Hash != m.Hash {
		return errs.New(errs.InvalidProvenance, "L0 root_l0l1 must be exactly [self]")
	}
	if len(p.DerivedFrom) != 0 {
		return errs.New(errs.InvalidProvenance, "L0 derived_from must be empty")
	}
	if p.Depth != 0 {
		return errs.New(errs.InvalidProvenance, "L0 depth must be zero")
	}
	return nil
}

func validateL3Provenance(m *manifest.Manifest) error {
	p := m.Provenance
	if len(p.RootL0L1) == 0 {
		return errs.New(errs.InvalidProvenance, "L3 root_l0l1 must be non-empty")
	}
	if len(p.DerivedFrom) == 0 {
		return errs.New(errs.InvalidProvenance, "L3 derived_from must be non-empty")
	}
	if p.Depth < 1 {
		return errs.New(errs.InvalidProvenance, "L3 depth must be at least one")
	}
	for _, src := range p.DerivedFrom {
		if src == m.Hash {
			return errs.New(errs.InvalidProvenance, "L3 must not derive from itself")
		}
	}
	return nil
}
