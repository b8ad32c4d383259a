package validate

import (
	"testing"

	"github.com/nodalync/engine/internal/manifest"
	"github.com/nodalync/engine/internal/primitives"
	"github.com/stretchr/testify/require"
)

func testAccessManifest(v manifest.Visibility) manifest.Manifest {
	return manifest.Manifest{
		Hash:       primitives.ContentHash([]byte("test content")),
		Owner:      primitives.PeerId{1},
		Visibility: v,
	}
}

type mockBondChecker struct{ hasBond bool }

func (m mockBondChecker) HasBond(primitives.PeerId, primitives.Amount) bool { return m.hasBond }

func TestPrivateAlwaysDenied(t *testing.T) {
	m := testAccessManifest(manifest.Private)
	require.Error(t, AccessBasic(primitives.PeerId{2}, m))
}

func TestSharedAllowedByDefault(t *testing.T) {
	m := testAccessManifest(manifest.Shared)
	require.NoError(t, AccessBasic(primitives.PeerId{2}, m))
}

func TestUnlistedAllowedByDefault(t *testing.T) {
	m := testAccessManifest(manifest.Unlisted)
	require.NoError(t, AccessBasic(primitives.PeerId{2}, m))
}

func TestUnlistedWithAllowlist(t *testing.T) {
	m := testAccessManifest(manifest.Unlisted)
	allowed := primitives.PeerId{2}
	other := primitives.PeerId{3}
	m.Access.Allowlist = []primitives.PeerId{allowed}

	require.NoError(t, AccessBasic(allowed, m))
	require.Error(t, AccessBasic(other, m))
}

func TestUnlistedWithDenylist(t *testing.T) {
	m := testAccessManifest(manifest.Unlisted)
	blocked := primitives.PeerId{2}
	other := primitives.PeerId{3}
	m.Access.Denylist = []primitives.PeerId{blocked}

	require.Error(t, AccessBasic(blocked, m))
	require.NoError(t, AccessBasic(other, m))
}

func TestSharedIgnoresAllowlist(t *testing.T) {
	m := testAccessManifest(manifest.Shared)
	allowed := primitives.PeerId{2}
	other := primitives.PeerId{3}
	m.Access.Allowlist = []primitives.PeerId{allowed}

	require.NoError(t, AccessBasic(allowed, m))
	require.NoError(t, AccessBasic(other, m))
}

func TestSharedChecksDenylist(t *testing.T) {
	m := testAccessManifest(manifest.Shared)
	blocked := primitives.PeerId{2}
	other := primitives.PeerId{3}
	m.Access.Denylist = []primitives.PeerId{blocked}

	require.Error(t, AccessBasic(blocked, m))
	require.NoError(t, AccessBasic(other, m))
}

func TestAllowlistAndDenylistCombined(t *testing.T) {
	m := testAccessManifest(manifest.Unlisted)
	allowed := primitives.PeerId{2}
	blocked := primitives.PeerId{3}
	both := primitives.PeerId{4}
	m.Access.Allowlist = []primitives.PeerId{allowed, both}
	m.Access.Denylist = []primitives.PeerId{blocked, both}

	require.NoError(t, AccessBasic(allowed, m))
	require.Error(t, AccessBasic(blocked, m))
	require.Error(t, AccessBasic(both, m)) // denylist takes precedence
}

func TestBondRequiredWithChecker(t *testing.T) {
	m := testAccessManifest(manifest.Shared)
	m.Access.RequireBond = true
	m.Access.BondAmount = 1000
	requester := primitives.PeerId{2}

	require.NoError(t, Access(requester, m, mockBondChecker{hasBond: true}))
	require.Error(t, Access(requester, m, mockBondChecker{hasBond: false}))
}

func TestBondRequiredNoChecker(t *testing.T) {
	m := testAccessManifest(manifest.Shared)
	m.Access.RequireBond = true
	m.Access.BondAmount = 1000
	require.Error(t, Access(primitives.PeerId{2}, m, nil))
}

func TestBondNotRequired(t *testing.T) {
	m := testAccessManifest(manifest.Shared)
	require.NoError(t, AccessBasic(primitives.PeerId{2}, m))
}

func TestIsOwner(t *testing.T) {
	m := testAccessManifest(manifest.Private)
	require.True(t, IsOwner(m.Owner, m))
	require.False(t, IsOwner(primitives.PeerId{9}, m))
}

func TestOwnerBypassPrivate(t *testing.T) {
	m := testAccessManifest(manifest.Private)
	require.NoError(t, AccessWithOwnerBypass(m.Owner, m, nil))
	require.Error(t, AccessWithOwnerBypass(primitives.PeerId{9}, m, nil))
}

func TestOwnerBypassWithDenylist(t *testing.T) {
	m := testAccessManifest(manifest.Shared)
	m.Access.Denylist = []primitives.PeerId{m.Owner}
	require.NoError(t, AccessWithOwnerBypass(m.Owner, m, nil))
}
