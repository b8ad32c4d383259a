package econ

import (
	"crypto/sha256"
	"encoding/binary"

	"github.com/nodalync/engine/internal/primitives"
)

const (
	domainMerkleLeaf = 0x01
	domainMerkleNode = 0x02
)

// SettlementEntry is one aggregated recipient line in a settlement batch.
type SettlementEntry struct {
	Recipient        primitives.PeerId
	Amount           primitives.Amount
	ProvenanceHashes []primitives.Hash
	PaymentIDs       []primitives.Hash
}

// HashSettlementEntry hashes an entry for use as a merkle leaf, domain
// separated from internal node hashes (§4.I).
func HashSettlementEntry(e SettlementEntry) primitives.Hash {
	h := sha256.New()
	h.Write([]byte{domainMerkleLeaf})
	h.Write(e.Recipient[:])

	var amt [8]byte
	binary.BigEndian.PutUint64(amt[:], uint64(e.Amount))
	h.Write(amt[:])

	var count [4]byte
	binary.BigEndian.PutUint32(count[:], uint32(len(e.ProvenanceHashes)))
	h.Write(count[:])
	for _, ph := range e.ProvenanceHashes {
		h.Write(ph[:])
	}

	binary.BigEndian.PutUint32(count[:], uint32(len(e.PaymentIDs)))
	h.Write(count[:])
	for _, id := range e.PaymentIDs {
		h.Write(id[:])
	}

	var out primitives.Hash
	copy(out[:], h.Sum(nil))
	return out
}

// hashPair combines two node hashes, sorting lexicographically first so
// the result is independent of traversal direction.
func hashPair(a, b primitives.Hash) primitives.Hash {
	h := sha256.New()
	h.Write([]byte{domainMerkleNode})
	if a.Less(b) || a == b {
		h.Write(a[:])
		h.Write(b[:])
	} else {
		h.Write(b[:])
		h.Write(a[:])
	}
	var out primitives.Hash
	copy(out[:], h.Sum(nil))
	return out
}

// ComputeMerkleRoot builds the settlement merkle tree bottom-up and returns
// its root. An empty batch's root is 32 zero bytes.
func ComputeMerkleRoot(entries []SettlementEntry) primitives.Hash {
	if len(entries) == 0 {
		return primitives.ZeroHash
	}
	hashes := make([]primitives.Hash, len(entries))
	for i, e := range entries {
		hashes[i] = HashSettlementEntry(e)
	}
	return buildUp(hashes)
}

func buildUp(hashes []primitives.Hash) primitives.Hash {
	for len(hashes) > 1 {
		next := make([]primitives.Hash, 0, (len(hashes)+1)/2)
		for i := 0; i < len(hashes); i += 2 {
			if i+1 < len(hashes) {
				next = append(next, hashPair(hashes[i], hashes[i+1]))
			} else {
				next = append(next, hashes[i])
			}
		}
		hashes = next
	}
	return hashes[0]
}

// ComputeBatchID hashes every entry's leaf hash together into a single
// batch identifier.
func ComputeBatchID(entries []SettlementEntry) primitives.Hash {
	h := sha256.New()
	for _, e := range entries {
		leaf := HashSettlementEntry(e)
		h.Write(leaf[:])
	}
	var out primitives.Hash
	copy(out[:], h.Sum(nil))
	return out
}

// MerkleProof is an inclusion proof for one entry in a settlement batch.
type MerkleProof struct {
	Siblings []primitives.Hash
	// Path[i] is true when Siblings[i] sits to the right of the node being
	// folded at that level; retained for proof reconstruction even though
	// hashPair's internal sort makes it unnecessary for verification.
	Path []bool
}

// Depth returns the number of levels the proof climbs.
func (p MerkleProof) Depth() int { return len(p.Siblings) }

// CreateMerkleProof builds an inclusion proof for entries[index]. A
// single-entry batch has an empty proof.
func CreateMerkleProof(entries []SettlementEntry, index int) (MerkleProof, error) {
	if len(entries) == 0 {
		return MerkleProof{}, errEmptyEntries
	}
	if index < 0 || index >= len(entries) {
		return MerkleProof{}, errIndexOutOfBounds
	}
	if len(entries) == 1 {
		return MerkleProof{}, nil
	}

	hashes := make([]primitives.Hash, len(entries))
	for i, e := range entries {
		hashes[i] = HashSettlementEntry(e)
	}

	var siblings []primitives.Hash
	var path []bool
	cur := index

	for len(hashes) > 1 {
		isRightSibling := cur%2 == 0
		siblingIndex := cur + 1
		if !isRightSibling {
			siblingIndex = cur - 1
		}
		if siblingIndex < len(hashes) {
			siblings = append(siblings, hashes[siblingIndex])
			path = append(path, isRightSibling)
		}

		next := make([]primitives.Hash, 0, (len(hashes)+1)/2)
		for i := 0; i < len(hashes); i += 2 {
			if i+1 < len(hashes) {
				next = append(next, hashPair(hashes[i], hashes[i+1]))
			} else {
				next = append(next, hashes[i])
			}
		}
		hashes = next
		cur /= 2
	}

	return MerkleProof{Siblings: siblings, Path: path}, nil
}

// VerifyMerkleProof reports whether proof establishes entry's inclusion
// under root.
func VerifyMerkleProof(root primitives.Hash, entry SettlementEntry, proof MerkleProof) bool {
	if len(proof.Siblings) == 0 && len(proof.Path) == 0 {
		return HashSettlementEntry(entry) == root
	}
	if len(proof.Siblings) != len(proof.Path) {
		return false
	}

	cur := HashSettlementEntry(entry)
	for _, sibling := range proof.Siblings {
		cur = hashPair(cur, sibling)
	}
	return cur == root
}
