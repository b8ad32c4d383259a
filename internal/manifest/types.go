// Package manifest implements the content manifest data model and its
// indexed store (spec §3, §4.C).
package manifest

import "github.com/nodalync/engine/internal/primitives"

// ContentType is a closed enum of the four content tiers (spec §3).
type ContentType int

const (
	L0 ContentType = iota // raw input
	L1                    // extracted mentions
	L2                    // entity graph (not publishable)
	L3                    // synthesis
)

func (c ContentType) String() string {
	switch c {
	case L0:
		return "L0"
	case L1:
		return "L1"
	case L2:
		return "L2"
	case L3:
		return "L3"
	default:
		return "UNKNOWN"
	}
}

// Visibility is a closed enum controlling whether and how content is served.
type Visibility int

const (
	Private  Visibility = iota // not served
	Unlisted                   // served on explicit hash, not announced
	Shared                     // announced to DHT
)

func (v Visibility) String() string {
	switch v {
	case Private:
		return "private"
	case Unlisted:
		return "unlisted"
	case Shared:
		return "shared"
	default:
		return "unknown"
	}
}

// Version captures a manifest's place in its version chain (§3, §9.2).
type Version struct {
	Number    uint64
	Previous  *primitives.Hash
	Root      primitives.Hash
	Timestamp primitives.Timestamp
}

// RootEntry is one ultimate L0/L1 contributor with its accumulated weight
// and the visibility it had at the time it was incorporated (§3, and the
// Open Question decision in SPEC_FULL.md §7: visibility is frozen, never
// retroactively rewritten).
type RootEntry struct {
	Hash                primitives.Hash
	Owner               primitives.PeerId
	VisibilityAtDerivation Visibility
	Weight              uint64
}

// Provenance describes a content item's derivation lineage (§3).
type Provenance struct {
	RootL0L1    []RootEntry
	DerivedFrom []primitives.Hash
	Depth       uint64
}

// AccessControl governs who may query a manifest (§3, §4.H).
type AccessControl struct {
	Allowlist     []primitives.PeerId
	Denylist      []primitives.PeerId
	RequireBond   bool
	BondAmount    primitives.Amount
	PerPeerRate   uint64 // queries per window; 0 means unlimited
}

// Economics tracks a manifest's pricing and accumulated revenue (§3).
type Economics struct {
	Price          primitives.Amount
	Currency       string
	TotalQueries   uint64
	CumulativeRevenue primitives.Amount
}

// Metadata is free-form descriptive content (§3).
type Metadata struct {
	Title       string
	Description *string
	Tags        []string
	SizeBytes   uint64
	MimeType    *string
}

// Manifest is the per-content-item record keyed by content hash (§3).
type Manifest struct {
	Hash        primitives.Hash
	ContentType ContentType
	Owner       primitives.PeerId

	Version Version

	Visibility Visibility
	Access     AccessControl
	Metadata   Metadata
	Economics  Economics
	Provenance Provenance

	CreatedAt primitives.Timestamp
	UpdatedAt primitives.Timestamp
}

// MentionClassification is a closed enum over L1 mention kinds (§3).
type MentionClassification int

const (
	Claim MentionClassification = iota
	Observation
	Result
	Definition
	Statistic
)

func (c MentionClassification) String() string {
	switch c {
	case Claim:
		return "claim"
	case Observation:
		return "observation"
	case Result:
		return "result"
	case Definition:
		return "definition"
	case Statistic:
		return "statistic"
	default:
		return "unknown"
	}
}

// Confidence describes how a mention's classification was assigned (§3).
type Confidence int

const (
	Explicit Confidence = iota
	Inferred
)

// SourceLocation locates a mention within its source content (§3).
type SourceLocation struct {
	LocationType string
	Reference    string
	Quote        *string // truncated to 500 chars
}

// Mention is one L1 extracted statement (§3).
type Mention struct {
	ID             primitives.Hash
	ContentText    string // <= 1000 chars
	SourceLocation SourceLocation
	Classification MentionClassification
	Confidence     Confidence
	Entities       []string
}

// L1Summary is the free-preview rollup of a content item's mentions (§3).
type L1Summary struct {
	SourceL0Hash    primitives.Hash
	TotalMentions   int
	PreviewMentions []Mention // <= 5
	PrimaryTopics   []string  // <= 5
	Summary         string    // <= 500 chars
}

const (
	MaxMentionTextLen = 1000
	MaxQuoteLen       = 500
	MaxPreviewMentions = 5
	MaxPrimaryTopics  = 5
	MaxSummaryLen     = 500
)
