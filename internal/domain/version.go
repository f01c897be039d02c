package domain

import "time"

// VersionChainEntry is one revision in a record's backward-linked history.
// Entries are immutable on the origin; the AppView only reads and orders them.
type VersionChainEntry struct {
	RecordURI             string    `json:"uri"`
	CID                   string    `json:"cid"`
	PreviousVersionURI    string    `json:"previousVersion,omitempty"`
	RevisionNotes         string    `json:"revisionNotes,omitempty"`
	CreatedAt             time.Time `json:"createdAt"`
	AssignedVersionNumber int       `json:"versionNumber"`
}

// VersionChain is the full revision history of a logical document, oldest
// first. Versions[i].AssignedVersionNumber is always i+1 and Latest is the
// final element.
type VersionChain struct {
	Versions      []VersionChainEntry `json:"versions"`
	Latest        VersionChainEntry   `json:"latest"`
	TotalVersions int                 `json:"totalVersions"`
}
