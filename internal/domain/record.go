package domain

import "time"

// Record is the AppView's indexed copy of a repo record. The authoritative
// copy lives on the origin server identified by DID; everything here is
// rebuildable by re-reading that origin.
type Record struct {
	URI                string
	CID                string
	DID                string
	Collection         string
	PreviousVersionURI string
	RevisionNotes      string
	CreatedAt          time.Time
	IndexedAt          time.Time
}
