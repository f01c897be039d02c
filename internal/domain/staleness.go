package domain

// StalenessCheck is the transient outcome of comparing the indexed CID of a
// record against the CID its origin currently holds. It is computed fresh on
// every call and never cached. An absent origin answer is reported as stale;
// failures are carried in Error rather than raised so callers always get an
// answer.
type StalenessCheck struct {
	RecordURI  string `json:"uri"`
	IsStale    bool   `json:"isStale"`
	IndexedCID string `json:"indexedCid,omitempty"`
	OriginCID  string `json:"originCid,omitempty"`
	Error      string `json:"error,omitempty"`
}

// SyncStatus is the query-facing view built on top of StalenessCheck.
// StaleDays is populated only once the indexed copy's age exceeds the
// configured staleness threshold.
type SyncStatus struct {
	RecordURI string `json:"uri"`
	Indexed   bool   `json:"indexed"`
	InSync    bool   `json:"inSync"`
	StaleDays *int   `json:"staleDays,omitempty"`
}
