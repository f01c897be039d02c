package usecase

import (
	"context"
	"errors"

	"github.com/chive-pub/chive-sub016/internal/domain"
)

const defaultMaxVersions = 100

// VersionChainResolver reconstructs the full revision history of a record from
// its backward links. Traversal is bounded: a chain that does not terminate
// within MaxVersions steps is reported as corrupt instead of looping.
type VersionChainResolver struct {
	records     RecordReader
	maxVersions int
}

func NewVersionChainResolver(records RecordReader, maxVersions int) *VersionChainResolver {
	if maxVersions <= 0 {
		maxVersions = defaultMaxVersions
	}
	return &VersionChainResolver{records: records, maxVersions: maxVersions}
}

// GetVersionChain returns the chronologically ordered history of the chain
// containing uri, oldest first. The starting URI may be any version: the
// resolver first walks forward to the chain head, then collects the history
// backward from there.
func (r *VersionChainResolver) GetVersionChain(ctx context.Context, uri string) (domain.VersionChain, error) {
	start, err := r.records.GetRecord(ctx, uri)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.VersionChain{}, &domain.RecordFetchError{URI: uri, Reason: domain.RecordReasonNotFound, Err: err}
		}
		return domain.VersionChain{}, err
	}

	head, err := r.findHead(ctx, start)
	if err != nil {
		return domain.VersionChain{}, err
	}

	entries, err := r.collectBackward(ctx, head)
	if err != nil {
		return domain.VersionChain{}, err
	}
	if len(entries) == 0 {
		return domain.VersionChain{}, &domain.DataIntegrityError{URI: uri, Detail: "resolved chain is empty"}
	}

	// Collected newest-first; flip to creation order and number 1..k.
	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}
	for i := range entries {
		entries[i].AssignedVersionNumber = i + 1
	}

	return domain.VersionChain{
		Versions:      entries,
		Latest:        entries[len(entries)-1],
		TotalVersions: len(entries),
	}, nil
}

// GetVersion returns the chain entry for exactly uri. A record that cannot be
// located inside its own resolved chain is an internal inconsistency, reported
// distinctly from not-found.
func (r *VersionChainResolver) GetVersion(ctx context.Context, uri string) (domain.VersionChainEntry, error) {
	chain, err := r.GetVersionChain(ctx, uri)
	if err != nil {
		return domain.VersionChainEntry{}, err
	}
	for _, entry := range chain.Versions {
		if entry.RecordURI == uri {
			return entry, nil
		}
	}
	return domain.VersionChainEntry{}, &domain.DataIntegrityError{URI: uri, Detail: "record missing from its own resolved chain"}
}

func (r *VersionChainResolver) GetLatestVersion(ctx context.Context, uri string) (domain.VersionChainEntry, error) {
	chain, err := r.GetVersionChain(ctx, uri)
	if err != nil {
		return domain.VersionChainEntry{}, err
	}
	return chain.Latest, nil
}

func (r *VersionChainResolver) IsLatestVersion(ctx context.Context, uri string) (bool, error) {
	chain, err := r.GetVersionChain(ctx, uri)
	if err != nil {
		return false, err
	}
	return chain.Latest.RecordURI == uri, nil
}

func (r *VersionChainResolver) findHead(ctx context.Context, start *domain.Record) (*domain.Record, error) {
	current := start
	for i := 0; i < r.maxVersions; i++ {
		next, err := r.records.GetRecordByPreviousVersion(ctx, current.URI)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return current, nil
			}
			return nil, err
		}
		current = next
	}
	return nil, &domain.DataIntegrityError{URI: start.URI, Detail: "version chain exceeds traversal cap, likely cycle"}
}

func (r *VersionChainResolver) collectBackward(ctx context.Context, head *domain.Record) ([]domain.VersionChainEntry, error) {
	entries := make([]domain.VersionChainEntry, 0, 4)
	current := head
	for {
		entries = append(entries, domain.VersionChainEntry{
			RecordURI:          current.URI,
			CID:                current.CID,
			PreviousVersionURI: current.PreviousVersionURI,
			RevisionNotes:      current.RevisionNotes,
			CreatedAt:          current.CreatedAt,
		})
		if current.PreviousVersionURI == "" {
			return entries, nil
		}
		if len(entries) >= r.maxVersions {
			return nil, &domain.DataIntegrityError{URI: head.URI, Detail: "version chain exceeds traversal cap, likely cycle"}
		}
		prev, err := r.records.GetRecord(ctx, current.PreviousVersionURI)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, &domain.DataIntegrityError{URI: current.PreviousVersionURI, Detail: "previous version missing from index"}
			}
			return nil, err
		}
		current = prev
	}
}
