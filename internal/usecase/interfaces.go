package usecase

import (
	"context"

	"github.com/chive-pub/chive-sub016/internal/domain"
)

// RecordReader reads the AppView's indexed copies of records. Implementations
// return domain.ErrNotFound when no copy is indexed for the URI.
type RecordReader interface {
	GetRecord(ctx context.Context, uri string) (*domain.Record, error)
	// GetRecordByPreviousVersion finds the revision whose backward link points
	// at prevURI, i.e. the successor of prevURI in its version chain.
	GetRecordByPreviousVersion(ctx context.Context, prevURI string) (*domain.Record, error)
}

// RecordIndexer lands records discovered during an origin scan. The returned
// bool reports whether the record was newly indexed rather than already
// present; indexing is an upsert keyed on URI, so replaying a scan is safe.
type RecordIndexer interface {
	IndexRecord(ctx context.Context, record domain.Record) (bool, error)
}

// OriginRepository persists known origin servers.
type OriginRepository interface {
	GetByEndpoint(ctx context.Context, endpoint string) (*domain.OriginServer, error)
	Create(ctx context.Context, origin domain.OriginServer) error
	UpdateStatus(ctx context.Context, endpoint string, status domain.OriginStatus) error
	List(ctx context.Context) ([]domain.OriginServer, error)
}

// EndpointResolver resolves an identity (DID) to the origin endpoint currently
// hosting its records.
type EndpointResolver interface {
	ResolveOriginEndpoint(ctx context.Context, identity string) (string, error)
}

// RecordPage is one page of records enumerated from an origin.
type RecordPage struct {
	Records []domain.Record
	Cursor  string
}

// OriginClient talks to an origin server over the network. Every call is
// bounded by the client's configured timeout; origins are untrusted third
// parties and may be slow or offline.
type OriginClient interface {
	DescribeServer(ctx context.Context, endpoint string) error
	FetchRecordCID(ctx context.Context, endpoint, uri string) (string, error)
	ListIdentityRecords(ctx context.Context, endpoint, identity, cursor string, limit int) (RecordPage, error)
}
