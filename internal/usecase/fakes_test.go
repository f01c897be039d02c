package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/chive-pub/chive-sub016/internal/domain"
)

// fakeRecordStore serves records from memory and counts lookups.
type fakeRecordStore struct {
	byURI       map[string]*domain.Record
	byPrev      map[string]*domain.Record
	uriLookups  int
	prevLookups int
}

func newFakeRecordStore() *fakeRecordStore {
	return &fakeRecordStore{
		byURI:  map[string]*domain.Record{},
		byPrev: map[string]*domain.Record{},
	}
}

func (s *fakeRecordStore) add(record *domain.Record) {
	s.byURI[record.URI] = record
	if record.PreviousVersionURI != "" {
		s.byPrev[record.PreviousVersionURI] = record
	}
}

func (s *fakeRecordStore) GetRecord(ctx context.Context, uri string) (*domain.Record, error) {
	s.uriLookups++
	record, ok := s.byURI[uri]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return record, nil
}

func (s *fakeRecordStore) GetRecordByPreviousVersion(ctx context.Context, prevURI string) (*domain.Record, error) {
	s.prevLookups++
	record, ok := s.byPrev[prevURI]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return record, nil
}

// chainURI builds the test URIs used across this package.
func chainURI(n int) string {
	return fmt.Sprintf("at://did:plc:alice/pub.chive.doc/v%d", n)
}

// addChain stores a linear chain of k revisions, v1 oldest.
func (s *fakeRecordStore) addChain(k int) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 1; i <= k; i++ {
		record := &domain.Record{
			URI:           chainURI(i),
			CID:           fmt.Sprintf("bafycid%d", i),
			DID:           "did:plc:alice",
			Collection:    "pub.chive.doc",
			RevisionNotes: fmt.Sprintf("revision %d", i),
			CreatedAt:     base.Add(time.Duration(i) * time.Hour),
			IndexedAt:     base.Add(time.Duration(i) * time.Hour),
		}
		if i > 1 {
			record.PreviousVersionURI = chainURI(i - 1)
		}
		s.add(record)
	}
}

type fakeResolver struct {
	endpoint string
	err      error
	calls    int
}

func (r *fakeResolver) ResolveOriginEndpoint(ctx context.Context, identity string) (string, error) {
	r.calls++
	if r.err != nil {
		return "", r.err
	}
	return r.endpoint, nil
}

type fakeOriginClient struct {
	describeErr   error
	describeCalls int

	cid      string
	fetchErr error

	pages    []RecordPage
	listErr  error
	listCall int
	// listFn overrides the page script when set; call is zero-based.
	listFn func(cursor string, call int) (RecordPage, error)
}

func (c *fakeOriginClient) DescribeServer(ctx context.Context, endpoint string) error {
	c.describeCalls++
	return c.describeErr
}

func (c *fakeOriginClient) FetchRecordCID(ctx context.Context, endpoint, uri string) (string, error) {
	if c.fetchErr != nil {
		return "", c.fetchErr
	}
	return c.cid, nil
}

func (c *fakeOriginClient) ListIdentityRecords(ctx context.Context, endpoint, identity, cursor string, limit int) (RecordPage, error) {
	call := c.listCall
	c.listCall++
	if c.listFn != nil {
		return c.listFn(cursor, call)
	}
	if c.listErr != nil {
		return RecordPage{}, c.listErr
	}
	if call >= len(c.pages) {
		return RecordPage{}, nil
	}
	return c.pages[call], nil
}

type fakeOriginRepo struct {
	existing *domain.OriginServer
	created  []domain.OriginServer
	statuses map[string]domain.OriginStatus
}

func newFakeOriginRepo() *fakeOriginRepo {
	return &fakeOriginRepo{statuses: map[string]domain.OriginStatus{}}
}

func (r *fakeOriginRepo) GetByEndpoint(ctx context.Context, endpoint string) (*domain.OriginServer, error) {
	if r.existing == nil {
		return nil, domain.ErrNotFound
	}
	return r.existing, nil
}

func (r *fakeOriginRepo) Create(ctx context.Context, origin domain.OriginServer) error {
	r.created = append(r.created, origin)
	return nil
}

func (r *fakeOriginRepo) UpdateStatus(ctx context.Context, endpoint string, status domain.OriginStatus) error {
	r.statuses[endpoint] = status
	return nil
}

func (r *fakeOriginRepo) List(ctx context.Context) ([]domain.OriginServer, error) {
	var origins []domain.OriginServer
	if r.existing != nil {
		origins = append(origins, *r.existing)
	}
	return append(origins, r.created...), nil
}

type fakeIndexer struct {
	indexed []domain.Record
	stale   map[string]bool // URIs reported as already indexed
	err     error
}

func (i *fakeIndexer) IndexRecord(ctx context.Context, record domain.Record) (bool, error) {
	if i.err != nil {
		return false, i.err
	}
	i.indexed = append(i.indexed, record)
	if i.stale != nil && i.stale[record.URI] {
		return false, nil
	}
	return true, nil
}
