package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/chive-pub/chive-sub016/internal/domain"
)

const (
	defaultScanPageSize = 100

	// maxScanPages bounds a single catch-up scan. Origins are untrusted; one
	// that keeps answering with a non-empty cursor must not pin the scan loop
	// forever.
	maxScanPages = 10000
)

var ErrInvalidEndpoint = errors.New("endpoint must be an absolute http(s) url")

// RegistrationResult is returned to the caller of RegisterOrigin. Registration
// success and scan success are independent: a failed scan leaves Registered
// true and carries the failure in ScanError.
type RegistrationResult struct {
	Registered     bool   `json:"registered"`
	Status         string `json:"status"`
	RecordsIndexed int    `json:"recordsIndexed"`
	ScanError      string `json:"scanError,omitempty"`
}

// OriginRegistrar maintains the set of known origin servers and runs on-demand
// catch-up scans of one identity's records.
type OriginRegistrar struct {
	origins  OriginRepository
	client   OriginClient
	indexer  RecordIndexer
	pageSize int
	logger   *slog.Logger
	now      func() time.Time
}

func NewOriginRegistrar(origins OriginRepository, client OriginClient, indexer RecordIndexer, pageSize int, logger *slog.Logger) *OriginRegistrar {
	if pageSize <= 0 {
		pageSize = defaultScanPageSize
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &OriginRegistrar{
		origins:  origins,
		client:   client,
		indexer:  indexer,
		pageSize: pageSize,
		logger:   logger,
		now:      time.Now,
	}
}

// RegisterOrigin records a new origin server after probing its reachability.
// Re-registering a known endpoint is idempotent and skips the probe; when an
// authenticated identity is present, both paths still scan that identity's
// backlog so "register" doubles as "refresh my data".
func (r *OriginRegistrar) RegisterOrigin(ctx context.Context, endpoint, reason, identity string) (RegistrationResult, error) {
	endpoint = domain.NormalizeEndpoint(endpoint)
	if endpoint == "" || (!strings.HasPrefix(endpoint, "https://") && !strings.HasPrefix(endpoint, "http://")) {
		return RegistrationResult{}, ErrInvalidEndpoint
	}

	existing, err := r.origins.GetByEndpoint(ctx, endpoint)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return RegistrationResult{}, err
	}
	if existing != nil {
		result := RegistrationResult{Registered: true, Status: string(existing.Status)}
		r.scanInto(ctx, &result, endpoint, identity)
		return result, nil
	}

	if err := r.client.DescribeServer(ctx, endpoint); err != nil {
		return RegistrationResult{}, err
	}

	origin := domain.OriginServer{
		Endpoint:           endpoint,
		Status:             domain.OriginStatusPending,
		RegistrationReason: reason,
		RegisteredAt:       r.now().UTC(),
	}
	if err := r.origins.Create(ctx, origin); err != nil {
		return RegistrationResult{}, err
	}
	r.logger.Info("origin registered", "endpoint", endpoint, "reason", reason)

	result := RegistrationResult{Registered: true, Status: string(domain.OriginStatusPending)}
	r.scanInto(ctx, &result, endpoint, identity)
	return result, nil
}

// ScanIdentity pages through an identity's records on the given origin and
// indexes whatever the passive stream has not delivered yet. Returns the count
// of newly indexed records. The walk is bounded: a cursor that stops advancing
// or an enumeration longer than maxScanPages aborts the scan with an error
// rather than looping on the origin's say-so.
func (r *OriginRegistrar) ScanIdentity(ctx context.Context, endpoint, identity string) (int, error) {
	endpoint = domain.NormalizeEndpoint(endpoint)
	indexed := 0
	cursor := ""
	for pages := 0; ; pages++ {
		if pages >= maxScanPages {
			return indexed, fmt.Errorf("scan of %s on %s aborted after %d pages", identity, endpoint, maxScanPages)
		}
		page, err := r.client.ListIdentityRecords(ctx, endpoint, identity, cursor, r.pageSize)
		if err != nil {
			return indexed, err
		}
		for _, record := range page.Records {
			if record.IndexedAt.IsZero() {
				record.IndexedAt = r.now().UTC()
			}
			fresh, err := r.indexer.IndexRecord(ctx, record)
			if err != nil {
				return indexed, err
			}
			if fresh {
				indexed++
			}
		}
		if page.Cursor == "" {
			return indexed, nil
		}
		if page.Cursor == cursor {
			return indexed, fmt.Errorf("scan of %s on %s aborted: cursor %q did not advance", identity, endpoint, page.Cursor)
		}
		cursor = page.Cursor
	}
}

// ListOrigins returns every known origin server in registration order.
func (r *OriginRegistrar) ListOrigins(ctx context.Context) ([]domain.OriginServer, error) {
	return r.origins.List(ctx)
}

func (r *OriginRegistrar) scanInto(ctx context.Context, result *RegistrationResult, endpoint, identity string) {
	if identity == "" {
		return
	}
	count, err := r.ScanIdentity(ctx, endpoint, identity)
	result.RecordsIndexed = count
	if err != nil {
		result.ScanError = err.Error()
		r.logger.Warn("origin scan failed", "endpoint", endpoint, "identity", identity, "indexed", count, "error", err)
		if errors.Is(err, domain.ErrOriginUnreachable) {
			if uerr := r.origins.UpdateStatus(ctx, endpoint, domain.OriginStatusUnreachable); uerr != nil {
				r.logger.Warn("origin status update failed", "endpoint", endpoint, "error", uerr)
			}
		}
		return
	}
	r.logger.Info("origin scan complete", "endpoint", endpoint, "identity", identity, "indexed", count)
	if count > 0 {
		result.Status = "scanned"
		if uerr := r.origins.UpdateStatus(ctx, endpoint, domain.OriginStatusActive); uerr != nil {
			r.logger.Warn("origin status update failed", "endpoint", endpoint, "error", uerr)
		}
	}
}
