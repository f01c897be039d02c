package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/chive-pub/chive-sub016/internal/domain"
	"github.com/chive-pub/chive-sub016/internal/usecase"
)

const (
	defaultResolveTimeout = 5 * time.Second
	pdsServiceID          = "#atproto_pds"
	pdsServiceType        = "AtprotoPersonalDataServer"
)

// EndpointCache holds resolved identity -> origin endpoint mappings. Cache
// failures are never fatal; resolution falls through to the directory.
type EndpointCache interface {
	Get(ctx context.Context, identity string) (string, bool, error)
	Put(ctx context.Context, identity, endpoint string, ttl time.Duration) error
}

// Resolver resolves a DID to the origin endpoint currently hosting its
// records, via the PLC directory for did:plc and the well-known document for
// did:web.
type Resolver struct {
	plcURL     string
	httpClient *http.Client
	cache      EndpointCache
	ttl        time.Duration
	timeout    time.Duration
	logger     *slog.Logger
}

func NewResolver(plcURL string, cache EndpointCache, ttl, timeout time.Duration, logger *slog.Logger) *Resolver {
	if timeout <= 0 {
		timeout = defaultResolveTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		plcURL:     domain.NormalizeEndpoint(plcURL),
		httpClient: &http.Client{},
		cache:      cache,
		ttl:        ttl,
		timeout:    timeout,
		logger:     logger,
	}
}

func (r *Resolver) ResolveOriginEndpoint(ctx context.Context, identity string) (string, error) {
	if identity == "" || strings.ContainsAny(identity, " \t\n") {
		return "", &domain.IdentityResolutionError{Identity: identity, Reason: domain.IdentityReasonInvalidFormat}
	}
	if !strings.HasPrefix(identity, "did:") {
		return "", &domain.IdentityResolutionError{Identity: identity, Reason: domain.IdentityReasonUnsupportedScheme}
	}

	if r.cache != nil {
		if endpoint, ok, err := r.cache.Get(ctx, identity); err != nil {
			r.logger.Debug("identity cache read failed", "identity", identity, "error", err)
		} else if ok {
			return endpoint, nil
		}
	}

	var docURL string
	switch {
	case strings.HasPrefix(identity, "did:plc:"):
		docURL = r.plcURL + "/" + identity
	case strings.HasPrefix(identity, "did:web:"):
		host := strings.TrimPrefix(identity, "did:web:")
		if host == "" || strings.Contains(host, "/") {
			return "", &domain.IdentityResolutionError{Identity: identity, Reason: domain.IdentityReasonInvalidFormat}
		}
		docURL = "https://" + host + "/.well-known/did.json"
	default:
		return "", &domain.IdentityResolutionError{Identity: identity, Reason: domain.IdentityReasonUnsupportedScheme}
	}

	endpoint, err := r.fetchPDSEndpoint(ctx, identity, docURL)
	if err != nil {
		return "", err
	}

	if r.cache != nil {
		if err := r.cache.Put(ctx, identity, endpoint, r.ttl); err != nil {
			r.logger.Debug("identity cache write failed", "identity", identity, "error", err)
		}
	}
	return endpoint, nil
}

func (r *Resolver) fetchPDSEndpoint(ctx context.Context, identity, docURL string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, docURL, nil)
	if err != nil {
		return "", &domain.IdentityResolutionError{Identity: identity, Reason: domain.IdentityReasonNetwork, Err: err}
	}
	resp, err := r.httpClient.Do(req)
	if err != nil {
		return "", &domain.IdentityResolutionError{Identity: identity, Reason: domain.IdentityReasonNetwork, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &domain.IdentityResolutionError{Identity: identity, Reason: domain.IdentityReasonNetwork, Err: err}
	}
	if resp.StatusCode == http.StatusNotFound {
		return "", &domain.IdentityResolutionError{Identity: identity, Reason: domain.IdentityReasonNotFound}
	}
	if resp.StatusCode != http.StatusOK {
		return "", &domain.IdentityResolutionError{Identity: identity, Reason: domain.IdentityReasonNetwork, Err: fmt.Errorf("status %d", resp.StatusCode)}
	}

	var doc struct {
		Service []struct {
			ID              string `json:"id"`
			Type            string `json:"type"`
			ServiceEndpoint string `json:"serviceEndpoint"`
		} `json:"service"`
	}
	if err := json.Unmarshal(body, &doc); err != nil {
		return "", &domain.IdentityResolutionError{Identity: identity, Reason: domain.IdentityReasonNetwork, Err: err}
	}
	for _, service := range doc.Service {
		if (strings.HasSuffix(service.ID, pdsServiceID) || service.Type == pdsServiceType) && service.ServiceEndpoint != "" {
			return domain.NormalizeEndpoint(service.ServiceEndpoint), nil
		}
	}
	return "", &domain.IdentityResolutionError{Identity: identity, Reason: domain.IdentityReasonNoOriginService}
}

var _ usecase.EndpointResolver = (*Resolver)(nil)
