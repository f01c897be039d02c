package pds

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/chive-pub/chive-sub016/internal/domain"
	"github.com/chive-pub/chive-sub016/internal/usecase"
)

const (
	defaultProbeTimeout = 10 * time.Second
	defaultFetchTimeout = 5 * time.Second

	describeServerPath = "/xrpc/com.atproto.server.describeServer"
	describeRepoPath   = "/xrpc/com.atproto.repo.describeRepo"
	getRecordPath      = "/xrpc/com.atproto.repo.getRecord"
	listRecordsPath    = "/xrpc/com.atproto.repo.listRecords"

	// Only this app's collections are scanned; other lexicons on the same
	// repo are not ours to index.
	collectionPrefix = "pub.chive."
)

// Client talks to origin servers over XRPC. Every call carries an explicit
// timeout; origins are independently operated and may be offline or slow.
type Client struct {
	httpClient   *http.Client
	probeTimeout time.Duration
	fetchTimeout time.Duration
}

func NewClient(probeTimeout, fetchTimeout time.Duration) *Client {
	if probeTimeout <= 0 {
		probeTimeout = defaultProbeTimeout
	}
	if fetchTimeout <= 0 {
		fetchTimeout = defaultFetchTimeout
	}
	return &Client{
		httpClient:   &http.Client{},
		probeTimeout: probeTimeout,
		fetchTimeout: fetchTimeout,
	}
}

// DescribeServer probes reachability of an origin endpoint. Any network
// failure or non-success status is an OriginConnectionError.
func (c *Client) DescribeServer(ctx context.Context, endpoint string) error {
	endpoint = domain.NormalizeEndpoint(endpoint)
	ctx, cancel := context.WithTimeout(ctx, c.probeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+describeServerPath, nil)
	if err != nil {
		return &domain.OriginConnectionError{Endpoint: endpoint, Err: err}
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &domain.OriginConnectionError{Endpoint: endpoint, Err: err}
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return &domain.OriginConnectionError{Endpoint: endpoint, StatusCode: resp.StatusCode}
	}
	return nil
}

// FetchRecordCID asks the origin for the CID it currently holds for uri.
func (c *Client) FetchRecordCID(ctx context.Context, endpoint, uri string) (string, error) {
	parsed, err := domain.ParseAtURI(uri)
	if err != nil {
		return "", &domain.RecordFetchError{URI: uri, Reason: domain.RecordReasonMalformed, Err: err}
	}
	query := url.Values{}
	query.Set("repo", parsed.DID)
	query.Set("collection", parsed.Collection)
	query.Set("rkey", parsed.RKey)

	var out struct {
		URI string `json:"uri"`
		CID string `json:"cid"`
	}
	status, err := c.getJSON(ctx, endpoint, getRecordPath, query, c.fetchTimeout, &out)
	if err != nil {
		return "", &domain.RecordFetchError{URI: uri, Reason: domain.RecordReasonNetwork, Err: err}
	}
	switch {
	case status == http.StatusOK:
	case status == http.StatusNotFound || status == http.StatusBadRequest:
		// PDS implementations answer 400 RecordNotFound for missing rkeys.
		return "", &domain.RecordFetchError{URI: uri, Reason: domain.RecordReasonNotFound, Err: domain.ErrNotFound}
	default:
		return "", &domain.RecordFetchError{URI: uri, Reason: domain.RecordReasonOriginError, Err: fmt.Errorf("status %d", status)}
	}
	if out.CID == "" {
		return "", &domain.RecordFetchError{URI: uri, Reason: domain.RecordReasonMalformed, Err: errors.New("response missing cid")}
	}
	return out.CID, nil
}

// ListIdentityRecords enumerates one identity's records across this app's
// collections, one page per call. The returned cursor is opaque to callers
// and empty once the enumeration is exhausted.
func (c *Client) ListIdentityRecords(ctx context.Context, endpoint, identity, cursor string, limit int) (usecase.RecordPage, error) {
	endpoint = domain.NormalizeEndpoint(endpoint)
	collections, err := c.relevantCollections(ctx, endpoint, identity)
	if err != nil {
		return usecase.RecordPage{}, err
	}
	if len(collections) == 0 {
		return usecase.RecordPage{}, nil
	}

	startCollection, pageCursor := splitCursor(cursor)
	start := 0
	for i, collection := range collections {
		if collection == startCollection {
			start = i
			break
		}
	}

	for i := start; i < len(collections); i++ {
		records, nextCursor, err := c.listRecords(ctx, endpoint, identity, collections[i], pageCursor, limit)
		if err != nil {
			return usecase.RecordPage{}, err
		}
		pageCursor = ""
		if len(records) == 0 && nextCursor == "" {
			continue
		}
		out := usecase.RecordPage{Records: records}
		if nextCursor != "" {
			out.Cursor = collections[i] + ":" + nextCursor
		} else if i+1 < len(collections) {
			out.Cursor = collections[i+1] + ":"
		}
		return out, nil
	}
	return usecase.RecordPage{}, nil
}

func (c *Client) relevantCollections(ctx context.Context, endpoint, identity string) ([]string, error) {
	query := url.Values{}
	query.Set("repo", identity)

	var out struct {
		Collections []string `json:"collections"`
	}
	status, err := c.getJSON(ctx, endpoint, describeRepoPath, query, c.fetchTimeout, &out)
	if err != nil {
		return nil, &domain.OriginConnectionError{Endpoint: endpoint, Err: err}
	}
	if status != http.StatusOK {
		return nil, &domain.OriginConnectionError{Endpoint: endpoint, StatusCode: status}
	}
	relevant := make([]string, 0, len(out.Collections))
	for _, collection := range out.Collections {
		if strings.HasPrefix(collection, collectionPrefix) {
			relevant = append(relevant, collection)
		}
	}
	return relevant, nil
}

func (c *Client) listRecords(ctx context.Context, endpoint, identity, collection, cursor string, limit int) ([]domain.Record, string, error) {
	query := url.Values{}
	query.Set("repo", identity)
	query.Set("collection", collection)
	if cursor != "" {
		query.Set("cursor", cursor)
	}
	if limit > 0 {
		query.Set("limit", fmt.Sprintf("%d", limit))
	}

	var out struct {
		Cursor  string `json:"cursor"`
		Records []struct {
			URI   string `json:"uri"`
			CID   string `json:"cid"`
			Value struct {
				Prev          string `json:"prev"`
				RevisionNotes string `json:"revisionNotes"`
				CreatedAt     string `json:"createdAt"`
			} `json:"value"`
		} `json:"records"`
	}
	status, err := c.getJSON(ctx, endpoint, listRecordsPath, query, c.fetchTimeout, &out)
	if err != nil {
		return nil, "", &domain.OriginConnectionError{Endpoint: endpoint, Err: err}
	}
	if status != http.StatusOK {
		return nil, "", &domain.OriginConnectionError{Endpoint: endpoint, StatusCode: status}
	}

	records := make([]domain.Record, 0, len(out.Records))
	for _, listed := range out.Records {
		createdAt, _ := time.Parse(time.RFC3339, listed.Value.CreatedAt)
		records = append(records, domain.Record{
			URI:                listed.URI,
			CID:                listed.CID,
			DID:                identity,
			Collection:         collection,
			PreviousVersionURI: listed.Value.Prev,
			RevisionNotes:      listed.Value.RevisionNotes,
			CreatedAt:          createdAt,
		})
	}
	return records, out.Cursor, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint, path string, query url.Values, timeout time.Duration, out any) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	target := domain.NormalizeEndpoint(endpoint) + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return 0, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, err
	}
	if resp.StatusCode == http.StatusOK && out != nil {
		if err := json.Unmarshal(body, out); err != nil {
			return resp.StatusCode, err
		}
	}
	return resp.StatusCode, nil
}

func splitCursor(cursor string) (collection, pageCursor string) {
	if cursor == "" {
		return "", ""
	}
	collection, pageCursor, _ = strings.Cut(cursor, ":")
	return collection, pageCursor
}

var _ usecase.OriginClient = (*Client)(nil)
