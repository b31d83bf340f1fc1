package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"savings/internal/core"
	"savings/internal/log"
	"savings/internal/recordstore"
)

const (
	FetchPath  = "/ExpensesManagement/RetrieveIncomesExpenses"
	UpsertPath = "/ExpensesManagement/AddOrUpdateExpensesIncomes"

	// maxBodyBytes bounds what is read from the store.
	maxBodyBytes = 8 << 20
)

var (
	ErrNotArray      = errors.New("response is not a JSON array")
	ErrEmptyResponse = errors.New("empty response body")
)

// Client is the HTTP/JSON record store gateway. It is the only component that
// talks to the record store over the network.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	logger     *log.Logger
	fetches    singleflight.Group

	// writes counts finished upserts. It keys shared fetches so a fetch
	// started after a write never joins one started before it.
	writes atomic.Uint64
}

// Ensure interface conformance
var _ recordstore.Store = (*Client)(nil)

type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout bounds every request. Zero keeps the default of no client timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

func WithLogger(l *log.Logger) Option {
	return func(c *Client) { c.logger = l.WithComponent(log.ComponentRecordStore) }
}

// New creates a client for the store rooted at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil {
		return nil, fmt.Errorf("parse record store URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("record store URL %q: scheme must be http or https", baseURL)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("record store URL %q: missing host", baseURL)
	}
	u.Path = strings.TrimRight(u.Path, "/")

	c := &Client{
		baseURL:    u,
		httpClient: &http.Client{},
		logger:     log.New(log.DefaultConfig()).WithComponent(log.ComponentRecordStore),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Client) endpoint(path string) string {
	u := *c.baseURL
	u.Path = c.baseURL.Path + path
	return u.String()
}

// FetchAll returns the full record set in the order the store sent it.
// Overlapping calls made since the same upsert share one request, which runs
// detached from any single caller's cancellation; every caller receives its
// own copy and stops waiting when its own ctx is done.
func (c *Client) FetchAll(ctx context.Context) ([]core.Record, error) {
	key := FetchPath + "#" + strconv.FormatUint(c.writes.Load(), 10)
	shared := context.WithoutCancel(ctx)
	ch := c.fetches.DoChan(key, func() (any, error) {
		return c.fetch(shared)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		records := res.Val.([]core.Record)
		if res.Shared {
			c.logger.DebugContext(ctx, "Fetch shared with concurrent caller", log.FieldRecordCount, len(records))
		}
		return core.Clone(records), nil
	}
}

func (c *Client) fetch(ctx context.Context) ([]core.Record, error) {
	start := time.Now()
	endpoint := c.endpoint(FetchPath)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	body, err := c.do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch records: %w", err)
	}

	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, fmt.Errorf("fetch records: %w", ErrNotArray)
	}
	records := []core.Record{}
	if err := json.Unmarshal(trimmed, &records); err != nil {
		return nil, fmt.Errorf("decode records: %w", err)
	}

	c.logger.DebugContext(ctx, "Records fetched",
		log.FieldEndpoint, endpoint,
		log.FieldOperation, log.OpList,
		log.FieldRecordCount, len(records),
		log.FieldDuration, time.Since(start).Milliseconds())
	return records, nil
}

type upsertBody struct {
	Name          string      `json:"name"`
	TotalIncomes  json.Number `json:"total_incomes"`
	TotalExpenses json.Number `json:"total_expenses"`
}

type upsertReply struct {
	Status  float64 `json:"status"`
	Message string  `json:"message"`
}

// Upsert posts a create-or-update request. The store decides which one happens.
func (c *Client) Upsert(ctx context.Context, in core.UpsertRequest) recordstore.Outcome {
	// Even a failed call may have landed; later fetches must not reuse older ones.
	defer c.writes.Add(1)

	start := time.Now()
	endpoint := c.endpoint(UpsertPath)

	payload, err := json.Marshal(upsertBody{
		Name:          in.Name,
		TotalIncomes:  json.Number(in.TotalIncomes.String()),
		TotalExpenses: json.Number(in.TotalExpenses.String()),
	})
	if err != nil {
		return recordstore.Failed(fmt.Errorf("marshal upsert: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return recordstore.Failed(fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	body, err := c.do(req)
	if err != nil {
		c.logUpsertFailure(ctx, in, err)
		return recordstore.Failed(fmt.Errorf("upsert record: %w", err))
	}

	outcome, err := decodeUpsertReply(body)
	if err != nil {
		c.logUpsertFailure(ctx, in, err)
		return recordstore.Failed(fmt.Errorf("upsert record: %w", err))
	}

	fields := log.NewFields().
		WithRecord(in.Name, in.TotalIncomes, in.TotalExpenses).
		WithOperation(log.OpUpsert)
	fields[log.FieldOutcome] = outcome.Kind.String()
	fields[log.FieldDuration] = time.Since(start).Milliseconds()
	if outcome.Kind == recordstore.Rejected {
		c.logger.WarnContext(ctx, "Record store declined upsert", append(fields.ToSlice(), "message", outcome.Message)...)
	} else {
		c.logger.InfoContext(ctx, "Record store accepted upsert", fields.ToSlice()...)
	}
	return outcome
}

func decodeUpsertReply(body []byte) (recordstore.Outcome, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return recordstore.Outcome{}, ErrEmptyResponse
	}
	var reply *upsertReply
	if err := json.Unmarshal(trimmed, &reply); err != nil {
		return recordstore.Outcome{}, fmt.Errorf("decode upsert reply: %w", err)
	}
	if reply == nil {
		return recordstore.Outcome{}, ErrEmptyResponse
	}
	if reply.Status > 0 {
		return recordstore.Accepted(), nil
	}
	return recordstore.Declined(reply.Message), nil
}

// do executes req and returns the body of a 2xx response.
func (c *Client) do(req *http.Request) ([]byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{StatusCode: resp.StatusCode}
	}
	return body, nil
}

func (c *Client) logUpsertFailure(ctx context.Context, in core.UpsertRequest, err error) {
	fields := log.NewFields().
		WithRecord(in.Name, in.TotalIncomes, in.TotalExpenses).
		WithOperation(log.OpUpsert).
		WithErrorType(log.ErrorTypeNetwork).
		WithError(err)
	c.logger.ErrorContext(ctx, "Record store upsert failed", fields.ToSlice()...)
}

// Ping checks that the store answers the fetch endpoint.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.fetch(ctx)
	return err
}

// StatusError reports a non-2xx answer from the store.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status code: %d", e.StatusCode)
}
