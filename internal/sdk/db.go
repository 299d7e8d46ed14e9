package sdk

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	queryPath = "/internal/v1/db/query"
	execPath  = "/internal/v1/db/exec"

	// DefaultRequestTimeout bounds every Internal API call.
	DefaultRequestTimeout = 30 * time.Second
)

// Internal API exec operations.
const (
	OpInsert = "insert"
	OpUpdate = "update"
	OpDelete = "delete"
)

// NewHTTPClient returns the client shared by database façades.
func NewHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}
	return &http.Client{Timeout: timeout}
}

// DB gives a function access to collections on the Alyx server through the
// Internal API. URL and token are not checked until a request is made.
type DB struct {
	baseURL string
	token   string
	client  *http.Client

	mu          sync.Mutex
	collections map[string]*Collection
}

// NewDB returns a DB bound to the given Internal API base URL and token.
// A nil client gets one with DefaultRequestTimeout.
func NewDB(baseURL, token string, client *http.Client) *DB {
	if client == nil {
		client = NewHTTPClient(DefaultRequestTimeout)
	}
	return &DB{
		baseURL:     strings.TrimRight(baseURL, "/"),
		token:       token,
		client:      client,
		collections: make(map[string]*Collection),
	}
}

// Collection returns the client for the named collection.
func (d *DB) Collection(name string) *Collection {
	d.mu.Lock()
	defer d.mu.Unlock()

	if c, ok := d.collections[name]; ok {
		return c
	}
	c := &Collection{name: name, db: d}
	d.collections[name] = c
	return c
}

// Collection issues queries and mutations against one collection.
type Collection struct {
	name string
	db   *DB
}

// Name returns the collection name.
func (c *Collection) Name() string {
	return c.name
}

// FindOptions narrows a Find call. Filters are equality matches combined with
// AND. Zero Limit and Offset are omitted.
type FindOptions struct {
	Filter map[string]any
	Sort   string
	Limit  int
	Offset int
}

type execRequest struct {
	Operation  string         `json:"operation"`
	Collection string         `json:"collection"`
	Data       map[string]any `json:"data,omitempty"`
	ID         string         `json:"id,omitempty"`
}

// Find returns the documents matching opts.
func (c *Collection) Find(ctx context.Context, opts *FindOptions) ([]Document, error) {
	var result struct {
		Data []Document `json:"data"`
	}
	if err := c.db.do(ctx, http.MethodGet, queryPath+"?"+c.queryString(opts), nil, &result); err != nil {
		return nil, err
	}
	if result.Data == nil {
		return []Document{}, nil
	}
	return result.Data, nil
}

// FindOne returns the document with the given id, or ErrNotFound.
func (c *Collection) FindOne(ctx context.Context, id string) (Document, error) {
	docs, err := c.Find(ctx, &FindOptions{Filter: map[string]any{"id": id}})
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, ErrNotFound
	}
	return docs[0], nil
}

// Create inserts a document.
func (c *Collection) Create(ctx context.Context, data map[string]any) (Document, error) {
	return c.exec(ctx, execRequest{Operation: OpInsert, Collection: c.name, Data: data})
}

// Update modifies the document with the given id.
func (c *Collection) Update(ctx context.Context, id string, data map[string]any) (Document, error) {
	return c.exec(ctx, execRequest{Operation: OpUpdate, Collection: c.name, Data: data, ID: id})
}

// Delete removes the document with the given id.
func (c *Collection) Delete(ctx context.Context, id string) (Document, error) {
	return c.exec(ctx, execRequest{Operation: OpDelete, Collection: c.name, ID: id})
}

func (c *Collection) exec(ctx context.Context, req execRequest) (Document, error) {
	var doc Document
	if err := c.db.do(ctx, http.MethodPost, execPath, req, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// queryString builds collection, filter, sort, limit and offset parameters in
// that order. Filter keys are sorted so the same filter yields the same URL.
func (c *Collection) queryString(opts *FindOptions) string {
	params := []string{"collection=" + url.QueryEscape(c.name)}
	if opts == nil {
		return params[0]
	}

	keys := make([]string, 0, len(opts.Filter))
	for k := range opts.Filter {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		params = append(params, "filter="+url.QueryEscape(k+":eq:"+formatFilterValue(opts.Filter[k])))
	}

	if opts.Sort != "" {
		params = append(params, "sort="+url.QueryEscape(opts.Sort))
	}
	if opts.Limit != 0 {
		params = append(params, "limit="+strconv.Itoa(opts.Limit))
	}
	if opts.Offset != 0 {
		params = append(params, "offset="+strconv.Itoa(opts.Offset))
	}
	return strings.Join(params, "&")
}

func formatFilterValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case nil:
		return ""
	default:
		return fmt.Sprint(val)
	}
}

func (d *DB) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, d.baseURL+path, reader)
	if err != nil {
		return &ConnectionError{Reason: err.Error(), Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+d.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return &ConnectionError{Reason: connectionReason(err), Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &ConnectionError{Reason: err.Error(), Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return remoteError(resp.StatusCode, data)
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

func connectionReason(err error) string {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		if urlErr.Timeout() {
			return "request timed out"
		}
		return urlErr.Err.Error()
	}
	return err.Error()
}

// remoteError reads the error message from a JSON body. The host answers with
// {"error": ..., "code": ...}; a "message" field takes precedence.
func remoteError(status int, body []byte) *RemoteError {
	re := &RemoteError{
		Status:  status,
		Message: fmt.Sprintf("Request failed with status %d", status),
	}

	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
		Code    string `json:"code"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return re
	}

	re.Code = payload.Code
	switch {
	case payload.Message != "":
		re.Message = payload.Message
	case payload.Error != "":
		re.Message = payload.Error
	}
	return re
}
