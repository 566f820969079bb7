// Package store is the gateway to the remote document service that
// owns the student records. Every call is a fresh round trip: the
// gateway holds no cache, and a failed call leaves caller state alone.
package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/student-console-api/internal/models"
	"github.com/noah-isme/student-console-api/pkg/config"
	appErrors "github.com/noah-isme/student-console-api/pkg/errors"
)

// Observer receives timing for outbound store calls. Satisfied by the
// metrics service; nil disables instrumentation.
type Observer interface {
	ObserveStoreCall(op string, err error, duration time.Duration)
}

// Client talks to the document store over HTTP.
type Client struct {
	httpClient *http.Client
	baseURL    string
	collection string
	logger     *zap.Logger
	observer   Observer
}

// NewClient constructs a store client for the configured collection.
func NewClient(cfg config.StoreConfig, logger *zap.Logger, observer Observer) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		collection: cfg.Collection,
		logger:     logger,
		observer:   observer,
	}
}

type listResponse struct {
	Documents []models.Record `json:"documents"`
}

type createResponse struct {
	ID string `json:"id"`
}

// FetchByID loads a single record document.
func (c *Client) FetchByID(ctx context.Context, id string) (models.Record, error) {
	var record models.Record
	err := c.do(ctx, "fetch", http.MethodGet, c.documentURL(id), nil, &record)
	if err != nil {
		return models.Record{}, err
	}
	record.ID = id
	return record, nil
}

// List queries every document in the records collection.
func (c *Client) List(ctx context.Context) ([]models.Record, error) {
	var resp listResponse
	if err := c.do(ctx, "list", http.MethodGet, c.collectionURL(), nil, &resp); err != nil {
		return nil, err
	}
	return resp.Documents, nil
}

// Create persists a draft and returns the record carrying the
// store-assigned identifier. The draft itself is not mutated.
func (c *Client) Create(ctx context.Context, draft models.Record) (models.Record, error) {
	var resp createResponse
	if err := c.do(ctx, "create", http.MethodPost, c.collectionURL(), draft.FieldMap(), &resp); err != nil {
		return models.Record{}, err
	}
	if resp.ID == "" {
		return models.Record{}, appErrors.Clone(appErrors.ErrStoreUnavailable, "store did not assign an identifier")
	}
	created := draft
	created.ID = resp.ID
	return created, nil
}

// Update overwrites only the supplied fields; the store merges them
// into the existing document.
func (c *Client) Update(ctx context.Context, id string, fields map[string]any) error {
	return c.do(ctx, "update", http.MethodPatch, c.documentURL(id), fields, nil)
}

// Delete removes the document from the store.
func (c *Client) Delete(ctx context.Context, id string) error {
	return c.do(ctx, "delete", http.MethodDelete, c.documentURL(id), nil, nil)
}

func (c *Client) collectionURL() string {
	return fmt.Sprintf("%s/v1/collections/%s/documents", c.baseURL, url.PathEscape(c.collection))
}

func (c *Client) documentURL(id string) string {
	return fmt.Sprintf("%s/%s", c.collectionURL(), url.PathEscape(id))
}

func (c *Client) do(ctx context.Context, op, method, rawURL string, body any, out any) error {
	start := time.Now()
	err := c.roundTrip(ctx, method, rawURL, body, out)
	if c.observer != nil {
		c.observer.ObserveStoreCall(op, err, time.Since(start))
	}
	if err != nil {
		c.logger.Warn("store call failed",
			zap.String("op", op),
			zap.String("method", method),
			zap.Error(err),
		)
	}
	return err
}

func (c *Client) roundTrip(ctx context.Context, method, rawURL string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "encode store payload")
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, reader)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "build store request")
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "record store unreachable")
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return appErrors.Clone(appErrors.ErrNotFound, "record not found")
	case resp.StatusCode >= 400:
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return appErrors.Wrap(
			fmt.Errorf("store responded %d: %s", resp.StatusCode, strings.TrimSpace(string(payload))),
			appErrors.ErrStoreUnavailable.Code,
			appErrors.ErrStoreUnavailable.Status,
			"record store request failed",
		)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "decode store response")
	}
	return nil
}
