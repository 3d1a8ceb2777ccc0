package jellyfin

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cast"

	"ytmeta/internal/config"
	"ytmeta/internal/library"
	"ytmeta/internal/logging"
	"ytmeta/internal/services"
)

const (
	pageSize   = 200
	itemFields = "ProviderIds,Path,PremiereDate,DateLastSaved,ParentId"
)

// Client reads and updates library items through the Jellyfin API.
type Client struct {
	baseURL string
	apiKey  string
	userID  string
	client  HTTPDoer
	logger  *slog.Logger
}

var _ library.Library = (*Client)(nil)

// Option configures the client.
type Option func(*Client)

// WithHTTPClient replaces the HTTP client (primarily for tests).
func WithHTTPClient(doer HTTPDoer) Option {
	return func(c *Client) {
		if doer != nil {
			c.client = doer
		}
	}
}

// WithUserID scopes single-item reads to a Jellyfin user.
func WithUserID(id string) Option {
	return func(c *Client) {
		c.userID = strings.TrimSpace(id)
	}
}

// New constructs a client for the server at baseURL.
func New(baseURL, apiKey string, logger *slog.Logger, opts ...Option) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	apiKey = strings.TrimSpace(apiKey)
	if baseURL == "" {
		return nil, services.Wrap(services.ErrConfiguration, "jellyfin", "new client", "url required", nil)
	}
	if apiKey == "" {
		return nil, services.Wrap(services.ErrConfiguration, "jellyfin", "new client", "api key required", nil)
	}
	c := &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  http.DefaultClient,
		logger:  logging.NewComponentLogger(logger, "jellyfin"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// NewFromConfig builds a client from the [jellyfin] section.
func NewFromConfig(cfg *config.Config, logger *slog.Logger) (*Client, error) {
	if cfg == nil || !cfg.Jellyfin.Enabled {
		return nil, services.Wrap(services.ErrConfiguration, "jellyfin", "new client", "jellyfin disabled", nil)
	}
	return New(cfg.Jellyfin.URL, cfg.Jellyfin.APIKey, logger,
		WithUserID(cfg.Jellyfin.UserID),
		WithHTTPClient(&http.Client{Timeout: cfg.JellyfinTimeout()}),
	)
}

type itemDTO struct {
	ID                string            `json:"Id"`
	Name              string            `json:"Name"`
	Type              string            `json:"Type"`
	Path              string            `json:"Path"`
	ParentID          string            `json:"ParentId"`
	PremiereDate      string            `json:"PremiereDate"`
	IndexNumber       *int              `json:"IndexNumber"`
	ParentIndexNumber *int              `json:"ParentIndexNumber"`
	ProviderIDs       map[string]string `json:"ProviderIds"`
	DateLastSaved     string            `json:"DateLastSaved"`
}

type itemsPage struct {
	Items            []itemDTO `json:"Items"`
	TotalRecordCount int       `json:"TotalRecordCount"`
}

// Shows implements library.Library.
func (c *Client) Shows(ctx context.Context) ([]library.Item, error) {
	return c.listItems(ctx, "", library.KindShow)
}

// Seasons implements library.Library.
func (c *Client) Seasons(ctx context.Context, showID string) ([]library.Item, error) {
	return c.listItems(ctx, showID, library.KindSeason)
}

// Episodes implements library.Library.
func (c *Client) Episodes(ctx context.Context, seasonID string) ([]library.Item, error) {
	return c.listItems(ctx, seasonID, library.KindEpisode)
}

func (c *Client) listItems(ctx context.Context, parentID string, kind library.Kind) ([]library.Item, error) {
	var out []library.Item
	for start := 0; ; start += pageSize {
		query := url.Values{}
		query.Set("IncludeItemTypes", string(kind))
		query.Set("Recursive", "true")
		query.Set("Fields", itemFields)
		query.Set("StartIndex", strconv.Itoa(start))
		query.Set("Limit", strconv.Itoa(pageSize))
		if parentID != "" {
			query.Set("ParentId", parentID)
		}
		if c.userID != "" {
			query.Set("UserId", c.userID)
		}
		req, err := c.newRequest(ctx, http.MethodGet, "/Items", query, nil)
		if err != nil {
			return nil, err
		}
		var page itemsPage
		if err := c.do(req, &page); err != nil {
			return nil, services.Wrap(services.ErrExternalTool, "jellyfin", "list "+strings.ToLower(string(kind)), "", err)
		}
		for _, dto := range page.Items {
			out = append(out, c.toItem(dto, kind))
		}
		if len(page.Items) < pageSize || len(out) >= page.TotalRecordCount {
			break
		}
	}
	return out, nil
}

func (c *Client) toItem(dto itemDTO, fallback library.Kind) library.Item {
	item := library.Item{
		ID:                dto.ID,
		Kind:              library.Kind(dto.Type),
		Name:              dto.Name,
		Path:              dto.Path,
		ParentID:          dto.ParentID,
		IndexNumber:       dto.IndexNumber,
		ParentIndexNumber: dto.ParentIndexNumber,
		ProviderIDs:       dto.ProviderIDs,
	}
	if item.Kind == "" {
		item.Kind = fallback
	}
	if ts, ok := parseTime(dto.PremiereDate); ok {
		item.PremiereDate = &ts
	}
	if ts, ok := parseTime(dto.DateLastSaved); ok {
		item.DateLastSaved = ts
	}
	return item
}

func parseTime(value string) (time.Time, bool) {
	if strings.TrimSpace(value) == "" {
		return time.Time{}, false
	}
	ts, err := cast.ToTimeInDefaultLocationE(value, time.UTC)
	if err != nil {
		return time.Time{}, false
	}
	return ts.UTC(), true
}

// UpdateItem implements library.Library. Only IndexNumber and
// ParentIndexNumber change; every other field is posted back as read.
// Client errors (4xx) are fatal; server errors are transient.
func (c *Client) UpdateItem(ctx context.Context, item library.Item) error {
	if strings.TrimSpace(item.ID) == "" {
		return services.Wrap(services.ErrValidation, "jellyfin", "update item", "item id required", nil)
	}
	doc, err := c.fetchDocument(ctx, item.ID)
	if err != nil {
		return c.classifyWrite(item.ID, "fetch item", err)
	}
	if err := setIndex(doc, "IndexNumber", item.IndexNumber); err != nil {
		return err
	}
	if err := setIndex(doc, "ParentIndexNumber", item.ParentIndexNumber); err != nil {
		return err
	}
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode item %s: %w", item.ID, err)
	}
	req, err := c.newRequest(ctx, http.MethodPost, "/Items/"+url.PathEscape(item.ID), nil, bytes.NewReader(body))
	if err != nil {
		return err
	}
	if err := c.do(req, nil); err != nil {
		return c.classifyWrite(item.ID, "update item", err)
	}
	c.logger.Debug("item index updated",
		logging.String("item_id", item.ID),
		logging.Any("index_number", derefInt(item.IndexNumber)),
		logging.Any("parent_index_number", derefInt(item.ParentIndexNumber)),
	)
	return nil
}

func (c *Client) fetchDocument(ctx context.Context, id string) (map[string]json.RawMessage, error) {
	path := "/Items/" + url.PathEscape(id)
	if c.userID != "" {
		path = "/Users/" + url.PathEscape(c.userID) + "/Items/" + url.PathEscape(id)
	}
	req, err := c.newRequest(ctx, http.MethodGet, path, nil, nil)
	if err != nil {
		return nil, err
	}
	var doc map[string]json.RawMessage
	if err := c.do(req, &doc); err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, fmt.Errorf("item %s: empty document", id)
	}
	return doc, nil
}

func setIndex(doc map[string]json.RawMessage, key string, value *int) error {
	if value == nil {
		doc[key] = json.RawMessage("null")
		return nil
	}
	raw, err := json.Marshal(*value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	doc[key] = raw
	return nil
}

func (c *Client) classifyWrite(id, operation string, err error) error {
	var status *statusError
	if errors.As(err, &status) && status.Status < http.StatusInternalServerError {
		return &library.FatalError{ItemID: id, Err: services.Wrap(services.ErrExternalTool, "jellyfin", operation, "", err)}
	}
	return services.Wrap(services.ErrTransient, "jellyfin", operation, "", err)
}

func derefInt(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}
