package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/schema"
	"github.com/gorilla/websocket"

	"github.com/five82/cbzmeta/internal/comic"
)

// Ensure Client implements the service boundaries at compile time.
var (
	_ comic.ArchiveService = (*Client)(nil)
	_ comic.EventSource    = (*Client)(nil)
)

// Client talks to the archive service HTTP API.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	dialer    *websocket.Dialer
	query     *schema.Encoder
	userAgent string
	logger    *slog.Logger
}

const (
	defaultAPIBind   = "127.0.0.1:7488"
	defaultUserAgent = "cbzmeta/0.1"
	defaultTimeout   = 10 * time.Second
)

// Option customises a Client.
type Option func(*Client)

// WithTimeout sets the timeout of plain HTTP requests and websocket
// handshakes. Streams themselves are bounded by their context only.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
			c.dialer.HandshakeTimeout = d
		}
	}
}

// WithLogger sets the logger used for stream and subscription diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewClient builds a Client using the provided apiBind host:port value.
func NewClient(apiBind string, opts ...Option) (*Client, error) {
	base, err := parseBaseURL(apiBind)
	if err != nil {
		return nil, err
	}
	c := &Client{
		baseURL: base,
		http:    &http.Client{Timeout: defaultTimeout},
		dialer: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: defaultTimeout,
		},
		query:     schema.NewEncoder(),
		userAgent: defaultUserAgent,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

type pathRequest struct {
	Path string `json:"path"`
}

type pathQuery struct {
	Path string `schema:"path"`
	File string `schema:"file,omitempty"`
}

type pageSettingsRequest struct {
	Path         string                       `json:"path"`
	PageSettings map[string]comic.PagePayload `json:"page_settings"`
}

type xmlRequest struct {
	Path string `json:"path,omitempty"`
	XML  string `json:"xml"`
}

type xmlResponse struct {
	XML *string `json:"xml"`
}

type validateResponse struct {
	Valid   bool   `json:"valid"`
	Message string `json:"message"`
}

// OpenArchive loads the page list and metadata of the archive at path.
func (c *Client) OpenArchive(ctx context.Context, path string) (*comic.LoadResponse, error) {
	var payload comic.LoadResponse
	if err := c.post(ctx, "/api/archive/open", pathRequest{Path: path}, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// CloseArchiveWatch stops the service watching path for changes.
func (c *Client) CloseArchiveWatch(ctx context.Context, path string) error {
	return c.post(ctx, "/api/archive/unload", pathRequest{Path: path}, nil)
}

// WatchForCreation asks the service to announce when path appears.
func (c *Client) WatchForCreation(ctx context.Context, path string) error {
	return c.post(ctx, "/api/archive/watch", pathRequest{Path: path}, nil)
}

// GetPreview fetches the bytes of one page.
func (c *Client) GetPreview(ctx context.Context, path, pageID string) (*comic.FileData, error) {
	rel, err := c.withQuery("/api/archive/file", pathQuery{Path: path, File: pageID})
	if err != nil {
		return nil, err
	}
	var payload comic.FileData
	if err := c.doURL(ctx, http.MethodGet, rel, nil, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// SaveSettings writes page settings into the archive metadata and returns
// the resulting page list.
func (c *Client) SaveSettings(ctx context.Context, path string, settings map[string]comic.PagePayload) ([]comic.ComicInfoPage, error) {
	var pages []comic.ComicInfoPage
	req := pageSettingsRequest{Path: path, PageSettings: settings}
	if err := c.post(ctx, "/api/archive/pages", req, &pages); err != nil {
		return nil, err
	}
	return pages, nil
}

// ComicInfo returns the parsed metadata of the archive, or nil when it has
// none.
func (c *Client) ComicInfo(ctx context.Context, path string) (*comic.ComicInfo, error) {
	rel, err := c.withQuery("/api/archive/comicinfo", pathQuery{Path: path})
	if err != nil {
		return nil, err
	}
	var payload *comic.ComicInfo
	if err := c.doURL(ctx, http.MethodGet, rel, nil, &payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// RawComicInfo returns the ComicInfo.xml text of the archive. The boolean
// is false when the archive has none.
func (c *Client) RawComicInfo(ctx context.Context, path string) (string, bool, error) {
	rel, err := c.withQuery("/api/archive/comicinfo/raw", pathQuery{Path: path})
	if err != nil {
		return "", false, err
	}
	var payload xmlResponse
	if err := c.doURL(ctx, http.MethodGet, rel, nil, &payload); err != nil {
		return "", false, err
	}
	if payload.XML == nil {
		return "", false, nil
	}
	return *payload.XML, true, nil
}

// SaveRawComicInfo replaces the ComicInfo.xml of the archive and returns
// the stored document.
func (c *Client) SaveRawComicInfo(ctx context.Context, path, xml string) (string, error) {
	var payload xmlResponse
	rel := &url.URL{Path: "/api/archive/comicinfo/raw"}
	if err := c.doURL(ctx, http.MethodPut, rel, xmlRequest{Path: path, XML: xml}, &payload); err != nil {
		return "", err
	}
	if payload.XML == nil {
		return xml, nil
	}
	return *payload.XML, nil
}

// DeleteComicInfo removes the ComicInfo.xml of the archive.
func (c *Client) DeleteComicInfo(ctx context.Context, path string) error {
	rel, err := c.withQuery("/api/archive/comicinfo/raw", pathQuery{Path: path})
	if err != nil {
		return err
	}
	return c.doURL(ctx, http.MethodDelete, rel, nil, nil)
}

// ValidateComicInfo checks xml against the ComicInfo schema. An invalid
// document yields a ComicInfoXmlInvalid service error.
func (c *Client) ValidateComicInfo(ctx context.Context, xml string) error {
	var payload validateResponse
	if err := c.post(ctx, "/api/comicinfo/validate", xmlRequest{XML: xml}, &payload); err != nil {
		return err
	}
	if !payload.Valid {
		return comic.Errorf(comic.ComicInfoXmlInvalid, "%s", payload.Message)
	}
	return nil
}

// FormatComicInfo pretty prints xml.
func (c *Client) FormatComicInfo(ctx context.Context, xml string) (string, error) {
	var payload xmlResponse
	if err := c.post(ctx, "/api/comicinfo/format", xmlRequest{XML: xml}, &payload); err != nil {
		return "", err
	}
	if payload.XML == nil {
		return "", fmt.Errorf("format response has no xml")
	}
	return *payload.XML, nil
}

func (c *Client) withQuery(path string, query any) (*url.URL, error) {
	values := url.Values{}
	if err := c.query.Encode(query, values); err != nil {
		return nil, fmt.Errorf("encode query: %w", err)
	}
	return &url.URL{Path: path, RawQuery: values.Encode()}, nil
}

func (c *Client) post(ctx context.Context, path string, body, dest any) error {
	return c.doURL(ctx, http.MethodPost, &url.URL{Path: path}, body, dest)
}

func (c *Client) doURL(ctx context.Context, method string, rel *url.URL, body, dest any) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	reqURL := c.baseURL.ResolveReference(rel)
	req, err := http.NewRequestWithContext(ctx, method, reqURL.String(), reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		if se := decodeServiceError(resp.Body); se != nil {
			return fmt.Errorf("api %s: %w", rel.Path, se)
		}
		return fmt.Errorf("api %s returned status %d", rel.Path, resp.StatusCode)
	}
	if dest == nil {
		return nil
	}
	decoder := json.NewDecoder(resp.Body)
	if err := decoder.Decode(dest); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// decodeServiceError reads an {"error_type","message"} body, returning nil
// when the body is something else.
func decodeServiceError(r io.Reader) *comic.ServiceError {
	var se comic.ServiceError
	if err := json.NewDecoder(io.LimitReader(r, 1<<16)).Decode(&se); err != nil {
		return nil
	}
	if se.Kind == "" {
		return nil
	}
	return &se
}

func parseBaseURL(apiBind string) (*url.URL, error) {
	trimmed := strings.TrimSpace(apiBind)
	if trimmed == "" {
		trimmed = defaultAPIBind
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse api_bind %q: %w", apiBind, err)
	}
	u.Path = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
