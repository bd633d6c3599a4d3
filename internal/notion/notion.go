// Package notion saves processed notes as pages in a Notion database.
package notion

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jomei/notionapi"

	. "github.com/roelfdiedericks/mentalnote/internal/logging"
)

const (
	// DefaultBaseURL is the public Notion API.
	DefaultBaseURL = "https://api.notion.com"

	// APIVersion is sent as the Notion-Version header.
	APIVersion = "2022-06-28"

	// maxTextUnits is Notion's rich_text content limit (UTF-16 code units).
	maxTextUnits = 2000

	// TranscriptHeading heads the transcript section of every page.
	TranscriptHeading = "📝 Original Transcript"
)

// ClientConfig holds Notion integration settings.
type ClientConfig struct {
	Token   string
	BaseURL string // defaults to DefaultBaseURL
	Timeout time.Duration
}

// Client creates pages through the Notion API.
type Client struct {
	api *notionapi.Client
}

// Page is a note to save.
type Page struct {
	Title      string
	Content    string
	Transcript string
	Category   string
	Tags       []string
}

// CreatedPage is the subset of the created page object we use.
type CreatedPage struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// NewClient creates a Notion client.
func NewClient(cfg ClientConfig) (*Client, error) {
	if cfg.Token == "" {
		return nil, fmt.Errorf("notion token not configured")
	}

	httpClient := &http.Client{Timeout: cfg.Timeout}
	if cfg.BaseURL != "" && strings.TrimSuffix(cfg.BaseURL, "/") != DefaultBaseURL {
		base, err := url.Parse(cfg.BaseURL)
		if err != nil {
			return nil, fmt.Errorf("invalid notion base URL: %w", err)
		}
		httpClient.Transport = &baseURLTransport{base: base, next: http.DefaultTransport}
	}

	api := notionapi.NewClient(notionapi.Token(cfg.Token),
		notionapi.WithHTTPClient(httpClient),
		notionapi.WithVersion(APIVersion),
	)
	return &Client{api: api}, nil
}

// CreatePage creates page in the database. The database id is sent as given.
func (c *Client) CreatePage(ctx context.Context, databaseID string, page Page) (*CreatedPage, error) {
	if databaseID == "" {
		return nil, fmt.Errorf("notion database id not configured")
	}

	L_debug("notion: creating page", "category", page.Category, "tags", len(page.Tags))

	created, err := c.api.Page.Create(ctx, BuildRequest(databaseID, page))
	if err != nil {
		var apiErr *notionapi.Error
		if errors.As(err, &apiErr) {
			L_error("notion: request failed", "status", apiErr.Status, "code", apiErr.Code)
			return nil, fmt.Errorf("Notion API error: %d - %s: %s", apiErr.Status, apiErr.Code, apiErr.Message)
		}
		return nil, fmt.Errorf("send request: %w", err)
	}

	L_info("notion: page created", "id", created.ID)
	return &CreatedPage{ID: created.ID.String(), URL: created.URL}, nil
}

// baseURLTransport sends API requests to another host, keeping the path.
type baseURLTransport struct {
	base *url.URL
	next http.RoundTripper
}

func (t *baseURLTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	r := req.Clone(req.Context())
	r.URL.Scheme = t.base.Scheme
	r.URL.Host = t.base.Host
	r.URL.Path = strings.TrimSuffix(t.base.Path, "/") + req.URL.Path
	r.Host = t.base.Host
	return t.next.RoundTrip(r)
}
