// Package who implements a client for the WHO ICD-API: OAuth2
// client-credentials authentication, entity search, and linearization
// tree walks.
package who

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/rr015/namaste-icd11-service/internal/domain/terminology"
)

// Config holds the upstream API credentials and endpoints.
type Config struct {
	ClientID     string
	ClientSecret string
	TokenURL     string
	BaseURL      string
	Release      string
}

// Client talks to the WHO ICD-API. The underlying transport refreshes the
// OAuth2 token automatically.
type Client struct {
	http    *resty.Client
	baseURL string
	release string
}

// NewClient builds an authenticated client.
func NewClient(cfg Config) *Client {
	cc := clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     cfg.TokenURL,
		Scopes:       []string{"icdapi_access"},
	}

	rc := resty.NewWithClient(cc.Client(context.Background())).
		SetTimeout(30 * time.Second).
		SetRetryCount(3).
		SetRetryWaitTime(1 * time.Second).
		SetRetryMaxWaitTime(5 * time.Second).
		SetHeader("Accept", "application/json").
		SetHeader("Accept-Language", "en").
		SetHeader("API-Version", "v2")

	return &Client{
		http:    rc,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		release: cfg.Release,
	}
}

// localizedValue is the ICD-API's {"@value": "..."} wrapper.
type localizedValue struct {
	Value string `json:"@value"`
}

// searchEntity is one destination entity from the flexisearch endpoint.
type searchEntity struct {
	ID         string         `json:"@id"`
	Code       string         `json:"theCode"`
	Title      localizedValue `json:"title"`
	Definition localizedValue `json:"definition"`
	Chapter    string         `json:"chapter"`
}

type searchResponse struct {
	DestinationEntities []searchEntity `json:"destinationEntities"`
}

// linearizationNode is one node of a release linearization tree.
type linearizationNode struct {
	ID         string              `json:"@id"`
	Code       string              `json:"code"`
	Title      localizedValue      `json:"title"`
	Definition localizedValue      `json:"definition"`
	Chapter    string              `json:"chapter"`
	ClassKind  string              `json:"classKind"`
	Child      []linearizationNode `json:"child"`
}

// Search queries the MMS linearization with flexisearch, optionally filtered
// to one chapter.
func (c *Client) Search(ctx context.Context, query, chapter string) ([]terminology.RawEntity, error) {
	req := c.http.R().
		SetContext(ctx).
		SetQueryParam("q", query).
		SetQueryParam("useFlexisearch", "true").
		SetQueryParam("flat", "true").
		SetResult(&searchResponse{})
	if chapter != "" {
		req.SetQueryParam("chapterFilter", chapter)
	}

	resp, err := req.Get(fmt.Sprintf("%s/release/11/%s/mms/search", c.baseURL, c.release))
	if err != nil {
		return nil, fmt.Errorf("icd-api search: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("icd-api search: unexpected status %d", resp.StatusCode())
	}

	result := resp.Result().(*searchResponse)
	entities := make([]terminology.RawEntity, 0, len(result.DestinationEntities))
	for _, e := range result.DestinationEntities {
		entities = append(entities, terminology.RawEntity{
			ID:         entityID(e.ID),
			Code:       e.Code,
			Title:      stripMarkup(e.Title.Value),
			Definition: e.Definition.Value,
			Chapter:    e.Chapter,
		})
	}
	return entities, nil
}

// FetchTM2 walks the Traditional Medicine chapter of the release
// linearization and returns every category node.
func (c *Client) FetchTM2(ctx context.Context) ([]terminology.RawEntity, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&linearizationNode{}).
		Get(fmt.Sprintf("%s/release/11/%s/mms/26", c.baseURL, c.release))
	if err != nil {
		return nil, fmt.Errorf("icd-api tm2 chapter: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("icd-api tm2 chapter: unexpected status %d", resp.StatusCode())
	}

	root := resp.Result().(*linearizationNode)
	var entities []terminology.RawEntity
	collectCategories(root.Child, "26", &entities)
	return entities, nil
}

// biomedicineQueries seed the biomedicine pull; flexisearch has no "all
// chapters" listing, so common clinical concepts are fetched instead.
var biomedicineQueries = []string{
	"fever", "diabetes", "arthritis", "asthma", "tuberculosis", "anemia", "hypertension",
}

// FetchBiomedicine gathers up to limit biomedicine entities, excluding the
// Traditional Medicine chapter.
func (c *Client) FetchBiomedicine(ctx context.Context, limit int) ([]terminology.RawEntity, error) {
	if limit <= 0 {
		limit = 50
	}

	seen := make(map[string]bool)
	var entities []terminology.RawEntity
	for _, query := range biomedicineQueries {
		found, err := c.Search(ctx, query, "")
		if err != nil {
			return nil, err
		}
		for _, e := range found {
			if e.Chapter == "26" || e.Code == "" || seen[e.Code] {
				continue
			}
			seen[e.Code] = true
			entities = append(entities, e)
			if len(entities) >= limit {
				return entities, nil
			}
		}
	}
	return entities, nil
}

// collectCategories recursively gathers category nodes from a chapter tree.
func collectCategories(nodes []linearizationNode, chapter string, out *[]terminology.RawEntity) {
	for _, node := range nodes {
		if node.ClassKind == "category" {
			*out = append(*out, terminology.RawEntity{
				ID:         entityID(node.ID),
				Code:       node.Code,
				Title:      stripMarkup(node.Title.Value),
				Definition: node.Definition.Value,
				Chapter:    chapter,
			})
		}
		if len(node.Child) > 0 {
			collectCategories(node.Child, chapter, out)
		}
	}
}

// entityID strips the URI prefix from an entity @id.
func entityID(id string) string {
	return strings.TrimPrefix(id, "http://id.who.int/icd/entity/")
}

// stripMarkup removes the <em> match highlighting flexisearch injects into
// titles.
func stripMarkup(s string) string {
	s = strings.ReplaceAll(s, "<em class='found'>", "")
	return strings.ReplaceAll(s, "</em>", "")
}
