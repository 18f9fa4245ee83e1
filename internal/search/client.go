// Package search indexes tweets and users in Elasticsearch and queries them.
// Callers fall back to SQL when no client is configured or a query fails.
package search

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/elastic/go-elasticsearch/v9/esapi"
	json "github.com/json-iterator/go"
	"github.com/zfogg/chirp/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
)

// Index names
const (
	IndexTweets = "chirp-tweets"
	IndexUsers  = "chirp-users"
)

// Searcher answers search queries
type Searcher interface {
	SearchTweets(ctx context.Context, q TweetQuery) (*TweetResult, error)
	SearchUsers(ctx context.Context, query string, limit, offset int) (*UserResult, error)
}

// Indexer keeps documents in sync with the database
type Indexer interface {
	IndexTweet(ctx context.Context, doc TweetDocument) error
	DeleteTweet(ctx context.Context, tweetID string) error
	IndexUser(ctx context.Context, doc UserDocument) error
}

// Engine is both halves; Client and CachedClient implement it
type Engine interface {
	Searcher
	Indexer
}

// Client wraps the Elasticsearch client
type Client struct {
	es *elasticsearch.Client
}

// NewClient connects to url and verifies the cluster answers
func NewClient(ctx context.Context, url string) (*Client, error) {
	es, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{url},
		Transport: telemetry.NewInstrumentedTransport(http.DefaultTransport),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Elasticsearch client: %w", err)
	}

	res, err := es.Info(es.Info.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Elasticsearch: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, fmt.Errorf("elasticsearch info returned %s", res.Status())
	}

	return &Client{es: es}, nil
}

// InitializeIndices creates missing indices. It reports whether any index
// was created, in which case the caller should backfill it.
func (c *Client) InitializeIndices(ctx context.Context) (created bool, err error) {
	for name, mapping := range map[string]map[string]interface{}{
		IndexTweets: tweetsMapping(),
		IndexUsers:  usersMapping(),
	} {
		made, err := c.createIndex(ctx, name, mapping)
		if err != nil {
			return created, fmt.Errorf("failed to create %s index: %w", name, err)
		}
		created = created || made
	}
	return created, nil
}

func tweetsMapping() map[string]interface{} {
	return map[string]interface{}{
		"mappings": map[string]interface{}{
			"_meta": map[string]interface{}{"version": IndexVersion},
			"properties": map[string]interface{}{
				"id":         map[string]interface{}{"type": "keyword"},
				"author_id":  map[string]interface{}{"type": "keyword"},
				"username":   map[string]interface{}{"type": "keyword"},
				"content":    map[string]interface{}{"type": "text", "analyzer": "standard"},
				"visibility": map[string]interface{}{"type": "keyword"},
				"is_reply":   map[string]interface{}{"type": "boolean"},
				"likes_count": map[string]interface{}{
					"type": "integer",
				},
				"created_at": map[string]interface{}{"type": "date"},
			},
		},
	}
}

func usersMapping() map[string]interface{} {
	return map[string]interface{}{
		"mappings": map[string]interface{}{
			"_meta": map[string]interface{}{"version": IndexVersion},
			"properties": map[string]interface{}{
				"id": map[string]interface{}{"type": "keyword"},
				"username": map[string]interface{}{
					"type":     "text",
					"analyzer": "standard",
					"fields": map[string]interface{}{
						"keyword": map[string]interface{}{"type": "keyword"},
					},
				},
				"full_name":       map[string]interface{}{"type": "text", "analyzer": "standard"},
				"bio":             map[string]interface{}{"type": "text", "analyzer": "standard"},
				"followers_count": map[string]interface{}{"type": "integer"},
				"created_at":      map[string]interface{}{"type": "date"},
			},
		},
	}
}

func (c *Client) createIndex(ctx context.Context, indexName string, mapping map[string]interface{}) (bool, error) {
	res, err := c.es.Indices.Exists([]string{indexName}, c.es.Indices.Exists.WithContext(ctx))
	if err != nil {
		return false, fmt.Errorf("failed to check if index exists: %w", err)
	}
	res.Body.Close()
	if res.StatusCode == http.StatusOK {
		return false, nil
	}

	body, err := json.Marshal(mapping)
	if err != nil {
		return false, fmt.Errorf("failed to marshal mapping: %w", err)
	}

	res, err = c.es.Indices.Create(indexName,
		c.es.Indices.Create.WithBody(bytes.NewReader(body)),
		c.es.Indices.Create.WithContext(ctx),
	)
	if err != nil {
		return false, fmt.Errorf("failed to create index: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return false, responseError("creating index", res)
	}
	return true, nil
}

// IndexTweet upserts a tweet document
func (c *Client) IndexTweet(ctx context.Context, doc TweetDocument) (err error) {
	ctx, span := telemetry.StartExternalCall(ctx, "elasticsearch", "index",
		attribute.String("es.index", IndexTweets), attribute.String("es.doc_id", doc.ID))
	defer func() { telemetry.EndExternalCall(span, err) }()

	return c.index(ctx, IndexTweets, doc.ID, doc)
}

// IndexUser upserts a user document
func (c *Client) IndexUser(ctx context.Context, doc UserDocument) (err error) {
	ctx, span := telemetry.StartExternalCall(ctx, "elasticsearch", "index",
		attribute.String("es.index", IndexUsers), attribute.String("es.doc_id", doc.ID))
	defer func() { telemetry.EndExternalCall(span, err) }()

	return c.index(ctx, IndexUsers, doc.ID, doc)
}

func (c *Client) index(ctx context.Context, indexName, id string, doc interface{}) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal document: %w", err)
	}

	res, err := c.es.Index(indexName, bytes.NewReader(body),
		c.es.Index.WithDocumentID(id),
		c.es.Index.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("failed to index document: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return responseError("indexing "+indexName, res)
	}
	return nil
}

// DeleteTweet removes a tweet document. A missing document is not an error.
func (c *Client) DeleteTweet(ctx context.Context, tweetID string) (err error) {
	ctx, span := telemetry.StartExternalCall(ctx, "elasticsearch", "delete",
		attribute.String("es.index", IndexTweets), attribute.String("es.doc_id", tweetID))
	defer func() { telemetry.EndExternalCall(span, err) }()

	res, err := c.es.Delete(IndexTweets, tweetID, c.es.Delete.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("failed to delete tweet: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return responseError("deleting tweet", res)
	}
	return nil
}

// TweetQuery is a full-text tweet search from one viewer's point of view
type TweetQuery struct {
	Text     string `json:"text"`
	ViewerID string `json:"viewerId"`
	Limit    int    `json:"limit"`
	Offset   int    `json:"offset"`
}

// TweetResult holds matching tweet IDs in rank order
type TweetResult struct {
	IDs   []string `json:"ids"`
	Total int64    `json:"total"`
}

// buildTweetQuery matches top-level tweets that are public or the viewer's own
func buildTweetQuery(q TweetQuery) map[string]interface{} {
	return map[string]interface{}{
		"from": q.Offset,
		"size": q.Limit,
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"must": []map[string]interface{}{
					{"match": map[string]interface{}{
						"content": map[string]interface{}{
							"query":     q.Text,
							"fuzziness": "AUTO",
						},
					}},
				},
				"filter": []map[string]interface{}{
					{"term": map[string]interface{}{"is_reply": false}},
					{"bool": map[string]interface{}{
						"should": []map[string]interface{}{
							{"term": map[string]interface{}{"visibility": "public"}},
							{"term": map[string]interface{}{"author_id": q.ViewerID}},
						},
						"minimum_should_match": 1,
					}},
				},
			},
		},
		"sort": []interface{}{
			"_score",
			map[string]interface{}{"created_at": map[string]interface{}{"order": "desc"}},
		},
	}
}

// SearchTweets runs a tweet query
func (c *Client) SearchTweets(ctx context.Context, q TweetQuery) (result *TweetResult, err error) {
	ctx, span := telemetry.StartExternalCall(ctx, "elasticsearch", "search",
		attribute.String("es.index", IndexTweets))
	defer func() { telemetry.EndExternalCall(span, err) }()

	hits, total, err := c.search(ctx, IndexTweets, buildTweetQuery(q))
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(hits))
	for _, h := range hits {
		ids = append(ids, h.ID)
	}
	return &TweetResult{IDs: ids, Total: total}, nil
}

// UserResult holds matching user IDs in rank order
type UserResult struct {
	IDs   []string `json:"ids"`
	Total int64    `json:"total"`
}

func buildUserQuery(query string, limit, offset int) map[string]interface{} {
	return map[string]interface{}{
		"from": offset,
		"size": limit,
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"should": []map[string]interface{}{
					{"prefix": map[string]interface{}{
						"username.keyword": map[string]interface{}{"value": query, "boost": 3.0},
					}},
					{"match": map[string]interface{}{
						"username": map[string]interface{}{"query": query, "boost": 2.0, "fuzziness": "AUTO"},
					}},
					{"match": map[string]interface{}{
						"full_name": map[string]interface{}{"query": query, "boost": 1.5, "fuzziness": "AUTO"},
					}},
					{"match": map[string]interface{}{
						"bio": map[string]interface{}{"query": query},
					}},
				},
				"minimum_should_match": 1,
			},
		},
	}
}

// SearchUsers matches usernames, names and bios
func (c *Client) SearchUsers(ctx context.Context, query string, limit, offset int) (result *UserResult, err error) {
	ctx, span := telemetry.StartExternalCall(ctx, "elasticsearch", "search",
		attribute.String("es.index", IndexUsers))
	defer func() { telemetry.EndExternalCall(span, err) }()

	hits, total, err := c.search(ctx, IndexUsers, buildUserQuery(query, limit, offset))
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(hits))
	for _, h := range hits {
		ids = append(ids, h.ID)
	}
	return &UserResult{IDs: ids, Total: total}, nil
}

type searchHit struct {
	ID    string  `json:"_id"`
	Score float64 `json:"_score"`
}

func (c *Client) search(ctx context.Context, indexName string, query map[string]interface{}) ([]searchHit, int64, error) {
	body, err := json.Marshal(query)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to marshal search query: %w", err)
	}

	res, err := c.es.Search(
		c.es.Search.WithContext(ctx),
		c.es.Search.WithIndex(indexName),
		c.es.Search.WithBody(bytes.NewReader(body)),
		c.es.Search.WithSource("false"),
	)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to execute search: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, 0, responseError("searching "+indexName, res)
	}

	var resp struct {
		Hits struct {
			Total struct {
				Value int64 `json:"value"`
			} `json:"total"`
			Hits []searchHit `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
		return nil, 0, fmt.Errorf("failed to decode search response: %w", err)
	}
	return resp.Hits.Hits, resp.Hits.Total.Value, nil
}

func responseError(action string, res *esapi.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
	var errResp struct {
		Error interface{} `json:"error"`
	}
	if err := json.Unmarshal(raw, &errResp); err != nil || errResp.Error == nil {
		return fmt.Errorf("error %s: [%s]", action, res.Status())
	}
	return fmt.Errorf("error %s: [%s] %v", action, res.Status(), errResp.Error)
}
