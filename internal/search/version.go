package search

import (
	"context"
	"fmt"
	"net/http"

	json "github.com/json-iterator/go"
)

// IndexVersion is stored in each index mapping's _meta.
// Increment it whenever a mapping changes so the indices get rebuilt.
const IndexVersion = 1

// IndexOutdated reports whether indexName is missing or carries an older mapping version
func (c *Client) IndexOutdated(ctx context.Context, indexName string) (bool, error) {
	res, err := c.es.Indices.GetMapping(
		c.es.Indices.GetMapping.WithIndex(indexName),
		c.es.Indices.GetMapping.WithContext(ctx),
	)
	if err != nil {
		return false, fmt.Errorf("failed to get index mapping: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return true, nil
	}
	if res.IsError() {
		return false, responseError("getting mapping", res)
	}

	var mappings map[string]struct {
		Mappings struct {
			Meta struct {
				Version int `json:"version"`
			} `json:"_meta"`
		} `json:"mappings"`
	}
	if err := json.NewDecoder(res.Body).Decode(&mappings); err != nil {
		return true, nil
	}
	return mappings[indexName].Mappings.Meta.Version < IndexVersion, nil
}

// DeleteIndex drops an index. A missing index is not an error.
func (c *Client) DeleteIndex(ctx context.Context, indexName string) error {
	res, err := c.es.Indices.Delete(
		[]string{indexName},
		c.es.Indices.Delete.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("failed to delete index: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return responseError("deleting index", res)
	}
	return nil
}

// EnsureIndices recreates outdated indices and creates missing ones.
// It reports whether a backfill is needed.
func (c *Client) EnsureIndices(ctx context.Context) (bool, error) {
	for _, name := range []string{IndexTweets, IndexUsers} {
		outdated, err := c.IndexOutdated(ctx, name)
		if err != nil {
			return false, err
		}
		if outdated {
			if err := c.DeleteIndex(ctx, name); err != nil {
				return false, err
			}
		}
	}
	return c.InitializeIndices(ctx)
}
