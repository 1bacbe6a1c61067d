package opensearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mstgnz/gocomgate/provider"
	"github.com/opensearch-project/opensearch-go/v2/opensearchapi"
)

// Journal indexes gateway call records in OpenSearch
type Journal struct {
	client *Client
}

// NewJournal creates a new OpenSearch journal
func NewJournal(client *Client) *Journal {
	return &Journal{
		client: client,
	}
}

// Record indexes one call record under its request id. The request payload must already be redacted.
func (j *Journal) Record(ctx context.Context, record provider.CallRecord) error {
	if record.Timestamp.IsZero() {
		record.Timestamp = time.Now()
	}

	record.Timestamp = record.Timestamp.UTC()
	doc, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal call record: %w", err)
	}

	req := opensearchapi.IndexRequest{
		Index:      j.client.Index(),
		DocumentID: record.RequestID,
		Body:       bytes.NewReader(doc),
	}

	res, err := req.Do(ctx, j.client.GetClient())
	if err != nil {
		return fmt.Errorf("failed to index call record: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("opensearch error: %s", res.String())
	}

	return nil
}

// Search returns call records matching an OpenSearch query, newest first
func (j *Journal) Search(ctx context.Context, query map[string]any, size int) ([]provider.CallRecord, error) {
	if size <= 0 {
		size = 100
	}

	searchQuery := map[string]any{
		"query": query,
		"sort": []map[string]any{
			{"timestamp": map[string]string{"order": "desc"}},
		},
		"size": size,
	}

	queryJSON, err := json.Marshal(searchQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal query: %w", err)
	}

	req := opensearchapi.SearchRequest{
		Index: []string{j.client.Index()},
		Body:  bytes.NewReader(queryJSON),
	}

	res, err := req.Do(ctx, j.client.GetClient())
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("opensearch search error: %s", res.String())
	}

	var searchResult struct {
		Hits struct {
			Hits []struct {
				Source provider.CallRecord `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}

	if err := json.NewDecoder(res.Body).Decode(&searchResult); err != nil {
		return nil, fmt.Errorf("failed to decode search results: %w", err)
	}

	records := make([]provider.CallRecord, len(searchResult.Hits.Hits))
	for i, hit := range searchResult.Hits.Hits {
		records[i] = hit.Source
	}

	return records, nil
}

// Recent returns the latest call records
func (j *Journal) Recent(ctx context.Context, limit int) ([]provider.CallRecord, error) {
	return j.Search(ctx, map[string]any{"match_all": map[string]any{}}, limit)
}

// TransactionCalls returns the calls that carried a transaction id
func (j *Journal) TransactionCalls(ctx context.Context, transID string) ([]provider.CallRecord, error) {
	return j.Search(ctx, map[string]any{
		"term": map[string]any{"request.transId.keyword": transID},
	}, 100)
}

// RecentFailures returns failed calls of the last hours
func (j *Journal) RecentFailures(ctx context.Context, hours int) ([]provider.CallRecord, error) {
	return j.Search(ctx, map[string]any{
		"bool": map[string]any{
			"must": []map[string]any{
				{"range": map[string]any{"timestamp": map[string]any{"gte": fmt.Sprintf("now-%dh", hours)}}},
				{"terms": map[string]any{"outcome": []string{"connection_error", "api_error"}}},
			},
		},
	}, 100)
}

// Ping checks that the cluster answers
func (j *Journal) Ping(ctx context.Context) error {
	return j.client.Ping(ctx)
}
