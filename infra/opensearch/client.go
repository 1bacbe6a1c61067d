package opensearch

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/mstgnz/gocomgate/infra/config"
	"github.com/mstgnz/gocomgate/infra/logger"
	"github.com/opensearch-project/opensearch-go/v2"
	"github.com/opensearch-project/opensearch-go/v2/opensearchapi"
)

// Client wraps the OpenSearch client
type Client struct {
	client *opensearch.Client
	index  string
}

// NewClient creates a new OpenSearch client and makes sure the call index exists
func NewClient(cfg *config.AppConfig) (*Client, error) {
	opensearchConfig := opensearch.Config{
		Addresses: []string{cfg.OpenSearchURL},
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{
				InsecureSkipVerify: cfg.Environment == "development",
			},
		},
		MaxRetries:    3,
		RetryOnStatus: []int{502, 503, 504, 429},
		RetryBackoff: func(i int) time.Duration {
			return time.Duration(i) * 100 * time.Millisecond
		},
	}

	if cfg.OpenSearchUser != "" && cfg.OpenSearchPass != "" {
		opensearchConfig.Username = cfg.OpenSearchUser
		opensearchConfig.Password = cfg.OpenSearchPass
	}

	client, err := opensearch.NewClient(opensearchConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create opensearch client: %w", err)
	}

	index := cfg.OpenSearchIndex
	if index == "" {
		index = "comgate-calls"
	}

	osClient := &Client{
		client: client,
		index:  index,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := osClient.ensureIndex(ctx); err != nil {
		logger.Warn("failed to setup opensearch index", logger.LogContext{Fields: map[string]any{
			"index": index,
			"error": err.Error(),
		}})
	}

	return osClient, nil
}

// GetClient returns the underlying OpenSearch client
func (c *Client) GetClient() *opensearch.Client {
	return c.client
}

// Index returns the name of the call index
func (c *Client) Index() string {
	return c.index
}

// Ping checks that the cluster answers
func (c *Client) Ping(ctx context.Context) error {
	res, err := opensearchapi.PingRequest{}.Do(ctx, c.client)
	if err != nil {
		return fmt.Errorf("opensearch ping failed: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("opensearch ping error: %s", res.String())
	}
	return nil
}

func (c *Client) ensureIndex(ctx context.Context) error {
	exists, err := c.indexExists(ctx)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	if err := c.createCallIndex(ctx); err != nil {
		return err
	}
	logger.Info("created opensearch index", logger.LogContext{Fields: map[string]any{"index": c.index}})
	return nil
}

func (c *Client) indexExists(ctx context.Context) (bool, error) {
	req := opensearchapi.IndicesExistsRequest{
		Index: []string{c.index},
	}

	res, err := req.Do(ctx, c.client)
	if err != nil {
		return false, err
	}
	defer res.Body.Close()

	return res.StatusCode == http.StatusOK, nil
}

// createCallIndex creates the index with the call record mapping
func (c *Client) createCallIndex(ctx context.Context) error {
	mapping := `{
		"mappings": {
			"properties": {
				"timestamp":     {"type": "date", "format": "strict_date_optional_time||epoch_millis"},
				"request_id":    {"type": "keyword"},
				"gateway":       {"type": "keyword"},
				"operation":     {"type": "keyword"},
				"endpoint":      {"type": "keyword"},
				"request":       {"type": "object"},
				"http_code":     {"type": "integer"},
				"outcome":       {"type": "keyword"},
				"error_code":    {"type": "integer"},
				"error_message": {"type": "text"},
				"redirect_to":   {"type": "keyword"},
				"processing_ms": {"type": "long"}
			}
		},
		"settings": {
			"number_of_shards": 1,
			"number_of_replicas": 0
		}
	}`

	req := opensearchapi.IndicesCreateRequest{
		Index: c.index,
		Body:  strings.NewReader(mapping),
	}

	res, err := req.Do(ctx, c.client)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("index creation error: %s", res.String())
	}

	return nil
}
