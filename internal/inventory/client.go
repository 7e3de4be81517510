package inventory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"hotelbooking/internal/config"
	"hotelbooking/internal/domain"
	"hotelbooking/internal/logging"
	"hotelbooking/internal/metrics"

	"github.com/rs/zerolog"
)

// Client talks GraphQL over HTTP to the Inventory Service.
type Client struct {
	url        string
	apiKey     string
	keyHeader  string
	httpClient *http.Client
	logger     *zerolog.Logger
}

func NewClient(cfg config.InventoryConfig, logger *zerolog.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	header := cfg.APIKeyHeader
	if header == "" {
		header = "x-api-key"
	}
	return &Client{
		url:        cfg.URL,
		apiKey:     cfg.APIKey,
		keyHeader:  header,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logging.Component(logger, "inventory"),
	}
}

type graphQLRequest struct {
	Query string `json:"query"`
}

type graphQLResponse struct {
	Data   map[string]json.RawMessage `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// Do posts query and decodes data.<op> into out. Every failure, including a
// GraphQL errors array or a missing/null data.<op>, is a domain.ErrFetchFailed.
func (c *Client) Do(ctx context.Context, op, query string, out any) error {
	err := c.do(ctx, op, query, out)
	if err != nil {
		metrics.IncInventoryFailure(op)
		c.logger.Error().Err(err).Str("operation", op).Msg("Inventory call failed")
		return domain.Wrap(domain.ErrFetchFailed, "Failed to fetch data from inventory service", err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, op, query string, out any) error {
	body, err := json.Marshal(graphQLRequest{Query: query})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set(c.keyHeader, c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("http %d", resp.StatusCode)
	}

	var envelope graphQLResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("decode envelope: %w", err)
	}
	if len(envelope.Errors) > 0 {
		return fmt.Errorf("graphql: %s", envelope.Errors[0].Message)
	}
	raw, ok := envelope.Data[op]
	if !ok || len(raw) == 0 || string(raw) == "null" {
		return fmt.Errorf("response has no data.%s", op)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode data.%s: %w", op, err)
	}
	return nil
}
