// Package oncotree keeps the Oncotree cancer taxonomy in memory.
//
// The taxonomy is fetched from the Oncotree API once at startup and on a
// daily schedule, then served from an expiring LRU so resolvers can derive
// cancer types from a sample's oncotree code without a network call.
package oncotree

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"
)

// Term is one tumor type.
type Term struct {
	Code     string `json:"code"`
	Name     string `json:"name"`
	MainType string `json:"mainType"`
	Tissue   string `json:"tissue"`
	Parent   string `json:"parent"`
	Level    int    `json:"level"`
}

// Fetcher loads the full taxonomy.
type Fetcher interface {
	FetchTumorTypes(ctx context.Context) ([]Term, error)
}

// Client talks to the Oncotree HTTP API with retries.
type Client struct {
	http    *retryablehttp.Client
	baseURL string
}

const tumorTypesPath = "/api/tumorTypes"

// NewClient returns a Client for baseURL, e.g. https://oncotree.mskcc.org.
func NewClient(baseURL string, logger *zerolog.Logger) *Client {
	rc := retryablehttp.NewClient()
	rc.RetryMax = 3
	rc.RetryWaitMin = 500 * time.Millisecond
	rc.RetryWaitMax = 5 * time.Second
	rc.HTTPClient.Timeout = 30 * time.Second
	rc.Logger = retryLogger{log: logger.With().Str("component", "oncotree").Logger()}

	return &Client{
		http:    rc,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// FetchTumorTypes downloads every tumor type.
func (c *Client) FetchTumorTypes(ctx context.Context) ([]Term, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+tumorTypesPath, nil)
	if err != nil {
		return nil, fmt.Errorf("building oncotree request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching oncotree tumor types: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching oncotree tumor types: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading oncotree response: %w", err)
	}

	return ParseTumorTypes(body)
}

// ParseTumorTypes reads the /api/tumorTypes payload. Entries without a code
// are skipped.
func ParseTumorTypes(body []byte) ([]Term, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("oncotree response is not valid JSON")
	}
	parsed := gjson.ParseBytes(body)
	if !parsed.IsArray() {
		return nil, fmt.Errorf("oncotree response is not a list")
	}

	var terms []Term
	parsed.ForEach(func(_, item gjson.Result) bool {
		code := item.Get("code").String()
		if code == "" {
			return true
		}
		terms = append(terms, Term{
			Code:     code,
			Name:     item.Get("name").String(),
			MainType: item.Get("mainType").String(),
			Tissue:   item.Get("tissue").String(),
			Parent:   item.Get("parent").String(),
			Level:    int(item.Get("level").Int()),
		})
		return true
	})
	return terms, nil
}

// retryLogger adapts zerolog to retryablehttp.LeveledLogger.
type retryLogger struct {
	log zerolog.Logger
}

func (l retryLogger) Error(msg string, keysAndValues ...interface{}) {
	l.log.Error().Fields(keysAndValues).Msg(msg)
}

func (l retryLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug().Fields(keysAndValues).Msg(msg)
}

func (l retryLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.log.Trace().Fields(keysAndValues).Msg(msg)
}

func (l retryLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.log.Warn().Fields(keysAndValues).Msg(msg)
}
