package catalog

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

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/memohai/searcharr/internal/version"
)

const maxErrorBodyLen = 200

// APIError is returned for any non-2xx response from a catalog.
type APIError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s %s: HTTP %d: %s", e.Method, e.Path, e.StatusCode, e.Body)
}

// ClientConfig holds the connection settings for one catalog server.
type ClientConfig struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// client is the shared HTTP core of the three catalog clients. Calls are never retried;
// a breaker rejects calls outright while the server keeps failing.
type client struct {
	name      string
	baseURL   string
	apiPrefix string
	apiKey    string
	http      *http.Client
	breaker   *gobreaker.CircuitBreaker[[]byte]
	logger    *slog.Logger
}

func newClient(name, apiPrefix string, cfg ClientConfig) (*client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, fmt.Errorf("%s url is required", strings.ToLower(name))
	}
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		return nil, fmt.Errorf("%s url must start with http:// or https://", strings.ToLower(name))
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	log = log.With(slog.String("catalog", strings.ToLower(name)))
	breaker := gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        strings.ToLower(name),
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		// Client errors mean the server answered; only transport and 5xx failures count.
		IsSuccessful: func(err error) bool {
			if err == nil {
				return true
			}
			var apiErr *APIError
			return errors.As(err, &apiErr) && apiErr.StatusCode < http.StatusInternalServerError
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("breaker state changed", slog.String("from", from.String()), slog.String("to", to.String()))
		},
	})
	return &client{
		name:      name,
		baseURL:   base,
		apiPrefix: apiPrefix,
		apiKey:    strings.TrimSpace(cfg.APIKey),
		http:      httpClient,
		breaker:   breaker,
		logger:    log,
	}, nil
}

func (c *client) get(ctx context.Context, path string, query url.Values, out any) error {
	return c.do(ctx, http.MethodGet, path, query, nil, out)
}

func (c *client) post(ctx context.Context, path string, body any, out any) error {
	return c.do(ctx, http.MethodPost, path, nil, body, out)
}

func (c *client) do(ctx context.Context, method, path string, query url.Values, body any, out any) error {
	endpoint := c.baseURL + c.apiPrefix + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}
	var payload []byte
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s request: %w", path, err)
		}
		payload = encoded
	}
	c.logger.Debug("catalog request", slog.String("method", method), slog.String("path", c.apiPrefix+path))

	data, err := c.breaker.Execute(func() ([]byte, error) {
		var reader io.Reader
		if payload != nil {
			reader = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
		if err != nil {
			return nil, err
		}
		req.Header.Set("X-Api-Key", c.apiKey)
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", version.UserAgent())
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		resp, err := c.http.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()
		raw, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("read response: %w", err)
		}
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			text := strings.TrimSpace(string(raw))
			if len(text) > maxErrorBodyLen {
				text = text[:maxErrorBodyLen] + "..."
			}
			return nil, &APIError{Method: method, Path: c.apiPrefix + path, StatusCode: resp.StatusCode, Body: text}
		}
		return raw, nil
	})
	if err != nil {
		return fmt.Errorf("%s: %w", strings.ToLower(c.name), err)
	}
	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%s: decode %s response: %w", strings.ToLower(c.name), path, err)
	}
	return nil
}

func (c *client) RootFolders(ctx context.Context) ([]RootFolder, error) {
	var folders []RootFolder
	if err := c.get(ctx, "/rootfolder", nil, &folders); err != nil {
		return nil, err
	}
	return folders, nil
}

func (c *client) QualityProfiles(ctx context.Context) ([]QualityProfile, error) {
	var profiles []QualityProfile
	if err := c.get(ctx, "/qualityprofile", nil, &profiles); err != nil {
		return nil, err
	}
	return profiles, nil
}

func (c *client) Tags(ctx context.Context) ([]Tag, error) {
	var tags []Tag
	if err := c.get(ctx, "/tag", nil, &tags); err != nil {
		return nil, err
	}
	return tags, nil
}

// GetOrCreateTag returns the id of the tag with label (case-insensitive), creating it when missing.
func (c *client) GetOrCreateTag(ctx context.Context, label string) (int64, error) {
	label = strings.TrimSpace(label)
	if label == "" {
		return 0, errors.New("tag label is required")
	}
	tags, err := c.Tags(ctx)
	if err != nil {
		return 0, err
	}
	for _, tag := range tags {
		if strings.EqualFold(tag.Label, label) {
			return tag.ID, nil
		}
	}
	var created Tag
	if err := c.post(ctx, "/tag", map[string]any{"label": label}, &created); err != nil {
		return 0, err
	}
	if created.ID == 0 {
		return 0, fmt.Errorf("%s: tag %q was not created", strings.ToLower(c.name), label)
	}
	c.logger.Debug("tag created", slog.String("label", label), slog.Int64("id", created.ID))
	return created.ID, nil
}

// decodeRaw splits a JSON array into its raw elements so each item keeps its full payload.
func decodeRaw(data []json.RawMessage, fn func(json.RawMessage) (Item, bool, error)) ([]Item, error) {
	items := make([]Item, 0, len(data))
	for _, raw := range data {
		item, ok, err := fn(raw)
		if err != nil {
			return nil, err
		}
		if ok {
			items = append(items, item)
		}
	}
	return items, nil
}

// rawObject decodes an item's retained payload for use as the body of an add request.
func rawObject(item Item) (map[string]any, error) {
	body := map[string]any{}
	if len(item.Raw) == 0 {
		return body, nil
	}
	if err := json.Unmarshal(item.Raw, &body); err != nil {
		return nil, fmt.Errorf("decode item payload: %w", err)
	}
	return body, nil
}

func int64Slice(values []int64) []int64 {
	if values == nil {
		return []int64{}
	}
	return values
}
