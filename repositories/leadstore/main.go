package leadstore

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"strings"

	"github.com/mitchellh/mapstructure"

	"bgdb/annotator/models"
	"bgdb/annotator/utils"
)

// Client talks to the blood group variant database: login, list
// variants, and PATCH partial updates. A cookie jar keeps the session
// obtained at login; the store has no request quota, so its retry
// client runs without a rate limiter.
type Client struct {
	baseURL  string
	email    string
	password string
	retry    *utils.RetryClient
	logger   *slog.Logger
}

// Option configures the Client during construction.
type Option func(*Client)

func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithRetryClient overrides the transport, for tests.
func WithRetryClient(rc *utils.RetryClient) Option {
	return func(c *Client) { c.retry = rc }
}

func New(baseURL, email, password string, opts ...Option) *Client {
	jar, _ := cookiejar.New(nil)
	client := &Client{
		baseURL:  strings.TrimSuffix(baseURL, "/"),
		email:    email,
		password: password,
		retry: utils.NewRetryClient(nil, utils.WithHTTPClient(&http.Client{
			Timeout: utils.RequestTimeout,
			Jar:     jar,
		})),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// Login authenticates against {base}/auth/login and keeps the session
// cookie for all later calls.
func (c *Client) Login(ctx context.Context) error {
	body, err := json.Marshal(map[string]string{
		"email":    c.email,
		"password": c.password,
	})
	if err != nil {
		return fmt.Errorf("encode login body: %w", err)
	}

	resp, err := c.retry.Do(ctx, http.MethodPost, c.baseURL+"/auth/login", body, jsonHeader())
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	c.logger.Info("logged in to variant store", "url", c.baseURL)
	return nil
}

// GetVariants fetches the full remote record set. Records are decoded
// into models.Variant while the raw map is retained on each record
// for field-presence checks.
func (c *Client) GetVariants(ctx context.Context) ([]models.Variant, error) {
	resp, err := c.retry.Do(ctx, http.MethodGet, c.baseURL+"/variant", nil, nil)
	if err != nil {
		return nil, fmt.Errorf("list variants: %w", err)
	}
	defer resp.Body.Close()

	var raw []map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode variant list: %w", err)
	}

	variants := make([]models.Variant, 0, len(raw))
	for _, record := range raw {
		variant, err := DecodeVariant(record)
		if err != nil {
			return nil, fmt.Errorf("decode variant record: %w", err)
		}
		variants = append(variants, variant)
	}

	c.logger.Info("fetched variants from store", "count", len(variants))
	return variants, nil
}

// Patch issues a partial update: only the named fields change, nil
// values clear. Satisfies the pipeline's PatchWriter.
func (c *Client) Patch(ctx context.Context, variantId string, fields map[string]interface{}) error {
	body, err := json.Marshal(fields)
	if err != nil {
		return &models.WriteError{VariantId: variantId, Err: err}
	}

	url := fmt.Sprintf("%s/variant/%s", c.baseURL, variantId)
	resp, err := c.retry.Do(ctx, http.MethodPatch, url, body, jsonHeader())
	if err != nil {
		return &models.WriteError{VariantId: variantId, Err: err}
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	return nil
}

// DecodeVariant maps one raw store record onto the Variant model.
// Weak typing tolerates the store rendering ids and positions as
// either strings or numbers.
func DecodeVariant(record map[string]interface{}) (models.Variant, error) {
	var variant models.Variant
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &variant,
		TagName:          "json",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return models.Variant{}, err
	}
	if err := decoder.Decode(record); err != nil {
		return models.Variant{}, err
	}
	variant.Raw = record
	return variant, nil
}

func jsonHeader() http.Header {
	header := http.Header{}
	header.Set("Content-Type", "application/json")
	return header
}
