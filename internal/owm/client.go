package owm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/cenkalti/backoff/v4"
	"github.com/lox/grlweather/internal/httputil"
	"github.com/lox/grlweather/internal/metrics"
	"github.com/lox/grlweather/internal/models"
)

const (
	DefaultBaseURL = "https://api.openweathermap.org/data/2.5/weather"
	DefaultUnits   = "metric"
)

// Config holds everything the client needs. The API key is not validated;
// an empty key makes every request fail remotely.
type Config struct {
	APIKey     string
	BaseURL    string
	Units      string
	Timeout    time.Duration
	MaxRetries int           // retries after HTTP 429; 0 means exactly one call
	RetryWait  time.Duration // initial backoff interval
}

type Client struct {
	cfg        Config
	httpClient *http.Client
}

// FetchError is the only error FetchWeather returns. Message is suitable for display.
type FetchError struct {
	Message    string
	StatusCode int // 0 when no HTTP response was received
	Err        error
}

func (e *FetchError) Error() string {
	return e.Message
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

func New(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Units == "" {
		cfg.Units = DefaultUnits
	}
	if cfg.RetryWait <= 0 {
		cfg.RetryWait = 500 * time.Millisecond
	}
	return &Client{
		cfg:        cfg,
		httpClient: httputil.NewClient(cfg.Timeout),
	}
}

// URL builds the request URL for a city.
func (c *Client) URL(city string) string {
	q := url.Values{}
	q.Set("q", city)
	q.Set("appid", c.cfg.APIKey)
	q.Set("units", c.cfg.Units)
	return c.cfg.BaseURL + "?" + q.Encode()
}

// FetchWeather returns the current-conditions body for city, unmodified.
func (c *Client) FetchWeather(ctx context.Context, city string) (models.WeatherRecord, error) {
	u := c.URL(city)

	var body []byte
	attempt := 0
	operation := func() error {
		if attempt > 0 {
			metrics.OWMRetries.Inc()
		}
		attempt++

		b, err := c.get(ctx, u)
		if err != nil {
			var fe *FetchError
			if errors.As(err, &fe) && fe.StatusCode == http.StatusTooManyRequests {
				return err
			}
			return backoff.Permanent(err)
		}
		body = b
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = c.cfg.RetryWait
	bo.MaxElapsedTime = 2 * time.Minute
	retries := c.cfg.MaxRetries
	if retries < 0 {
		retries = 0
	}
	if err := backoff.Retry(operation, backoff.WithContext(backoff.WithMaxRetries(bo, uint64(retries)), ctx)); err != nil {
		var fe *FetchError
		if errors.As(err, &fe) {
			return nil, fe
		}
		return nil, &FetchError{Message: err.Error(), Err: err}
	}

	return models.WeatherRecord(body), nil
}

func (c *Client) get(ctx context.Context, u string) ([]byte, error) {
	start := time.Now()
	status := "error"
	defer func() {
		metrics.OWMAPICallsTotal.WithLabelValues(status).Inc()
		metrics.OWMAPILatency.Observe(time.Since(start).Seconds())
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, &FetchError{Message: fmt.Sprintf("create request: %v", err), Err: err}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &FetchError{Message: fmt.Sprintf("fetch weather: %v", redact(err, c.cfg.APIKey)), Err: err}
	}
	defer resp.Body.Close()
	status = strconv.Itoa(resp.StatusCode)

	body, readErr := io.ReadAll(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &FetchError{
			Message:    errorMessage(resp.StatusCode, body),
			StatusCode: resp.StatusCode,
		}
	}

	if readErr != nil {
		return nil, &FetchError{Message: fmt.Sprintf("read body: %v", readErr), StatusCode: resp.StatusCode, Err: readErr}
	}
	if !json.Valid(body) {
		return nil, &FetchError{Message: "invalid JSON in weather response", StatusCode: resp.StatusCode}
	}
	return body, nil
}

// errorMessage prefers the upstream "message" field, sentence-cased and
// period-terminated, and falls back to "HTTP <status>".
func errorMessage(status int, body []byte) string {
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err != nil || payload.Message == "" {
		return fmt.Sprintf("HTTP %d", status)
	}
	return sentence(payload.Message)
}

func sentence(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	s = string(unicode.ToUpper(r)) + s[size:]
	if !strings.HasSuffix(s, ".") {
		s += "."
	}
	return s
}

// redact removes the API key from transport errors, which embed the request
// URL with the key in its query-escaped form.
func redact(err error, apiKey string) string {
	msg := err.Error()
	if apiKey == "" {
		return msg
	}
	msg = strings.ReplaceAll(msg, url.QueryEscape(apiKey), "REDACTED")
	return strings.ReplaceAll(msg, apiKey, "REDACTED")
}
