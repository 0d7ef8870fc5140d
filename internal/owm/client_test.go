package owm

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, cfg Config) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	cfg.BaseURL = srv.URL
	if cfg.APIKey == "" {
		cfg.APIKey = "test-key"
	}
	return New(cfg)
}

func TestFetchWeather_Success(t *testing.T) {
	body := `{"name":"Manila","main":{"temp":31.4},"unknown_field":{"kept":true}}`
	var gotQuery atomic.Value
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery.Store(r.URL.Query())
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body))
	}, Config{})

	rec, err := c.FetchWeather(context.Background(), "Manila")
	if err != nil {
		t.Fatalf("FetchWeather: %v", err)
	}
	if string(rec) != body {
		t.Errorf("record = %s, want body unmodified %s", rec, body)
	}

	q := gotQuery.Load().(url.Values)
	if got := q["q"]; len(got) != 1 || got[0] != "Manila" {
		t.Errorf("q = %v, want Manila", got)
	}
	if got := q["appid"]; len(got) != 1 || got[0] != "test-key" {
		t.Errorf("appid = %v, want test-key", got)
	}
	if got := q["units"]; len(got) != 1 || got[0] != "metric" {
		t.Errorf("units = %v, want metric", got)
	}
}

func TestFetchWeather_EncodesCityName(t *testing.T) {
	var rawQuery atomic.Value
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		rawQuery.Store(r.URL.RawQuery)
		if got := r.URL.Query().Get("q"); got != "São Paulo&x=1" {
			t.Errorf("decoded q = %q", got)
		}
		w.Write([]byte(`{}`))
	}, Config{})

	if _, err := c.FetchWeather(context.Background(), "São Paulo&x=1"); err != nil {
		t.Fatalf("FetchWeather: %v", err)
	}
	if raw := rawQuery.Load().(string); strings.Contains(raw, "&x=1") {
		t.Errorf("raw query %q was not escaped", raw)
	}
}

func TestFetchWeather_ErrorMessages(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		wantMessage string
	}{
		{"city not found", http.StatusNotFound, `{"cod":"404","message":"city not found"}`, "City not found."},
		{"already terminated", http.StatusUnauthorized, `{"cod":401,"message":"Invalid API key. Please see https://openweathermap.org/faq#error401 for more info."}`, "Invalid API key. Please see https://openweathermap.org/faq#error401 for more info."},
		{"no json body", http.StatusInternalServerError, `<html>oops</html>`, "HTTP 500"},
		{"empty body", http.StatusBadGateway, ``, "HTTP 502"},
		{"empty message", http.StatusBadRequest, `{"message":""}`, "HTTP 400"},
		{"non-string message", http.StatusBadRequest, `{"message":42}`, "HTTP 400"},
		{"unicode first letter", http.StatusBadRequest, `{"message":"élan required"}`, "Élan required."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}, Config{})

			_, err := c.FetchWeather(context.Background(), "Nowhere")
			var fe *FetchError
			if !errors.As(err, &fe) {
				t.Fatalf("error = %v, want *FetchError", err)
			}
			if fe.Message != tt.wantMessage {
				t.Errorf("Message = %q, want %q", fe.Message, tt.wantMessage)
			}
			if fe.StatusCode != tt.status {
				t.Errorf("StatusCode = %d, want %d", fe.StatusCode, tt.status)
			}
		})
	}
}

func TestFetchWeather_InvalidSuccessBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"name":`))
	}, Config{})

	_, err := c.FetchWeather(context.Background(), "Bern")
	var fe *FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("error = %v, want *FetchError", err)
	}
	if fe.StatusCode != http.StatusOK {
		t.Errorf("StatusCode = %d, want 200", fe.StatusCode)
	}
}

func TestFetchWeather_NetworkErrorRedactsKey(t *testing.T) {
	c := New(Config{APIKey: "secret-key", BaseURL: "http://127.0.0.1:1/weather", Timeout: time.Second})

	_, err := c.FetchWeather(context.Background(), "Delhi")
	var fe *FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("error = %v, want *FetchError", err)
	}
	if fe.StatusCode != 0 {
		t.Errorf("StatusCode = %d, want 0", fe.StatusCode)
	}
	if fe.Err == nil {
		t.Error("expected wrapped transport error")
	}
	if strings.Contains(fe.Message, "secret-key") {
		t.Errorf("message leaks API key: %q", fe.Message)
	}
}

func TestRedact(t *testing.T) {
	tests := []struct {
		name string
		key  string
	}{
		{"plain key", "abc123"},
		{"key escaped in query", "se cret/+key&x"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(Config{APIKey: tt.key})
			err := errors.New(`Get "` + c.URL("Delhi") + `": dial tcp 127.0.0.1:1: connect: connection refused`)

			got := redact(err, tt.key)
			if strings.Contains(got, tt.key) || strings.Contains(got, url.QueryEscape(tt.key)) {
				t.Errorf("redact leaks key: %q", got)
			}
			if !strings.Contains(got, "appid=REDACTED") {
				t.Errorf("redact = %q, want appid=REDACTED", got)
			}
		})
	}
}

func TestFetchWeather_NetworkErrorRedactsEscapedKey(t *testing.T) {
	key := "se cret/+key"
	c := New(Config{APIKey: key, BaseURL: "http://127.0.0.1:1/weather", Timeout: time.Second})

	_, err := c.FetchWeather(context.Background(), "Delhi")
	if err == nil {
		t.Fatal("expected error")
	}
	if msg := err.Error(); strings.Contains(msg, key) || strings.Contains(msg, url.QueryEscape(key)) {
		t.Errorf("message leaks API key: %q", msg)
	}
}

func TestFetchWeather_SingleCallByDefault(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"message":"rate limited"}`))
	}, Config{})

	_, err := c.FetchWeather(context.Background(), "Lilongwe")
	if err == nil || err.Error() != "Rate limited." {
		t.Fatalf("error = %v, want Rate limited.", err)
	}
	if n := calls.Load(); n != 1 {
		t.Errorf("calls = %d, want 1", n)
	}
}

func TestFetchWeather_RetriesRateLimit(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{"name":"Islamabad"}`))
	}, Config{MaxRetries: 3, RetryWait: time.Millisecond})

	rec, err := c.FetchWeather(context.Background(), "Islamabad")
	if err != nil {
		t.Fatalf("FetchWeather: %v", err)
	}
	if string(rec) != `{"name":"Islamabad"}` {
		t.Errorf("record = %s", rec)
	}
	if n := calls.Load(); n != 3 {
		t.Errorf("calls = %d, want 3", n)
	}
}

func TestFetchWeather_DoesNotRetryOtherErrors(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"message":"city not found"}`))
	}, Config{MaxRetries: 5, RetryWait: time.Millisecond})

	if _, err := c.FetchWeather(context.Background(), "Atlantis"); err == nil {
		t.Fatal("expected error")
	}
	if n := calls.Load(); n != 1 {
		t.Errorf("calls = %d, want 1", n)
	}
}

func TestSentence(t *testing.T) {
	tests := map[string]string{
		"city not found":      "City not found.",
		"Nothing to geocode.": "Nothing to geocode.",
		"x":                   "X.",
	}
	for in, want := range tests {
		if got := sentence(in); got != want {
			t.Errorf("sentence(%q) = %q, want %q", in, got, want)
		}
	}
}
