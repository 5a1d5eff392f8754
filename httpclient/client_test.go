package httpclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/skillsenselab/ingest/resilience"
)

func TestClient_Do_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("page"); got != "2" {
			t.Errorf("page query = %q, want 2", got)
		}
		w.Write([]byte(`[{"id":1}]`))
	}))
	defer srv.Close()

	c, err := New(Config{BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	resp, err := c.Do(context.Background(), Request{
		Path:  "/events",
		Query: map[string]string{"page": "2"},
	})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if !resp.IsSuccess() {
		t.Errorf("status = %d, want 2xx", resp.StatusCode)
	}
	if string(resp.Body) != `[{"id":1}]` {
		t.Errorf("body = %q", resp.Body)
	}
}

func TestClient_Do_AppliesAuth(t *testing.T) {
	tests := []struct {
		name  string
		auth  *AuthConfig
		check func(t *testing.T, r *http.Request)
	}{
		{
			name: "bearer",
			auth: BearerAuth("s3cret"),
			check: func(t *testing.T, r *http.Request) {
				if got := r.Header.Get("Authorization"); got != "Bearer s3cret" {
					t.Errorf("Authorization = %q", got)
				}
			},
		},
		{
			name: "api key header",
			auth: APIKeyAuthHeader("k123", "X-Api-Key"),
			check: func(t *testing.T, r *http.Request) {
				if got := r.Header.Get("X-Api-Key"); got != "k123" {
					t.Errorf("X-Api-Key = %q", got)
				}
			},
		},
		{
			name: "api key query",
			auth: APIKeyAuthQuery("k123", "api_key"),
			check: func(t *testing.T, r *http.Request) {
				if got := r.URL.Query().Get("api_key"); got != "k123" {
					t.Errorf("api_key param = %q", got)
				}
			},
		},
		{
			name: "basic",
			auth: BasicAuth("user", "pass"),
			check: func(t *testing.T, r *http.Request) {
				u, p, ok := r.BasicAuth()
				if !ok || u != "user" || p != "pass" {
					t.Errorf("basic auth = %q/%q ok=%v", u, p, ok)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				tt.check(t, r)
				w.Write([]byte(`{}`))
			}))
			defer srv.Close()

			c, _ := New(Config{BaseURL: srv.URL, Auth: tt.auth})
			if _, err := c.Do(context.Background(), Request{Path: "/"}); err != nil {
				t.Fatalf("Do: %v", err)
			}
		})
	}
}

func TestClient_Do_RetriesTransient(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	retry := resilience.RetryConfig{
		MaxAttempts:    3,
		InitialBackoff: time.Millisecond,
		RetryIf:        IsRetryable,
	}
	c, _ := New(Config{BaseURL: srv.URL, Retry: &retry})

	resp, err := c.Do(context.Background(), Request{Path: "/"})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d", resp.StatusCode)
	}
	if got := atomic.LoadInt32(&calls); got != 3 {
		t.Errorf("server calls = %d, want 3", got)
	}
}

func TestClient_Do_AuthFailureNotRetried(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	retry := resilience.RetryConfig{
		MaxAttempts:    5,
		InitialBackoff: time.Millisecond,
		RetryIf:        IsRetryable,
	}
	c, _ := New(Config{BaseURL: srv.URL, Retry: &retry})

	_, err := c.Do(context.Background(), Request{Path: "/"})
	if !IsAuth(err) {
		t.Fatalf("error = %v, want auth error", err)
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("server calls = %d, want 1", got)
	}
}

func TestClient_Do_AbsolutePathBypassesBaseURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/absolute" {
			t.Errorf("path = %q", r.URL.Path)
		}
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c, _ := New(Config{BaseURL: "http://unused.invalid"})
	if _, err := c.Do(context.Background(), Request{Path: srv.URL + "/absolute"}); err != nil {
		t.Fatalf("Do: %v", err)
	}
}

func TestClassifyStatusCode(t *testing.T) {
	tests := []struct {
		status    int
		wantCode  ErrorCode
		wantRetry bool
		wantNil   bool
	}{
		{200, 0, false, true},
		{204, 0, false, true},
		{401, ErrCodeAuth, false, false},
		{403, ErrCodeAuth, false, false},
		{404, ErrCodeClient, false, false},
		{429, ErrCodeRateLimit, true, false},
		{500, ErrCodeServer, true, false},
		{503, ErrCodeServer, true, false},
	}

	for _, tt := range tests {
		err := ClassifyStatusCode(tt.status, nil)
		if tt.wantNil {
			if err != nil {
				t.Errorf("status %d: got error %v, want nil", tt.status, err)
			}
			continue
		}
		if err == nil {
			t.Errorf("status %d: got nil, want error", tt.status)
			continue
		}
		if err.Code != tt.wantCode {
			t.Errorf("status %d: code = %v, want %v", tt.status, err.Code, tt.wantCode)
		}
		if err.Retryable != tt.wantRetry {
			t.Errorf("status %d: retryable = %v, want %v", tt.status, err.Retryable, tt.wantRetry)
		}
	}
}

func TestErrorClassifiers(t *testing.T) {
	authErr := ClassifyStatusCode(401, nil)
	rateErr := ClassifyStatusCode(429, nil)
	serverErr := ClassifyStatusCode(502, nil)

	if !IsAuth(authErr) || IsAuth(rateErr) {
		t.Error("IsAuth misclassified")
	}
	if !IsRateLimit(rateErr) || IsRateLimit(serverErr) {
		t.Error("IsRateLimit misclassified")
	}
	if !IsRetryable(rateErr) || !IsRetryable(serverErr) || IsRetryable(authErr) {
		t.Error("IsRetryable misclassified")
	}
	if got := StatusOf(serverErr); got != 502 {
		t.Errorf("StatusOf = %d, want 502", got)
	}
}

func TestClient_Unwrap(t *testing.T) {
	c, err := New(Config{BaseURL: "http://api.example.com", Timeout: 7 * time.Second})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	hc := c.Unwrap()
	if hc == nil || hc.Timeout != 7*time.Second {
		t.Errorf("Unwrap client timeout = %v, want 7s", hc.Timeout)
	}
}
