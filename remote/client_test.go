package remote

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(Options{Host: srv.URL + "/", Brand: "filebrowser", Key: "s3cr3t"})
}

func TestDictionary(t *testing.T) {
	var gotPath, gotKey, gotFallback, gotAccept string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.URL.Query().Get("key")
		gotFallback = r.URL.Query().Get("fallback_locale")
		gotAccept = r.Header.Get("Accept")
		_, _ = w.Write([]byte(`{"a.b": "hi", "c": {"d": "nested"}}`))
	})

	dict, err := c.Dictionary(context.Background(), "fr_FR", "en_GB")
	if err != nil {
		t.Fatalf("Dictionary() error: %v", err)
	}

	if gotPath != "/api/v3/brands/filebrowser/languages/fr_FR/dictionary" {
		t.Fatalf("path = %q", gotPath)
	}
	if gotKey != "s3cr3t" || gotFallback != "en_GB" {
		t.Fatalf("query key=%q fallback_locale=%q", gotKey, gotFallback)
	}
	if gotAccept != "application/json" {
		t.Fatalf("Accept = %q", gotAccept)
	}
	if v, _ := dict.Get("a.b"); v != "hi" {
		t.Fatalf("a.b = %q, want hi", v)
	}
	if v, _ := dict.Get("c.d"); v != "nested" {
		t.Fatalf("c.d = %q, want nested", v)
	}
}

func TestDictionary_NoFallback(t *testing.T) {
	var rawQuery string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		rawQuery = r.URL.RawQuery
		_, _ = w.Write([]byte(`{}`))
	})

	if _, err := c.Dictionary(context.Background(), "en_GB", ""); err != nil {
		t.Fatalf("Dictionary() error: %v", err)
	}
	if strings.Contains(rawQuery, "fallback_locale") {
		t.Fatalf("unexpected fallback_locale in %q", rawQuery)
	}
}

func TestDictionary_StatusError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	})

	_, err := c.Dictionary(context.Background(), "en_GB", "")
	if !errors.Is(err, ErrUnexpectedStatus) {
		t.Fatalf("error = %v, want ErrUnexpectedStatus", err)
	}
	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("error %T is not *StatusError", err)
	}
	if se.StatusCode != http.StatusForbidden || se.Body != "nope" {
		t.Fatalf("StatusError = %+v", se)
	}
	if strings.Contains(err.Error(), "s3cr3t") {
		t.Fatalf("error leaks the API key: %v", err)
	}
}

func TestDictionary_InvalidBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[1, 2]`))
	})

	if _, err := c.Dictionary(context.Background(), "en_GB", ""); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestLanguages(t *testing.T) {
	var gotPath string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_, _ = w.Write([]byte(`[{"code": "en_GB", "name": "English", "id": 1}, {"code": "fr_FR"}]`))
	})

	langs, err := c.Languages(context.Background())
	if err != nil {
		t.Fatalf("Languages() error: %v", err)
	}
	if gotPath != "/api/v2/brands/filebrowser/languages" {
		t.Fatalf("path = %q", gotPath)
	}
	if len(langs) != 2 || langs[0].Code != "en_GB" || langs[0].Name != "English" || langs[1].Code != "fr_FR" {
		t.Fatalf("Languages() = %#v", langs)
	}
}

func TestLanguages_StatusError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	if _, err := c.Languages(context.Background()); !errors.Is(err, ErrUnexpectedStatus) {
		t.Fatalf("error = %v, want ErrUnexpectedStatus", err)
	}
}

func TestCreateMessage(t *testing.T) {
	var method, path, key, brand, slug, body, contentType string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		method = r.Method
		path = r.URL.Path
		key = r.URL.Query().Get("key")
		contentType = r.Header.Get("Content-Type")
		if err := r.ParseForm(); err != nil {
			t.Errorf("ParseForm: %v", err)
		}
		brand = r.PostForm.Get("brand")
		slug = r.PostForm.Get("slug")
		body = r.PostForm.Get("body")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id": 7}`))
	})

	resp, err := c.CreateMessage(context.Background(), "a.b", "hello & bye")
	if err != nil {
		t.Fatalf("CreateMessage() error: %v", err)
	}
	if method != http.MethodPost || path != "/api/v2/messages" || key != "s3cr3t" {
		t.Fatalf("request = %s %s key=%q", method, path, key)
	}
	if contentType != "application/x-www-form-urlencoded" {
		t.Fatalf("Content-Type = %q", contentType)
	}
	if brand != "filebrowser" || slug != "a.b" || body != "hello & bye" {
		t.Fatalf("form brand=%q slug=%q body=%q", brand, slug, body)
	}
	if resp.StatusCode != http.StatusCreated || resp.Body != `{"id": 7}` {
		t.Fatalf("Response = %+v", resp)
	}
}

func TestCreateMessage_FailureKeepsResponse(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"error": "slug taken"}`))
	})

	resp, err := c.CreateMessage(context.Background(), "a", "x")
	if !errors.Is(err, ErrUnexpectedStatus) {
		t.Fatalf("error = %v, want ErrUnexpectedStatus", err)
	}
	if resp == nil || resp.StatusCode != http.StatusUnprocessableEntity || resp.Body != `{"error": "slug taken"}` {
		t.Fatalf("Response = %+v", resp)
	}
}

func TestTransportErrorRedactsKey(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	host := srv.URL
	srv.Close()

	c := New(Options{Host: host, Brand: "b", Key: "s3cr3t"})
	_, err := c.Languages(context.Background())
	if err == nil {
		t.Fatal("expected transport error")
	}
	if strings.Contains(err.Error(), "s3cr3t") {
		t.Fatalf("error leaks the API key: %v", err)
	}
}

func TestEndpointEscapesSegments(t *testing.T) {
	c := New(Options{Host: "https://example.com/", Brand: "my brand", Key: "k&y"})
	got := c.endpoint(nil, "api", "v2", "brands", c.brand, "languages")
	want := "https://example.com/api/v2/brands/my%20brand/languages?key=k%26y"
	if got != want {
		t.Fatalf("endpoint() = %q, want %q", got, want)
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("abcdef", 3); got != "abc..." {
		t.Fatalf("truncate() = %q", got)
	}
	if got := truncate("ab", 3); got != "ab" {
		t.Fatalf("truncate() = %q", got)
	}
}
