package loaders

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

const samplePage = `<!DOCTYPE html>
<html>
<head><title>Sample</title><style>body { color: red; }</style></head>
<body>
<nav><a href="/">home</a><a href="/about">about</a></nav>
<script>console.log("tracking");</script>
<article>
<h1>Release notes</h1>
<p>The first paragraph of the page.</p>
<p>The second paragraph of the page.</p>
</article>
<footer>copyright</footer>
</body>
</html>`

func TestWebLoaderExtractsText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") == "" {
			t.Errorf("expected a browser-like User-Agent header")
		}
		w.Write([]byte(samplePage))
	}))
	defer srv.Close()

	docs, err := NewWebLoader(5 * time.Second).Load(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if len(docs) != 1 {
		t.Fatalf("expected 1 document, got %d", len(docs))
	}

	text := docs[0].Text
	for _, want := range []string{"Release notes", "first paragraph", "second paragraph"} {
		if !strings.Contains(text, want) {
			t.Errorf("expected %q in extracted text:\n%s", want, text)
		}
	}
	for _, unwanted := range []string{"tracking", "color: red", "home", "copyright"} {
		if strings.Contains(text, unwanted) {
			t.Errorf("boilerplate %q leaked into extracted text:\n%s", unwanted, text)
		}
	}
	if !strings.Contains(text, "\n") {
		t.Errorf("expected block boundaries to become line breaks")
	}
}

func TestWebLoaderBreakTags(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body><p>line one<br>line two<br/>line three</p></body></html>`))
	}))
	defer srv.Close()

	docs, err := NewWebLoader(5 * time.Second).Load(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	lines := strings.Split(docs[0].Text, "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d: %q", len(lines), docs[0].Text)
	}
	for i, want := range []string{"line one", "line two", "line three"} {
		if lines[i] != want {
			t.Errorf("line %d = %q, want %q", i, lines[i], want)
		}
	}
}

func TestWebLoaderFetchError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	_, err := NewWebLoader(5 * time.Second).Load(context.Background(), srv.URL)
	if !errors.Is(err, ErrFetch) {
		t.Fatalf("expected ErrFetch, got %v", err)
	}
}

func TestWebLoaderUnreachableHost(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := NewWebLoader(time.Second).Load(context.Background(), url)
	if !errors.Is(err, ErrFetch) {
		t.Fatalf("expected ErrFetch, got %v", err)
	}
}

func TestWebLoaderEmptyExtraction(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body><script>only()</script></body></html>`))
	}))
	defer srv.Close()

	_, err := NewWebLoader(5 * time.Second).Load(context.Background(), srv.URL)
	if !errors.Is(err, ErrEmptyExtraction) {
		t.Fatalf("expected ErrEmptyExtraction, got %v", err)
	}
}
