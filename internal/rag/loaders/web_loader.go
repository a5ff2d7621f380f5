package loaders

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/net/html"

	"ragstack/internal/rag/interfaces"
	"ragstack/internal/rag/schema"
)

// Elements whose subtree is boilerplate or non-content and is dropped
// entirely during extraction.
var skippedElements = map[string]bool{
	"script":   true,
	"style":    true,
	"noscript": true,
	"header":   true,
	"footer":   true,
	"nav":      true,
	"form":     true,
}

// Elements that end a block of text. A line break is inserted after each
// so paragraph structure survives into the chunks.
var blockElements = map[string]bool{
	"p": true, "div": true, "section": true, "article": true,
	"li": true, "br": true, "hr": true, "tr": true, "blockquote": true, "pre": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
}

// Void block elements have no end tag; parsers report a bare <br> as a
// start tag, not a self-closing one.
var voidBlockElements = map[string]bool{
	"br": true,
	"hr": true,
}

// WebLoader fetches a URL and extracts the readable text of the page.
type WebLoader struct {
	client *http.Client
}

// NewWebLoader creates a web page loader with the given fetch timeout.
// A non-positive timeout falls back to 20 seconds.
func NewWebLoader(timeout time.Duration) *WebLoader {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &WebLoader{
		client: &http.Client{Timeout: timeout},
	}
}

// Load fetches the page and strips the markup. Network errors and non-2xx
// responses yield ErrFetch; a page with no extractable text yields
// ErrEmptyExtraction.
func (l *WebLoader) Load(ctx context.Context, rawURL string) ([]*schema.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request for %s: %v", ErrFetch, rawURL, err)
	}
	// Some sites refuse requests without browser-like headers.
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36")
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: get %s: %v", ErrFetch, rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: get %s: status %d", ErrFetch, rawURL, resp.StatusCode)
	}

	text := extractText(html.NewTokenizer(resp.Body))
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: %s", ErrEmptyExtraction, rawURL)
	}

	return []*schema.Document{{
		ID:   uuid.New().String(),
		Text: text,
		Metadata: map[string]string{
			schema.MetadataKeySource: rawURL,
		},
	}}, nil
}

// extractText walks the token stream, skipping boilerplate subtrees and
// joining text nodes, with line breaks at block boundaries.
func extractText(z *html.Tokenizer) string {
	var sb strings.Builder
	skipDepth := 0
	for {
		switch z.Next() {
		case html.ErrorToken:
			return collapseBlankLines(sb.String())
		case html.StartTagToken:
			name, _ := z.TagName()
			tag := string(name)
			if skippedElements[tag] {
				skipDepth++
				continue
			}
			// Void elements like <br> never produce an end tag, so their
			// line break has to be emitted here.
			if skipDepth == 0 && voidBlockElements[tag] {
				sb.WriteString("\n")
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			tag := string(name)
			if skippedElements[tag] && skipDepth > 0 {
				skipDepth--
				continue
			}
			if skipDepth == 0 && blockElements[tag] {
				sb.WriteString("\n")
			}
		case html.SelfClosingTagToken:
			name, _ := z.TagName()
			if skipDepth == 0 && blockElements[string(name)] {
				sb.WriteString("\n")
			}
		case html.TextToken:
			if skipDepth > 0 {
				continue
			}
			if t := strings.TrimSpace(string(z.Text())); t != "" {
				if sb.Len() > 0 && !strings.HasSuffix(sb.String(), "\n") {
					sb.WriteString(" ")
				}
				sb.WriteString(t)
			}
		}
	}
}

// collapseBlankLines trims each line and drops runs of empty ones.
func collapseBlankLines(s string) string {
	var out []string
	blank := true
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			if !blank {
				out = append(out, "")
			}
			blank = true
			continue
		}
		out = append(out, line)
		blank = false
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}

var _ interfaces.Loader = (*WebLoader)(nil)
