package catalog

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"
	"github.com/xhad/advisor/internal/models"
	"golang.org/x/time/rate"
)

// IngesterConfig controls how external article pages are pulled into the
// catalog.
type IngesterConfig struct {
	BaseURL           string
	MaxDepth          int
	RateLimit         float64 // requests per second
	IgnorePatterns    []string
	AllowedExtensions []string
	Timeout           time.Duration
	OnProgress        func(url string)
}

// Ingester crawls a knowledge-base site and turns its articles into catalog
// documents. The store itself stays static at runtime; ingestion runs before
// the catalog is handed to the retrieval service.
type Ingester struct {
	config   IngesterConfig
	client   *http.Client
	visited  map[string]bool
	limiter  *rate.Limiter
	baseHost string
}

func NewIngester(config IngesterConfig) (*Ingester, error) {
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	if config.MaxDepth == 0 {
		config.MaxDepth = 3
	}
	if config.RateLimit == 0 {
		config.RateLimit = 2
	}
	if len(config.AllowedExtensions) == 0 {
		config.AllowedExtensions = []string{".html", ".htm", "/", ""}
	}

	parsedURL, err := url.Parse(config.BaseURL)
	if err != nil {
		return nil, err
	}

	return &Ingester{
		config: config,
		client: &http.Client{
			Timeout: config.Timeout,
		},
		visited:  make(map[string]bool),
		limiter:  rate.NewLimiter(rate.Limit(config.RateLimit), 1),
		baseHost: parsedURL.Host,
	}, nil
}

// Ingest crawls from startURL and returns the documents found.
func (in *Ingester) Ingest(ctx context.Context, startURL string) ([]models.Document, error) {
	var documents []models.Document
	err := in.crawl(ctx, startURL, 0, &documents)
	return documents, err
}

func (in *Ingester) crawl(ctx context.Context, urlStr string, depth int, documents *[]models.Document) error {
	if depth > in.config.MaxDepth || in.visited[urlStr] {
		return nil
	}

	if !in.shouldProcessURL(urlStr) {
		return nil
	}

	in.visited[urlStr] = true
	if in.config.OnProgress != nil {
		in.config.OnProgress(urlStr)
	}

	if err := in.limiter.Wait(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlStr, nil)
	if err != nil {
		return err
	}

	resp, err := in.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("received status code %d for URL: %s", resp.StatusCode, urlStr)
	}

	page, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return err
	}

	title := strings.TrimSpace(page.Find("title").Text())
	text := in.extractMainContent(page)

	if text != "" {
		*documents = append(*documents, models.Document{
			ID:       "ingest-" + uuid.NewString(),
			Title:    title,
			SourceID: in.baseHost,
			URL:      urlStr,
			Text:     text,
		})
	}

	// Follow same-host links
	var links []string
	page.Find("a[href]").Each(func(_ int, selection *goquery.Selection) {
		href, exists := selection.Attr("href")
		if !exists {
			return
		}

		absoluteURL, err := url.Parse(href)
		if err != nil {
			return
		}
		if !absoluteURL.IsAbs() {
			base, err := url.Parse(urlStr)
			if err != nil {
				return
			}
			absoluteURL = base.ResolveReference(absoluteURL)
		}
		links = append(links, absoluteURL.String())
	})

	for _, link := range links {
		if err := in.crawl(ctx, link, depth+1, documents); err != nil {
			// A failing page does not abort the crawl
			continue
		}
	}

	return nil
}

func (in *Ingester) shouldProcessURL(urlStr string) bool {
	parsedURL, err := url.Parse(urlStr)
	if err != nil {
		return false
	}

	if parsedURL.Host != in.baseHost {
		return false
	}

	path := strings.ToLower(parsedURL.Path)
	validExt := false
	for _, allowedExt := range in.config.AllowedExtensions {
		if strings.HasSuffix(path, allowedExt) {
			validExt = true
			break
		}
	}
	if !validExt {
		return false
	}

	for _, pattern := range in.config.IgnorePatterns {
		if strings.Contains(urlStr, pattern) {
			return false
		}
	}

	return true
}

func (in *Ingester) extractMainContent(page *goquery.Document) string {
	selectors := []string{
		"main",
		"article",
		".content",
		"#content",
	}

	var content string
	for _, selector := range selectors {
		if selected := page.Find(selector); selected.Length() > 0 {
			content = selected.Text()
			break
		}
	}

	if content == "" {
		content = page.Find("body").Text()
	}

	return cleanContent(content)
}

func cleanContent(content string) string {
	content = strings.Join(strings.Fields(content), " ")

	noisePatterns := []string{
		"Cookie Policy",
		"Accept Cookies",
		"Privacy Policy",
		"Terms of Service",
	}
	for _, pattern := range noisePatterns {
		content = strings.ReplaceAll(content, pattern, "")
	}

	return strings.TrimSpace(content)
}
