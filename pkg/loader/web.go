package loader

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/time/rate"

	"github.com/convosol/docchat/internal/models"
)

type WebSourceConfig struct {
	BaseURL    string
	MaxDepth   int
	RateLimit  float64 // requests per second
	Timeout    time.Duration
	OnProgress func(url string)
}

// WebSource crawls a documentation site breadth-first from BaseURL,
// staying on the same host, and yields one document per page. The page
// path serves as the filename in chunk provenance.
type WebSource struct {
	config   WebSourceConfig
	client   *http.Client
	limiter  *rate.Limiter
	baseHost string
}

func NewWebSource(config WebSourceConfig) (*WebSource, error) {
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	if config.MaxDepth == 0 {
		config.MaxDepth = 3
	}
	if config.RateLimit == 0 {
		config.RateLimit = 2
	}

	parsed, err := url.Parse(config.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse base URL: %w", err)
	}

	return &WebSource{
		config:   config,
		client:   &http.Client{Timeout: config.Timeout},
		limiter:  rate.NewLimiter(rate.Limit(config.RateLimit), 1),
		baseHost: parsed.Host,
	}, nil
}

func (s *WebSource) Documents(ctx context.Context) ([]models.Document, error) {
	visited := make(map[string]bool)
	var docs []models.Document
	if err := s.crawl(ctx, s.config.BaseURL, 0, visited, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}

func (s *WebSource) crawl(ctx context.Context, pageURL string, depth int, visited map[string]bool, docs *[]models.Document) error {
	if depth > s.config.MaxDepth || visited[pageURL] {
		return nil
	}
	parsed, err := url.Parse(pageURL)
	if err != nil || parsed.Host != s.baseHost {
		return nil
	}
	visited[pageURL] = true

	if s.config.OnProgress != nil {
		s.config.OnProgress(pageURL)
	}
	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("received status code %d for URL: %s", resp.StatusCode, pageURL)
	}

	page, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return err
	}
	page.Find("script, style, noscript").Remove()

	text := squeeze(page.Find("body").Text())
	if text != "" {
		name := strings.Trim(parsed.Path, "/")
		if name == "" {
			name = parsed.Host
		}
		*docs = append(*docs, models.Document{Filename: name, Text: text})
	}

	var links []string
	page.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, ok := sel.Attr("href")
		if !ok {
			return
		}
		next, err := url.Parse(href)
		if err != nil {
			return
		}
		if !next.IsAbs() {
			next = parsed.ResolveReference(next)
		}
		next.Fragment = ""
		links = append(links, next.String())
	})

	for _, link := range links {
		if err := s.crawl(ctx, link, depth+1, visited, docs); err != nil {
			if ctx.Err() != nil {
				return err
			}
			// a single bad page does not abort the crawl
			continue
		}
	}
	return nil
}
