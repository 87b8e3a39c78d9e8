// Package scraper reads the National Assembly constituency listing and turns
// it into a province -> constituencies mapping.
//
// The page lists each province as an <h3> inside div.view-content, followed
// by a <table> whose links are the constituency names.
package scraper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"constituencies/internal/logging"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// DefaultURL is the National Assembly constituency page.
const DefaultURL = "https://www.parliament.gov.zm/members/constituencies"

var (
	// ErrFetch wraps failures to download the page.
	ErrFetch = errors.New("failed to fetch constituency page")
	// ErrParse wraps pages whose structure does not match.
	ErrParse = errors.New("failed to parse constituency page")
)

// Scraper downloads and parses the constituency page.
type Scraper struct {
	url        string
	httpClient *http.Client
	timeout    time.Duration
}

// New creates a scraper for url. A nil client uses http.DefaultClient.
func New(url string, hc *http.Client, timeout time.Duration) *Scraper {
	if url == "" {
		url = DefaultURL
	}
	if hc == nil {
		hc = http.DefaultClient
	}
	return &Scraper{url: url, httpClient: hc, timeout: timeout}
}

// Scrape downloads the page and parses it.
func (s *Scraper) Scrape(ctx context.Context) (map[string][]string, error) {
	log := logging.Get(logging.CategoryScraper)
	timer := logging.StartTimer(logging.CategoryScraper, "scrape "+s.url)
	defer timer.StopWithThreshold(10 * time.Second)

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetch, err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; constituencies/1.0)")
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: HTTP %d", ErrFetch, resp.StatusCode)
	}

	data, err := Parse(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		log.Error("parse %s: %v", s.url, err)
		return nil, err
	}
	log.Info("scraped %d provinces from %s", len(data), s.url)
	return data, nil
}

// Parse extracts provinces and constituencies from the page HTML.
func Parse(r io.Reader) (map[string][]string, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}

	var headings []*html.Node
	for _, content := range findAll(doc, isViewContent) {
		for c := content.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode && c.DataAtom == atom.H3 {
				headings = append(headings, c)
			}
		}
	}
	if len(headings) == 0 {
		return nil, fmt.Errorf("%w: could not find province headings", ErrParse)
	}

	data := make(map[string][]string)
	for _, h := range headings {
		province := textOf(h)
		table := nextTable(h)
		if province == "" || table == nil {
			continue
		}

		var names []string
		for _, a := range findAll(table, func(n *html.Node) bool { return n.DataAtom == atom.A }) {
			if name := textOf(a); name != "" {
				names = append(names, name)
			}
		}
		if len(names) > 0 {
			data[province] = append(data[province], names...)
		}
	}

	if len(data) == 0 {
		return nil, fmt.Errorf("%w: no constituency data found", ErrParse)
	}
	return data, nil
}

// nextTable returns the first <table> sibling after h, stopping at the next heading.
func nextTable(h *html.Node) *html.Node {
	for n := h.NextSibling; n != nil; n = n.NextSibling {
		if n.Type != html.ElementNode {
			continue
		}
		switch n.DataAtom {
		case atom.Table:
			return n
		case atom.H3:
			return nil
		}
	}
	return nil
}

func isViewContent(n *html.Node) bool {
	if n.DataAtom != atom.Div {
		return false
	}
	for _, a := range n.Attr {
		if a.Key == "class" {
			for _, cls := range strings.Fields(a.Val) {
				if cls == "view-content" {
					return true
				}
			}
		}
	}
	return false
}

// findAll collects element nodes under root (excluding root) matching pred, in document order.
func findAll(root *html.Node, pred func(*html.Node) bool) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode && pred(c) {
				out = append(out, c)
			}
			walk(c)
		}
	}
	walk(root)
	return out
}

// textOf returns the node's text with runs of whitespace collapsed.
func textOf(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
			sb.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(strings.Fields(sb.String()), " ")
}
