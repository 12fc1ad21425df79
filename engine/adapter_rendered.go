package engine

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/pkg/errors"

	"github.com/ai-fdocs/fdocs"
)

// RenderedDocsAdapter fetches a single canonical page for (name, version)
// from a rendered-docs service and normalizes it into one API.md artifact.
// Grounded on other_examples/manifests/sevigo-code-warden's
// PuerkitoBio/goquery dependency for DOM selection and stripping.
type RenderedDocsAdapter struct {
	Client  *http.Client
	BaseURL string // e.g. "https://docs.rs" or "https://www.npmjs.com/package"
}

func (a *RenderedDocsAdapter) Fetch(ctx context.Context, entry fdocs.PackageEntry, version string) (*FetchResult, error) {
	return withRetry(ctx, func() (*FetchResult, error) { return a.fetchOnce(ctx, entry, version) })
}

func (a *RenderedDocsAdapter) fetchOnce(ctx context.Context, entry fdocs.PackageEntry, version string) (*FetchResult, error) {
	pageURL := fmt.Sprintf("%s/%s/%s", strings.TrimSuffix(a.BaseURL, "/"), entry.Name, version)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, &fdocs.EngineError{Kind: fdocs.KindNetwork, Package: entry.Name, Err: errors.Wrap(err, "building rendered-docs request")}
	}
	resp, err := a.Client.Do(req)
	if err != nil {
		return nil, &fdocs.EngineError{Kind: fdocs.KindNetwork, Package: entry.Name, Err: errors.Wrap(err, "fetching rendered docs page")}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &fdocs.EngineError{Kind: classifyHTTPStatus(resp.StatusCode), Package: entry.Name, Err: errors.Errorf("rendered-docs page returned %d", resp.StatusCode)}
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, &fdocs.EngineError{Kind: fdocs.KindParse, Package: entry.Name, Err: errors.Wrap(err, "parsing rendered-docs HTML")}
	}

	markdown, degraded := normalizeRenderedDoc(doc, entry.Name, version, pageURL)

	return &FetchResult{
		Files:      []FetchedFile{{RelPath: "API.md", Content: []byte(markdown)}},
		SourceKind: SourceKindRendered,
		Degraded:   degraded,
	}, nil
}

// normalizeRenderedDoc extracts the main article, strips chrome, rewrites
// relative links to absolute, and assembles the fixed section skeleton
// spec.md §4.2 requires. It reports degraded=true if a mandatory section
// could not be located.
func normalizeRenderedDoc(doc *goquery.Document, name, version, pageURL string) (string, bool) {
	doc.Find("nav, script, style, header, footer, aside").Remove()

	base, _ := url.Parse(pageURL)
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		if abs := resolveLink(base, href); abs != "" {
			s.SetAttr("href", abs)
		}
	})

	article := doc.Find("article").First()
	if article.Length() == 0 {
		article = doc.Find("main").First()
	}
	if article.Length() == 0 {
		article = doc.Find("body").First()
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# %s %s\n\n", name, version)

	haveOverview := article.Find(".overview, #overview").Length() > 0 || strings.Contains(strings.ToLower(article.Text()), "overview")
	haveAPI := article.Find(".api-reference, #api-reference, .module-index, #module-index").Length() > 0
	haveCode := article.Find("pre code, pre").Length() > 0

	b.WriteString("## Overview\n\n")
	if overview := article.Find(".overview, #overview").First(); overview.Length() > 0 {
		b.WriteString(strings.TrimSpace(overview.Text()))
	} else {
		b.WriteString(strings.TrimSpace(firstParagraph(article)))
	}
	b.WriteString("\n\n")

	b.WriteString("## API Reference\n\n")
	apiSection := article.Find(".api-reference, #api-reference, .module-index, #module-index").First()
	if apiSection.Length() > 0 {
		b.WriteString(strings.TrimSpace(apiSection.Text()))
	} else {
		b.WriteString(strings.TrimSpace(article.Text()))
	}
	b.WriteString("\n\n")

	article.Find("pre").Each(func(_ int, pre *goquery.Selection) {
		lang := pre.Find("code").AttrOr("class", "")
		fmt.Fprintf(&b, "```%s\n%s\n```\n\n", strings.TrimPrefix(lang, "language-"), strings.TrimSpace(pre.Text()))
	})

	fmt.Fprintf(&b, "---\nSource: %s\n", pageURL)

	degraded := !haveOverview || !haveAPI || !haveCode
	return b.String(), degraded
}

func firstParagraph(s *goquery.Selection) string {
	p := s.Find("p").First()
	if p.Length() == 0 {
		return ""
	}
	return p.Text()
}

func resolveLink(base *url.URL, href string) string {
	if href == "" || base == nil {
		return ""
	}
	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if u.IsAbs() {
		return u.String()
	}
	return base.ResolveReference(u).String()
}
