package extract

import (
	"encoding/json"
	"io"
	"net/url"
	"path"
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// metaImageKeys - property/name values that carry the page's hero image
var metaImageKeys = map[string]bool{
	"og:image":            true,
	"og:image:url":        true,
	"og:image:secure_url": true,
	"twitter:image":       true,
	"twitter:image:src":   true,
	"product:image":       true,
}

// lazyAttrs are checked before src because lazy loaders put a blank gif in src.
var lazyAttrs = []string{"data-src", "data-original", "data-lazy-src", "data-zoom-image"}

// skipNames - file names (without extension) of spacers, beacons and icons
var skipNames = map[string]bool{
	"pixel": true, "spacer": true, "blank": true, "transparent": true, "clear": true,
	"1x1": true, "tracking": true, "beacon": true, "favicon": true,
}

// ParseImages walks the document and returns absolute image URLs: meta and
// JSON-LD Product images first, then <img> sources in document order,
// de-duplicated and capped at limit.
func ParseImages(r io.Reader, base *url.URL, limit int) ([]string, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, err
	}

	c := &collector{base: base, limit: limit, seen: map[string]bool{}}

	// meta pass, so og:image wins over inline images
	walk(doc, func(n *html.Node) {
		switch n.DataAtom {
		case atom.Meta:
			key := strings.ToLower(attr(n, "property"))
			if key == "" {
				key = strings.ToLower(attr(n, "name"))
			}
			if metaImageKeys[key] {
				c.add(attr(n, "content"))
			}
		case atom.Link:
			if strings.EqualFold(attr(n, "rel"), "image_src") {
				c.add(attr(n, "href"))
			}
		case atom.Script:
			if strings.EqualFold(strings.TrimSpace(attr(n, "type")), "application/ld+json") && n.FirstChild != nil {
				for _, img := range ldProductImages([]byte(n.FirstChild.Data)) {
					c.add(img)
				}
			}
		}
	})

	walk(doc, func(n *html.Node) {
		switch n.DataAtom {
		case atom.Img:
			if isTrackingPixel(n) {
				return
			}
			for _, a := range lazyAttrs {
				if v := attr(n, a); v != "" {
					c.add(v)
					return
				}
			}
			if v := attr(n, "src"); v != "" && !strings.HasPrefix(v, "data:") {
				c.add(v)
				return
			}
			c.add(largestSrcset(attr(n, "srcset")))
		case atom.Source:
			if n.Parent != nil && n.Parent.DataAtom == atom.Picture {
				c.add(largestSrcset(attr(n, "srcset")))
			}
		}
	})

	return c.urls, nil
}

type collector struct {
	base  *url.URL
	limit int
	seen  map[string]bool
	urls  []string
}

func (c *collector) add(raw string) {
	if c.limit > 0 && len(c.urls) >= c.limit {
		return
	}
	u := resolve(c.base, raw)
	if u == "" || c.seen[u] {
		return
	}
	c.seen[u] = true
	c.urls = append(c.urls, u)
}

// resolve returns an absolute http(s) URL or "" when the value is unusable.
func resolve(base *url.URL, raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.HasPrefix(raw, "data:") {
		return ""
	}

	ref, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	u := ref
	if base != nil {
		u = base.ResolveReference(ref)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return ""
	}
	u.Fragment = ""

	lower := strings.ToLower(u.Path)
	if path.Ext(lower) == ".svg" {
		return ""
	}
	name := path.Base(lower)
	if skipNames[strings.TrimSuffix(name, path.Ext(name))] {
		return ""
	}
	return u.String()
}

// ldProductImages returns the image values of every Product node in a
// JSON-LD block, following @graph and top-level arrays. Broken JSON yields nil.
func ldProductImages(data []byte) []string {
	var root interface{}
	if err := json.Unmarshal(data, &root); err != nil {
		return nil
	}
	var out []string
	var visit func(v interface{})
	visit = func(v interface{}) {
		switch node := v.(type) {
		case []interface{}:
			for _, item := range node {
				visit(item)
			}
		case map[string]interface{}:
			if isLDType(node["@type"], "Product") {
				out = append(out, ldURLs(node["image"])...)
			}
			if graph, ok := node["@graph"]; ok {
				visit(graph)
			}
		}
	}
	visit(root)
	return out
}

func isLDType(v interface{}, want string) bool {
	switch t := v.(type) {
	case string:
		return t == want
	case []interface{}:
		for _, item := range t {
			if s, ok := item.(string); ok && s == want {
				return true
			}
		}
	}
	return false
}

// ldURLs accepts a URL string, an ImageObject, or a list of either.
func ldURLs(v interface{}) []string {
	switch img := v.(type) {
	case string:
		return []string{img}
	case map[string]interface{}:
		if u, ok := img["url"].(string); ok {
			return []string{u}
		}
		if u, ok := img["contentUrl"].(string); ok {
			return []string{u}
		}
	case []interface{}:
		var out []string
		for _, item := range img {
			out = append(out, ldURLs(item)...)
		}
		return out
	}
	return nil
}

// largestSrcset picks the candidate with the highest width or density descriptor.
func largestSrcset(srcset string) string {
	best, bestScore := "", -1.0
	for _, candidate := range strings.Split(srcset, ",") {
		fields := strings.Fields(strings.TrimSpace(candidate))
		if len(fields) == 0 {
			continue
		}
		score := 1.0
		if len(fields) > 1 {
			score = descriptorScore(fields[1])
		}
		if score > bestScore {
			best, bestScore = fields[0], score
		}
	}
	return best
}

func descriptorScore(d string) float64 {
	d = strings.ToLower(d)
	if len(d) < 2 {
		return 1
	}
	n, err := strconv.ParseFloat(d[:len(d)-1], 64)
	if err != nil {
		return 1
	}
	switch d[len(d)-1] {
	case 'w':
		return n
	case 'x':
		return n * 1000
	}
	return 1
}

func isTrackingPixel(n *html.Node) bool {
	w, h := attr(n, "width"), attr(n, "height")
	return (w == "1" || w == "0") && (h == "1" || h == "0")
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func walk(n *html.Node, fn func(*html.Node)) {
	if n.Type == html.ElementNode {
		fn(n)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, fn)
	}
}
