// File: internal/bot/page.go
package bot

import (
	"fmt"
	"hash"
	"hash/fnv"
	"io"
	"strings"
	"sync"

	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"
)

// Page is an immutable snapshot of the driver's DOM, parsed once per pass.
// Handlers query it and translate matched nodes back into XPath selectors
// for the driver to act on.
type Page struct {
	doc *html.Node
}

// ParsePage reads and parses a page source stream.
func ParsePage(r io.Reader) (*Page, error) {
	doc, err := htmlquery.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse page snapshot: %w", err)
	}
	return &Page{doc: doc}, nil
}

// Find returns all nodes matching the XPath, or nil when the expression is
// invalid. Query failures count as "nothing found"; a broken selector must
// not abort the pass.
func (p *Page) Find(xpath string) []*html.Node {
	nodes, err := htmlquery.QueryAll(p.doc, xpath)
	if err != nil {
		return nil
	}
	return nodes
}

// Text returns the page's full visible text, space-collapsed.
func (p *Page) Text() string {
	return collapseSpace(htmlquery.InnerText(p.doc))
}

// containerTags are the structural elements a control group is anchored to.
var containerTags = map[string]bool{
	"fieldset": true,
	"form":     true,
	"table":    true,
	"tr":       true,
	"ul":       true,
	"ol":       true,
	"li":       true,
	"section":  true,
	"div":      true,
}

// groupAncestor returns the nearest structural container above the control,
// the element that visually bundles one logical question. Falls back to the
// parent element when no recognized container exists.
func groupAncestor(n *html.Node) *html.Node {
	var firstParent *html.Node
	for a := n.Parent; a != nil; a = a.Parent {
		if a.Type != html.ElementNode {
			continue
		}
		if firstParent == nil {
			firstParent = a
		}
		if containerTags[strings.ToLower(a.Data)] {
			return a
		}
	}
	return firstParent
}

// Pool for FNV hashers used in group identity derivation.
var hasherPool = sync.Pool{
	New: func() interface{} {
		return fnv.New64a()
	},
}

// groupKey derives a stable identity for a question group. Precedence: the
// container's explicit id attribute, then its structural position, then a
// content hash when the node sits outside the rendered tree.
func groupKey(container *html.Node) string {
	if container == nil {
		return ""
	}
	if id := htmlquery.SelectAttr(container, "data-interceptor-id"); id != "" {
		return "id:" + id
	}
	if id := htmlquery.SelectAttr(container, "id"); id != "" {
		return "id:" + id
	}
	if xpath := UniqueXPath(container); xpath != "" && xpath != "/" {
		return "pos:" + xpath
	}

	hasher := hasherPool.Get().(hash.Hash64)
	defer func() {
		hasher.Reset()
		hasherPool.Put(hasher)
	}()
	io.WriteString(hasher, collapseSpace(htmlquery.InnerText(container)))
	return fmt.Sprintf("hash:%x", hasher.Sum64())
}

const questionTextLimit = 200

// questionText extracts the group's question wording from its container,
// capped so a container that swallowed half the page stays classifiable.
func questionText(container *html.Node) string {
	if container == nil {
		return ""
	}
	text := collapseSpace(htmlquery.InnerText(container))
	if runes := []rune(text); len(runes) > questionTextLimit {
		text = string(runes[:questionTextLimit])
	}
	return text
}

// placeholderLabel stands in when no label source yields text.
const placeholderLabel = "option"

// labelText resolves a control's display label. Sources in precedence
// order: an enclosing label element, the nearest preceding label, the
// aria-label attribute, then the element referenced by aria-labelledby.
func labelText(p *Page, n *html.Node) string {
	if wrapped, err := htmlquery.Query(n, "ancestor::label[1]"); err == nil && wrapped != nil {
		if text := collapseSpace(htmlquery.InnerText(wrapped)); text != "" {
			return text
		}
	}
	if prev, err := htmlquery.Query(n, "preceding::label[1]"); err == nil && prev != nil {
		if text := collapseSpace(htmlquery.InnerText(prev)); text != "" {
			return text
		}
	}
	if aria := strings.TrimSpace(htmlquery.SelectAttr(n, "aria-label")); aria != "" {
		return aria
	}
	if ref := strings.TrimSpace(htmlquery.SelectAttr(n, "aria-labelledby")); ref != "" {
		// Space-separated id list; the first resolvable one wins.
		for _, id := range strings.Fields(ref) {
			if target := p.byID(id); target != nil {
				if text := collapseSpace(htmlquery.InnerText(target)); text != "" {
					return text
				}
			}
		}
	}
	return placeholderLabel
}

// fieldQuestion resolves the question wording for a standalone text field,
// using the same label precedence plus placeholder and name attributes as
// weaker fallbacks.
func fieldQuestion(p *Page, n *html.Node) string {
	if label := labelText(p, n); label != placeholderLabel {
		return label
	}
	if ph := strings.TrimSpace(htmlquery.SelectAttr(n, "placeholder")); ph != "" {
		return ph
	}
	return strings.TrimSpace(htmlquery.SelectAttr(n, "name"))
}

func (p *Page) byID(id string) *html.Node {
	if strings.ContainsAny(id, `'"`) {
		return nil
	}
	node, err := htmlquery.Query(p.doc, fmt.Sprintf(`//*[@id='%s']`, id))
	if err != nil {
		return nil
	}
	return node
}

// isChecked reports whether a radio or checkbox carries a checked marker in
// the snapshot.
func isChecked(n *html.Node) bool {
	for _, attr := range n.Attr {
		if attr.Key == "checked" {
			return true
		}
	}
	return false
}

// isSelected reports whether an option carries a selected marker.
func isSelected(n *html.Node) bool {
	for _, attr := range n.Attr {
		if attr.Key == "selected" {
			return true
		}
	}
	return false
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
