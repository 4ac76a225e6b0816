// Package normalize flattens source content into plain text.
//
// Source adapters hand the pipeline whatever shape their upstream produced:
// a plain string, an HTML fragment, or a decoded block tree of paragraph /
// heading / list / listItem / text nodes nested through "content" children.
// Text accepts all of them and never fails; unknown shapes degrade to a
// best-effort recursion or an empty string.
package normalize

import (
	"strings"

	"golang.org/x/net/html"
)

// Block-level node types that terminate with a newline.
const (
	nodeParagraph = "paragraph"
	nodeHeading   = "heading"
	nodeListItem  = "listItem"
	nodeText      = "text"
)

// Text converts structured or HTML content to trimmed plain text.
func Text(content any) string {
	switch v := content.(type) {
	case nil:
		return ""
	case string:
		if looksLikeHTML(v) {
			return strings.TrimSpace(htmlToText(v))
		}
		return strings.TrimSpace(v)
	default:
		return strings.TrimSpace(blockToText(content))
	}
}

// looksLikeHTML is a cheap check for markup; plain prose with a stray angle
// bracket still renders fine through the HTML path, so false positives are
// harmless.
func looksLikeHTML(s string) bool {
	open := strings.IndexByte(s, '<')
	return open >= 0 && strings.IndexByte(s[open:], '>') > 0
}

// blockToText walks a decoded block tree. Node maps with a "type" of text
// contribute their literal text; other node maps recurse into "content";
// slices concatenate their children with block-level separators.
func blockToText(content any) string {
	switch v := content.(type) {
	case nil:
		return ""
	case string:
		return v
	case map[string]any:
		if v["type"] == nodeText {
			s, _ := v["text"].(string)
			return s
		}
		if inner, ok := v["content"]; ok {
			return blockToText(inner)
		}
		return ""
	case []any:
		var b strings.Builder
		for _, item := range v {
			node, ok := item.(map[string]any)
			if !ok {
				if s, ok := item.(string); ok {
					b.WriteString(s)
				}
				continue
			}

			nodeType, _ := node["type"].(string)
			inner := blockToText(node["content"])

			switch nodeType {
			case nodeParagraph:
				b.WriteString(inner)
				b.WriteString("\n")
			case nodeHeading:
				b.WriteString("\n")
				b.WriteString(inner)
				b.WriteString("\n")
			case nodeListItem:
				b.WriteString("- ")
				b.WriteString(inner)
				b.WriteString("\n")
			case nodeText:
				s, _ := node["text"].(string)
				b.WriteString(s)
			default:
				b.WriteString(inner)
			}
		}
		return b.String()
	default:
		return ""
	}
}

// htmlToText strips markup, prefixing list items with "- " and giving
// headings and paragraphs their own lines. Malformed markup is tolerated;
// x/net/html parses anything.
func htmlToText(s string) string {
	doc, err := html.Parse(strings.NewReader(s))
	if err != nil {
		return s
	}

	var b strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style":
				return
			case "li":
				b.WriteString("\n- ")
			case "h1", "h2", "h3", "h4", "p":
				b.WriteString("\n")
			case "br":
				b.WriteString("\n")
			}
		}
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if n.Type == html.ElementNode {
			switch n.Data {
			case "h1", "h2", "h3", "h4", "p", "ul", "ol", "li":
				b.WriteString("\n")
			}
		}
	}
	walk(doc)
	return b.String()
}
