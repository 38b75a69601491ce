package report

import "rsc.io/markdown"

// RenderHTML converts a Markdown report to an HTML fragment.
func RenderHTML(md []byte) string {
	p := &markdown.Parser{
		HeadingID:     true,
		Strikethrough: true,
		AutoLinkText:  true,
		Table:         true,
	}
	return markdown.ToHTML(p.Parse(string(md)))
}
