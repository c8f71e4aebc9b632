// Package htmlsanitize reduces user-supplied HTML to the small tag set used
// in published review text.
package htmlsanitize

import (
	"bytes"
	"io"
	"net/url"
	"strings"

	"golang.org/x/net/html"
)

var allowedTags = map[string]bool{
	"p": true, "br": true, "h1": true, "h2": true, "h3": true, "h4": true,
	"strong": true, "b": true, "em": true, "i": true, "u": true, "s": true,
	"sup": true, "sub": true, "ul": true, "ol": true, "li": true,
	"blockquote": true, "a": true, "code": true, "pre": true, "hr": true,
}

var voidTags = map[string]bool{"br": true, "hr": true}

// dropContent tags are removed together with everything inside them.
var dropContent = map[string]bool{"script": true, "style": true, "iframe": true, "object": true, "template": true}

// Sanitize returns input with disallowed tags stripped, unsafe links removed
// and every attribute other than an anchor href discarded.
func Sanitize(input string) string {
	tokenizer := html.NewTokenizer(strings.NewReader(input))
	var out bytes.Buffer
	var open []string
	skipDepth := 0

	for {
		tt := tokenizer.Next()
		switch tt {
		case html.ErrorToken:
			if tokenizer.Err() != io.EOF {
				return ""
			}
			for i := len(open) - 1; i >= 0; i-- {
				out.WriteString("</" + open[i] + ">")
			}
			return out.String()
		case html.TextToken:
			if skipDepth > 0 {
				continue
			}
			out.WriteString(html.EscapeString(string(tokenizer.Text())))
		case html.StartTagToken, html.SelfClosingTagToken:
			token := tokenizer.Token()
			name := token.Data
			if dropContent[name] {
				if tt == html.StartTagToken {
					skipDepth++
				}
				continue
			}
			if skipDepth > 0 || !allowedTags[name] {
				continue
			}
			out.WriteString(openTag(token))
			if !voidTags[name] && tt == html.StartTagToken {
				open = append(open, name)
			}
		case html.EndTagToken:
			token := tokenizer.Token()
			name := token.Data
			if dropContent[name] {
				if skipDepth > 0 {
					skipDepth--
				}
				continue
			}
			if skipDepth > 0 || !allowedTags[name] || voidTags[name] {
				continue
			}
			idx := lastIndex(open, name)
			if idx == -1 {
				continue
			}
			for i := len(open) - 1; i >= idx; i-- {
				out.WriteString("</" + open[i] + ">")
			}
			open = open[:idx]
		}
	}
}

// PlainText returns the text content of input with tags removed.
func PlainText(input string) string {
	tokenizer := html.NewTokenizer(strings.NewReader(input))
	var out strings.Builder
	skipDepth := 0
	for {
		switch tokenizer.Next() {
		case html.ErrorToken:
			return strings.Join(strings.Fields(out.String()), " ")
		case html.TextToken:
			if skipDepth == 0 {
				out.Write(tokenizer.Text())
				out.WriteByte(' ')
			}
		case html.StartTagToken:
			name, _ := tokenizer.TagName()
			if dropContent[string(name)] {
				skipDepth++
			}
		case html.EndTagToken:
			name, _ := tokenizer.TagName()
			if dropContent[string(name)] && skipDepth > 0 {
				skipDepth--
			}
		}
	}
}

func openTag(token html.Token) string {
	var b strings.Builder
	b.WriteString("<" + token.Data)
	if token.Data == "a" {
		for _, attr := range token.Attr {
			if attr.Key == "href" && safeHref(attr.Val) {
				b.WriteString(` href="` + html.EscapeString(attr.Val) + `"`)
			}
		}
	}
	b.WriteString(">")
	return b.String()
}

func safeHref(raw string) bool {
	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return false
	}
	switch strings.ToLower(parsed.Scheme) {
	case "http", "https", "mailto":
		return true
	default:
		return false
	}
}

func lastIndex(values []string, target string) int {
	for i := len(values) - 1; i >= 0; i-- {
		if values[i] == target {
			return i
		}
	}
	return -1
}
