package tracking

import (
	"fmt"
	"html"
	"net/url"
	"regexp"
	"strings"

	"github.com/osteele/liquid"
)

// documentShell wraps the rendered body in a minimal HTML email document.
// Inline styles only; email clients strip <style> blocks.
const documentShell = `<!DOCTYPE html>
<html>
<head><meta charset="utf-8"></head>
<body style="font-family: Arial, Helvetica, sans-serif; font-size: 14px; color: #222222; line-height: 1.6; margin: 0; padding: 16px;">
{{ body_html }}
<img src="{{ pixel_url }}" width="1" height="1" style="display:none;" alt="">
</body>
</html>`

var (
	hrefRe    = regexp.MustCompile(`href="([^"]*)"`)
	bareURLRe = regexp.MustCompile(`https?://[^\s<>"]+`)
	tagRe     = regexp.MustCompile(`<[^>]*>`)
)

// Injector turns a generated plain-text body into trackable HTML: a 1x1
// pixel for opens and click-redirect rewrites for every outbound link.
type Injector struct {
	baseURL string
	shell   *liquid.Template
}

func NewInjector(baseURL string) (*Injector, error) {
	tmpl, err := liquid.NewEngine().ParseString(documentShell)
	if err != nil {
		return nil, fmt.Errorf("parse document shell: %w", err)
	}
	return &Injector{
		baseURL: strings.TrimRight(baseURL, "/"),
		shell:   tmpl,
	}, nil
}

// PixelURL returns the open-tracking pixel URL for a tracking ID.
func (inj *Injector) PixelURL(trackingID string) string {
	return fmt.Sprintf("%s/track/open?id=%s", inj.baseURL, url.QueryEscape(trackingID))
}

// ClickURL returns the redirect URL that records a click before forwarding
// to target.
func (inj *Injector) ClickURL(trackingID, target string) string {
	return fmt.Sprintf("%s/track/click/%s?url=%s", inj.baseURL, url.PathEscape(trackingID), url.QueryEscape(target))
}

// Build renders the full HTML document for a message body and returns it
// alongside the plain-text alternative derived from the same document.
func (inj *Injector) Build(body, trackingID string) (htmlDoc, text string, err error) {
	bodyHTML := inj.rewriteLinks(textToHTML(body), trackingID)

	htmlDoc, err = inj.shell.RenderString(map[string]any{
		"body_html": bodyHTML,
		"pixel_url": inj.PixelURL(trackingID),
	})
	if err != nil {
		return "", "", fmt.Errorf("render email document: %w", err)
	}
	return htmlDoc, HTMLToText(htmlDoc), nil
}

// textToHTML escapes the body and converts its structure: blank lines become
// paragraph breaks, single newlines become <br>, and bare URLs become
// anchors so they are rewritable.
func textToHTML(body string) string {
	var paragraphs []string
	for _, para := range strings.Split(strings.ReplaceAll(body, "\r\n", "\n"), "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		escaped := html.EscapeString(para)
		escaped = bareURLRe.ReplaceAllStringFunc(escaped, func(u string) string {
			return fmt.Sprintf(`<a href="%s">%s</a>`, u, u)
		})
		escaped = strings.ReplaceAll(escaped, "\n", "<br>\n")
		paragraphs = append(paragraphs, "<p>"+escaped+"</p>")
	}
	return strings.Join(paragraphs, "\n")
}

// rewriteLinks points every href at the click redirect. Protocol links the
// redirect cannot forward and links already pointing at the tracker are
// left alone. href values are attribute text, so entities like &amp; are
// decoded before the target goes into the redirect's query string.
func (inj *Injector) rewriteLinks(bodyHTML, trackingID string) string {
	return hrefRe.ReplaceAllStringFunc(bodyHTML, func(match string) string {
		target := hrefRe.FindStringSubmatch(match)[1]
		switch {
		case target == "",
			strings.HasPrefix(target, "mailto:"),
			strings.HasPrefix(target, "tel:"),
			strings.HasPrefix(target, "#"),
			strings.Contains(target, "/track/click/"):
			return match
		}
		return fmt.Sprintf(`href="%s"`, inj.ClickURL(trackingID, html.UnescapeString(target)))
	})
}

// HTMLToText strips markup from an HTML document for the text/plain MIME
// part.
func HTMLToText(doc string) string {
	text := strings.ReplaceAll(doc, "<br>\n", "\n")
	text = strings.ReplaceAll(text, "<br>", "\n")
	text = strings.ReplaceAll(text, "</p>", "\n\n")
	text = tagRe.ReplaceAllString(text, "")
	text = html.UnescapeString(text)

	var lines []string
	for _, line := range strings.Split(text, "\n") {
		lines = append(lines, strings.TrimSpace(line))
	}
	text = strings.Join(lines, "\n")
	for strings.Contains(text, "\n\n\n") {
		text = strings.ReplaceAll(text, "\n\n\n", "\n\n")
	}
	return strings.TrimSpace(text)
}
