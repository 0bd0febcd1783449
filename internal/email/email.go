// Package email renders a release report as an HTML email and stores it as
// an .eml file that can be opened in any mail client.
package email

import (
	"bytes"
	"fmt"
	"html/template"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"

	"github.com/danielolaszy/spark/internal/logging"
	"github.com/danielolaszy/spark/pkg/models"
)

var (
	newID = defaultNewID
	now   = time.Now
)

func defaultNewID() string { return uuid.NewString() }

var bodyTemplate = template.Must(template.New("body").Parse(`<div class="email">
<div class="section">
<h2>{{.Title}}</h2>
<p>Hello,</p>
<p>Here are the latest release notes{{if .ReleaseDate}}, releasing on {{.ReleaseDate}}{{end}}.</p>
</div>
{{- if .Epics}}
<div class="section">
<h3>✨ Feature Releases and Highlights</h3>
<ul>
{{- range .Epics}}
<li><b>{{.SummaryTitle}}</b>: {{.Summary}}</li>
{{- end}}
</ul>
</div>
{{- end}}
{{- range .Teams}}{{if .Tickets}}
<div class="section">
<h3>{{.Name}}</h3>
<ul>
{{- range .Tickets}}
<li><b>{{.Ticket}}</b> {{.Title}}: {{.Summary}}{{if not .CustomerFacing}} <i>(internal)</i>{{end}}</li>
{{- end}}
</ul>
</div>
{{- end}}{{end}}
</div>`))

var documentTemplate = template.Must(template.New("document").Parse(`<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <title>{{.Subject}}</title>
  <style>
    body { font-family: Arial, sans-serif; }
    .section { margin-bottom: 20px; }
    h3 { color: #333; }
    ul { list-style-type: disc; padding-left: 20px; }
  </style>
</head>
<body>
  {{.Body}}
</body>
</html>`))

// RenderHTML renders the report body. Team sections without tickets are
// left out.
func RenderHTML(report *models.ReleaseReport) (string, error) {
	var buf bytes.Buffer
	if err := bodyTemplate.Execute(&buf, report); err != nil {
		return "", fmt.Errorf("failed to render email body: %w", err)
	}
	return buf.String(), nil
}

func policy() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.RequireParseableURLs(true)
	p.AllowRelativeURLs(true)
	p.AllowURLSchemes("mailto", "http", "https")
	p.AllowElements("a", "p", "br", "table", "tr", "td", "th", "tbody", "thead", "tfoot", "img",
		"ul", "ol", "li", "b", "i", "u", "strong", "em", "span",
		"h1", "h2", "h3", "h4", "h5", "h6", "div")
	p.AllowAttrs("href", "title").OnElements("a")
	p.AllowAttrs("border", "cellpadding", "cellspacing").OnElements("table")
	p.AllowAttrs("align", "valign", "width", "colspan", "rowspan").OnElements("td", "th")
	p.AllowAttrs("src", "alt", "width", "height").OnElements("img")
	p.AllowAttrs("style").OnElements("span")
	p.AllowAttrs("class").OnElements("div")
	return p
}

var sanitizer = policy()

// Sanitize strips everything outside the tags and attributes mail clients
// render reliably. Scripts and styles are dropped with their content;
// other disallowed tags are dropped but their text is kept.
func Sanitize(html string) string {
	return sanitizer.Sanitize(html)
}

// BuildEML wraps the sanitized body in a complete HTML document and returns
// a multipart/alternative message.
func BuildEML(subject, body, from, to string) (string, error) {
	var doc bytes.Buffer
	err := documentTemplate.Execute(&doc, struct {
		Subject string
		Body    template.HTML
	}{
		Subject: subject,
		Body:    template.HTML(Sanitize(body)),
	})
	if err != nil {
		return "", fmt.Errorf("failed to render email document: %w", err)
	}

	id := newID()
	boundary := "spark-" + id

	var msg strings.Builder
	fmt.Fprintf(&msg, "From: <%s>\r\n", from)
	fmt.Fprintf(&msg, "To: <%s>\r\n", to)
	fmt.Fprintf(&msg, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", subject))
	fmt.Fprintf(&msg, "Date: %s\r\n", now().Format(time.RFC1123Z))
	fmt.Fprintf(&msg, "Message-ID: <%s@spark.local>\r\n", id)
	msg.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&msg, "Content-Type: multipart/alternative; boundary=%q\r\n", boundary)
	msg.WriteString("\r\n")
	fmt.Fprintf(&msg, "--%s\r\n", boundary)
	msg.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(doc.String())
	msg.WriteString("\r\n")
	fmt.Fprintf(&msg, "--%s--\r\n", boundary)

	return msg.String(), nil
}

// Save writes the message to <dir>/<kebab-cased release>.eml and returns the
// path.
func Save(dir, release, content string) (string, error) {
	name := KebabCase(release)
	if name == "" {
		return "", fmt.Errorf("release %q has no usable file name", release)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create email directory: %w", err)
	}

	path := filepath.Join(dir, name+".eml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("failed to save email: %w", err)
	}

	logging.Info("email saved", "path", path)
	return path, nil
}
