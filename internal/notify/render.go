// Package notify renders digests and hands them to mail and chat.
package notify

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"strings"
	"time"

	"video_digest/internal/model"
)

// DefaultTemplate is used when a user names no template.
const DefaultTemplate = "default"

// ErrUnknownTemplate is returned for a template name with no embedded file.
var ErrUnknownTemplate = errors.New("unknown template")

//go:embed templates/*.html
var templateFS embed.FS

// Message is a rendered digest.
type Message struct {
	Subject string
	HTML    string
	Plain   string
}

type templateData struct {
	Subject  string
	Date     string
	Sections []model.Section
	Count    int
}

// Renderer renders digests with the embedded HTML templates.
type Renderer struct {
	tmpl *template.Template
	now  func() time.Time
}

// NewRenderer parses the embedded templates.
func NewRenderer() (*Renderer, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return &Renderer{tmpl: tmpl, now: time.Now}, nil
}

// Templates lists the available template names.
func (r *Renderer) Templates() []string {
	var names []string
	for _, t := range r.tmpl.Templates() {
		if name, ok := strings.CutSuffix(t.Name(), ".html"); ok {
			names = append(names, name)
		}
	}
	return names
}

// Subject builds "<prefix>: <track names>". The user's own subject wins over
// prefix.
func Subject(user model.User, prefix string, sections []model.Section) string {
	if user.Subject != "" {
		prefix = user.Subject
	}
	names := make([]string, len(sections))
	for i, s := range sections {
		names[i] = s.Name
	}
	return prefix + ": " + strings.Join(names, ", ")
}

// Render builds the HTML and plain text bodies for user. The plain body is
// the user's configured body when set.
func (r *Renderer) Render(user model.User, subject string, sections []model.Section) (*Message, error) {
	name := user.Template
	if name == "" {
		name = DefaultTemplate
	}
	tmpl := r.tmpl.Lookup(name + ".html")
	if tmpl == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTemplate, name)
	}

	data := templateData{
		Subject:  subject,
		Date:     r.now().Format("Monday, January 2"),
		Sections: sections,
	}
	for _, s := range sections {
		data.Count += len(s.Items)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("render %s: %w", name, err)
	}

	plain := user.Body
	if plain == "" {
		plain = PlainText(subject, sections)
	}
	return &Message{Subject: subject, HTML: buf.String(), Plain: plain}, nil
}

// PlainText formats sections as a numbered text list. It is also the body of
// chat deliveries.
func PlainText(subject string, sections []model.Section) string {
	var b strings.Builder
	b.WriteString(subject)
	b.WriteString("\n")
	for _, s := range sections {
		fmt.Fprintf(&b, "\n%s\n", s.Name)
		for i, it := range s.Items {
			title := it.DisplayTitle()
			if title == "" {
				title = it.DisplayURL()
			}
			fmt.Fprintf(&b, "%d. %s\n", i+1, title)
			if title != it.DisplayURL() {
				fmt.Fprintf(&b, "   %s\n", it.DisplayURL())
			}
		}
	}
	return b.String()
}
