// Package view renders sequencer snapshots to the HTML fragments pushed to the
// browser.
package view

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"math/rand/v2"

	"github.com/ashureev/greetly/internal/sequencer"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

//go:embed templates/*.html
var templateFS embed.FS

// ErrNotStarted is returned for a snapshot taken before the sequencer started.
var ErrNotStarted = errors.New("view: sequencer not started")

// burstHearts is the number of hearts shown when a question is accepted.
const burstHearts = 12

// Heart is one decorative floating heart.
type Heart struct {
	Left     int
	Delay    float64
	Duration float64
	Size     int
}

// page is the data every step template receives.
type page struct {
	Step   string
	Kind   string
	Index  int
	Total  int
	View   any
	Letter template.HTML
	Hearts []Heart
}

// Renderer turns snapshots into HTML. It is safe for concurrent use.
type Renderer struct {
	tmpl *template.Template
	md   goldmark.Markdown
}

// New parses the embedded templates.
func New() (*Renderer, error) {
	tmpl, err := template.New("steps").Funcs(template.FuncMap{
		"fixed": func(f float64) string { return fmt.Sprintf("%.2f", f) },
		"inc":   func(i int) int { return i + 1 },
	}).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	md := goldmark.New(
		goldmark.WithExtensions(extension.Typographer),
		goldmark.WithRendererOptions(html.WithHardWraps()),
	)

	return &Renderer{tmpl: tmpl, md: md}, nil
}

// Render returns the HTML fragment for snap.
func (r *Renderer) Render(snap sequencer.Snapshot) (string, error) {
	if snap.View == nil {
		return "", ErrNotStarted
	}

	p := page{
		Step:  snap.Step,
		Kind:  string(snap.Kind),
		Index: snap.Index,
		Total: snap.Total,
		View:  snap.View,
	}

	switch v := snap.View.(type) {
	case sequencer.FinalView:
		letter, err := r.Markdown(v.Letter)
		if err != nil {
			return "", err
		}
		p.Letter = letter
		p.Hearts = hearts(v.Hearts)
	case sequencer.QuestionView:
		if v.Hearts {
			p.Hearts = hearts(burstHearts)
		}
	}

	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, "step", p); err != nil {
		return "", fmt.Errorf("render %s: %w", snap.Step, err)
	}
	return buf.String(), nil
}

// Markdown converts src to HTML. Raw HTML in src is dropped.
func (r *Renderer) Markdown(src string) (template.HTML, error) {
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(src), &buf); err != nil {
		return "", fmt.Errorf("convert letter: %w", err)
	}
	//nolint:gosec // goldmark output without WithUnsafe escapes raw HTML.
	return template.HTML(buf.String()), nil
}

// hearts lays out n hearts. The layout depends only on n.
func hearts(n int) []Heart {
	if n <= 0 {
		return nil
	}
	rng := rand.New(rand.NewPCG(uint64(n), 0x9e3779b97f4a7c15))
	out := make([]Heart, n)
	for i := range out {
		out[i] = Heart{
			Left:     rng.IntN(100),
			Delay:    rng.Float64() * 15,
			Duration: 10 + rng.Float64()*10,
			Size:     16 + rng.IntN(24),
		}
	}
	return out
}
