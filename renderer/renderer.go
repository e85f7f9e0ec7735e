// Package renderer renders portfolio views as markdown.
//
// Every view is a text/template in the templates directory, possibly made of partials shared
// between views.
package renderer

import (
	"embed"
	"fmt"
	"io/fs"
	"strings"
	"text/template"
	"time"

	"github.com/etnz/folio"
	"github.com/shopspring/decimal"
)

//go:embed templates/*.md
var templates embed.FS

var funcs = template.FuncMap{
	"usd":      func(d decimal.Decimal) string { return folio.USD(d).String() },
	"percent":  func(part, whole decimal.Decimal) folio.Percent { return folio.PercentOf(part, whole) },
	"fraction": func(f decimal.Decimal) folio.Percent { return folio.PercentOf(f, decimal.NewFromInt(1)) },
	"title":    title,
	"label":    label,
	"upper":    strings.ToUpper,
	"oneline":  oneline,
	"via":      via,
	"when":     when,
}

// title returns s with an upper case first letter.
func title(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// label returns the display name of an allocation key.
func label(key string) string {
	switch folio.Location(key) {
	case folio.US:
		return "US"
	case folio.NonUS:
		return "Non-US"
	}
	return title(key)
}

// oneline keeps multi-line errors inside a table cell.
func oneline(s string) string {
	return strings.Join(strings.Fields(strings.ReplaceAll(s, "\n", "; ")), " ")
}

// when formats the time of the last refresh.
func when(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return t.Local().Format("2006-01-02 15:04")
}

// via describes where an exposure comes from: the fund alone, or the share of each source when
// there are many. Pure direct exposures have no description.
func via(e folio.Exposure) string {
	switch {
	case len(e.Sources) == 1 && e.Sources[0].Symbol == folio.DirectSource:
		return ""
	case len(e.Sources) == 1:
		return e.Sources[0].Symbol
	}
	parts := make([]string, len(e.Sources))
	for i, s := range e.Sources {
		parts[i] = fmt.Sprintf("%s (%.0f%%)", s.Symbol, float64(folio.PercentOf(s.Value, e.Value)))
	}
	return strings.Join(parts, ", ")
}

// renderTemplate is a generic utility to render a main template that depends on several partials.
func renderTemplate(templateName, mainFile string, partials map[string]string, data any) string {
	mainContent, err := fs.ReadFile(templates, "templates/"+mainFile)
	if err != nil {
		return fmt.Sprintf("error reading main template %q: %v", mainFile, err)
	}

	tmpl, err := template.New(templateName).Funcs(funcs).Parse(string(mainContent))
	if err != nil {
		return fmt.Sprintf("error parsing main template %q: %v", mainFile, err)
	}

	for name, file := range partials {
		content, err := fs.ReadFile(templates, "templates/"+file)
		if err != nil {
			return fmt.Sprintf("error reading partial template %q: %v", file, err)
		}
		if _, err := tmpl.New(name).Parse(string(content)); err != nil {
			return fmt.Sprintf("error parsing partial template %q for %q: %v", file, name, err)
		}
	}

	var b strings.Builder
	if err := tmpl.ExecuteTemplate(&b, templateName, data); err != nil {
		return fmt.Sprintf("error executing template %q: %v", templateName, err)
	}
	return b.String()
}
