// Package docs holds the documentation topics of folio, printed by `folio topic`.
package docs

import (
	"bufio"
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"
)

//go:embed *.md
var files embed.FS

// Index is the topic listing every other topic.
const Index = "readme"

// Topic is one markdown page of documentation.
type Topic struct {
	Name    string // file name without the .md extension
	Title   string // text of the first level 1 heading
	Content string
}

// Lookup returns the topic called name.
func Lookup(name string) (Topic, error) {
	content, err := files.ReadFile(name + ".md")
	if err != nil {
		return Topic{}, fmt.Errorf("topic %q not found: %w", name, err)
	}
	return Topic{Name: name, Title: title(string(content)), Content: string(content)}, nil
}

// All returns every topic but the index, sorted by name.
func All() ([]Topic, error) {
	names, err := fs.Glob(files, "*.md")
	if err != nil {
		return nil, err
	}
	sort.Strings(names)
	topics := make([]Topic, 0, len(names))
	for _, n := range names {
		name := strings.TrimSuffix(n, ".md")
		if name == Index {
			continue
		}
		t, err := Lookup(name)
		if err != nil {
			return nil, err
		}
		topics = append(topics, t)
	}
	return topics, nil
}

// Names returns the names of All topics.
func Names() []string {
	topics, _ := All()
	names := make([]string, len(topics))
	for i, t := range topics {
		names[i] = t.Name
	}
	return names
}

// Join concatenates the content of the named topics. "*" stands for all of them.
func Join(names ...string) (string, error) {
	var b strings.Builder
	for _, name := range names {
		if name == "*" {
			topics, err := All()
			if err != nil {
				return "", err
			}
			for _, t := range topics {
				b.WriteString(t.Content)
				b.WriteString("\n")
			}
			continue
		}
		t, err := Lookup(name)
		if err != nil {
			return "", err
		}
		b.WriteString(t.Content)
		b.WriteString("\n")
	}
	return b.String(), nil
}

func title(content string) string {
	s := bufio.NewScanner(strings.NewReader(content))
	for s.Scan() {
		if line := s.Text(); strings.HasPrefix(line, "# ") {
			return strings.TrimSpace(line[2:])
		}
	}
	return ""
}
