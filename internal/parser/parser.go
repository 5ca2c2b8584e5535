// Package parser splits frontmatter from markdown content and derives a
// display title for the file index.
package parser

import (
	"bytes"
	"strings"

	"github.com/adrg/frontmatter"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

var formats = []*frontmatter.Format{
	frontmatter.NewFormat("---", "---", yaml.Unmarshal),
	frontmatter.NewFormat("+++", "+++", toml.Unmarshal),
}

// Result holds the output of parsing a markdown file.
type Result struct {
	Frontmatter map[string]any
	Body        string
	Title       string
	Tags        []string
}

// Parse extracts frontmatter (YAML between --- or TOML between +++), the
// body and a title. Malformed frontmatter is treated as body text.
func Parse(data []byte) *Result {
	fm, body := split(data)
	return &Result{
		Frontmatter: fm,
		Body:        body,
		Title:       deriveTitle(fm, body),
		Tags:        extractTags(fm),
	}
}

func split(data []byte) (map[string]any, string) {
	trimmed := bytes.TrimLeft(data, "\n\r")
	var fm map[string]any
	body, err := frontmatter.Parse(bytes.NewReader(trimmed), &fm, formats...)
	if err != nil || len(fm) == 0 {
		if err == nil {
			return nil, string(body)
		}
		return nil, string(data)
	}
	return fm, strings.TrimLeft(string(body), "\n\r")
}

func extractTags(fm map[string]any) []string {
	raw, ok := fm["tags"].([]any)
	if !ok {
		return nil
	}
	seen := make(map[string]struct{}, len(raw))
	var out []string
	for _, item := range raw {
		s, ok := item.(string)
		if !ok {
			continue
		}
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

// deriveTitle returns the frontmatter "title", else the first H1 heading,
// else "".
func deriveTitle(fm map[string]any, body string) string {
	if s, ok := fm["title"].(string); ok && s != "" {
		return s
	}
	for _, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "# ") {
			return strings.TrimSpace(trimmed[2:])
		}
	}
	return ""
}
