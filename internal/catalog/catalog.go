package catalog

import (
	"context"
	"fmt"
	"html"
	"net/url"
	"path/filepath"
	"strings"

	ioutils "github.com/handiism/math-downloader/internal/io"
	"github.com/handiism/math-downloader/internal/model"
)

// Format represents supported index file formats.
//
// Each format targets a different reader:
//   - Markdown: readable as plain text, rendered by most forges and editors
//   - HTML: opens in any browser, links open the PDFs directly
type Format int

const (
	// FormatMarkdown creates index.md.
	FormatMarkdown Format = iota

	// FormatHTML creates index.html.
	FormatHTML
)

// ParseFormat converts a config value ("markdown", "md", "html") to a Format.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(name) {
	case "markdown", "md", "":
		return FormatMarkdown, nil
	case "html", "htm":
		return FormatHTML, nil
	}
	return FormatMarkdown, fmt.Errorf("unknown index format %q", name)
}

// FileName returns the index file name for the format.
func (f Format) FileName() string {
	if f == FormatHTML {
		return "index.html"
	}
	return "index.md"
}

// Creator generates an index of the documents in an output directory.
//
// Creator takes the results of a run and lists every document that is
// present on disk (downloaded or skipped because it already existed),
// grouped by source. Links are relative to the output directory, so the
// index is written at its root.
//
// Example:
//
//	creator := NewCreator(FormatMarkdown, "Mathematics library")
//	content := creator.Create(summary.Results)
//
//	// Result:
//	// # Mathematics library
//	//
//	// ## arXiv
//	//
//	// - [Lecture Notes on Schemes](arxiv/math.AG_Lecture%20Notes%20on%20Schemes.pdf) (math.AG)
type Creator struct {
	format Format
	title  string
}

// NewCreator creates a new Creator.
func NewCreator(format Format, title string) *Creator {
	if title == "" {
		title = "Mathematics documents"
	}
	return &Creator{format: format, title: title}
}

// Create generates index content for results.
func (c *Creator) Create(results []model.DownloadResult) string {
	groups := group(results)
	switch c.format {
	case FormatHTML:
		return c.createHTML(groups)
	default:
		return c.createMarkdown(groups)
	}
}

// Write creates the index file in outputDir and returns its path.
func (c *Creator) Write(ctx context.Context, outputDir string, results []model.DownloadResult) (string, error) {
	path := filepath.Join(outputDir, c.format.FileName())
	if err := ioutils.WriteFile(ctx, path, []byte(c.Create(results))); err != nil {
		return "", err
	}
	return path, nil
}

type sourceGroup struct {
	source  model.Source
	entries []model.DocumentEntry
}

// group keeps the documents present on disk, grouped in source order.
// Documents without a file of their own are left out; a document listed
// twice in results appears once.
func group(results []model.DownloadResult) []sourceGroup {
	bySource := make(map[model.Source][]model.DocumentEntry)
	seen := make(map[string]bool)
	for _, r := range results {
		if r.Status == model.StatusFailed || r.Detail == model.DetailDuplicate || r.Detail == model.DetailRobots || seen[r.Entry.DestinationPath] {
			continue
		}
		seen[r.Entry.DestinationPath] = true
		bySource[r.Entry.Source] = append(bySource[r.Entry.Source], r.Entry)
	}

	var groups []sourceGroup
	for _, src := range model.AllSources() {
		if entries := bySource[src]; len(entries) > 0 {
			groups = append(groups, sourceGroup{source: src, entries: entries})
		}
	}
	return groups
}

// createMarkdown generates a Markdown index.
//
// Format:
//
//	# Title
//
//	## arXiv
//
//	- [Document title](arxiv/file.pdf) (category)
func (c *Creator) createMarkdown(groups []sourceGroup) string {
	var sb strings.Builder

	sb.WriteString("# " + c.title + "\n")
	for _, g := range groups {
		sb.WriteString("\n## " + g.source.DisplayName() + "\n\n")
		for _, e := range g.entries {
			sb.WriteString(fmt.Sprintf("- [%s](%s)", escapeMarkdown(e.Title), link(e.DestinationPath)))
			if e.Category != "" {
				sb.WriteString(fmt.Sprintf(" (%s)", escapeMarkdown(e.Category)))
			}
			sb.WriteString("\n")
		}
	}

	return sb.String()
}

// createHTML generates a standalone HTML page.
func (c *Creator) createHTML(groups []sourceGroup) string {
	var sb strings.Builder

	sb.WriteString("<!DOCTYPE html>\n")
	sb.WriteString("<html>\n")
	sb.WriteString("  <head>\n")
	sb.WriteString("    <meta charset=\"utf-8\">\n")
	sb.WriteString(fmt.Sprintf("    <title>%s</title>\n", html.EscapeString(c.title)))
	sb.WriteString("  </head>\n")
	sb.WriteString("  <body>\n")
	sb.WriteString(fmt.Sprintf("    <h1>%s</h1>\n", html.EscapeString(c.title)))

	for _, g := range groups {
		sb.WriteString(fmt.Sprintf("    <h2>%s</h2>\n", html.EscapeString(g.source.DisplayName())))
		sb.WriteString("    <ul>\n")
		for _, e := range g.entries {
			sb.WriteString(fmt.Sprintf("      <li><a href=\"%s\">%s</a>", html.EscapeString(link(e.DestinationPath)), html.EscapeString(e.Title)))
			if e.Category != "" {
				sb.WriteString(fmt.Sprintf(" <small>%s</small>", html.EscapeString(e.Category)))
			}
			sb.WriteString("</li>\n")
		}
		sb.WriteString("    </ul>\n")
	}

	sb.WriteString("  </body>\n")
	sb.WriteString("</html>\n")

	return sb.String()
}

// link turns a relative file path into an escaped URL path.
func link(relPath string) string {
	parts := strings.Split(filepath.ToSlash(relPath), "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return strings.Join(parts, "/")
}

var markdownEscaper = strings.NewReplacer(
	`\`, `\\`,
	"[", `\[`,
	"]", `\]`,
	"*", `\*`,
	"_", `\_`,
	"`", "\\`",
)

func escapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}
