// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/alecthomas/chroma/v2"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"

	"github.com/jeranaias/chatdeck/internal/model"
	"github.com/jeranaias/chatdeck/internal/storage"
)

// =============================================================================
// HTML EXPORTER
// =============================================================================

// HTMLExporter exports transcripts to a standalone HTML page with embedded
// CSS. Code blocks are highlighted inline.
type HTMLExporter struct {
	options *Options
}

// NewHTMLExporter creates a new HTML exporter.
func NewHTMLExporter(opts *Options) *HTMLExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &HTMLExporter{options: opts}
}

// Export converts a transcript to HTML.
func (e *HTMLExporter) Export(t *storage.Transcript) ([]byte, error) {
	if err := validate(t); err != nil {
		return nil, err
	}

	var sb strings.Builder

	sb.WriteString("<!DOCTYPE html>\n<html lang=\"en\">\n<head>\n")
	sb.WriteString("    <meta charset=\"UTF-8\">\n")
	sb.WriteString("    <meta name=\"viewport\" content=\"width=device-width, initial-scale=1.0\">\n")
	fmt.Fprintf(&sb, "    <title>%s</title>\n", html.EscapeString(t.Title))
	sb.WriteString("    <meta name=\"generator\" content=\"chatdeck\">\n")
	sb.WriteString(e.css())
	sb.WriteString("</head>\n")

	fmt.Fprintf(&sb, "<body class=\"theme-%s\">\n<div class=\"container\">\n", e.theme())

	sb.WriteString("<header>\n")
	fmt.Fprintf(&sb, "    <h1>%s</h1>\n", html.EscapeString(t.Title))
	if e.options.IncludeMetadata {
		sb.WriteString("    <div class=\"metadata\">\n")
		fmt.Fprintf(&sb, "        <span>Session: <code>%s</code></span>\n", html.EscapeString(t.SessionID))
		fmt.Fprintf(&sb, "        <span>Started: %s</span>\n", formatTimestamp(t.CreatedAt))
		fmt.Fprintf(&sb, "        <span>Messages: %d</span>\n", len(t.Messages))
		sb.WriteString("    </div>\n")
	}
	sb.WriteString("</header>\n<main class=\"messages\">\n")

	for _, msg := range t.Messages {
		e.writeMessage(&sb, msg)
	}

	sb.WriteString("</main>\n<footer>\n")
	fmt.Fprintf(&sb, "    <p>Exported from chatdeck on %s</p>\n",
		e.options.now().Format("January 2, 2006 at 3:04 PM"))
	sb.WriteString("</footer>\n</div>\n</body>\n</html>\n")

	return []byte(sb.String()), nil
}

func (e *HTMLExporter) FileExtension() string { return ".html" }
func (e *HTMLExporter) MimeType() string      { return "text/html" }

func (e *HTMLExporter) theme() string {
	if e.options.Theme == "light" {
		return "light"
	}
	return "dark"
}

func (e *HTMLExporter) writeMessage(sb *strings.Builder, msg model.Message) {
	fmt.Fprintf(sb, "<article class=\"message %s\">\n", roleClass(msg.Role))
	sb.WriteString("    <div class=\"message-header\">\n")
	fmt.Fprintf(sb, "        <span class=\"role\">%s</span>\n", html.EscapeString(msg.Role.DisplayName()))
	if e.options.IncludeTimestamps && !msg.CreatedAt.IsZero() {
		fmt.Fprintf(sb, "        <time datetime=\"%s\">%s</time>\n",
			msg.CreatedAt.UTC().Format(time.RFC3339), formatShortTimestamp(msg.CreatedAt.Time))
	}
	sb.WriteString("    </div>\n")

	if safeImageURL(msg.ImageURL) {
		fmt.Fprintf(sb, "    <img class=\"attachment\" src=\"%s\" alt=\"attachment\">\n", html.EscapeString(msg.ImageURL))
	}

	sb.WriteString("    <div class=\"content\">")
	sb.WriteString(e.renderContent(msg.Content))
	sb.WriteString("</div>\n</article>\n")
}

// renderContent escapes prose and highlights fenced code.
func (e *HTMLExporter) renderContent(content string) string {
	var sb strings.Builder
	pos := 0
	for _, block := range model.ExtractCodeBlocks(content) {
		sb.WriteString(renderProse(content[pos:block.Start]))
		sb.WriteString(e.highlight(block))
		pos = block.End
	}
	sb.WriteString(renderProse(content[pos:]))
	return sb.String()
}

func renderProse(s string) string {
	s = strings.Trim(s, "\r\n")
	if s == "" {
		return ""
	}
	return "<p>" + strings.ReplaceAll(html.EscapeString(s), "\n", "<br>\n") + "</p>"
}

// highlight renders one code block with inline styles. It falls back to an
// escaped <pre> when the lexer fails.
func (e *HTMLExporter) highlight(block model.CodeBlock) string {
	lexer := lexers.Get(block.Language)
	if lexer == nil {
		lexer = lexers.Analyse(block.Code)
	}
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	styleName := "monokai"
	if e.theme() == "light" {
		styleName = "github"
	}
	style := styles.Get(styleName)
	if style == nil {
		style = styles.Fallback
	}

	iterator, err := lexer.Tokenise(nil, block.Code)
	if err != nil {
		return plainCode(block)
	}

	var sb strings.Builder
	formatter := chromahtml.New(chromahtml.TabWidth(4), chromahtml.WithClasses(false))
	if err := formatter.Format(&sb, style, iterator); err != nil {
		return plainCode(block)
	}
	label := block.Language
	if label == "" {
		label = "code"
	}
	return fmt.Sprintf("<figure class=\"code\"><figcaption>%s</figcaption>%s</figure>",
		html.EscapeString(label), sb.String())
}

func plainCode(block model.CodeBlock) string {
	return "<pre><code>" + html.EscapeString(block.Code) + "</code></pre>"
}

// safeImageURL limits image sources to web and inline image URLs.
func safeImageURL(u string) bool {
	lower := strings.ToLower(strings.TrimSpace(u))
	return strings.HasPrefix(lower, "https://") ||
		strings.HasPrefix(lower, "http://") ||
		strings.HasPrefix(lower, "data:image/")
}

// =============================================================================
// CSS
// =============================================================================

func (e *HTMLExporter) css() string {
	return `    <style>
        :root { --radius: 8px; }
        .theme-dark { --bg: #1a1b26; --fg: #c0caf5; --muted: #565f89; --user: #24283b; --assistant: #1f2335; --accent: #7aa2f7; }
        .theme-light { --bg: #f8f8fb; --fg: #24292f; --muted: #6e7781; --user: #e8eefc; --assistant: #ffffff; --accent: #0969da; }
        * { box-sizing: border-box; }
        body { margin: 0; background: var(--bg); color: var(--fg); font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Helvetica, Arial, sans-serif; line-height: 1.55; }
        .container { max-width: 900px; margin: 0 auto; padding: 2rem 1rem; }
        header h1 { margin: 0 0 .5rem; font-size: 1.6rem; }
        .metadata { display: flex; flex-wrap: wrap; gap: 1rem; color: var(--muted); font-size: .85rem; margin-bottom: 1.5rem; }
        .message { border-radius: var(--radius); padding: 1rem 1.2rem; margin-bottom: 1rem; }
        .message.user { background: var(--user); margin-left: 3rem; }
        .message.assistant { background: var(--assistant); margin-right: 3rem; border-left: 3px solid var(--accent); }
        .message-header { display: flex; justify-content: space-between; font-size: .8rem; color: var(--muted); margin-bottom: .4rem; }
        .role { font-weight: 600; color: var(--accent); }
        .attachment { max-width: 100%; border-radius: var(--radius); margin-bottom: .6rem; }
        figure.code { margin: .8rem 0; }
        figure.code figcaption { font-size: .75rem; color: var(--muted); margin-bottom: .2rem; }
        pre { padding: .8rem; border-radius: var(--radius); overflow-x: auto; font-size: .85rem; }
        footer { color: var(--muted); font-size: .8rem; text-align: center; margin-top: 2rem; }
    </style>
`
}
