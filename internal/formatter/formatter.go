// Package formatter turns plain assistant replies into a small, fixed vocabulary
// of markup: bullet, numbered and header lines, inline code, bold and italic
// spans, and paragraphs. Every byte of the input is escaped before any rule
// runs, so nothing in a reply can introduce markup of its own.
package formatter

import (
	"html"
	"regexp"
	"strings"
)

const (
	lineBreak      = "<br>"
	paragraphBreak = lineBreak + lineBreak
)

// Tag vocabulary. Parse relies on these being the only tags Format emits.
const (
	openBullet    = `<div class="bullet-point">`
	openNumbered  = `<div class="numbered-point">`
	openHeader    = `<div class="response-header">`
	openParagraph = `<div class="response-paragraph">`
	closeDiv      = `</div>`
	openCode      = `<code class="inline-code">`
	closeCode     = `</code>`
	openBold      = `<strong>`
	closeBold     = `</strong>`
	openItalic    = `<em>`
	closeItalic   = `</em>`

	bulletGlyph = "•"
)

// space matches what chat replies use as whitespace, including NBSP and the
// other Unicode separators. RE2's \s alone is ASCII-only.
const space = `[\s\x0B\p{Z}\x{FEFF}]`

var (
	bulletLine   = regexp.MustCompile(`^` + space + `*[-•]` + space + `+(.+)$`)
	numberedLine = regexp.MustCompile(`^` + space + `*(\d+)\.` + space + `+(.+)$`)
	headerLine   = regexp.MustCompile(`^(.+):` + space + `*$`)
	codeSpan     = regexp.MustCompile("`([^`]+)`")
	boldSpan     = regexp.MustCompile(`\*\*(.+?)\*\*`)
)

// Format escapes raw and applies the formatting rules in order: line breaks,
// bullet lines, numbered lines, header lines, inline code, bold, italic and
// finally paragraph wrapping.
func Format(raw string) string {
	if raw == "" {
		return ""
	}

	lines := strings.Split(html.EscapeString(raw), "\n")
	for i, line := range lines {
		lines[i] = formatLine(line)
	}
	out := strings.Join(lines, lineBreak)

	out = codeSpan.ReplaceAllString(out, openCode+"${1}"+closeCode)
	out = boldSpan.ReplaceAllString(out, openBold+"${1}"+closeBold)
	out = replaceItalic(out)

	return wrapParagraphs(out)
}

// formatLine applies the line rules. Each rule sees the previous rule's output,
// so a line already turned into a bullet cannot also become a header.
func formatLine(line string) string {
	line = bulletLine.ReplaceAllString(line, openBullet+bulletGlyph+" ${1}"+closeDiv)
	line = numberedLine.ReplaceAllString(line, openNumbered+"${1}. ${2}"+closeDiv)
	line = headerLine.ReplaceAllString(line, openHeader+"${1}:"+closeDiv)
	return line
}

// replaceItalic wraps *text* in <em>. A delimiter that touches another
// asterisk on its outer side is left alone, which keeps stray "**" intact.
func replaceItalic(s string) string {
	var b strings.Builder
	last := 0
	i := 0
	for i < len(s) {
		if s[i] != '*' || (i > 0 && s[i-1] == '*') {
			i++
			continue
		}
		n := strings.IndexByte(s[i+1:], '*')
		if n <= 0 {
			i++
			continue
		}
		end := i + 1 + n
		if end+1 < len(s) && s[end+1] == '*' {
			i++
			continue
		}
		b.WriteString(s[last:i])
		b.WriteString(openItalic)
		b.WriteString(s[i+1 : end])
		b.WriteString(closeItalic)
		i = end + 1
		last = i
	}
	b.WriteString(s[last:])
	return b.String()
}

func wrapParagraphs(s string) string {
	paragraphs := strings.Split(s, paragraphBreak)
	for i, p := range paragraphs {
		if strings.TrimSpace(p) != "" && !hasTag(p) {
			paragraphs[i] = openParagraph + p + closeDiv
		}
	}
	return strings.Join(paragraphs, paragraphBreak)
}

func hasTag(s string) bool {
	return strings.Contains(s, `<div class=`) ||
		strings.Contains(s, `<code`) ||
		strings.Contains(s, `<strong`) ||
		strings.Contains(s, `<em`)
}
