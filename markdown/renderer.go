package markdown

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/fwojciec/psagent"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

// minItemWidth keeps deeply nested list items readable on narrow terminals.
const minItemWidth = 10

type renderer struct {
	width int

	bold      lipgloss.Style
	italic    lipgloss.Style
	strike    lipgloss.Style
	heading   lipgloss.Style
	code      lipgloss.Style
	muted     lipgloss.Style
	underline lipgloss.Style
	border    lipgloss.Style
}

func newRenderer(theme psagent.Theme, width int) *renderer {
	return &renderer{
		width:     width,
		bold:      lipgloss.NewStyle().Bold(true),
		italic:    lipgloss.NewStyle().Italic(true),
		strike:    lipgloss.NewStyle().Strikethrough(true),
		heading:   lipgloss.NewStyle().Foreground(color(theme.Accent)).Bold(true),
		code:      lipgloss.NewStyle().Foreground(color(theme.ToolCall)),
		muted:     lipgloss.NewStyle().Foreground(color(theme.Muted)).Faint(true),
		underline: lipgloss.NewStyle().Underline(true),
		border:    lipgloss.NewStyle().Foreground(color(theme.Muted)),
	}
}

// color maps an ANSI palette index to a lipgloss color. Negative means
// the terminal default.
func color(index int) lipgloss.TerminalColor {
	if index < 0 {
		return lipgloss.NoColor{}
	}
	return lipgloss.Color(strconv.Itoa(index))
}

var parser = goldmark.New(goldmark.WithExtensions(
	extension.Table,
	extension.Strikethrough,
	extension.Linkify,
)).Parser()

func (r *renderer) render(source []byte) string {
	doc := parser.Parse(text.NewReader(source))
	var buf bytes.Buffer
	r.blocks(doc, source, r.width, &buf)
	return strings.TrimRight(buf.String(), "\n")
}

func (r *renderer) blocks(node ast.Node, source []byte, width int, buf *bytes.Buffer) {
	for c := node.FirstChild(); c != nil; c = c.NextSibling() {
		r.block(c, source, width, buf)
		if c.NextSibling() != nil && c.Kind() != ast.KindHTMLBlock {
			buf.WriteString("\n")
		}
	}
}

func (r *renderer) block(node ast.Node, source []byte, width int, buf *bytes.Buffer) {
	switch n := node.(type) {
	case *ast.Paragraph, *ast.TextBlock:
		r.wrapped(r.inline(n, source), width, buf)

	case *ast.Heading:
		r.wrapped(r.heading.Render(r.inline(n, source)), width, buf)

	case *ast.FencedCodeBlock:
		if lang := string(n.Language(source)); lang != "" {
			buf.WriteString(r.muted.Render(lang) + "\n")
		}
		r.codeLines(n.Lines(), source, buf)

	case *ast.CodeBlock:
		r.codeLines(n.Lines(), source, buf)

	case *ast.Blockquote:
		var inner bytes.Buffer
		r.blocks(n, source, max(width-2, minItemWidth), &inner)
		bar := r.border.Render("▌") + " "
		for _, line := range strings.Split(strings.TrimRight(inner.String(), "\n"), "\n") {
			buf.WriteString(bar + line + "\n")
		}

	case *ast.List:
		r.list(n, source, width, buf, 0)

	case *east.Table:
		r.table(n, source, width, buf)

	case *ast.ThematicBreak:
		buf.WriteString(r.border.Render(strings.Repeat("─", min(width, 40))) + "\n")

	case *ast.HTMLBlock:
		lines := n.Lines()
		for i := 0; i < lines.Len(); i++ {
			seg := lines.At(i)
			buf.Write(seg.Value(source))
		}

	default:
		r.blocks(node, source, width, buf)
	}
}

func (r *renderer) wrapped(s string, width int, buf *bytes.Buffer) {
	buf.WriteString(wrap(s, width))
	buf.WriteString("\n")
}

// wrap word-wraps s to width. lipgloss pads every line to the full width,
// so the padding is trimmed back off.
func wrap(s string, width int) string {
	lines := strings.Split(lipgloss.NewStyle().Width(width).Render(s), "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " ")
	}
	return strings.Join(lines, "\n")
}

func (r *renderer) codeLines(lines *text.Segments, source []byte, buf *bytes.Buffer) {
	gutter := r.border.Render("│") + " "
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		line := strings.TrimRight(string(seg.Value(source)), "\r\n")
		buf.WriteString(gutter + r.code.Render(line) + "\n")
	}
}

func (r *renderer) list(node *ast.List, source []byte, width int, buf *bytes.Buffer, depth int) {
	n := node.Start
	for c := node.FirstChild(); c != nil; c = c.NextSibling() {
		item, ok := c.(*ast.ListItem)
		if !ok {
			continue
		}
		marker := "• "
		if node.IsOrdered() {
			marker = fmt.Sprintf("%d. ", n)
			n++
		}
		indent := strings.Repeat("  ", depth)

		var content bytes.Buffer
		for ic := item.FirstChild(); ic != nil; ic = ic.NextSibling() {
			switch child := ic.(type) {
			case *ast.Paragraph, *ast.TextBlock:
				content.WriteString(r.inline(child, source))
			case *ast.List:
				if content.Len() > 0 {
					r.item(buf, indent+marker, content.String(), width)
					content.Reset()
				}
				r.list(child, source, width, buf, depth+1)
				marker = strings.Repeat(" ", lipgloss.Width(marker))
			default:
				r.block(ic, source, width, &content)
			}
		}
		if content.Len() > 0 {
			r.item(buf, indent+marker, content.String(), width)
		}
	}
}

// item writes one list entry, indenting wrapped lines under the marker.
func (r *renderer) item(buf *bytes.Buffer, prefix, content string, width int) {
	pad := lipgloss.Width(prefix)
	for i, line := range strings.Split(wrap(content, max(width-pad, minItemWidth)), "\n") {
		if i == 0 {
			buf.WriteString(prefix + line + "\n")
			continue
		}
		buf.WriteString(strings.Repeat(" ", pad) + line + "\n")
	}
}

func (r *renderer) table(node *east.Table, source []byte, width int, buf *bytes.Buffer) {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(r.border).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return r.bold.Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		})

	for c := node.FirstChild(); c != nil; c = c.NextSibling() {
		var cells []string
		for cell := c.FirstChild(); cell != nil; cell = cell.NextSibling() {
			cells = append(cells, r.inline(cell, source))
		}
		switch c.(type) {
		case *east.TableHeader:
			t.Headers(cells...)
		case *east.TableRow:
			t.Row(cells...)
		}
	}
	rendered := t.String()
	if lipgloss.Width(rendered) > width {
		rendered = t.Width(width).String()
	}
	buf.WriteString(rendered + "\n")
}

// inline renders a node's inline children to a single styled string.
func (r *renderer) inline(node ast.Node, source []byte) string {
	var buf bytes.Buffer
	for c := node.FirstChild(); c != nil; c = c.NextSibling() {
		r.span(c, source, &buf)
	}
	return buf.String()
}

func (r *renderer) span(node ast.Node, source []byte, buf *bytes.Buffer) {
	switch n := node.(type) {
	case *ast.Text:
		buf.Write(n.Segment.Value(source))
		switch {
		case n.HardLineBreak():
			buf.WriteByte('\n')
		case n.SoftLineBreak():
			buf.WriteByte(' ')
		}

	case *ast.String:
		buf.Write(n.Value)

	case *ast.Emphasis:
		inner := r.inline(n, source)
		if n.Level == 1 {
			buf.WriteString(r.italic.Render(inner))
		} else {
			buf.WriteString(r.bold.Render(inner))
		}

	case *east.Strikethrough:
		buf.WriteString(r.strike.Render(r.inline(n, source)))

	case *ast.CodeSpan:
		buf.WriteString(r.code.Render(r.inline(n, source)))

	case *ast.Link:
		buf.WriteString(r.underline.Render(r.inline(n, source)))
		buf.WriteString(" " + r.muted.Render("("+string(n.Destination)+")"))

	case *ast.AutoLink:
		buf.WriteString(r.underline.Render(string(n.URL(source))))

	case *ast.Image:
		buf.WriteString(r.underline.Render(r.inline(n, source)))
		buf.WriteString(" " + r.muted.Render("("+string(n.Destination)+")"))

	case *ast.RawHTML:
		for i := 0; i < n.Segments.Len(); i++ {
			seg := n.Segments.At(i)
			buf.Write(seg.Value(source))
		}

	default:
		for c := node.FirstChild(); c != nil; c = c.NextSibling() {
			r.span(c, source, buf)
		}
	}
}
