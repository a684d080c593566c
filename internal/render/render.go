// Package render turns review bodies into displayable output. Bodies are
// untrusted user input; every renderer sanitizes what it produces.
//
// HTML output is filtered through bluemonday's user-generated-content policy.
// Terminal output has escape sequences and control characters removed from
// the input before glamour styles it, so a body cannot move the cursor,
// clear the screen or retitle the window.
package render

import (
	"bytes"
	"fmt"
	"strings"
	"unicode"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/x/ansi"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// Renderer converts a markdown body into output for one medium.
type Renderer interface {
	Render(markdown string) (string, error)
}

// StripControl removes ANSI escape sequences (CSI, OSC, DCS, ...) and every
// remaining C0/C1 control character except newline and tab. Use it on any
// untrusted text written straight to a terminal.
func StripControl(s string) string {
	return strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return r
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, ansi.Strip(s))
}

// HTML renders GitHub-flavoured markdown to HTML and strips anything outside
// the user-generated-content policy (scripts, event handlers, javascript: URLs).
type HTML struct {
	md     goldmark.Markdown
	policy *bluemonday.Policy
}

func NewHTML() *HTML {
	return &HTML{
		md:     goldmark.New(goldmark.WithExtensions(extension.GFM)),
		policy: bluemonday.UGCPolicy(),
	}
}

func (h *HTML) Render(markdown string) (string, error) {
	var buf bytes.Buffer
	if err := h.md.Convert([]byte(markdown), &buf); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return h.policy.Sanitize(buf.String()), nil
}

// Terminal renders markdown as ANSI-styled text.
type Terminal struct {
	r *glamour.TermRenderer
}

// NewTerminal builds a terminal renderer. style is a glamour style name
// ("dark", "light", "notty", ...); empty picks one from the terminal.
func NewTerminal(style string, width int) (*Terminal, error) {
	opts := []glamour.TermRendererOption{glamour.WithWordWrap(width)}
	if style == "" {
		opts = append(opts, glamour.WithAutoStyle())
	} else {
		opts = append(opts, glamour.WithStandardStyle(style))
	}
	r, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return nil, fmt.Errorf("terminal renderer: %w", err)
	}
	return &Terminal{r: r}, nil
}

// Render styles the body. Only the styling glamour adds reaches the
// terminal; sequences embedded in the body are dropped first.
func (t *Terminal) Render(markdown string) (string, error) {
	return t.r.Render(StripControl(markdown))
}
