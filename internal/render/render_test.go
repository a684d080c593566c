package render

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTMLRendersMarkdown(t *testing.T) {
	out, err := NewHTML().Render("# Great film\n\n**loved** it")
	require.NoError(t, err)
	assert.Contains(t, out, "<h1")
	assert.Contains(t, out, "<strong>loved</strong>")
}

func TestHTMLStripsScripts(t *testing.T) {
	out, err := NewHTML().Render("hi <script>alert(1)</script>\n\n[x](javascript:alert(1))")
	require.NoError(t, err)
	assert.NotContains(t, out, "<script")
	assert.NotContains(t, out, "javascript:")
}

func TestHTMLEmptyBody(t *testing.T) {
	out, err := NewHTML().Render("")
	require.NoError(t, err)
	assert.Empty(t, strings.TrimSpace(out))
}

func TestTerminalRendersPlainText(t *testing.T) {
	r, err := NewTerminal("notty", 80)
	require.NoError(t, err)

	out, err := r.Render("# Title\n\nsome *body*")
	require.NoError(t, err)
	assert.Contains(t, out, "Title")
	assert.Contains(t, out, "body")
}

func TestTerminalDropsEmbeddedEscapes(t *testing.T) {
	r, err := NewTerminal("notty", 80)
	require.NoError(t, err)

	out, err := r.Render("hello \x1b]0;pwned\x07 \x1b[2J world")
	require.NoError(t, err)
	assert.NotContains(t, out, "\x1b]0;")
	assert.NotContains(t, out, "\x1b[2J")
	assert.NotContains(t, out, "\x07")
	assert.NotContains(t, out, "pwned")
	assert.Contains(t, out, "hello")
	assert.Contains(t, out, "world")
}

func TestStripControl(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "just text", "just text"},
		{"keeps newline and tab", "a\n\tb", "a\n\tb"},
		{"clear screen", "a\x1b[2Jb", "ab"},
		{"window title", "a\x1b]0;title\x07b", "ab"},
		{"bell and backspace", "a\x07\x08b", "ab"},
		{"carriage return", "ok\rfake", "okfake"},
		{"c1 csi", "a\u009b31mb", "a31mb"},
		{"unicode", "café ✓", "café ✓"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StripControl(tt.in))
		})
	}
}
