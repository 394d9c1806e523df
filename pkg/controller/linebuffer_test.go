package controller

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func feedString(t *testing.T, l *LineBuffer, s string) []string {
	t.Helper()
	var lines []string
	for i := 0; i < len(s); i++ {
		if line, ok := l.Feed(s[i]); ok {
			lines = append(lines, string(line))
		}
	}
	return lines
}

func TestLineBuffer_CompleteLines(t *testing.T) {
	l := NewLineBuffer(64)

	lines := feedString(t, l, "{\"mode\":1}\n{\"flowLimit\":5}\n")
	require.Len(t, lines, 2)
	assert.Equal(t, `{"mode":1}`, lines[0])
	assert.Equal(t, `{"flowLimit":5}`, lines[1])
}

func TestLineBuffer_CRLFAndBlankLines(t *testing.T) {
	l := NewLineBuffer(64)

	lines := feedString(t, l, "\r\n\nabc\r\n\r\ndef\n")
	assert.Equal(t, []string{"abc", "def"}, lines)
}

func TestLineBuffer_OverlongDroppedWhole(t *testing.T) {
	l := NewLineBuffer(8)

	// 20 bytes into an 8-byte buffer: neither the head nor the tail of the
	// line may come back out.
	lines := feedString(t, l, strings.Repeat("x", 20)+"\n")
	assert.Empty(t, lines)

	// The next line goes through untouched.
	lines = feedString(t, l, "ok\n")
	assert.Equal(t, []string{"ok"}, lines)
}

func TestLineBuffer_ExactCapacityFits(t *testing.T) {
	l := NewLineBuffer(4)

	lines := feedString(t, l, "abcd\n")
	assert.Equal(t, []string{"abcd"}, lines)
}
