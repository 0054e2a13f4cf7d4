// ABOUTME: Tests for transcript HTML export.

package export

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/agentwire/internal/state"
)

func TestTranscriptHTML_RendersMarkdown(t *testing.T) {
	cells := []state.Cell{
		{Kind: state.CellMessage, Source: "user", Text: "please run **ls**"},
		{Kind: state.CellMessage, Source: "agent", Text: "Running `ls` now."},
	}

	out, err := TranscriptHTML(cells)
	require.NoError(t, err)

	html := string(out)
	assert.Contains(t, html, "<strong>ls</strong>")
	assert.Contains(t, html, "<code>ls</code>")
	assert.Contains(t, html, `class="cell user"`)
	assert.Contains(t, html, `class="cell agent"`)
}

func TestTranscriptHTML_ConfirmationEscapesCommand(t *testing.T) {
	cells := []state.Cell{
		{Kind: state.CellConfirmation, Source: "agent", Text: "High Risk", Command: `rm -rf / && echo "<done>"`},
	}

	out, err := TranscriptHTML(cells)
	require.NoError(t, err)

	html := string(out)
	assert.Contains(t, html, "High Risk")
	assert.Contains(t, html, "&lt;done&gt;")
	assert.NotContains(t, html, "<done>")
}

func TestTranscriptHTML_ErrorCellsEscaped(t *testing.T) {
	cells := []state.Cell{
		{Kind: state.CellError, Source: "agent", Text: "exit status 1 <oops>"},
	}

	out, err := TranscriptHTML(cells)
	require.NoError(t, err)
	assert.Contains(t, string(out), "&lt;oops&gt;")
	assert.Contains(t, string(out), `class="cell error"`)
}

func TestTranscriptHTML_EmptyTranscript(t *testing.T) {
	out, err := TranscriptHTML(nil)
	require.NoError(t, err)
	assert.Contains(t, string(out), "<h1>Conversation transcript</h1>")
}
