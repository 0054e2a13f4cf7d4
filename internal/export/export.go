// ABOUTME: Transcript export: renders the chat transcript to a standalone
// ABOUTME: HTML document, converting agent markdown via goldmark.

package export

import (
	"bytes"
	"fmt"
	"html"
	"html/template"

	"github.com/yuin/goldmark"

	"github.com/2389/agentwire/internal/state"
)

var pageTemplate = template.Must(template.New("transcript").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Conversation transcript</title>
<style>
body { font-family: sans-serif; max-width: 48rem; margin: 2rem auto; }
.cell { margin: 1rem 0; padding: 0.5rem 1rem; border-left: 3px solid #ccc; }
.cell.user { border-color: #2563eb; }
.cell.error { border-color: #dc2626; }
.cell.confirmation { border-color: #d97706; }
.source { font-size: 0.8rem; color: #666; text-transform: uppercase; }
pre { background: #f5f5f5; padding: 0.5rem; overflow-x: auto; }
</style>
</head>
<body>
<h1>Conversation transcript</h1>
{{range .Cells}}<div class="cell {{.Class}}">
<div class="source">{{.Source}}</div>
{{.Body}}
</div>
{{end}}</body>
</html>
`))

type renderedCell struct {
	Class  string
	Source string
	Body   template.HTML
}

// TranscriptHTML renders transcript cells into a standalone HTML page.
// Message and thought bodies are treated as markdown; everything else is
// escaped verbatim.
func TranscriptHTML(cells []state.Cell) ([]byte, error) {
	rendered := make([]renderedCell, 0, len(cells))
	for _, c := range cells {
		rc := renderedCell{Source: c.Source, Class: cellClass(c)}

		switch c.Kind {
		case state.CellMessage, state.CellThought, state.CellFinish:
			var buf bytes.Buffer
			if err := goldmark.Convert([]byte(c.Text), &buf); err != nil {
				return nil, fmt.Errorf("rendering markdown: %w", err)
			}
			rc.Body = template.HTML(buf.String())
		case state.CellConfirmation:
			rc.Body = template.HTML(fmt.Sprintf("<p>%s</p><pre>%s</pre>",
				html.EscapeString(c.Text), html.EscapeString(c.Command)))
		default:
			rc.Body = template.HTML("<p>" + html.EscapeString(c.Text) + "</p>")
		}
		rendered = append(rendered, rc)
	}

	var out bytes.Buffer
	data := struct{ Cells []renderedCell }{Cells: rendered}
	if err := pageTemplate.Execute(&out, data); err != nil {
		return nil, fmt.Errorf("rendering transcript page: %w", err)
	}
	return out.Bytes(), nil
}

func cellClass(c state.Cell) string {
	switch {
	case c.Kind == state.CellError:
		return "error"
	case c.Kind == state.CellConfirmation:
		return "confirmation"
	case c.Source == "user":
		return "user"
	default:
		return "agent"
	}
}
