package ui

import (
	"strings"

	"github.com/charmbracelet/glamour"
)

const helpMarkdown = `# Constituencies

Browse Zambia's parliamentary constituencies by province.

## Keys

| Key | Action |
| --- | --- |
| up / k, down / j | move through the province list |
| enter | load the constituencies of the highlighted province |
| tab | switch between the province list and the filter |
| esc | leave the filter |
| ? | show or hide this help |
| q, ctrl+c | quit |

## Filter

The filter appears once a province has constituencies. Typing hides every
constituency that does not contain the text, ignoring case. Choosing another
province clears it.
`

// renderHelp renders the help overlay. Rendering falls back to the raw
// markdown if glamour fails.
func renderHelp(width int, dark bool) string {
	if width <= 0 {
		width = 80
	}
	style := "light"
	if dark {
		style = "dark"
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStylePath(style),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return helpMarkdown
	}
	out, err := r.Render(helpMarkdown)
	if err != nil {
		return helpMarkdown
	}
	return strings.TrimRight(out, "\n")
}
