package cli

import (
	"fmt"
	"strings"

	"github.com/idilsaglam/comments/internal/model"
	"github.com/idilsaglam/comments/internal/ui"
)

const maxLineWidth = 80

// listLines renders comments for ui.Panel: a header, then Name/Body pairs.
func listLines(comments []model.Comment, limit int) []string {
	t := ui.Current()
	header := fmt.Sprintf("%s  %s %d",
		ui.C(t.Title, "Comments"),
		ui.C(t.Accent, "Total"), len(comments),
	)
	lines := []string{header, ""}

	if len(comments) == 0 {
		lines = append(lines, ui.C(t.Muted, "no comments"))
	}

	shown := comments
	if limit > 0 && limit < len(shown) {
		shown = shown[:limit]
	}
	for i, c := range shown {
		if i > 0 {
			lines = append(lines, ui.C(t.Muted, t.Sep))
		}
		idx := ui.C(t.Muted, fmt.Sprintf("#%-3d", c.ID))
		lines = append(lines,
			fmt.Sprintf("%s %s %s", idx, ui.C(t.Label, "Name:"), ui.Truncate(oneLine(c.Name), maxLineWidth)),
			fmt.Sprintf("%s %s %s", "    ", ui.C(t.Label, "Body:"), ui.Truncate(oneLine(c.Body), maxLineWidth)),
		)
	}
	if hidden := len(comments) - len(shown); hidden > 0 {
		lines = append(lines, "", ui.C(t.Muted, fmt.Sprintf("… %d more (use --limit 0 to show all)", hidden)))
	}

	lines = append(lines, "")
	lines = append(lines, ui.C(t.Muted, "Tip: run `comments` for the interactive list"))
	return lines
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
