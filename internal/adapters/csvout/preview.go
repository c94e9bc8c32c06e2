package csvout

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/okian/gamelogs/internal/domain/model"
)

// PreviewColumns are shown in the console preview when present.
var PreviewColumns = []string{ //nolint:gochecknoglobals // fixed column whitelist
	model.ColPlayerName,
	model.ColGameDate,
	model.ColMatchup,
	model.ColPoints,
	model.ColRebounds,
	model.ColAssists,
}

// DefaultPreviewRows is how many rows Preview shows by default.
const DefaultPreviewRows = 10

// Preview writes the first n rows of t, restricted to PreviewColumns, as an
// aligned text table. It writes nothing when no whitelisted column exists.
func Preview(w io.Writer, t *model.Table, n int) error {
	view := t.Project(PreviewColumns...).Head(n)
	if len(view.Columns) == 0 {
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	writeLine(tw, view.Columns)

	cells := make([]string, len(view.Columns))
	for _, row := range view.Rows {
		for j, v := range row {
			cells[j] = model.FormatValue(v)
		}
		writeLine(tw, cells)
	}
	return tw.Flush()
}

func writeLine(w io.Writer, cells []string) {
	for i, c := range cells {
		if i > 0 {
			fmt.Fprint(w, "\t")
		}
		fmt.Fprint(w, c)
	}
	fmt.Fprintln(w)
}
