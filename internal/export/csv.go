package export

import (
	"context"
	"encoding/csv"
	"io"

	"github.com/rotisserie/eris"

	"github.com/sells-group/leadgen-cli/internal/model"
)

// CSVExporter writes a header row then one row per lead.
type CSVExporter struct {
	w io.Writer
}

// NewCSV returns a CSVExporter writing to w.
func NewCSV(w io.Writer) *CSVExporter {
	return &CSVExporter{w: w}
}

func (e *CSVExporter) Export(ctx context.Context, leads []model.StoredLead) (int, error) {
	cw := csv.NewWriter(e.w)
	if err := cw.Write(Columns); err != nil {
		return 0, eris.Wrap(err, "export: write csv header")
	}

	n := 0
	for _, lead := range leads {
		if ctx.Err() != nil {
			return n, eris.Wrap(ctx.Err(), "export: csv cancelled")
		}
		if err := cw.Write(Project(lead).Strings()); err != nil {
			return n, eris.Wrapf(err, "export: write csv row %s", lead.ID)
		}
		n++
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return n, eris.Wrap(err, "export: flush csv")
	}
	return n, nil
}
