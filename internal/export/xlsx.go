package export

import (
	"context"
	"io"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/leadgen-cli/internal/model"
)

// SheetName is the worksheet the XLSX exporter writes.
const SheetName = "Leads"

// XLSXExporter writes a single-sheet workbook.
type XLSXExporter struct {
	w io.Writer
}

// NewXLSX returns an XLSXExporter writing the workbook to w.
func NewXLSX(w io.Writer) *XLSXExporter {
	return &XLSXExporter{w: w}
}

func (e *XLSXExporter) Export(ctx context.Context, leads []model.StoredLead) (int, error) {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet(SheetName)
	if err != nil {
		return 0, eris.Wrap(err, "export: add xlsx sheet")
	}

	header := sheet.AddRow()
	for _, col := range Columns {
		header.AddCell().SetString(col)
	}

	n := 0
	for _, lead := range leads {
		if ctx.Err() != nil {
			return 0, eris.Wrap(ctx.Err(), "export: xlsx cancelled")
		}
		r := Project(lead)
		row := sheet.AddRow()
		for i, v := range r.Strings() {
			cell := row.AddCell()
			if Columns[i] == "score" && r.Score != nil {
				cell.SetFloat(*r.Score)
				continue
			}
			cell.SetString(v)
		}
		n++
	}

	if err := f.Write(e.w); err != nil {
		return 0, eris.Wrap(err, "export: write xlsx")
	}
	return n, nil
}
