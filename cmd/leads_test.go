package main

import (
	"bytes"
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/leadgen-cli/internal/export"
	"github.com/sells-group/leadgen-cli/internal/model"
)

func testLeads() []model.StoredLead {
	return []model.StoredLead{{
		ID:        "1",
		Details:   []byte(`{"title":"Tata Steel","url":"https://tatasteel.com","score":0.91}`),
		Timestamp: "2026-10-01T10:00:00Z",
	}}
}

func TestRunExport_CSVToStdout(t *testing.T) {
	var buf bytes.Buffer
	n, err := runExport(context.Background(), export.FormatCSV, "", &buf, testLeads())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "Tata Steel", records[1][1])
}

func TestRunExport_XLSXToFile(t *testing.T) {
	out := filepath.Join(t.TempDir(), "leads.xlsx")
	var stdout bytes.Buffer
	n, err := runExport(context.Background(), export.FormatXLSX, out, &stdout, testLeads())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Zero(t, stdout.Len())

	info, err := os.Stat(out)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}

func TestRunExport_UnknownFormat(t *testing.T) {
	_, err := runExport(context.Background(), "pdf", "", &bytes.Buffer{}, testLeads())
	require.Error(t, err)
	assert.True(t, model.IsValidation(err))
}

func TestConfirm(t *testing.T) {
	var out bytes.Buffer
	assert.True(t, confirm(strings.NewReader("y\n"), &out, "Delete?"))
	assert.True(t, confirm(strings.NewReader("YES\n"), &out, "Delete?"))
	assert.False(t, confirm(strings.NewReader("\n"), &out, "Delete?"))
	assert.False(t, confirm(strings.NewReader(""), &out, "Delete?"))
	assert.Contains(t, out.String(), "Delete? [y/N]")
}
