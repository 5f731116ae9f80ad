package export

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func sampleDataset() Dataset {
	return Dataset{
		Title:   "Midterm scores",
		Headers: []string{"user_id", "score"},
		Rows: []map[string]string{
			{"user_id": "kim", "score": "90"},
			{"user_id": "lee", "score": "75"},
		},
	}
}

func TestCSVRender(t *testing.T) {
	out, err := NewCSVExporter().Render(sampleDataset())
	require.NoError(t, err)
	assert.Equal(t, "\ufeffuser_id,score\nkim,90\nlee,75\n", string(out))
}

func TestXLSXRenderKeepsNumbers(t *testing.T) {
	out, err := NewXLSXExporter().Render(sampleDataset())
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(out))
	require.NoError(t, err)
	defer f.Close()
	value, err := f.GetCellValue("Midterm scores", "B2")
	require.NoError(t, err)
	assert.Equal(t, "90", value)
}

func TestPDFRender(t *testing.T) {
	out, err := NewPDFExporter().Render(sampleDataset())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestForFormat(t *testing.T) {
	exp, err := ForFormat("xlsx")
	require.NoError(t, err)
	assert.Equal(t, "xlsx", exp.Extension())

	_, err = ForFormat("doc")
	assert.Error(t, err)
}

func TestRenderRequiresHeaders(t *testing.T) {
	_, err := NewCSVExporter().Render(Dataset{})
	assert.Error(t, err)
}

func TestSheetNameSanitizes(t *testing.T) {
	assert.Equal(t, "Midterm- Math 1", sheetName("Midterm: Math 1"))
	assert.Equal(t, "a-b-c-d-e-f-g", sheetName("a/b\\c?d*e[f]g"))
	assert.Equal(t, defaultSheet, sheetName("'''"))
	assert.Len(t, []rune(sheetName(strings.Repeat("가", 40))), 31)
}

func TestXLSXRenderWithForbiddenTitle(t *testing.T) {
	data := sampleDataset()
	data.Title = "Midterm: Math 1"
	out, err := NewXLSXExporter().Render(data)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(out))
	require.NoError(t, err)
	defer f.Close()
	value, err := f.GetCellValue("Midterm- Math 1", "A2")
	require.NoError(t, err)
	assert.Equal(t, "kim", value)
}
