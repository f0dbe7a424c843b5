package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	err := WriteXLSX(&buf,
		Sheet{Name: "Records", Headers: []string{"Date", "Worked"}, Rows: [][]any{{"2024-03-01", "08:00:00"}, {"2024-03-02", "07:30:00"}}},
		Sheet{Name: "Summary", Headers: []string{"Total"}, Rows: [][]any{{2}}},
	)
	require.NoError(t, err)

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Records", "Summary"}, f.GetSheetList())

	rows, err := f.GetRows("Records")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Date", "Worked"}, rows[0])
	assert.Equal(t, []string{"2024-03-02", "07:30:00"}, rows[2])

	total, err := f.GetCellValue("Summary", "A2")
	require.NoError(t, err)
	assert.Equal(t, "2", total)
}

func TestWriteXLSX_NoSheets(t *testing.T) {
	assert.Error(t, WriteXLSX(&bytes.Buffer{}))
}
