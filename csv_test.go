package lottery

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExportCSV(t *testing.T) {
	var buf bytes.Buffer
	records := []DrawRecord{
		mustRecord(t, "2024-01-03", [5]int{1, 10, 20, 30, 40}, 9),
		mustRecord(t, "2024-01-01", [5]int{1, 2, 3, 4, 5}, 7),
	}

	require.NoError(t, ExportCSV(&buf, records))
	assert.Equal(t,
		"Draw Date,Number 1,Number 2,Number 3,Number 4,Number 5,Powerball\n"+
			"2024-01-03,1,10,20,30,40,9\n"+
			"2024-01-01,1,2,3,4,5,7\n",
		buf.String())
}

func TestImportCSV(t *testing.T) {
	t.Run("round trip through the validator", func(t *testing.T) {
		var buf bytes.Buffer
		records := []DrawRecord{
			mustRecord(t, "2024-01-06", [5]int{5, 6, 7, 8, 50}, 7),
			mustRecord(t, "2024-01-01", [5]int{45, 5, 34, 12, 23}, 6),
		}
		require.NoError(t, ExportCSV(&buf, records))

		candidates, err := ImportCSV(&buf)
		require.NoError(t, err)
		require.Len(t, candidates, 2)

		valid, rejections := newTestValidator(t).ValidateAll(candidates)
		assert.Empty(t, rejections)
		assert.Equal(t, records, valid)
	})

	t.Run("no header and source dates", func(t *testing.T) {
		in := "01/01/2024, 1, 2, 3, 4, 5, 7\n\n01/03/2024,1,10,20,30,40,9\n"
		candidates, err := ImportCSV(strings.NewReader(in))
		require.NoError(t, err)
		assert.Equal(t, []Candidate{
			{DateString: "01/01/2024", Numbers: []int{1, 2, 3, 4, 5, 7}},
			{DateString: "01/03/2024", Numbers: []int{1, 10, 20, 30, 40, 9}},
		}, candidates)
	})

	t.Run("short rows are left to the validator", func(t *testing.T) {
		candidates, err := ImportCSV(strings.NewReader("01/01/2024,1,2,3\n"))
		require.NoError(t, err)
		require.Len(t, candidates, 1)

		_, err = newTestValidator(t).Validate(candidates[0])
		assert.ErrorIs(t, err, ErrInvalidNumberCount)
	})

	t.Run("non numeric cell", func(t *testing.T) {
		_, err := ImportCSV(strings.NewReader("01/01/2024,1,2,x,4,5,7\n"))
		assert.ErrorIs(t, err, ErrDeserializationFailed)
		assert.Contains(t, err.Error(), "line 1")
	})

	t.Run("numbers only export without dates", func(t *testing.T) {
		in := "Number 1,Number 2,Number 3,Number 4,Number 5,Powerball\n1,2,3,4,5,6\n"
		_, err := ImportCSV(strings.NewReader(in))
		assert.ErrorIs(t, err, ErrDeserializationFailed)
		assert.Contains(t, err.Error(), `missing "Draw Date" column`)
		assert.NotContains(t, err.Error(), "is not a number")
	})

	t.Run("unpadded source dates", func(t *testing.T) {
		candidates, err := ImportCSV(strings.NewReader("Draw Date,Number 1,Number 2,Number 3,Number 4,Number 5,Powerball\n1/6/2024,8,19,27,44,61,3\n"))
		require.NoError(t, err)
		require.Len(t, candidates, 1)

		rec, err := newTestValidator(t).Validate(candidates[0])
		require.NoError(t, err)
		assert.Equal(t, "2024-01-06", rec.Date())
	})

	t.Run("empty input", func(t *testing.T) {
		candidates, err := ImportCSV(strings.NewReader(""))
		require.NoError(t, err)
		assert.NotNil(t, candidates)
		assert.Empty(t, candidates)
	})
}
