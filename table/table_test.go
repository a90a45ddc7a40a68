package table

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/poiesic/fingerprint/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCSV = `ResearcherName,FieldOfResearch,TopicName,Percentage,Extra
Alice,Mathematics,graph theory,80,x
Alice,Mathematics,combinatorics,20,x
Bob,,protein folding,100,x
`

func TestReadCSV(t *testing.T) {
	tbl, err := ReadCSV(strings.NewReader(sampleCSV))
	require.NoError(t, err)

	assert.Equal(t, []string{"ResearcherName", "FieldOfResearch", "TopicName", "Percentage", "Extra"}, tbl.Columns)
	require.Len(t, tbl.Records, 3)
	assert.Equal(t, core.Record{Researcher: "Alice", Field: "Mathematics", Topic: "graph theory", Percentage: 80}, tbl.Records[0])
	assert.Equal(t, core.Record{Researcher: "Bob", Field: "", Topic: "protein folding", Percentage: 100}, tbl.Records[2])
	assert.NoError(t, core.CheckSchema(tbl))
}

func TestReadCSV_Normalization(t *testing.T) {
	input := "\ufeff ResearcherName , FieldOfResearch,TopicName,Percentage\n" +
		"  Ａｌｉｃｅ  ,Physics,\tquantum ﬁelds ,12.5\n"

	tbl, err := ReadCSV(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, "ResearcherName", tbl.Columns[0])
	require.Len(t, tbl.Records, 1)
	assert.Equal(t, "Alice", tbl.Records[0].Researcher)
	assert.Equal(t, "quantum fields", tbl.Records[0].Topic)
	assert.Equal(t, 12.5, tbl.Records[0].Percentage)
}

func TestReadCSV_MissingColumnsIsNotAnError(t *testing.T) {
	tbl, err := ReadCSV(strings.NewReader("ResearcherName,TopicName\nAlice,graph theory\n"))
	require.NoError(t, err)
	assert.Empty(t, tbl.Records)

	var schemaErr *core.SchemaError
	require.ErrorAs(t, core.CheckSchema(tbl), &schemaErr)
	assert.Equal(t, []string{"FieldOfResearch", "Percentage"}, schemaErr.Missing)
}

func TestReadCSV_Errors(t *testing.T) {
	header := "ResearcherName,FieldOfResearch,TopicName,Percentage\n"

	t.Run("empty input", func(t *testing.T) {
		_, err := ReadCSV(strings.NewReader(""))
		assert.ErrorIs(t, err, ErrEmptyInput)
	})

	t.Run("non-numeric percentage names the line", func(t *testing.T) {
		_, err := ReadCSV(strings.NewReader(header + "Alice,Math,graphs,10\nBob,Bio,cells,lots\n"))
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInvalidPercentage)
		assert.Contains(t, err.Error(), "line 3")
	})

	t.Run("out of range percentage", func(t *testing.T) {
		_, err := ReadCSV(strings.NewReader(header + "Alice,Math,graphs,120\n"))
		require.Error(t, err)
		assert.ErrorIs(t, err, core.ErrPercentageRange)
		assert.Contains(t, err.Error(), "line 2")
	})
}

func TestReadCSV_SkipsIncompleteRows(t *testing.T) {
	input := "ResearcherName,FieldOfResearch,TopicName,Percentage\n" +
		",Math,graphs,10\n" +
		"Alice,Math,,10\n" +
		"Alice,Math,graphs,\n" +
		"Alice,Math,graphs,10\n"

	tbl, err := ReadCSV(strings.NewReader(input))
	require.NoError(t, err)
	assert.Len(t, tbl.Records, 1)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()

	t.Run("csv", func(t *testing.T) {
		path := filepath.Join(dir, "experts.csv")
		require.NoError(t, os.WriteFile(path, []byte(sampleCSV), 0o644))
		tbl, err := LoadFile(path)
		require.NoError(t, err)
		assert.Len(t, tbl.Records, 3)
	})

	t.Run("tsv", func(t *testing.T) {
		path := filepath.Join(dir, "experts.tsv")
		tsv := "ResearcherName\tFieldOfResearch\tTopicName\tPercentage\nAlice\tMath\tgraph theory, applied\t50\n"
		require.NoError(t, os.WriteFile(path, []byte(tsv), 0o644))
		tbl, err := LoadFile(path)
		require.NoError(t, err)
		require.Len(t, tbl.Records, 1)
		assert.Equal(t, "graph theory, applied", tbl.Records[0].Topic)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadFile(filepath.Join(dir, "nope.csv"))
		assert.ErrorIs(t, err, os.ErrNotExist)
	})
}

func TestNormalizeText(t *testing.T) {
	assert.Equal(t, "abc", NormalizeText("  ａｂｃ\x00 "))
	assert.Equal(t, "", NormalizeText(" \t "))
}
