package fastq

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRecord(t *testing.T) {
	input := `@SEQ_ID description
ACGTACGT
+
IIIIIIII
`
	p := NewParser(strings.NewReader(input))
	rec, err := p.Next()
	require.NoError(t, err)

	assert.Equal(t, []byte("SEQ_ID description"), rec.Header)
	assert.Equal(t, []byte("ACGTACGT"), rec.Sequence)
	assert.Empty(t, rec.PlusLine)
	assert.Equal(t, []byte("IIIIIIII"), rec.Quality)
}

func TestParseMultipleRecords(t *testing.T) {
	input := `@SEQ_1
AAAA
+
!!!!
@SEQ_2
CCCC
+
####
@SEQ_3
GGGG
+
$$$$
`
	p := NewParser(strings.NewReader(input))

	tests := []struct {
		header string
		seq    string
		qual   string
	}{
		{"SEQ_1", "AAAA", "!!!!"},
		{"SEQ_2", "CCCC", "####"},
		{"SEQ_3", "GGGG", "$$$$"},
	}

	for _, tt := range tests {
		rec, err := p.Next()
		require.NoError(t, err)
		assert.Equal(t, []byte(tt.header), rec.Header)
		assert.Equal(t, []byte(tt.seq), rec.Sequence)
		assert.Equal(t, []byte(tt.qual), rec.Quality)
	}

	// Should get EOF after all records
	_, err := p.Next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestParseEmptyInput(t *testing.T) {
	p := NewParser(strings.NewReader(""))
	_, err := p.Next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestParseMalformedNoAt(t *testing.T) {
	input := `SEQ_ID
ACGT
+
IIII
`
	p := NewParser(strings.NewReader(input))
	_, err := p.Next()
	assert.Error(t, err)
}

func TestParseMalformedNoPlus(t *testing.T) {
	input := `@SEQ_ID
ACGT
IIII
IIII
`
	p := NewParser(strings.NewReader(input))
	_, err := p.Next()
	assert.Error(t, err)
}

func TestParseMalformedMismatchedLength(t *testing.T) {
	input := `@SEQ_ID
ACGTACGT
+
III
`
	p := NewParser(strings.NewReader(input))
	_, err := p.Next()
	assert.Error(t, err)
}

func TestParseTruncatedRecord(t *testing.T) {
	input := "@SEQ_ID\nACGT\n"
	p := NewParser(strings.NewReader(input))
	_, err := p.Next()
	require.Error(t, err)
	assert.NotErrorIs(t, err, io.EOF)
	assert.Contains(t, err.Error(), "truncated")
}

func TestParsePlusLinePayload(t *testing.T) {
	input := `@SEQ_1
ACGTACGT
+SEQ_1 comment
IIIIIIII
`
	p := NewParser(strings.NewReader(input))
	rec, err := p.Next()
	require.NoError(t, err)
	assert.Equal(t, []byte("SEQ_1 comment"), rec.PlusLine)
}

func TestParseCRLFLineEndings(t *testing.T) {
	input := "@SEQ_1\r\nACGT\r\n+\r\nIIII\r\n"
	p := NewParser(strings.NewReader(input))
	rec, err := p.Next()
	require.NoError(t, err)
	assert.Equal(t, []byte("ACGT"), rec.Sequence)
	assert.Equal(t, []byte("IIII"), rec.Quality)
}

func TestAnnotatePlus(t *testing.T) {
	rec := &Record{
		Header:   []byte("r1"),
		Sequence: []byte("ACGT"),
		Quality:  []byte("IIII"),
	}

	rec.AnnotatePlus("GTAGCGTA")
	assert.Equal(t, []byte(" GTAGCGTA"), rec.PlusLine)

	rec.AnnotatePlus("(N)")
	rec.AnnotatePlus("(IH)")
	assert.Equal(t, []byte(" GTAGCGTA (N) (IH)"), rec.PlusLine)
}

func TestAppendToRoundTrip(t *testing.T) {
	input := "@r1 lane1\nACGTN\n+ note\n!!#I~\n"
	p := NewParser(strings.NewReader(input))
	rec, err := p.Next()
	require.NoError(t, err)

	out := rec.AppendTo(nil)
	assert.Equal(t, input, string(out))
}

func TestAppendToExtendsBuffer(t *testing.T) {
	rec := &Record{
		Header:   []byte("r1"),
		Sequence: []byte("AC"),
		Quality:  []byte("II"),
	}

	buf := []byte("prefix")
	buf = rec.AppendTo(buf)
	assert.Equal(t, "prefix@r1\nAC\n+\nII\n", string(buf))
}
