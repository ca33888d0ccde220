// Package fastq provides streaming FASTQ record parsing and formatting.
package fastq

import (
	"bufio"
	"bytes"
	"errors"
	"io"
)

// Record represents a single FASTQ record. Unlike most FASTQ readers, the
// separator ("plus") line payload is retained because routing annotates it
// with the index sequence and failure tags.
type Record struct {
	Header   []byte // Header line without the leading '@'
	Sequence []byte // DNA sequence (A, C, G, T, N)
	PlusLine []byte // Separator line without the leading '+'
	Quality  []byte // Quality scores (Phred+33 encoded)
}

// AnnotatePlus appends a space-separated note to the separator line.
func (r *Record) AnnotatePlus(note string) {
	r.PlusLine = append(r.PlusLine, ' ')
	r.PlusLine = append(r.PlusLine, note...)
}

// AppendTo appends the 4-line FASTQ serialization of r to buf and returns
// the extended buffer.
func (r *Record) AppendTo(buf []byte) []byte {
	buf = append(buf, '@')
	buf = append(buf, r.Header...)
	buf = append(buf, '\n')
	buf = append(buf, r.Sequence...)
	buf = append(buf, '\n', '+')
	buf = append(buf, r.PlusLine...)
	buf = append(buf, '\n')
	buf = append(buf, r.Quality...)
	buf = append(buf, '\n')
	return buf
}

// Parser reads FASTQ records from an input stream.
type Parser struct {
	reader *bufio.Reader
	line   []byte // reusable buffer for reading lines
}

// NewParser creates a new FASTQ parser.
func NewParser(r io.Reader) *Parser {
	return &Parser{
		reader: bufio.NewReaderSize(r, 1<<20), // 1MB buffer
		line:   make([]byte, 0, 512),
	}
}

// Next reads and returns the next FASTQ record.
// Returns io.EOF when no more records are available.
func (p *Parser) Next() (*Record, error) {
	rec := &Record{}

	// Line 1: Header (starts with @)
	line, err := p.readLine()
	if err != nil {
		return nil, err
	}
	if len(line) == 0 || line[0] != '@' {
		return nil, errors.New("invalid FASTQ: header line must start with @")
	}
	rec.Header = make([]byte, len(line)-1)
	copy(rec.Header, line[1:])

	// Line 2: Sequence
	line, err = p.readLine()
	if err != nil {
		return nil, noEOF(err)
	}
	rec.Sequence = make([]byte, len(line))
	copy(rec.Sequence, line)

	// Line 3: Plus line (payload kept for later annotation)
	line, err = p.readLine()
	if err != nil {
		return nil, noEOF(err)
	}
	if len(line) == 0 || line[0] != '+' {
		return nil, errors.New("invalid FASTQ: separator line must start with +")
	}
	rec.PlusLine = make([]byte, len(line)-1)
	copy(rec.PlusLine, line[1:])

	// Line 4: Quality scores
	line, err = p.readLine()
	if err != nil {
		return nil, noEOF(err)
	}
	rec.Quality = make([]byte, len(line))
	copy(rec.Quality, line)

	// Validate lengths match
	if len(rec.Sequence) != len(rec.Quality) {
		return nil, errors.New("invalid FASTQ: sequence and quality lengths must match")
	}

	return rec, nil
}

// noEOF converts io.EOF inside a record into a hard error, so a file that
// ends mid-record is reported as truncated rather than as a clean stream end.
func noEOF(err error) error {
	if errors.Is(err, io.EOF) {
		return errors.New("invalid FASTQ: truncated record")
	}
	return err
}

// readLine reads a line from the input, stripping the newline.
// Reuses an internal buffer to minimize allocations.
func (p *Parser) readLine() ([]byte, error) {
	p.line = p.line[:0]

	for {
		segment, isPrefix, err := p.reader.ReadLine()
		if err != nil {
			return nil, err
		}

		p.line = append(p.line, segment...)

		if !isPrefix {
			break
		}
	}

	// Trim any trailing CR (for Windows line endings)
	p.line = bytes.TrimSuffix(p.line, []byte{'\r'})

	return p.line, nil
}
