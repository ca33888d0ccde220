// Package demux implements the demultiplexing engine: lockstep reading of the
// four sequencing streams, index matching, quality screening, failure
// classification, output routing, and run statistics.
package demux

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/maddygriz/demultiplex/internal/fastq"
)

// Stream indices within a ReadGroup.
const (
	StreamRead1 = iota
	StreamRead2
	StreamIndex1
	StreamIndex2
	numStreams
)

var streamNames = [numStreams]string{"read1", "read2", "index1", "index2"}

// ReadGroup holds the four records originating from the same position across
// the four input streams.
type ReadGroup struct {
	Read1  *fastq.Record
	Read2  *fastq.Record
	Index1 *fastq.Record
	Index2 *fastq.Record
}

// QuadReader advances four FASTQ streams in lockstep.
type QuadReader struct {
	parsers [numStreams]*fastq.Parser
}

// NewQuadReader creates a QuadReader over the two primary-read streams and the
// two index streams.
func NewQuadReader(read1, read2, index1, index2 io.Reader) *QuadReader {
	return &QuadReader{
		parsers: [numStreams]*fastq.Parser{
			fastq.NewParser(read1),
			fastq.NewParser(read2),
			fastq.NewParser(index1),
			fastq.NewParser(index2),
		},
	}
}

// Next returns the next ReadGroup, or io.EOF once all four streams are
// exhausted together. A stream ending before the others means the inputs are
// desynchronized, which is a fatal error naming the exhausted streams.
func (q *QuadReader) Next() (*ReadGroup, error) {
	var recs [numStreams]*fastq.Record
	var exhausted, alive []string

	for i, p := range q.parsers {
		rec, err := p.Next()
		switch {
		case err == nil:
			recs[i] = rec
			alive = append(alive, streamNames[i])
		case errors.Is(err, io.EOF):
			exhausted = append(exhausted, streamNames[i])
		default:
			return nil, fmt.Errorf("%s: %w", streamNames[i], err)
		}
	}

	if len(exhausted) == numStreams {
		return nil, io.EOF
	}
	if len(exhausted) > 0 {
		return nil, fmt.Errorf("desynchronized input: %s exhausted before %s",
			strings.Join(exhausted, ", "), strings.Join(alive, ", "))
	}

	return &ReadGroup{
		Read1:  recs[StreamRead1],
		Read2:  recs[StreamRead2],
		Index1: recs[StreamIndex1],
		Index2: recs[StreamIndex2],
	}, nil
}

// NextBatch reads up to n ReadGroups. If fewer than n groups remain, returns
// what is available; a non-empty batch suppresses the io.EOF.
func (q *QuadReader) NextBatch(n int) ([]*ReadGroup, error) {
	batch := make([]*ReadGroup, 0, n)
	for i := 0; i < n; i++ {
		g, err := q.Next()
		if err != nil {
			if errors.Is(err, io.EOF) && len(batch) > 0 {
				return batch, nil
			}
			return batch, err
		}
		batch = append(batch, g)
	}
	return batch, nil
}
