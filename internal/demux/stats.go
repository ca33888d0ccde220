package demux

import (
	"fmt"
	"io"
	"sort"
)

// UnknownBarcode is the sentinel row in the barcode table counting reads
// whose index is well formed but absent from the vocabulary.
const UnknownBarcode = "unknown"

// Stats carries the running counters for one demultiplexing pass.
type Stats struct {
	Reads      int // total read groups processed
	ContainsN  int // groups with an N in either index
	IndexHops  int // groups whose indices failed the reverse-complement match
	LowQuality int // groups with a sub-cutoff mean index quality
	Unknown    int // groups rejected only for an unrecognized barcode
	Barcodes   map[string]int
}

// NewStats creates a Stats with a zero acceptance count for every barcode in
// the vocabulary plus the unknown-barcode sentinel.
func NewStats(vocabulary []string) *Stats {
	barcodes := make(map[string]int, len(vocabulary)+1)
	for _, bc := range vocabulary {
		barcodes[bc] = 0
	}
	barcodes[UnknownBarcode] = 0
	return &Stats{Barcodes: barcodes}
}

// Record applies one classified read group to the counters. Every call
// increments the total; each reason present increments its own counter; an
// accepted group increments its barcode's acceptance count.
func (s *Stats) Record(r Reason, barcode string) {
	s.Reads++
	if r.Has(ReasonN) {
		s.ContainsN++
	}
	if r.Has(ReasonIndexHop) {
		s.IndexHops++
	}
	if r.Has(ReasonLowQuality) {
		s.LowQuality++
	}
	switch {
	case r == 0:
		s.Barcodes[barcode]++
	case r.Has(ReasonUnknownBarcode):
		s.Unknown++
		s.Barcodes[UnknownBarcode]++
	}
}

// Accepted returns the total number of accepted read groups.
func (s *Stats) Accepted() int {
	n := 0
	for bc, count := range s.Barcodes {
		if bc != UnknownBarcode {
			n += count
		}
	}
	return n
}

// WriteReport renders the run summary: totals, per-category failure counts,
// then the per-barcode acceptance table in sorted order with the unknown
// sentinel last.
func (s *Stats) WriteReport(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "Reads: %d\nN's  : %d\nIH   : %d\nQS   : %d\n\n",
		s.Reads, s.ContainsN, s.IndexHops, s.LowQuality); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(w, "% of reads for each index"); err != nil {
		return err
	}

	names := make([]string, 0, len(s.Barcodes))
	for bc := range s.Barcodes {
		if bc != UnknownBarcode {
			names = append(names, bc)
		}
	}
	sort.Strings(names)
	names = append(names, UnknownBarcode)

	for _, bc := range names {
		count := s.Barcodes[bc]
		pct := 0.0
		if s.Reads > 0 {
			pct = 100 * float64(count) / float64(s.Reads)
		}
		if _, err := fmt.Fprintf(w, "%-10s %10d  %6.2f%%\n", bc, count, pct); err != nil {
			return err
		}
	}
	return nil
}
