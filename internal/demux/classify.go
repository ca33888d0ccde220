package demux

import "fmt"

// Reason is a bit set of the ways a read group can fail screening.
type Reason uint8

// Failure reasons, in fixed tag order.
const (
	ReasonN              Reason = 1 << iota // an index sequence contains an N base
	ReasonIndexHop                          // index2 is not the reverse complement of index1
	ReasonLowQuality                        // an index read's mean Phred score is below the cutoff
	ReasonUnknownBarcode                    // index1 is absent from the barcode vocabulary
)

var reasonTags = []struct {
	reason Reason
	tag    string
}{
	{ReasonN, "(N)"},
	{ReasonIndexHop, "(IH)"},
	{ReasonLowQuality, "(QS)"},
	{ReasonUnknownBarcode, "(E)"},
}

// Has reports whether r contains reason.
func (r Reason) Has(reason Reason) bool {
	return r&reason != 0
}

// Tags returns the separator-line annotations for r in fixed bit order.
func (r Reason) Tags() []string {
	var tags []string
	for _, rt := range reasonTags {
		if r.Has(rt.reason) {
			tags = append(tags, rt.tag)
		}
	}
	return tags
}

// Classifier screens read groups against the quality cutoff and the barcode
// vocabulary. It is a pure function of one ReadGroup; counter updates belong
// to Stats.
type Classifier struct {
	cutoff float64
	vocab  map[string]bool
}

// NewClassifier creates a Classifier for the given mean-Phred cutoff and
// known-barcode vocabulary.
func NewClassifier(cutoff float64, vocabulary []string) *Classifier {
	vocab := make(map[string]bool, len(vocabulary))
	for _, bc := range vocabulary {
		vocab[bc] = true
	}
	return &Classifier{cutoff: cutoff, vocab: vocab}
}

// Classify returns the failure reasons for g along with the barcode (the
// index1 sequence). A zero Reason means the group is accepted under that
// barcode. The unknown-barcode check runs only when the other three checks
// all pass, matching the reference screening order.
func (c *Classifier) Classify(g *ReadGroup) (Reason, string, error) {
	index1 := g.Index1.Sequence
	index2 := g.Index2.Sequence

	var r Reason
	if containsN(index1) || containsN(index2) {
		r |= ReasonN
	}
	if !Match(index1, index2) {
		r |= ReasonIndexHop
	}

	mean1, err := MeanPhred(g.Index1.Quality)
	if err != nil {
		return 0, "", fmt.Errorf("index1 record %q: %w", g.Index1.Header, err)
	}
	mean2, err := MeanPhred(g.Index2.Quality)
	if err != nil {
		return 0, "", fmt.Errorf("index2 record %q: %w", g.Index2.Header, err)
	}
	if mean1 < c.cutoff || mean2 < c.cutoff {
		r |= ReasonLowQuality
	}

	barcode := string(index1)
	if r == 0 && !c.vocab[barcode] {
		r |= ReasonUnknownBarcode
	}
	return r, barcode, nil
}
