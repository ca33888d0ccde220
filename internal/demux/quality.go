package demux

import "errors"

// phredOffset is the Phred+33 quality encoding offset.
const phredOffset = 33

// DefaultQualityCutoff is the minimum mean Phred score an index read must
// meet to pass the quality check.
const DefaultQualityCutoff = 32.0

// MeanPhred returns the mean Phred score of a Phred+33 encoded quality
// string. An empty quality string is an error: it cannot occur in well-formed
// FASTQ and would otherwise divide by zero.
func MeanPhred(qual []byte) (float64, error) {
	if len(qual) == 0 {
		return 0, errors.New("empty quality string")
	}
	total := 0
	for _, b := range qual {
		total += int(b) - phredOffset
	}
	return float64(total) / float64(len(qual)), nil
}
