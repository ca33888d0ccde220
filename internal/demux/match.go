package demux

import "bytes"

// ReverseComplement returns the reverse complement of seq. A/T and C/G swap;
// any other symbol becomes N.
func ReverseComplement(seq []byte) []byte {
	out := make([]byte, len(seq))
	for i, b := range seq {
		var c byte
		switch b {
		case 'A':
			c = 'T'
		case 'T':
			c = 'A'
		case 'G':
			c = 'C'
		case 'C':
			c = 'G'
		default:
			c = 'N'
		}
		out[len(seq)-1-i] = c
	}
	return out
}

func containsN(seq []byte) bool {
	return bytes.IndexByte(seq, 'N') >= 0
}

// Match reports whether index2 is the reverse complement of index1 under the
// N-tolerant comparison rule: when index1 contains an N, the first base of
// both compared strings is dropped; otherwise, when index2 contains an N, the
// last base of both is dropped. Sequencers misread a base as N mostly near
// the ends of an index read, so one base of slack avoids false index-hop
// calls without full edit-distance machinery.
func Match(index1, index2 []byte) bool {
	inverse := ReverseComplement(index2)
	a := index1

	switch {
	case containsN(index1):
		a = trimFirst(a)
		inverse = trimFirst(inverse)
	case containsN(index2):
		a = trimLast(a)
		inverse = trimLast(inverse)
	}

	return bytes.Equal(a, inverse)
}

func trimFirst(s []byte) []byte {
	if len(s) == 0 {
		return s
	}
	return s[1:]
}

func trimLast(s []byte) []byte {
	if len(s) == 0 {
		return s
	}
	return s[:len(s)-1]
}
