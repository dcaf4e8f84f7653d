package read

import (
	"fmt"
	"math"
)

// solexaToPhred maps Solexa quality values (-10..40, offset by +10 for
// indexing) onto the Phred scale: phred = 10*log10(1 + 10^(sol/10)).
var solexaToPhred [51]int

func init() {
	for i := range solexaToPhred {
		sol := float64(i - 10)
		solexaToPhred[i] = int(math.Round(10 * math.Log10(1+math.Pow(10, sol/10))))
	}
}

// Phred33FromChar decodes one ASCII quality byte to Phred+33. Exactly one
// of solexa/phred64 may be set; with neither set the input is already
// Phred+33 and is range-checked only.
func Phred33FromChar(c byte, solexa, phred64 bool) (byte, error) {
	switch {
	case solexa:
		sol := int(c) - 64
		if sol < -10 || sol > 40 {
			return 0, fmt.Errorf("quality byte %q out of range for Solexa encoding", c)
		}
		return byte(solexaToPhred[sol+10] + 33), nil
	case phred64:
		if c < 64 {
			return 0, fmt.Errorf("quality byte %q out of range for Phred+64 encoding", c)
		}
		return c - 31, nil
	default:
		if c < 33 {
			return 0, fmt.Errorf("quality byte %q out of range for Phred+33 encoding", c)
		}
		return c, nil
	}
}

// Phred33FromInt converts an integer quality token to a Phred+33 byte.
// Negative values clamp to zero; Solexa-scaled values are remapped first.
func Phred33FromInt(q int, solexa bool) byte {
	if solexa {
		if q < -10 {
			q = -10
		}
		if q > 40 {
			q = 40
		}
		q = solexaToPhred[q+10]
	}
	if q < 0 {
		q = 0
	}
	if q > 93 {
		q = 93 // cap at '~'
	}
	return byte(q + 33)
}
