package matcher

import (
	"strings"
)

// DescriptionSimilarity scores two free-text descriptions in [0, 1].
//
// The scale is deliberately coarse. Bank narratives are truncated,
// reordered and bilingual, so fuzzy edit distances reward the wrong
// things; instead the score recognizes three situations:
//
//	1.0  the strings are identical after lowercasing and trimming
//	0.8  one string contains the other (a narrative wrapping a memo)
//	else the fraction of whitespace-delimited words the two strings
//	     share, over the larger word count
func DescriptionSimilarity(a, b string) float64 {
	na := normalizeText(a)
	nb := normalizeText(b)

	if na == nb {
		return 1.0
	}
	// An empty side would be "contained" by anything; there is no
	// textual evidence either way.
	if na == "" || nb == "" {
		return 0.0
	}

	if strings.Contains(na, nb) || strings.Contains(nb, na) {
		return 0.8
	}

	return wordOverlap(na, nb)
}

func normalizeText(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// wordOverlap computes |words(a) ∩ words(b)| / max(|words(a)|, |words(b)|)
// over the distinct whitespace-delimited words of each string.
func wordOverlap(a, b string) float64 {
	wordsA := wordSet(a)
	wordsB := wordSet(b)

	if len(wordsA) == 0 || len(wordsB) == 0 {
		return 0.0
	}

	common := 0
	for w := range wordsA {
		if _, ok := wordsB[w]; ok {
			common++
		}
	}

	denom := len(wordsA)
	if len(wordsB) > denom {
		denom = len(wordsB)
	}

	return float64(common) / float64(denom)
}

func wordSet(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, w := range strings.Fields(s) {
		set[w] = struct{}{}
	}
	return set
}
