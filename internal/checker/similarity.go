package checker

import (
	"strings"

	"tg-bgcheck/internal/models"
)

// FindSimilar scans the candidate pool for near-duplicate handles of the
// target. A candidate matches on containment either way, or when the letter
// overlap score exceeds 0.6. The subject itself (excludeID) is always omitted.
func FindSimilar(handle string, excludeID int64, pool []models.Identity) []models.Identity {
	target := strings.ToLower(handle)
	var similar []models.Identity
	for _, cand := range pool {
		if cand.ID == excludeID {
			continue
		}
		other := strings.ToLower(cand.Handle)
		if other == "" {
			continue
		}
		if strings.Contains(other, target) || strings.Contains(target, other) ||
			Similarity(target, other) > 0.6 {
			similar = append(similar, cand)
		}
	}
	return similar
}

// Similarity is a coarse, order-insensitive letter-overlap ratio: strip
// everything but lowercase letters, then divide the shared letter count
// (multiset intersection, so the result is symmetric) by the longer length.
// Cheap and explainable rather than edit distance; short handles produce
// known false positives.
func Similarity(a, b string) float64 {
	ca := lettersOnly(strings.ToLower(a))
	cb := lettersOnly(strings.ToLower(b))
	if len(ca) == 0 || len(cb) == 0 {
		return 0.0
	}

	var countA, countB [26]int
	for i := 0; i < len(ca); i++ {
		countA[ca[i]-'a']++
	}
	for i := 0; i < len(cb); i++ {
		countB[cb[i]-'a']++
	}
	common := 0
	for i := 0; i < 26; i++ {
		if countA[i] < countB[i] {
			common += countA[i]
		} else {
			common += countB[i]
		}
	}

	max := len(ca)
	if len(cb) > max {
		max = len(cb)
	}
	return float64(common) / float64(max)
}

func lettersOnly(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] >= 'a' && s[i] <= 'z' {
			b.WriteByte(s[i])
		}
	}
	return b.String()
}
