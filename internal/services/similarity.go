package services

import (
	"iter"
	"strings"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/allexgorbunov/kingfin-contest-bot/internal/models"
)

const (
	// LocalSimilarityThreshold flags a pair regardless of domain.
	LocalSimilarityThreshold = 0.70
	// SameDomainSimilarityThreshold flags a pair sharing a domain.
	SameDomainSimilarityThreshold = 0.50
)

type SuspiciousPair struct {
	Left  models.Participant
	Right models.Participant
	Score float64
}

// Similarity returns 2*M/(len(a)+len(b)) where M counts the characters in the
// matching blocks found by difflib's longest-block alignment. The pair is
// put in a fixed order first so the score does not depend on argument order.
func Similarity(a, b string) float64 {
	a, b = strings.ToLower(a), strings.ToLower(b)
	if a == b {
		return 1
	}
	if a > b {
		a, b = b, a
	}
	m := difflib.NewMatcherWithJunk(strings.Split(a, ""), strings.Split(b, ""), false, nil)
	return m.Ratio()
}

// FindSuspiciousPairs scans every unordered pair of participants, in roster
// order, and yields the ones whose emails look like the same person. The
// sequence can be ranged over any number of times.
func FindSuspiciousPairs(participants []models.Participant) iter.Seq[SuspiciousPair] {
	return func(yield func(SuspiciousPair) bool) {
		for i := 0; i < len(participants); i++ {
			leftLocal, leftDomain := splitEmail(participants[i].Email)
			for j := i + 1; j < len(participants); j++ {
				rightLocal, rightDomain := splitEmail(participants[j].Email)

				score := Similarity(leftLocal, rightLocal)
				sameDomain := leftDomain == rightDomain
				if score < LocalSimilarityThreshold && !(sameDomain && score >= SameDomainSimilarityThreshold) {
					continue
				}
				if !yield(SuspiciousPair{Left: participants[i], Right: participants[j], Score: score}) {
					return
				}
			}
		}
	}
}

func splitEmail(email string) (local, domain string) {
	local, domain, _ = strings.Cut(strings.ToLower(email), "@")
	return local, domain
}
