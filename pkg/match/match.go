// Package match implements the bag-of-words resolver used to turn free-text
// project names and task titles into backend record identifiers.
//
// Similarity is the count of shared normalized tokens; word order and term
// frequency are ignored. A single shared word is enough to win; the matcher
// trades precision for recall, and callers that need precision narrow the
// candidate set first (for example by scoping tasks to a resolved project).
package match

import (
	"github.com/taskbotics/b24bot/pkg/textnorm"
)

// Candidate is one record in the pool the phrase is matched against.
// Records with an empty display name can never be chosen.
type Candidate struct {
	ID   int64
	Name string
}

// Resolve returns the identifier of the candidate sharing the most normalized
// words with phrase, and whether any candidate matched at all.
//
// An empty candidate list or a phrase that normalizes to no words yields no
// match, since an empty search term must never match everything. Ties keep the
// first candidate that reached the maximum score, so the result is stable in
// the order the backend returned the candidates.
func Resolve(phrase string, candidates []Candidate) (int64, bool) {
	if len(candidates) == 0 {
		return 0, false
	}
	search := textnorm.Words(phrase)
	if len(search) == 0 {
		return 0, false
	}

	var bestID int64
	best := 0
	for _, c := range candidates {
		score := textnorm.Intersection(search, textnorm.Words(c.Name))
		if score > best {
			best = score
			bestID = c.ID
		}
	}
	if best == 0 {
		return 0, false
	}
	return bestID, true
}
