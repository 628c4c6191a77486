package domain

import (
	"slices"
	"strings"
)

// DefaultSuggestionLimit est le nombre de profils proposés dans "Qui suivre".
const DefaultSuggestionLimit = 3

const (
	foodHabitWeight = 5
	cityWeight      = 2
)

type VoteDirection string

const (
	VoteUp   VoteDirection = "up"
	VoteDown VoteDirection = "down"
)

func (d VoteDirection) Valid() bool { return d == VoteUp || d == VoteDown }

// TallyVotes compte les upvotes et downvotes. Pas de dédoublonnage : le backend
// garantit déjà un vote par user.
func TallyVotes(votes []Vote) (up, down int) {
	for _, v := range votes {
		if v.Upvote {
			up++
		}
		if v.Downvote {
			down++
		}
	}
	return up, down
}

// AverageRating renvoie (0, 0) pour une collection vide.
func AverageRating(ratings []Rating) (float64, int) {
	if len(ratings) == 0 {
		return 0, 0
	}
	sum := 0
	for _, r := range ratings {
		sum += r.Rating
	}
	return float64(sum) / float64(len(ratings)), len(ratings)
}

// NextVote calcule le nouvel état du vote de userID.
// Revoter dans le même sens annule, voter dans l'autre sens bascule :
// au plus un des deux flags est vrai.
func NextVote(current *Vote, userID string, dir VoteDirection) Vote {
	next := Vote{ID: userID}
	switch dir {
	case VoteUp:
		next.Upvote = current == nil || !current.Upvote
	case VoteDown:
		next.Downvote = current == nil || !current.Downvote
	}
	return next
}

// SuggestFollows classe les candidats par affinité avec le viewer.
// score = 5 x [même foodHabit] + 2 x [même ville], tri stable (ordre d'entrée pour les ex aequo).
func SuggestFollows(viewer User, users []User, limit int) []User {
	if limit <= 0 {
		limit = DefaultSuggestionLimit
	}

	type scored struct {
		user  User
		score int
	}
	candidates := make([]scored, 0, len(users))
	for _, u := range users {
		if u.ID == viewer.ID || viewer.IsFollowing(u.ID) {
			continue
		}
		candidates = append(candidates, scored{user: u, score: affinity(viewer, u)})
	}

	slices.SortStableFunc(candidates, func(a, b scored) int { return b.score - a.score })

	out := make([]User, 0, min(limit, len(candidates)))
	for _, c := range candidates[:min(limit, len(candidates))] {
		out = append(out, c.user)
	}
	return out
}

func affinity(viewer, candidate User) int {
	score := 0
	if sameNonEmpty(viewer.FoodHabit, candidate.FoodHabit) {
		score += foodHabitWeight
	}
	if sameNonEmpty(viewer.City, candidate.City) {
		score += cityWeight
	}
	return score
}

func sameNonEmpty(a, b string) bool {
	a, b = strings.TrimSpace(a), strings.TrimSpace(b)
	return a != "" && a == b
}
