package domain

import (
	"errors"
	"strings"
)

var (
	ErrInvalidToken   = errors.New("backend returned an unreadable token")
	ErrAlreadyPremium = errors.New("account is already premium")
	ErrInvalidPlan    = errors.New("unknown subscription plan")
	ErrImageTooLarge  = errors.New("image exceeds the upload limit")
	ErrInvalidImage   = errors.New("only image uploads are accepted")
)

// MaxImageSize : 5 MiB
const MaxImageSize = 5 << 20

type Plan string

const (
	PlanMonthly Plan = "monthly"
	PlanYearly  Plan = "yearly"
)

// ParsePlan accepte un plan vide (mensuel par défaut).
func ParsePlan(raw string) (Plan, error) {
	switch p := Plan(strings.ToLower(strings.TrimSpace(raw))); p {
	case "":
		return PlanMonthly, nil
	case PlanMonthly, PlanYearly:
		return p, nil
	default:
		return "", ErrInvalidPlan
	}
}

// CanSeePremium : abonnés, auteur de la recette et admins.
func CanSeePremium(viewer *Identity, r *Recipe) bool {
	if !r.Premium {
		return true
	}
	if viewer == nil {
		return false
	}
	return viewer.IsPremium || viewer.IsAdmin() || viewer.ID == r.AuthorID
}
