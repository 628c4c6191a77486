package domain

import "time"

type EventType string

const (
	EventRecipeVoted     EventType = "recipe.voted"
	EventRecipeRated     EventType = "recipe.rated"
	EventRecipeCommented EventType = "recipe.commented"
	EventRecipeReported  EventType = "recipe.reported"
	EventUserFollowed    EventType = "user.followed"
	EventUserUnfollowed  EventType = "user.unfollowed"
)

// EngagementEvent décrit une interaction confirmée par le backend.
type EngagementEvent struct {
	Type       EventType         `json:"type"`
	ActorID    string            `json:"actor_id"`
	TargetID   string            `json:"target_id"` // recette ou user visé
	Attributes map[string]string `json:"attributes,omitempty"`
	OccurredAt time.Time         `json:"occurred_at"`
}

func NewEngagementEvent(t EventType, actorID, targetID string, attrs map[string]string) EngagementEvent {
	return EngagementEvent{
		Type:       t,
		ActorID:    actorID,
		TargetID:   targetID,
		Attributes: attrs,
		OccurredAt: time.Now().UTC(),
	}
}
