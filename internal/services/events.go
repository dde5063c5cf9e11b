package services

const (
	EventParticipantRegistered = "participant_registered"
	EventParticipantRemoved    = "participant_removed"
	EventRosterReset           = "roster_reset"
	EventWinnerDrawn           = "winner_drawn"
)

type Event struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

// EventPublisher receives roster changes. Publish must not block.
type EventPublisher interface {
	Publish(Event)
}

type nopPublisher struct{}

func (nopPublisher) Publish(Event) {}

// RosterEntry is the public view of a participant carried in events.
type RosterEntry struct {
	Number string `json:"number"`
	Email  string `json:"email"`
}
