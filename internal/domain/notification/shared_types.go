// internal/domain/notification/shared_types.go
package notification

// Type identifies what happened and drives audience, preference and topic selection.
type Type string

const (
	TypeArticle                     Type = "article"
	TypeNewPoll                     Type = "newPoll"
	TypePollDeadline                Type = "pollDeadline"
	TypePollResults                 Type = "pollResults"
	TypeProposalEndorsement         Type = "proposalEndorsement"
	TypeProposalEndorsementComplete Type = "proposalEndorsementComplete"
	TypeProposalReply               Type = "proposalReply"
	TypeNewEvent                    Type = "newEvent"
	TypeEventReminder               Type = "eventReminder"
)

// Kind is the content collection a notification type belongs to.
type Kind string

const (
	KindArticle  Kind = "article"
	KindPoll     Kind = "poll"
	KindProposal Kind = "proposal"
	KindEvent    Kind = "event"
)

// Topic returns the broadcast channel devices subscribe to for this kind.
func (k Kind) Topic() string {
	switch k {
	case KindArticle:
		return "articles"
	case KindPoll:
		return "polls"
	case KindProposal:
		return "proposals"
	case KindEvent:
		return "events"
	default:
		return ""
	}
}

// IDKey is the data payload key carrying the source content id.
func (k Kind) IDKey() string {
	return string(k) + "Id"
}

// Screen is the client screen opened when the push is tapped.
func (k Kind) Screen() string {
	return string(k) + "_detail"
}

// ClickAction is sent in every data payload so the mobile client routes the tap.
const ClickAction = "FLUTTER_NOTIFICATION_CLICK"

// Valid reports whether t is one of the known notification types.
func (t Type) Valid() bool {
	_, ok := policies[t]
	return ok
}
