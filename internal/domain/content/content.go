package content

import (
	"time"

	"campus_notifier/internal/domain/notification"
)

// Item is the minimal snapshot of a content document the fan-out needs.
// It is built from a live article/poll/proposal/event or from the scope
// fields stored on a scheduled job.
type Item struct {
	ID           string
	Kind         notification.Kind
	Title        string
	AuthorID     string
	IsAllClasses *bool // nil when the document has no scoping field
	ClassScopes  []string
	Participants []string
}

// HasParticipant reports whether userID takes part in the item's thread.
func (i Item) HasParticipant(userID string) bool {
	for _, p := range i.Participants {
		if p == userID {
			return true
		}
	}
	return false
}

type Article struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	AuthorID    string    `json:"authorId"`
	IsPublished bool      `json:"isPublished"`
	CreatedAt   time.Time `json:"createdAt"`
}

func (a *Article) Item() Item {
	return Item{ID: a.ID, Kind: notification.KindArticle, Title: a.Title, AuthorID: a.AuthorID}
}

type Poll struct {
	ID           string     `json:"id"`
	Title        string     `json:"title"`
	CreatedBy    string     `json:"createdBy"`
	IsAllClasses *bool      `json:"isAllClasses,omitempty"`
	ClassScopes  []string   `json:"classScopes,omitempty"`
	ExpiresAt    *time.Time `json:"expiresAt,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
}

func (p *Poll) Item() Item {
	return Item{
		ID:           p.ID,
		Kind:         notification.KindPoll,
		Title:        p.Title,
		AuthorID:     p.CreatedBy,
		IsAllClasses: p.IsAllClasses,
		ClassScopes:  p.ClassScopes,
	}
}

// Proposal is a student proposal collecting endorsements.
type Proposal struct {
	ID                   string    `json:"id"`
	Title                string    `json:"title"`
	AuthorID             string    `json:"authorId"`
	RequiredEndorsements int       `json:"requiredEndorsements"`
	Endorsements         []string  `json:"endorsements"` // user ids, in endorsement order
	Participants         []string  `json:"participants"`
	CreatedAt            time.Time `json:"createdAt"`
}

// DefaultRequiredEndorsements applies when a proposal does not set a threshold.
const DefaultRequiredEndorsements = 10

// Required returns the endorsement threshold with the default applied.
func (p *Proposal) Required() int {
	if p.RequiredEndorsements <= 0 {
		return DefaultRequiredEndorsements
	}
	return p.RequiredEndorsements
}

func (p *Proposal) Item() Item {
	return Item{
		ID:           p.ID,
		Kind:         notification.KindProposal,
		Title:        p.Title,
		AuthorID:     p.AuthorID,
		Participants: p.Participants,
	}
}

// Reply is a comment in a proposal thread.
type Reply struct {
	ID         string    `json:"id"`
	ProposalID string    `json:"proposalId"`
	AuthorID   string    `json:"authorId"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"createdAt"`
}

type Event struct {
	ID           string     `json:"id"`
	Title        string     `json:"title"`
	CreatedBy    string     `json:"createdBy"`
	IsAllClasses *bool      `json:"isAllClasses,omitempty"`
	ClassScopes  []string   `json:"classScopes,omitempty"`
	StartDate    *time.Time `json:"startDate,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
}

func (e *Event) Item() Item {
	return Item{
		ID:           e.ID,
		Kind:         notification.KindEvent,
		Title:        e.Title,
		AuthorID:     e.CreatedBy,
		IsAllClasses: e.IsAllClasses,
		ClassScopes:  e.ClassScopes,
	}
}
