package content

import (
	"context"
	"fmt"
)

// Repository reads content documents. This service never writes them.
type Repository interface {
	GetArticle(ctx context.Context, id string) (*Article, error)
	GetPoll(ctx context.Context, id string) (*Poll, error)
	GetProposal(ctx context.Context, id string) (*Proposal, error)
	GetEvent(ctx context.Context, id string) (*Event, error)
}

// ErrNotFound is returned when the referenced content document does not exist.
var ErrNotFound = fmt.Errorf("content not found")
