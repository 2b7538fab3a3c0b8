package content

import (
	"testing"

	"campus_notifier/internal/domain/notification"

	"github.com/stretchr/testify/assert"
)

func TestProposalRequired(t *testing.T) {
	assert.Equal(t, 10, (&Proposal{}).Required())
	assert.Equal(t, 4, (&Proposal{RequiredEndorsements: 4}).Required())
}

func TestItems(t *testing.T) {
	all := true
	poll := (&Poll{ID: "p", Title: "T", CreatedBy: "c", IsAllClasses: &all, ClassScopes: []string{"2026"}}).Item()
	assert.Equal(t, notification.KindPoll, poll.Kind)
	assert.Equal(t, "c", poll.AuthorID)
	assert.Same(t, &all, poll.IsAllClasses)

	proposal := (&Proposal{ID: "pr", AuthorID: "a", Participants: []string{"x"}}).Item()
	assert.True(t, proposal.HasParticipant("x"))
	assert.False(t, proposal.HasParticipant("a"))

	article := (&Article{ID: "a1", AuthorID: "w"}).Item()
	assert.Nil(t, article.IsAllClasses)
	assert.Equal(t, notification.KindArticle, article.Kind)
}
