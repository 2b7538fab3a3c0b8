package notification

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPolicyFor_EveryTypeHasAKind(t *testing.T) {
	for typ := range defaultEnabled {
		p := PolicyFor(typ)
		assert.NotEmpty(t, p.Kind, "type %s", typ)
		assert.True(t, typ.Valid())
	}
	assert.False(t, Type("birthday").Valid())
	assert.Equal(t, Policy{Audience: AudienceEveryone}, PolicyFor("birthday"))
}

func TestShouldBroadcast(t *testing.T) {
	yes, no := true, false

	assert.True(t, PolicyFor(TypeArticle).ShouldBroadcast(nil))
	assert.True(t, PolicyFor(TypeArticle).ShouldBroadcast(&no))

	assert.True(t, PolicyFor(TypeNewPoll).ShouldBroadcast(&yes))
	assert.False(t, PolicyFor(TypeNewPoll).ShouldBroadcast(&no))
	assert.False(t, PolicyFor(TypeNewPoll).ShouldBroadcast(nil))

	assert.False(t, PolicyFor(TypeProposalReply).ShouldBroadcast(&yes))
	assert.False(t, PolicyFor("unknown").ShouldBroadcast(&yes))
}

func TestKindPayloadNames(t *testing.T) {
	assert.Equal(t, "pollId", KindPoll.IDKey())
	assert.Equal(t, "event_detail", KindEvent.Screen())
	assert.Equal(t, "proposals", KindProposal.Topic())
	assert.Equal(t, "", Kind("other").Topic())
}

func TestJobTypeNotificationType(t *testing.T) {
	got, ok := JobPollDeadline.NotificationType()
	assert.True(t, ok)
	assert.Equal(t, TypePollDeadline, got)

	got, ok = JobEventReminder.NotificationType()
	assert.True(t, ok)
	assert.Equal(t, TypeEventReminder, got)

	_, ok = JobType("pollResults").NotificationType()
	assert.False(t, ok)
}
