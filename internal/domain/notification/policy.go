package notification

// Audience selects which users are candidates before preference and scope checks.
type Audience int

const (
	AudienceEveryone Audience = iota
	// AudienceExcludeAuthor skips the content author or creator.
	AudienceExcludeAuthor
	// AudienceOnlyAuthor keeps only the content author.
	AudienceOnlyAuthor
	// AudienceAuthorAndParticipants keeps the author plus listed participants.
	AudienceAuthorAndParticipants
)

// Policy describes how one notification type is fanned out.
type Policy struct {
	Kind     Kind
	Audience Audience
	// Scoped kinds honour the class-year restriction of the content item.
	Scoped bool
	// Broadcast allows a topic send in addition to the per-token multicast.
	Broadcast bool
}

var policies = map[Type]Policy{
	TypeArticle:                     {Kind: KindArticle, Audience: AudienceExcludeAuthor, Broadcast: true},
	TypeNewPoll:                     {Kind: KindPoll, Audience: AudienceExcludeAuthor, Scoped: true, Broadcast: true},
	TypePollDeadline:                {Kind: KindPoll, Audience: AudienceEveryone, Scoped: true, Broadcast: true},
	TypePollResults:                 {Kind: KindPoll, Audience: AudienceEveryone, Scoped: true, Broadcast: true},
	TypeProposalEndorsement:         {Kind: KindProposal, Audience: AudienceOnlyAuthor},
	TypeProposalEndorsementComplete: {Kind: KindProposal, Audience: AudienceOnlyAuthor},
	TypeProposalReply:               {Kind: KindProposal, Audience: AudienceAuthorAndParticipants},
	TypeNewEvent:                    {Kind: KindEvent, Audience: AudienceExcludeAuthor, Scoped: true, Broadcast: true},
	TypeEventReminder:               {Kind: KindEvent, Audience: AudienceEveryone, Scoped: true, Broadcast: true},
}

// PolicyFor returns the fan-out policy of t. Unknown types fall back to an
// unscoped, everyone-audience policy without broadcast.
func PolicyFor(t Type) Policy {
	if p, ok := policies[t]; ok {
		return p
	}
	return Policy{Audience: AudienceEveryone}
}

// ShouldBroadcast decides whether a topic send is allowed for the given scope flag.
// Scoped kinds only broadcast when the item is explicitly for all classes, so
// unscoped devices never see class-restricted content.
func (p Policy) ShouldBroadcast(isAllClasses *bool) bool {
	if !p.Broadcast || p.Kind.Topic() == "" {
		return false
	}
	if !p.Scoped {
		return true
	}
	return isAllClasses != nil && *isAllClasses
}
