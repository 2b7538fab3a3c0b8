package notification

// defaultEnabled is the value used when a user never set a flag for a type.
var defaultEnabled = map[Type]bool{
	TypeArticle:                     true,
	TypeNewPoll:                     true,
	TypePollDeadline:                true,
	TypePollResults:                 true,
	TypeProposalEndorsement:         true,
	TypeProposalEndorsementComplete: true,
	TypeProposalReply:               true,
	TypeNewEvent:                    true,
	TypeEventReminder:               true,
}

// preferenceFields maps types to the flag names stored on user documents.
var preferenceFields = map[Type]string{
	TypeArticle:                     "notifyArticle",
	TypeNewPoll:                     "notifyNewPoll",
	TypePollDeadline:                "notifyPollDeadline",
	TypePollResults:                 "notifyPollResults",
	TypeProposalEndorsement:         "notifyProposalEndorsement",
	TypeProposalEndorsementComplete: "notifyProposalEndorsementComplete",
	TypeProposalReply:               "notifyProposalReply",
	TypeNewEvent:                    "notifyNewEvent",
	TypeEventReminder:               "notifyEventReminder",
}

// Preferences holds the explicit per-type flags of one user.
type Preferences map[Type]bool

// DefaultEnabled reports the default for t. Unknown types are enabled.
func DefaultEnabled(t Type) bool {
	if v, ok := defaultEnabled[t]; ok {
		return v
	}
	return true
}

// Allows reports whether the user wants notifications of type t.
func (p Preferences) Allows(t Type) bool {
	if v, ok := p[t]; ok {
		return v
	}
	return DefaultEnabled(t)
}

// PreferencesFromFields converts stored flag names (notifyNewPoll, ...) into
// typed preferences. Unknown field names are ignored.
func PreferencesFromFields(fields map[string]bool) Preferences {
	prefs := make(Preferences, len(fields))
	for t, name := range preferenceFields {
		if v, ok := fields[name]; ok {
			prefs[t] = v
		}
	}
	return prefs
}

// Fields is the inverse of PreferencesFromFields.
func (p Preferences) Fields() map[string]bool {
	fields := make(map[string]bool, len(p))
	for t, v := range p {
		if name, ok := preferenceFields[t]; ok {
			fields[name] = v
		}
	}
	return fields
}
