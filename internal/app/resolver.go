// internal/app/resolver.go
package app

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"campus_notifier/internal/domain/content"
	"campus_notifier/internal/domain/notification"
	"campus_notifier/internal/domain/user"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const defaultFanoutConcurrency = 32

// Recipient is a user that gets an in-app record, with the tokens it contributed.
type Recipient struct {
	UserID string
	Tokens []string
}

// Resolution is the outcome of one resolve: eligible users and the merged token set.
type Resolution struct {
	Recipients []Recipient
	Tokens     []string // deduplicated across all recipients
}

// UserIDs returns the ids of all recipients in resolution order.
func (r *Resolution) UserIDs() []string {
	ids := make([]string, len(r.Recipients))
	for i, rc := range r.Recipients {
		ids[i] = rc.UserID
	}
	return ids
}

// tokenSet is the append-only token set shared by the per-user tasks of one fan-out.
type tokenSet struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

func newTokenSet() *tokenSet {
	return &tokenSet{seen: make(map[string]struct{})}
}

func (s *tokenSet) Add(tokens ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range tokens {
		if t == "" {
			continue
		}
		s.seen[t] = struct{}{}
	}
}

// Slice returns the tokens in lexical order.
func (s *tokenSet) Slice() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.seen))
	for t := range s.seen {
		out = append(out, t)
	}
	slices.Sort(out)
	return out
}

// RecipientResolver turns a content item and notification type into the
// eligible recipients. The per-type differences (who is excluded, whether
// class scoping applies) come from notification.PolicyFor.
type RecipientResolver struct {
	users       user.Repository
	logger      *logrus.Entry
	concurrency int
}

func NewRecipientResolver(users user.Repository, logger *logrus.Entry, concurrency int) *RecipientResolver {
	if concurrency <= 0 {
		concurrency = defaultFanoutConcurrency
	}
	return &RecipientResolver{
		users:       users,
		logger:      logger.WithField("component", "recipient_resolver"),
		concurrency: concurrency,
	}
}

// Resolve returns every user that should be notified about item for type t.
// Only a failure to list users is returned; a failed preference lookup for one
// user is logged and the user is notified anyway.
func (r *RecipientResolver) Resolve(ctx context.Context, item content.Item, t notification.Type) (*Resolution, error) {
	policy := notification.PolicyFor(t)

	users, err := r.users.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	tokens := newTokenSet()
	var (
		mu         sync.Mutex
		recipients = make([]Recipient, 0, len(users))
	)

	var g errgroup.Group
	g.SetLimit(r.concurrency)
	for _, u := range users {
		if !inAudience(policy.Audience, item, u.ID) {
			continue
		}
		if policy.Scoped && !inScope(item, u) {
			continue
		}
		g.Go(func() error {
			if !r.wantsNotification(ctx, u.ID, t) {
				return nil
			}
			tokens.Add(u.PushTokens...)
			mu.Lock()
			recipients = append(recipients, Recipient{UserID: u.ID, Tokens: slices.Clone(u.PushTokens)})
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait() // tasks never fail; errors are absorbed per user

	slices.SortFunc(recipients, func(a, b Recipient) int {
		return strings.Compare(a.UserID, b.UserID)
	})

	return &Resolution{Recipients: recipients, Tokens: tokens.Slice()}, nil
}

func (r *RecipientResolver) wantsNotification(ctx context.Context, userID string, t notification.Type) bool {
	prefs, err := r.users.GetPreferences(ctx, userID)
	if err != nil {
		r.logger.WithError(err).WithFields(logrus.Fields{
			"user_id": userID,
			"type":    t,
		}).Warn("Could not read notification preferences, notifying by default")
		return true
	}
	return prefs.Allows(t)
}

func inAudience(a notification.Audience, item content.Item, userID string) bool {
	switch a {
	case notification.AudienceExcludeAuthor:
		return userID != item.AuthorID
	case notification.AudienceOnlyAuthor:
		return userID == item.AuthorID
	case notification.AudienceAuthorAndParticipants:
		return userID == item.AuthorID || item.HasParticipant(userID)
	default:
		return true
	}
}

// inScope applies the class-year restriction. Only an explicit
// IsAllClasses=false restricts the audience.
func inScope(item content.Item, u *user.User) bool {
	if item.IsAllClasses == nil || *item.IsAllClasses {
		return true
	}
	return u.InClass(item.ClassScopes)
}
