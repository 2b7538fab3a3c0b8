package app

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"slices"
	"sort"
	"sync"
	"time"

	"campus_notifier/internal/domain/content"
	"campus_notifier/internal/domain/notification"
	"campus_notifier/internal/domain/push"
	"campus_notifier/internal/domain/user"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/mock"
)

func testLogger() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

func boolPtr(b bool) *bool { return &b }

func newUser(id, classYear string, tokens ...string) *user.User {
	u := &user.User{ID: id, DisplayName: "User " + id, PushTokens: tokens}
	if classYear != "" {
		u.ClassYear = sql.NullString{String: classYear, Valid: true}
	}
	return u
}

// --- users ---

type fakeUserRepo struct {
	users   []*user.User
	prefs   map[string]notification.Preferences
	prefErr map[string]error
	listErr error
}

func (r *fakeUserRepo) ListAll(ctx context.Context) ([]*user.User, error) {
	if r.listErr != nil {
		return nil, r.listErr
	}
	return r.users, nil
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id string) (*user.User, error) {
	for _, u := range r.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, user.ErrNotFound
}

func (r *fakeUserRepo) GetPreferences(ctx context.Context, id string) (notification.Preferences, error) {
	if err := r.prefErr[id]; err != nil {
		return nil, err
	}
	return r.prefs[id], nil
}

// --- notification records ---

type fakeNotificationRepo struct {
	mu      sync.Mutex
	records []notification.Notification
	failFor map[string]error
}

func (r *fakeNotificationRepo) Create(ctx context.Context, n *notification.Notification) error {
	if err := r.failFor[n.UserID]; err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	n.CreatedAt = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	r.records = append(r.records, *n)
	return nil
}

func (r *fakeNotificationRepo) ListByUser(ctx context.Context, userID string, limit int) ([]*notification.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*notification.Notification
	for i := range r.records {
		if r.records[i].UserID == userID {
			rec := r.records[i]
			out = append(out, &rec)
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakeNotificationRepo) userIDs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]string, 0, len(r.records))
	for _, rec := range r.records {
		ids = append(ids, rec.UserID)
	}
	sort.Strings(ids)
	return ids
}

// --- scheduled jobs ---

type fakeJobRepo struct {
	mu        sync.Mutex
	jobs      map[string]*notification.ScheduledJob
	createErr error
	listErr   error
}

func newFakeJobRepo(jobs ...*notification.ScheduledJob) *fakeJobRepo {
	r := &fakeJobRepo{jobs: make(map[string]*notification.ScheduledJob)}
	for _, j := range jobs {
		r.jobs[j.ID] = j
	}
	return r
}

func (r *fakeJobRepo) CreateJob(ctx context.Context, job *notification.ScheduledJob) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	job.CreatedAt = time.Now()
	r.jobs[job.ID] = job
	return nil
}

func (r *fakeJobRepo) ListDueJobs(ctx context.Context, now time.Time) ([]*notification.ScheduledJob, error) {
	if r.listErr != nil {
		return nil, r.listErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	var due []*notification.ScheduledJob
	for _, j := range r.jobs {
		if !j.ScheduledFor.After(now) {
			due = append(due, j)
		}
	}
	slices.SortFunc(due, func(a, b *notification.ScheduledJob) int { return a.ScheduledFor.Compare(b.ScheduledFor) })
	return due, nil
}

func (r *fakeJobRepo) DeleteJob(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.jobs[id]; !ok {
		return notification.ErrJobNotFound
	}
	delete(r.jobs, id)
	return nil
}

func (r *fakeJobRepo) all() []*notification.ScheduledJob {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*notification.ScheduledJob, 0, len(r.jobs))
	for _, j := range r.jobs {
		out = append(out, j)
	}
	return out
}

// --- push backend ---

type fakePushClient struct {
	mu         sync.Mutex
	multicasts [][]string
	messages   []push.Message
	topics     []string
	// failTokens fails any chunk containing one of these tokens.
	failTokens map[string]bool
	panicOn    string
	topicErr   error
}

func (c *fakePushClient) SendMulticast(ctx context.Context, tokens []string, msg push.Message) (*push.BatchResponse, error) {
	for _, t := range tokens {
		if t == c.panicOn && c.panicOn != "" {
			panic("backend exploded")
		}
		if c.failTokens[t] {
			return nil, fmt.Errorf("backend rejected chunk")
		}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.multicasts = append(c.multicasts, slices.Clone(tokens))
	c.messages = append(c.messages, msg)
	return &push.BatchResponse{SuccessCount: len(tokens)}, nil
}

func (c *fakePushClient) SendToTopic(ctx context.Context, topic string, msg push.Message) error {
	if c.topicErr != nil {
		return c.topicErr
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.topics = append(c.topics, topic)
	return nil
}

// --- content ---

type fakeContentRepo struct {
	articles  map[string]*content.Article
	polls     map[string]*content.Poll
	proposals map[string]*content.Proposal
	events    map[string]*content.Event
	err       error
}

func (r *fakeContentRepo) GetArticle(ctx context.Context, id string) (*content.Article, error) {
	return lookup(r, r.articles, id)
}

func (r *fakeContentRepo) GetPoll(ctx context.Context, id string) (*content.Poll, error) {
	return lookup(r, r.polls, id)
}

func (r *fakeContentRepo) GetProposal(ctx context.Context, id string) (*content.Proposal, error) {
	return lookup(r, r.proposals, id)
}

func (r *fakeContentRepo) GetEvent(ctx context.Context, id string) (*content.Event, error) {
	return lookup(r, r.events, id)
}

func lookup[T any](r *fakeContentRepo, m map[string]*T, id string) (*T, error) {
	if r.err != nil {
		return nil, r.err
	}
	if v, ok := m[id]; ok {
		return v, nil
	}
	return nil, content.ErrNotFound
}

// --- notifier ---

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) Notify(ctx context.Context, req FanoutRequest) (*FanoutReport, error) {
	args := m.Called(ctx, req)
	report, _ := args.Get(0).(*FanoutReport)
	return report, args.Error(1)
}

// --- lock ---

type fakeLock struct {
	mu      sync.Mutex
	claimed map[string]bool
	err     error
}

func (l *fakeLock) Claim(ctx context.Context, jobID string, ttl time.Duration) (bool, error) {
	if l.err != nil {
		return false, l.err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.claimed == nil {
		l.claimed = make(map[string]bool)
	}
	if l.claimed[jobID] {
		return false, nil
	}
	l.claimed[jobID] = true
	return true, nil
}

// newPipeline wires the real fan-out over in-memory stores.
func newPipeline(users *fakeUserRepo, records *fakeNotificationRepo, client *fakePushClient) *NotificationServiceImpl {
	log := testLogger()
	return NewNotificationServiceImpl(
		NewRecipientResolver(users, log, 4),
		NewNotificationWriter(records, log, 4),
		NewPushDispatcher(client, log),
		log,
	)
}
