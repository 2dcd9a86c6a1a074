package services

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"livedesk/internal/domain"
	"livedesk/internal/repository"
	livedesk_errors "livedesk/pkg/errors"
	"livedesk/pkg/events"

	"github.com/google/uuid"
)

// fakeConversationRepo mirrors the conditional-write semantics of the
// Postgres implementation, including the partial unique indexes.
type fakeConversationRepo struct {
	mu    sync.Mutex
	items map[uuid.UUID]domain.Conversation

	// hideActiveOnce makes the next FindActiveByCustomer miss, simulating
	// the read-then-create race.
	hideActiveOnce bool

	// beforeAssign runs inside Assign before the compare-and-swap,
	// simulating a concurrent writer.
	beforeAssign func()
}

func newFakeConversationRepo() *fakeConversationRepo {
	return &fakeConversationRepo{items: map[uuid.UUID]domain.Conversation{}}
}

func (f *fakeConversationRepo) put(c domain.Conversation) {
	f.mu.Lock()
	f.items[c.ID] = c
	f.mu.Unlock()
}

func (f *fakeConversationRepo) get(id uuid.UUID) domain.Conversation {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.items[id]
}

func (f *fakeConversationRepo) Create(ctx context.Context, c *domain.Conversation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.items {
		if existing.CustomerID == c.CustomerID && existing.IsActive() {
			return livedesk_errors.ErrAlreadyExists
		}
	}
	f.items[c.ID] = *c
	return nil
}

func (f *fakeConversationRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.items[id]
	if !ok {
		return domain.Conversation{}, livedesk_errors.ErrNotFound
	}
	return c, nil
}

func (f *fakeConversationRepo) FindActiveByCustomer(ctx context.Context, customerID uuid.UUID) (domain.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.hideActiveOnce {
		f.hideActiveOnce = false
		return domain.Conversation{}, livedesk_errors.ErrNotFound
	}
	for _, c := range f.items {
		if c.CustomerID == customerID && c.IsActive() {
			return c, nil
		}
	}
	return domain.Conversation{}, livedesk_errors.ErrNotFound
}

func (f *fakeConversationRepo) FindOpenByAgent(ctx context.Context, agentID uuid.UUID) (domain.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.items {
		if c.Phase == domain.PhaseOpen && c.AgentID != nil && *c.AgentID == agentID {
			return c, nil
		}
	}
	return domain.Conversation{}, livedesk_errors.ErrNotFound
}

func (f *fakeConversationRepo) FindPendingOldestFirst(ctx context.Context) ([]domain.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var pending []domain.Conversation
	for _, c := range f.items {
		if c.Phase == domain.PhasePending {
			pending = append(pending, c)
		}
	}
	sort.Slice(pending, func(i, j int) bool {
		return pending[i].CreatedAt.Before(pending[j].CreatedAt)
	})
	return pending, nil
}

func (f *fakeConversationRepo) CountPending(ctx context.Context) (int64, error) {
	items, _ := f.FindPendingOldestFirst(ctx)
	return int64(len(items)), nil
}

func (f *fakeConversationRepo) UpdateSubject(ctx context.Context, id uuid.UUID, subject string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.items[id]
	if !ok || c.Phase != domain.PhasePending {
		return livedesk_errors.ErrNotFound
	}
	c.Subject = &subject
	f.items[id] = c
	return nil
}

func (f *fakeConversationRepo) Assign(ctx context.Context, id, agentID uuid.UUID, fromPhase domain.Phase, fromAgent *uuid.UUID) error {
	if f.beforeAssign != nil {
		f.beforeAssign()
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	c, ok := f.items[id]
	if !ok {
		return livedesk_errors.ErrNotFound
	}

	for _, other := range f.items {
		if other.ID != id && other.Phase == domain.PhaseOpen && other.AgentID != nil && *other.AgentID == agentID {
			return livedesk_errors.ErrAgentBusy
		}
	}

	if c.Phase != fromPhase {
		return livedesk_errors.ErrAlreadyAssigned
	}
	if (fromAgent == nil) != (c.AgentID == nil) {
		return livedesk_errors.ErrAlreadyAssigned
	}
	if fromAgent != nil && c.AgentID != nil && *fromAgent != *c.AgentID {
		return livedesk_errors.ErrAlreadyAssigned
	}

	c.Phase = domain.PhaseOpen
	c.AgentID = &agentID
	c.UpdatedAt = time.Now()
	f.items[id] = c
	return nil
}

func (f *fakeConversationRepo) Close(ctx context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.items[id]
	if !ok || c.Phase == domain.PhaseClosed {
		return livedesk_errors.ErrConversationClosed
	}
	c.Phase = domain.PhaseClosed
	c.UpdatedAt = time.Now()
	f.items[id] = c
	return nil
}

func (f *fakeConversationRepo) Requeue(ctx context.Context, id, agentID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.items[id]
	if !ok || c.Phase != domain.PhaseOpen || c.AgentID == nil || *c.AgentID != agentID {
		return livedesk_errors.ErrAlreadyAssigned
	}
	c.Phase = domain.PhasePending
	c.AgentID = nil
	c.UpdatedAt = time.Now()
	f.items[id] = c
	return nil
}

func (f *fakeConversationRepo) RecordMessage(ctx context.Context, id uuid.UUID, at time.Time, unreadFor domain.Side) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.items[id]
	if !ok {
		return livedesk_errors.ErrNotFound
	}
	c.LastMessageAt = &at
	if unreadFor == domain.SideCustomer {
		c.UnreadByCustomer++
	} else {
		c.UnreadByAgent++
	}
	f.items[id] = c
	return nil
}

func (f *fakeConversationRepo) ResetUnread(ctx context.Context, id uuid.UUID, side domain.Side) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.items[id]
	if !ok {
		return livedesk_errors.ErrNotFound
	}
	if side == domain.SideCustomer {
		c.UnreadByCustomer = 0
	} else {
		c.UnreadByAgent = 0
	}
	f.items[id] = c
	return nil
}

type fakeMessageRepo struct {
	mu    sync.Mutex
	items []domain.Message
}

func newFakeMessageRepo() *fakeMessageRepo {
	return &fakeMessageRepo{}
}

func (f *fakeMessageRepo) Create(ctx context.Context, m *domain.Message) error {
	f.mu.Lock()
	f.items = append(f.items, *m)
	f.mu.Unlock()
	return nil
}

func (f *fakeMessageRepo) ListChronological(ctx context.Context, conversationID uuid.UUID, limit int) ([]domain.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Message
	for _, m := range f.items {
		if m.ConversationID == conversationID {
			out = append(out, m)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeMessageRepo) ListLatestFirst(ctx context.Context, conversationID uuid.UUID, limit int) ([]domain.Message, error) {
	out, _ := f.ListChronological(ctx, conversationID, 0)
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeMessageRepo) MarkRead(ctx context.Context, conversationID uuid.UUID, reader domain.Side, customerID uuid.UUID, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, m := range f.items {
		if m.ConversationID != conversationID || m.ReadAt != nil {
			continue
		}
		senderIsCustomer := m.SenderID == customerID
		if reader == domain.SideCustomer && !senderIsCustomer {
			t := at
			f.items[i].ReadAt = &t
		}
		if reader == domain.SideAgent && senderIsCustomer {
			t := at
			f.items[i].ReadAt = &t
		}
	}
	return nil
}

func (f *fakeMessageRepo) all(conversationID uuid.UUID) []domain.Message {
	out, _ := f.ListChronological(context.Background(), conversationID, 0)
	return out
}

type fakeUserRepo struct {
	mu    sync.Mutex
	items map[uuid.UUID]domain.User
}

func newFakeUserRepo(users ...domain.User) *fakeUserRepo {
	f := &fakeUserRepo{items: map[uuid.UUID]domain.User{}}
	for _, u := range users {
		f.items[u.ID] = u
	}
	return f
}

func (f *fakeUserRepo) Create(ctx context.Context, u *domain.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.items {
		if existing.Email != nil && u.Email != nil && *existing.Email == *u.Email {
			return livedesk_errors.ErrAlreadyExists
		}
	}
	f.items[u.ID] = *u
	return nil
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.items[id]
	if !ok {
		return domain.User{}, livedesk_errors.ErrNotFound
	}
	return u, nil
}

func (f *fakeUserRepo) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.items {
		if u.Email != nil && *u.Email == email {
			return u, nil
		}
	}
	return domain.User{}, livedesk_errors.ErrNotFound
}

func (f *fakeUserRepo) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.items[id]
	if !ok {
		return livedesk_errors.ErrNotFound
	}
	u.IsActive = active
	f.items[id] = u
	return nil
}

// recordingPublisher captures everything the notifier broadcasts.
type recordingPublisher struct {
	mu       sync.Mutex
	fail     bool
	captured []capturedEvent
}

type capturedEvent struct {
	Channel string
	Event   events.Event
}

func (p *recordingPublisher) Publish(ctx context.Context, channel string, event events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail {
		return fmt.Errorf("broker down")
	}
	p.captured = append(p.captured, capturedEvent{Channel: channel, Event: event})
	return nil
}

func (p *recordingPublisher) channelsFor(eventType string) []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []string
	for _, c := range p.captured {
		if c.Event.Type == eventType {
			out = append(out, c.Channel)
		}
	}
	return out
}

// testEnv wires the services over the fakes with no database handle, so
// withTx runs the closure directly.
type testEnv struct {
	conversations *fakeConversationRepo
	messages      *fakeMessageRepo
	users         *fakeUserRepo
	publisher     *recordingPublisher

	lifecycle *LifecycleService
	msgs      *MessageService
	queue     *QueueService
	responder *ResponderService
}

func newTestEnv(users ...domain.User) *testEnv {
	env := &testEnv{
		conversations: newFakeConversationRepo(),
		messages:      newFakeMessageRepo(),
		users:         newFakeUserRepo(users...),
		publisher:     &recordingPublisher{},
	}
	notifier := NewNotifier(env.publisher, nil)
	env.lifecycle = NewLifecycleService(nil, env.conversations, env.messages, env.users, notifier)
	env.msgs = NewMessageService(nil, env.conversations, env.messages, notifier)
	env.queue = NewQueueService(env.conversations)
	env.responder = NewResponderService(env.msgs, env.lifecycle)
	return env
}

func newCustomer(name string) domain.User {
	email := name + "@example.com"
	return domain.User{
		ID:          uuid.New(),
		Email:       &email,
		DisplayName: name,
		Role:        domain.UserRoleCustomer,
		IsActive:    true,
	}
}

func newAgent(name string) domain.User {
	email := name + "@desk.example.com"
	return domain.User{
		ID:          uuid.New(),
		Email:       &email,
		DisplayName: name,
		Role:        domain.UserRoleAgent,
		IsActive:    true,
	}
}

var _ repository.ConversationRepository = (*fakeConversationRepo)(nil)
var _ repository.MessageRepository = (*fakeMessageRepo)(nil)
var _ repository.UserRepository = (*fakeUserRepo)(nil)
