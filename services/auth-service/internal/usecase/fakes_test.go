package usecase

import (
	"context"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/vasapolrittideah/berberpazar/services/auth-service/internal/model"
	"github.com/vasapolrittideah/berberpazar/services/auth-service/internal/notifier"
	"github.com/vasapolrittideah/berberpazar/services/auth-service/internal/repository"
	"github.com/vasapolrittideah/berberpazar/services/auth-service/internal/token"
	"github.com/vasapolrittideah/berberpazar/shared/auth"
	"github.com/vasapolrittideah/berberpazar/shared/identifier"
)

// memoryUserRepository is an in-memory repository.UserRepository enforcing the same
// uniqueness rules as the real stores.
type memoryUserRepository struct {
	mu     sync.Mutex
	nextID int64
	users  map[int64]*model.User
}

func newMemoryUserRepository() *memoryUserRepository {
	return &memoryUserRepository{users: map[int64]*model.User{}}
}

func clone(u *model.User) *model.User {
	c := *u
	return &c
}

func eq(p *string, v string) bool { return p != nil && *p == v }

func (r *memoryUserRepository) conflict(id int64, email string, secondary, phone *string) error {
	for _, u := range r.users {
		if u.ID == id {
			continue
		}
		if email != "" && u.Email == email {
			return repository.ErrDuplicateEmail
		}
		if secondary != nil && eq(u.SecondaryEmail, *secondary) {
			return repository.ErrDuplicateSecondaryEmail
		}
		if phone != nil && eq(u.Phone, *phone) {
			return repository.ErrDuplicatePhone
		}
	}
	return nil
}

func (r *memoryUserRepository) CreateUser(_ context.Context, user *model.User) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.conflict(0, user.Email, user.SecondaryEmail, user.Phone); err != nil {
		return nil, err
	}

	r.nextID++
	user.ID = r.nextID
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	r.users[user.ID] = clone(user)

	return user, nil
}

func (r *memoryUserRepository) GetUser(_ context.Context, id int64) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	return clone(u), nil
}

func (r *memoryUserRepository) GetUserByEmail(_ context.Context, email string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if u.Email == email {
			return clone(u), nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (r *memoryUserRepository) FindUserByIdentifier(_ context.Context, id identifier.Identifier) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Same precedence as the real stores: primary email first, then lowest id.
	rank := func(u *model.User) int {
		switch {
		case id.Kind == identifier.KindEmail && u.Email == id.Email:
			return 2
		case id.Kind == identifier.KindEmail && eq(u.SecondaryEmail, id.Email),
			id.Kind == identifier.KindPhone && eq(u.Phone, id.Phone):
			return 1
		default:
			return 0
		}
	}

	var found *model.User
	for _, u := range r.users {
		score := rank(u)
		if score == 0 {
			continue
		}
		if found == nil || score > rank(found) || (score == rank(found) && u.ID < found.ID) {
			found = u
		}
	}

	if found == nil {
		return nil, repository.ErrUserNotFound
	}
	return clone(found), nil
}

func (r *memoryUserRepository) UpdateUser(
	_ context.Context,
	id int64,
	params repository.UpdateUserParams,
) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}

	if err := r.conflict(id, "", nonBlank(params.SecondaryEmail), nonBlank(params.Phone)); err != nil {
		return nil, err
	}

	apply := func(dst **string, v *string) {
		if v == nil {
			return
		}
		if *v == "" {
			*dst = nil
			return
		}
		s := *v
		*dst = &s
	}
	apply(&u.SecondaryEmail, params.SecondaryEmail)
	apply(&u.Phone, params.Phone)
	apply(&u.Name, params.Name)
	apply(&u.City, params.City)
	apply(&u.AvatarURL, params.AvatarURL)
	apply(&u.PasswordHash, params.PasswordHash)
	u.UpdatedAt = time.Now()

	return clone(u), nil
}

func (r *memoryUserRepository) Ping(context.Context) error { return nil }

func nonBlank(p *string) *string {
	if p == nil || *p == "" {
		return nil
	}
	return p
}

// recordingNotifier wraps a real dispatcher and keeps every delivered message.
type recordingNotifier struct {
	dispatcher *notifier.Dispatcher
	messages   []notifier.Message
	channels   []string
}

func (n *recordingNotifier) Deliver(
	ctx context.Context,
	kind identifier.Kind,
	user *model.User,
	msg notifier.Message,
) (string, error) {
	channel, err := n.dispatcher.Deliver(ctx, kind, user, msg)
	if err == nil {
		n.messages = append(n.messages, msg)
		n.channels = append(n.channels, channel)
	}
	return channel, err
}

type stubChannel struct {
	name      string
	available bool
}

func (c *stubChannel) Name() string                                 { return c.name }
func (c *stubChannel) Available() bool                              { return c.available }
func (c *stubChannel) Send(context.Context, notifier.Message) error { return nil }

type testClock struct{ now time.Time }

func (c *testClock) Now() time.Time { return c.now }

type fixture struct {
	repo    *memoryUserRepository
	clock   *testClock
	auth    AuthUsecase
	reset   *passwordResetUsecase
	notify  *recordingNotifier
	delayed int
}

type channels struct{ whatsApp, sms, email bool }

func newFixture(t *testing.T, ch channels) *fixture {
	t.Helper()

	logger := zerolog.Nop()
	clock := &testClock{now: time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)}
	jwtAuth := auth.NewJWTAuthenticator("berberpazar", "berberpazar", auth.WithClock(clock.Now))

	sessions, err := token.NewSessionTokens(jwtAuth, "test-secret")
	require.NoError(t, err)
	resets, err := token.NewResetTokens(jwtAuth, "test-secret")
	require.NoError(t, err)

	repo := newMemoryUserRepository()
	rec := &recordingNotifier{dispatcher: notifier.NewDispatcher(&logger,
		&stubChannel{name: notifier.ChannelWhatsApp, available: ch.whatsApp},
		&stubChannel{name: notifier.ChannelSMS, available: ch.sms},
		&stubChannel{name: notifier.ChannelEmail, available: ch.email},
	)}

	f := &fixture{repo: repo, clock: clock, notify: rec}
	f.auth = NewAuthUsecase(repo, sessions, nil, &logger)
	f.reset = NewPasswordResetUsecase(repo, resets, rec, "https://berberpazar.test/", &logger).(*passwordResetUsecase)
	f.reset.delay = func(context.Context) error {
		f.delayed++
		return nil
	}

	return f
}

// lastResetToken extracts the token from the most recent reset link.
func (f *fixture) lastResetToken(t *testing.T) string {
	t.Helper()
	require.NotEmpty(t, f.notify.messages)

	text := f.notify.messages[len(f.notify.messages)-1].Text
	_, rest, ok := strings.Cut(text, "/reset?token=")
	require.True(t, ok, text)
	raw, _, _ := strings.Cut(rest, "\n")

	tokenStr, err := url.QueryUnescape(raw)
	require.NoError(t, err)
	return tokenStr
}

func repositoryParams(secondaryEmail *string) repository.UpdateUserParams {
	return repository.UpdateUserParams{SecondaryEmail: secondaryEmail}
}
