package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

type recordingObserver struct {
	mu      sync.Mutex
	created int
	ended   map[string]int
}

func (o *recordingObserver) SessionCreated() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.created++
}

func (o *recordingObserver) SessionEnded(reason string, lifetime time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.ended == nil {
		o.ended = make(map[string]int)
	}
	o.ended[reason]++
}

// testClock is a manually advanced clock for expiry tests.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func setupManager(timeout time.Duration) (*Manager, *recordingObserver, *testClock) {
	observer := &recordingObserver{}
	clock := &testClock{now: time.Now()}
	m := NewManager(NewMemoryStore(zerolog.Nop()), ManagerConfig{
		SessionTimeout: timeout,
		Observer:       observer,
	}, zerolog.Nop())
	m.now = clock.Now
	return m, observer, clock
}

func TestManager_CreateAndValidate(t *testing.T) {
	m, observer, clock := setupManager(time.Hour)
	ctx := context.Background()

	info := ClientInfo{Name: "inspector", Version: "0.9", RemoteAddr: "127.0.0.1:9999"}
	created, err := m.Create(ctx, "2025-06-18", info)
	if err != nil {
		t.Fatalf("Failed to create session: %v", err)
	}

	if created.ProtocolVersion != "2025-06-18" {
		t.Errorf("Expected protocol version 2025-06-18, got %s", created.ProtocolVersion)
	}
	if !created.ExpiresAt.Equal(clock.Now().Add(time.Hour)) {
		t.Errorf("Unexpected expiry %v", created.ExpiresAt)
	}
	if observer.created != 1 {
		t.Errorf("Expected 1 created event, got %d", observer.created)
	}

	clock.Advance(30 * time.Minute)
	validated, err := m.Validate(ctx, created.ID)
	if err != nil {
		t.Fatalf("Failed to validate session: %v", err)
	}
	if validated.ClientInfo != info {
		t.Errorf("Expected client info %+v, got %+v", info, validated.ClientInfo)
	}
	if !validated.ExpiresAt.Equal(clock.Now().Add(time.Hour)) {
		t.Errorf("Expected expiry to be refreshed, got %v", validated.ExpiresAt)
	}
}

func TestManager_ValidateRefreshKeepsSessionAlive(t *testing.T) {
	m, _, clock := setupManager(time.Minute)
	ctx := context.Background()

	created, _ := m.Create(ctx, "2025-03-26", ClientInfo{})

	for i := 0; i < 5; i++ {
		clock.Advance(45 * time.Second)
		if _, err := m.Validate(ctx, created.ID); err != nil {
			t.Fatalf("Validation %d failed: %v", i, err)
		}
	}
}

func TestManager_ValidateExpired(t *testing.T) {
	m, observer, clock := setupManager(time.Minute)
	ctx := context.Background()

	created, _ := m.Create(ctx, "2025-06-18", ClientInfo{})
	clock.Advance(2 * time.Minute)

	_, err := m.Validate(ctx, created.ID)
	if Code(err) != ErrExpired {
		t.Fatalf("Expected %s, got %v", ErrExpired, err)
	}

	// The expired session is gone, so a retry reports it as unknown.
	_, err = m.Validate(ctx, created.ID)
	if Code(err) != ErrNotFound {
		t.Errorf("Expected %s after expiry, got %v", ErrNotFound, err)
	}
	if observer.ended[EndExpired] != 1 {
		t.Errorf("Expected 1 expired event, got %d", observer.ended[EndExpired])
	}
}

func TestManager_ValidateUnknownAndMalformed(t *testing.T) {
	m, _, _ := setupManager(time.Hour)
	ctx := context.Background()

	if _, err := m.Validate(ctx, "garbage"); Code(err) != ErrInvalid {
		t.Errorf("Expected %s for malformed ID, got %v", ErrInvalid, err)
	}

	unknown, _ := GenerateID(time.Now())
	if _, err := m.Validate(ctx, unknown); Code(err) != ErrNotFound {
		t.Errorf("Expected %s for unknown ID, got %v", ErrNotFound, err)
	}
}

func TestManager_Delete(t *testing.T) {
	m, observer, _ := setupManager(time.Hour)
	ctx := context.Background()

	created, _ := m.Create(ctx, "2025-06-18", ClientInfo{})

	if err := m.Delete(ctx, created.ID); err != nil {
		t.Fatalf("Failed to delete session: %v", err)
	}
	if err := m.Delete(ctx, created.ID); Code(err) != ErrNotFound {
		t.Errorf("Expected %s on second delete, got %v", ErrNotFound, err)
	}
	if observer.ended[EndDeleted] != 1 {
		t.Errorf("Expected 1 deleted event, got %d", observer.ended[EndDeleted])
	}

	count, _ := m.Count(ctx)
	if count != 0 {
		t.Errorf("Expected 0 sessions, got %d", count)
	}
}

func TestManager_CleanupExpired(t *testing.T) {
	m, observer, clock := setupManager(time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		m.Create(ctx, "2025-06-18", ClientInfo{})
	}
	clock.Advance(2 * time.Minute)
	fresh, _ := m.Create(ctx, "2025-06-18", ClientInfo{})

	deleted, err := m.CleanupExpired(ctx)
	if err != nil {
		t.Fatalf("Cleanup failed: %v", err)
	}
	if deleted != 3 {
		t.Errorf("Expected 3 deleted sessions, got %d", deleted)
	}
	if observer.ended[EndExpired] != 3 {
		t.Errorf("Expected 3 expired events, got %d", observer.ended[EndExpired])
	}

	if _, err := m.Validate(ctx, fresh.ID); err != nil {
		t.Errorf("Fresh session should survive cleanup: %v", err)
	}
}

func TestContext(t *testing.T) {
	if _, ok := FromContext(context.Background()); ok {
		t.Error("Expected no session in empty context")
	}

	s := &Session{ID: "sess.1.abc"}
	got, ok := FromContext(NewContext(context.Background(), s))
	if !ok || got != s {
		t.Errorf("Expected session %v from context, got %v", s, got)
	}
}

// racingStore runs a hook just before the next Touch, standing in for a
// request that lands while a validation is in flight.
type racingStore struct {
	Store
	beforeTouch func()
}

func (s *racingStore) Touch(ctx context.Context, sessionID string, now time.Time, timeout time.Duration) (*Session, error) {
	if hook := s.beforeTouch; hook != nil {
		s.beforeTouch = nil
		hook()
	}
	return s.Store.Touch(ctx, sessionID, now, timeout)
}

func TestManager_DeleteDuringValidateStaysDeleted(t *testing.T) {
	observer := &recordingObserver{}
	clock := &testClock{now: time.Now()}
	store := &racingStore{Store: NewMemoryStore(zerolog.Nop())}
	m := NewManager(store, ManagerConfig{SessionTimeout: time.Minute, Observer: observer}, zerolog.Nop())
	m.now = clock.Now
	ctx := context.Background()

	created, _ := m.Create(ctx, "2025-06-18", ClientInfo{})
	store.beforeTouch = func() {
		if err := m.Delete(ctx, created.ID); err != nil {
			t.Errorf("Concurrent delete failed: %v", err)
		}
	}

	if _, err := m.Validate(ctx, created.ID); Code(err) != ErrNotFound {
		t.Fatalf("Expected %s for a session deleted mid-validation, got %v", ErrNotFound, err)
	}

	count, _ := m.Count(ctx)
	if count != 0 {
		t.Fatalf("Deleted session came back, store holds %d", count)
	}

	clock.Advance(time.Hour)
	if n, _ := m.CleanupExpired(ctx); n != 0 {
		t.Errorf("Expected nothing left to expire, got %d", n)
	}
	if observer.ended[EndDeleted] != 1 || observer.ended[EndExpired] != 0 {
		t.Errorf("Expected exactly one deleted event, got %v", observer.ended)
	}
}

func TestManager_ConcurrentLifecycleEndsEachSessionOnce(t *testing.T) {
	m, observer, clock := setupManager(time.Minute)
	ctx := context.Background()

	const sessions = 30
	ids := make([]string, 0, sessions)
	for i := 0; i < sessions; i++ {
		s, err := m.Create(ctx, "2025-06-18", ClientInfo{})
		if err != nil {
			t.Fatalf("Failed to create session: %v", err)
		}
		ids = append(ids, s.ID)
	}

	var wg sync.WaitGroup
	for i, id := range ids {
		wg.Add(2)
		go func(id string) {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				m.Validate(ctx, id)
			}
		}(id)
		go func(i int, id string) {
			defer wg.Done()
			if i%2 == 0 {
				m.Delete(ctx, id)
			}
		}(i, id)
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		clock.Advance(2 * time.Minute)
		m.CleanupExpired(ctx)
	}()
	wg.Wait()
	m.CleanupExpired(ctx)

	observer.mu.Lock()
	ended := observer.ended[EndDeleted] + observer.ended[EndExpired]
	observer.mu.Unlock()

	count, _ := m.Count(ctx)
	if count != 0 {
		t.Errorf("Expected every session to be gone, %d remain", count)
	}
	if ended != sessions {
		t.Errorf("Expected %d end events, got %d", sessions, ended)
	}
}
