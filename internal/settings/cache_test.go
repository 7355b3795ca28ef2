package settings

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/spec-kit/ticketbot/internal/domain"
	"github.com/spec-kit/ticketbot/internal/testutil"
)

func TestGetReturnsDefaultsWithoutWriting(t *testing.T) {
	store := testutil.NewSettingsStore()
	cache := NewCache(store)

	s, err := cache.Get(context.Background(), "g1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if s.IsEnabled || s.TicketNameFormat != domain.DefaultTicketNameFormat || s.GuildID != "g1" {
		t.Fatalf("defaults = %+v", s)
	}
	if _, upserts := store.Counts(); upserts != 0 {
		t.Fatalf("defaults were written (%d upserts)", upserts)
	}
}

func TestGetCachesUntilInvalidated(t *testing.T) {
	store := testutil.NewSettingsStore()
	cache := NewCache(store)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := cache.Get(ctx, "g1"); err != nil {
			t.Fatalf("Get: %v", err)
		}
	}
	if gets, _ := store.Counts(); gets != 1 {
		t.Fatalf("store gets = %d, want 1", gets)
	}

	cache.Invalidate("g1")
	if _, err := cache.Get(ctx, "g1"); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if gets, _ := store.Counts(); gets != 2 {
		t.Fatalf("store gets = %d, want 2", gets)
	}
}

type recordingNotifier struct {
	mu     sync.Mutex
	guilds []string
	err    error
}

func (n *recordingNotifier) PublishSettingsChanged(_ context.Context, guildID string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.guilds = append(n.guilds, guildID)
	return n.err
}

func TestUpdateIsVisibleToNextRead(t *testing.T) {
	store := testutil.NewSettingsStore()
	notifier := &recordingNotifier{}
	cache := NewCache(store, WithNotifier(notifier))
	ctx := context.Background()

	before, _ := cache.Get(ctx, "g1")
	before.IsEnabled = true
	before.TicketNameFormat = "support-{number}"
	if _, err := cache.Update(ctx, before); err != nil {
		t.Fatalf("Update: %v", err)
	}

	after, err := cache.Get(ctx, "g1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !after.IsEnabled || after.ChannelName(3) != "support-3" {
		t.Fatalf("stale read after update: %+v", after)
	}
	if len(notifier.guilds) != 1 || notifier.guilds[0] != "g1" {
		t.Fatalf("notifications = %v", notifier.guilds)
	}
}

func TestUpdateSurvivesBroadcastFailure(t *testing.T) {
	store := testutil.NewSettingsStore()
	cache := NewCache(store, WithNotifier(&recordingNotifier{err: errors.New("redis down")}))

	s := domain.DefaultSettings("g1")
	s.IsEnabled = true
	if _, err := cache.Update(context.Background(), s); err != nil {
		t.Fatalf("Update: %v", err)
	}
	got, _ := cache.Get(context.Background(), "g1")
	if !got.IsEnabled {
		t.Fatal("local cache not refreshed")
	}
}

func TestInFlightLoadDoesNotResurrectStaleValue(t *testing.T) {
	store := testutil.NewSettingsStore()
	cache := NewCache(store)
	ctx := context.Background()

	old := domain.DefaultSettings("g1")
	old.WelcomeMessage = "old"
	_ = store.Upsert(ctx, &old)

	entered := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	store.BeforeGet = func(string) {
		once.Do(func() {
			close(entered)
			<-release
		})
	}

	done := make(chan domain.GuildTicketSettings)
	go func() {
		s, _ := cache.Get(ctx, "g1")
		done <- s
	}()
	<-entered

	// The slow load has read nothing yet; let it finish after a write lands.
	fresh := old
	fresh.WelcomeMessage = "new"
	_ = store.Upsert(ctx, &fresh)
	cache.Invalidate("g1")

	// Make the slow load observe the old row, as a real racing read could.
	_ = store.Upsert(ctx, &old)
	close(release)
	<-done
	_ = store.Upsert(ctx, &fresh)

	got, err := cache.Get(ctx, "g1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.WelcomeMessage != "new" {
		t.Fatalf("cached value from before invalidation: %q", got.WelcomeMessage)
	}
}

func TestCancelledCallerDoesNotFailSharedLoad(t *testing.T) {
	store := testutil.NewSettingsStore()
	cache := NewCache(store)

	saved := domain.DefaultSettings("g1")
	saved.WelcomeMessage = "hello"
	_ = store.Upsert(context.Background(), &saved)

	entered := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	store.BeforeGet = func(string) {
		once.Do(func() {
			close(entered)
			<-release
		})
	}

	firstCtx, cancelFirst := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := cache.Get(firstCtx, "g1")
		firstErr <- err
	}()
	<-entered

	type result struct {
		s   domain.GuildTicketSettings
		err error
	}
	second := make(chan result, 1)
	go func() {
		s, err := cache.Get(context.Background(), "g1")
		second <- result{s, err}
	}()
	time.Sleep(20 * time.Millisecond)

	cancelFirst()
	if err := <-firstErr; !errors.Is(err, context.Canceled) {
		t.Fatalf("first caller err = %v, want context.Canceled", err)
	}
	close(release)

	res := <-second
	if res.err != nil {
		t.Fatalf("second caller: %v", res.err)
	}
	if res.s.WelcomeMessage != "hello" {
		t.Fatalf("second caller got %q", res.s.WelcomeMessage)
	}
}

func TestConcurrentReads(t *testing.T) {
	store := testutil.NewSettingsStore()
	store.BeforeGet = func(string) { time.Sleep(time.Millisecond) }
	cache := NewCache(store)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%10 == 0 {
				cache.Invalidate("g1")
			}
			if _, err := cache.Get(ctx, "g1"); err != nil {
				t.Errorf("Get: %v", err)
			}
		}(i)
	}
	wg.Wait()
}

type chanSubscriber struct {
	guilds chan string
}

func (s chanSubscriber) Subscribe(ctx context.Context, handler func(context.Context, string)) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case g := <-s.guilds:
			handler(ctx, g)
		}
	}
}

func TestListenInvalidatesOnRemoteNotice(t *testing.T) {
	store := testutil.NewSettingsStore()
	cache := NewCache(store)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	_, _ = cache.Get(ctx, "g1")

	sub := chanSubscriber{guilds: make(chan string)}
	errCh := make(chan error, 1)
	go func() { errCh <- cache.Listen(ctx, sub) }()

	// Another process writes directly to the shared store.
	remote := domain.DefaultSettings("g1")
	remote.IsEnabled = true
	_ = store.Upsert(ctx, &remote)
	sub.guilds <- "g1"
	// Unbuffered send returned, so the handler has started; a second send
	// guarantees the first handler finished.
	sub.guilds <- "other"

	got, _ := cache.Get(ctx, "g1")
	if !got.IsEnabled {
		t.Fatal("remote change not observed")
	}

	cancel()
	if err := <-errCh; !errors.Is(err, context.Canceled) {
		t.Fatalf("Listen err = %v", err)
	}
}
