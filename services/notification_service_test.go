package services

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/techagentng/firesafe/db"
	errs "github.com/techagentng/firesafe/errors"
	"github.com/techagentng/firesafe/eventbus"
	"github.com/techagentng/firesafe/models"
)

type fakeSender struct {
	mu       sync.Mutex
	failures map[string]error
	sent     []string
	payloads []models.PushNotification
}

func (f *fakeSender) Send(_ context.Context, subscription string, n models.PushNotification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, subscription)
	f.payloads = append(f.payloads, n)
	return f.failures[subscription]
}

func staticFactory(senders Senders) SenderFactory {
	return func(context.Context) (Senders, error) {
		return senders, nil
	}
}

func publishedRecord() models.BlogRecord {
	return models.BlogRecord{ID: 1, Status: models.BlogStatusPublished, Title: "Smoke alarms", Excerpt: "Test them monthly.", Slug: "smoke-alarms"}
}

func TestHandlePublishedPostPrunesGoneSubscriptions(t *testing.T) {
	gormDB := newTestDB(t)
	tokenRepo := db.NewPushTokenRepo(gormDB)
	for _, sub := range []string{"token-a", "token-b", "token-gone"} {
		require.NoError(t, tokenRepo.UpsertToken(&models.PushToken{Provider: models.ProviderFCM, Subscription: sub}))
	}

	fcm := &fakeSender{failures: map[string]error{
		"token-gone": &DeliveryError{StatusCode: http.StatusGone, Err: errors.New("unregistered")},
	}}
	svc := NewNotificationService(tokenRepo, staticFactory(Senders{models.ProviderFCM: fcm}), testConfig(), testLog)

	result, err := svc.HandlePublishedPost(context.Background(), publishedRecord())
	require.NoError(t, err)
	assert.Equal(t, &models.FanoutResult{Sent: 2, Failed: 1, Pruned: 1}, result)
	assert.ElementsMatch(t, []string{"token-a", "token-b", "token-gone"}, fcm.sent)

	remaining, err := tokenRepo.ListTokens()
	require.NoError(t, err)
	var subs []string
	for _, tok := range remaining {
		subs = append(subs, tok.Subscription)
	}
	assert.ElementsMatch(t, []string{"token-a", "token-b"}, subs)
}

func TestHandlePublishedPostKeepsTransientFailures(t *testing.T) {
	gormDB := newTestDB(t)
	tokenRepo := db.NewPushTokenRepo(gormDB)
	require.NoError(t, tokenRepo.UpsertToken(&models.PushToken{Provider: models.ProviderFCM, Subscription: "token-a"}))
	require.NoError(t, tokenRepo.UpsertToken(&models.PushToken{Provider: models.ProviderExpo, Subscription: "ExponentPushToken[abc]"}))

	fcm := &fakeSender{failures: map[string]error{
		"token-a": &DeliveryError{StatusCode: http.StatusServiceUnavailable, Err: errors.New("try later")},
	}}
	expoSender := &fakeSender{}
	svc := NewNotificationService(tokenRepo, staticFactory(Senders{
		models.ProviderFCM:  fcm,
		models.ProviderExpo: expoSender,
	}), testConfig(), testLog)

	result, err := svc.HandlePublishedPost(context.Background(), publishedRecord())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Sent)
	assert.Equal(t, 1, result.Failed)
	assert.Zero(t, result.Pruned)
	assert.Equal(t, []string{"ExponentPushToken[abc]"}, expoSender.sent)

	remaining, err := tokenRepo.ListTokens()
	require.NoError(t, err)
	assert.Len(t, remaining, 2)
}

func TestHandlePublishedPostSkipsDrafts(t *testing.T) {
	gormDB := newTestDB(t)
	called := false
	factory := func(context.Context) (Senders, error) {
		called = true
		return Senders{}, nil
	}
	svc := NewNotificationService(db.NewPushTokenRepo(gormDB), factory, testConfig(), testLog)

	record := publishedRecord()
	record.Status = models.BlogStatusDraft
	result, err := svc.HandlePublishedPost(context.Background(), record)
	require.NoError(t, err)
	assert.True(t, result.Skipped)
	assert.False(t, called)
}

func TestHandlePublishedPostFactoryFailure(t *testing.T) {
	gormDB := newTestDB(t)
	tokenRepo := db.NewPushTokenRepo(gormDB)
	require.NoError(t, tokenRepo.UpsertToken(&models.PushToken{Subscription: "token-a"}))

	svc := NewNotificationService(tokenRepo, NewSenderFactory(testConfig()), testConfig(), testLog)
	_, err := svc.HandlePublishedPost(context.Background(), publishedRecord())
	requireCode(t, err, errs.CodeConfiguration, http.StatusInternalServerError)

	remaining, err := tokenRepo.ListTokens()
	require.NoError(t, err)
	assert.Len(t, remaining, 1)
}

func TestBuildPostNotification(t *testing.T) {
	svc := &notificationService{Config: testConfig(), log: testLog}

	n := svc.BuildPostNotification(publishedRecord())
	assert.Equal(t, "New safety article: Smoke alarms", n.Title)
	assert.Equal(t, "Test them monthly.", n.Body)
	assert.Equal(t, "https://firesafe.example/blog/smoke-alarms", n.URL)
	assert.Equal(t, "https://firesafe.example/icons/icon-192x192.png", n.Icon)
	assert.Equal(t, "https://firesafe.example/icons/badge-72x72.png", n.Badge)

	record := publishedRecord()
	record.Excerpt = "   "
	assert.Equal(t, defaultPushBody, svc.BuildPostNotification(record).Body)
}

func TestListenFansOutPublishedPosts(t *testing.T) {
	gormDB := newTestDB(t)
	tokenRepo := db.NewPushTokenRepo(gormDB)
	require.NoError(t, tokenRepo.UpsertToken(&models.PushToken{Subscription: "token-a"}))

	fcm := &fakeSender{}
	svc := NewNotificationService(tokenRepo, staticFactory(Senders{models.ProviderFCM: fcm}), testConfig(), testLog)
	bus := eventbus.NewLocalBus(testLog)
	stop := svc.Listen(bus)
	defer stop()

	evt, err := eventbus.NewEvent(eventbus.Blog, eventbus.PostPublished, publishedRecord())
	require.NoError(t, err)
	require.NoError(t, bus.Publish(context.Background(), evt))

	assert.Eventually(t, func() bool {
		fcm.mu.Lock()
		defer fcm.mu.Unlock()
		return len(fcm.sent) == 1
	}, time.Second, 10*time.Millisecond)
}

func TestPublishedPostNotifiesOnceAcrossRedisInstances(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	gormDB := newTestDB(t)
	tokenRepo := db.NewPushTokenRepo(gormDB)
	require.NoError(t, tokenRepo.UpsertToken(&models.PushToken{Subscription: "token-a"}))
	fcm := &fakeSender{}

	var relayed int32
	blogServices := make([]BlogService, 2)
	for i := range blogServices {
		client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		t.Cleanup(func() { _ = client.Close() })

		redisBus := eventbus.NewRedisBus(client, testLog)
		go func() { _ = redisBus.Run(ctx) }()
		select {
		case <-redisBus.Ready():
		case <-time.After(2 * time.Second):
			t.Fatal("redis subscription not ready")
		}
		redisBus.Subscribe(eventbus.Blog, func(eventbus.Event) { atomic.AddInt32(&relayed, 1) })

		localBus := eventbus.NewLocalBus(testLog)
		notifications := NewNotificationService(tokenRepo, staticFactory(Senders{models.ProviderFCM: fcm}), testConfig(), testLog)
		t.Cleanup(notifications.Listen(localBus))

		blogServices[i] = NewBlogService(db.NewBlogRepo(gormDB), eventbus.Tee{redisBus, localBus}, testConfig(), testLog)
	}

	_, err := blogServices[0].CreatePost(ctx, &models.BlogPostRequest{
		Title:   strPtr("Smoke alarms"),
		Content: strPtr("Test them monthly."),
		Status:  strPtr(models.BlogStatusPublished),
	}, 1)
	require.NoError(t, err)

	// Both instances see the event for realtime clients.
	assert.Eventually(t, func() bool { return atomic.LoadInt32(&relayed) == 2 }, 2*time.Second, 10*time.Millisecond)
	assert.Eventually(t, func() bool {
		fcm.mu.Lock()
		defer fcm.mu.Unlock()
		return len(fcm.sent) == 1
	}, time.Second, 10*time.Millisecond)

	time.Sleep(100 * time.Millisecond)
	fcm.mu.Lock()
	defer fcm.mu.Unlock()
	assert.Equal(t, []string{"token-a"}, fcm.sent)
}
