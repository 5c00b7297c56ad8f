package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/techagentng/firesafe/config"
	"github.com/techagentng/firesafe/db"
	"github.com/techagentng/firesafe/eventbus"
	"github.com/techagentng/firesafe/metrics"
	"github.com/techagentng/firesafe/models"
)

const (
	defaultPushBody = "Read the latest fire-safety guidance."
	pushIcon        = "/icons/icon-192x192.png"
	pushBadge       = "/icons/badge-72x72.png"
)

type NotificationService interface {
	HandlePublishedPost(ctx context.Context, record models.BlogRecord) (*models.FanoutResult, error)
	Subscribe(req *models.PushSubscriptionRequest, userID *uint) (*models.PushToken, error)
	Unsubscribe(subscription string) error
	// Listen fans out every post published through the admin API.
	Listen(bus eventbus.Bus) func()
}

type notificationService struct {
	Config        *config.Config
	tokenRepo     db.PushTokenRepository
	senderFactory SenderFactory
	log           *logrus.Logger
}

func NewNotificationService(tokenRepo db.PushTokenRepository, factory SenderFactory, conf *config.Config, log *logrus.Logger) NotificationService {
	return &notificationService{
		Config:        conf,
		tokenRepo:     tokenRepo,
		senderFactory: factory,
		log:           log,
	}
}

// HandlePublishedPost sends one notification about record to every stored
// subscription. Records that are not published are skipped. All deliveries
// run concurrently and every outcome is collected; subscriptions reported
// gone are deleted, other failures are only logged.
func (n *notificationService) HandlePublishedPost(ctx context.Context, record models.BlogRecord) (*models.FanoutResult, error) {
	if record.Status != models.BlogStatusPublished {
		return &models.FanoutResult{Skipped: true}, nil
	}

	senders, err := n.senderFactory(ctx)
	if err != nil {
		return nil, err
	}

	tokens, err := n.tokenRepo.ListTokens()
	if err != nil {
		return nil, fmt.Errorf("load push tokens: %w", err)
	}
	if len(tokens) == 0 {
		return &models.FanoutResult{}, nil
	}

	payload := n.BuildPostNotification(record)
	outcomes := make([]error, len(tokens))

	var wg sync.WaitGroup
	for i, token := range tokens {
		wg.Add(1)
		go func(i int, token models.PushToken) {
			defer wg.Done()
			sender, ok := senders[providerOf(token)]
			if !ok {
				outcomes[i] = fmt.Errorf("no sender for provider %q", token.Provider)
				return
			}
			outcomes[i] = sender.Send(ctx, token.Subscription, payload)
		}(i, token)
	}
	wg.Wait()

	result := &models.FanoutResult{}
	for i, outcome := range outcomes {
		if outcome == nil {
			result.Sent++
			continue
		}
		result.Failed++
		entry := n.log.WithError(outcome).WithFields(logrus.Fields{
			"token_id": tokens[i].ID,
			"provider": providerOf(tokens[i]),
			"slug":     record.Slug,
		})

		var deliveryErr *DeliveryError
		if errors.As(outcome, &deliveryErr) && deliveryErr.Gone() {
			if err := n.tokenRepo.DeleteToken(tokens[i].ID); err != nil {
				entry.WithField("delete_error", err.Error()).Error("unable to prune gone subscription")
				continue
			}
			result.Pruned++
			entry.Info("pruned gone subscription")
			continue
		}
		entry.Warn("push delivery failed")
	}

	metrics.PushDeliveries.WithLabelValues("sent").Add(float64(result.Sent))
	metrics.PushDeliveries.WithLabelValues("failed").Add(float64(result.Failed))
	metrics.PushDeliveries.WithLabelValues("pruned").Add(float64(result.Pruned))
	return result, nil
}

func providerOf(token models.PushToken) string {
	if token.Provider == "" {
		return models.ProviderFCM
	}
	return token.Provider
}

// BuildPostNotification builds the single payload shared by every recipient.
func (n *notificationService) BuildPostNotification(record models.BlogRecord) models.PushNotification {
	body := strings.TrimSpace(record.Excerpt)
	if body == "" {
		body = defaultPushBody
	}
	baseURL := ""
	if n.Config != nil {
		baseURL = strings.TrimRight(n.Config.BaseUrl, "/")
	}
	return models.PushNotification{
		Title: "New safety article: " + record.Title,
		Body:  body,
		URL:   baseURL + "/blog/" + record.Slug,
		Icon:  baseURL + pushIcon,
		Badge: baseURL + pushBadge,
	}
}

func (n *notificationService) Subscribe(req *models.PushSubscriptionRequest, userID *uint) (*models.PushToken, error) {
	provider := req.Provider
	if provider == "" {
		provider = models.ProviderFCM
	}
	token := &models.PushToken{
		Provider:     provider,
		Subscription: strings.TrimSpace(req.Subscription),
		UserID:       userID,
	}
	if err := n.tokenRepo.UpsertToken(token); err != nil {
		return nil, err
	}
	return token, nil
}

func (n *notificationService) Unsubscribe(subscription string) error {
	return n.tokenRepo.DeleteBySubscription(strings.TrimSpace(subscription))
}

func (n *notificationService) Listen(bus eventbus.Bus) func() {
	return bus.Subscribe(eventbus.Blog, func(evt eventbus.Event) {
		if evt.Type != eventbus.PostPublished {
			return
		}
		var record models.BlogRecord
		if err := json.Unmarshal(evt.Payload, &record); err != nil {
			n.log.WithError(err).Warn("malformed blog event")
			return
		}
		result, err := n.HandlePublishedPost(context.Background(), record)
		if err != nil {
			n.log.WithError(err).WithField("slug", record.Slug).Error("push fan-out failed")
			return
		}
		n.log.WithFields(logrus.Fields{
			"slug":   record.Slug,
			"sent":   result.Sent,
			"failed": result.Failed,
			"pruned": result.Pruned,
		}).Info("push fan-out finished")
	})
}
