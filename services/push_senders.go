package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	firebase "firebase.google.com/go"
	"firebase.google.com/go/messaging"
	expo "github.com/oliveroneill/exponent-server-sdk-golang/sdk"
	"github.com/techagentng/firesafe/config"
	errs "github.com/techagentng/firesafe/errors"
	"github.com/techagentng/firesafe/models"
	"google.golang.org/api/option"
)

// PushSender delivers one notification to one subscription.
type PushSender interface {
	Send(ctx context.Context, subscription string, n models.PushNotification) error
}

// DeliveryError is a failed delivery with the provider's HTTP-equivalent
// status. 404 and 410 mean the subscription is gone.
type DeliveryError struct {
	StatusCode int
	Err        error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("push delivery failed (status %d): %v", e.StatusCode, e.Err)
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}

func (e *DeliveryError) Gone() bool {
	return e.StatusCode == http.StatusNotFound || e.StatusCode == http.StatusGone
}

// Senders maps a provider name to its sender.
type Senders map[string]PushSender

// SenderFactory configures delivery credentials. It is called once per
// fan-out and its failure aborts that fan-out.
type SenderFactory func(ctx context.Context) (Senders, error)

// NewSenderFactory builds FCM and Expo senders from configuration. FCM needs
// a project id and a service-account file; the Expo access token is optional.
func NewSenderFactory(c *config.Config) SenderFactory {
	return func(ctx context.Context) (Senders, error) {
		if c.FirebaseProjectID == "" || c.FirebaseCredentialsFile == "" {
			return nil, errs.Configuration("firebase messaging credentials")
		}
		fcm, err := NewFCMSender(ctx, c.FirebaseProjectID, c.FirebaseCredentialsFile)
		if err != nil {
			return nil, errs.New("unable to configure firebase messaging: "+err.Error(), http.StatusInternalServerError)
		}
		return Senders{
			models.ProviderFCM:  fcm,
			models.ProviderExpo: NewExpoSender(c.ExpoAccessToken),
		}, nil
	}
}

type fcmSender struct {
	client *messaging.Client
}

func NewFCMSender(ctx context.Context, projectID, credentialsFile string) (PushSender, error) {
	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: projectID}, option.WithCredentialsFile(credentialsFile))
	if err != nil {
		return nil, fmt.Errorf("error initializing firebase app: %w", err)
	}
	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("error getting messaging client: %w", err)
	}
	return &fcmSender{client: client}, nil
}

func (f *fcmSender) Send(ctx context.Context, subscription string, n models.PushNotification) error {
	webpush := &messaging.WebpushConfig{
		Notification: &messaging.WebpushNotification{
			Title: n.Title,
			Body:  n.Body,
			Icon:  n.Icon,
			Badge: n.Badge,
		},
	}
	// FCM only accepts absolute https links here.
	if strings.HasPrefix(n.URL, "https://") {
		webpush.FcmOptions = &messaging.WebpushFcmOptions{Link: n.URL}
	}

	_, err := f.client.Send(ctx, &messaging.Message{
		Token: subscription,
		Notification: &messaging.Notification{
			Title: n.Title,
			Body:  n.Body,
		},
		Data:    map[string]string{"url": n.URL},
		Webpush: webpush,
	})
	if err == nil {
		return nil
	}
	status := http.StatusInternalServerError
	if messaging.IsRegistrationTokenNotRegistered(err) {
		status = http.StatusNotFound
	} else if messaging.IsInvalidArgument(err) {
		status = http.StatusBadRequest
	}
	return &DeliveryError{StatusCode: status, Err: err}
}

type expoSender struct {
	client *expo.PushClient
}

func NewExpoSender(accessToken string) PushSender {
	cfg := &expo.ClientConfig{}
	if accessToken != "" {
		cfg.HTTPClient = &http.Client{Transport: &bearerTransport{token: accessToken, base: http.DefaultTransport}}
	}
	return &expoSender{client: expo.NewPushClient(cfg)}
}

func (e *expoSender) Send(_ context.Context, subscription string, n models.PushNotification) error {
	token, err := expo.NewExponentPushToken(subscription)
	if err != nil {
		return &DeliveryError{StatusCode: http.StatusBadRequest, Err: err}
	}

	resp, err := e.client.Publish(&expo.PushMessage{
		To:       []expo.ExponentPushToken{token},
		Sound:    "default",
		Title:    n.Title,
		Body:     n.Body,
		Data:     map[string]string{"url": n.URL},
		Priority: expo.DefaultPriority,
	})
	if err != nil {
		return &DeliveryError{StatusCode: http.StatusBadGateway, Err: err}
	}
	if err := resp.ValidateResponse(); err != nil {
		var notRegistered *expo.DeviceNotRegisteredError
		if errors.As(err, &notRegistered) {
			return &DeliveryError{StatusCode: http.StatusGone, Err: err}
		}
		return &DeliveryError{StatusCode: http.StatusBadGateway, Err: err}
	}
	return nil
}

type bearerTransport struct {
	token string
	base  http.RoundTripper
}

func (t *bearerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set("Authorization", "Bearer "+t.token)
	return t.base.RoundTrip(req)
}
