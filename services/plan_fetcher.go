package services

import (
	"context"
	"fmt"
	"mime"
	"net/http"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
	"github.com/techagentng/firesafe/db"
	errs "github.com/techagentng/firesafe/errors"
)

type FetchSource string

const (
	FetchSourceStorage FetchSource = "storage"
	FetchSourcePublic  FetchSource = "public"
)

// FetchResult is a downloaded plan tagged with the path that produced it.
type FetchResult struct {
	Data        []byte
	ContentType string
	Source      FetchSource
}

// PlanFetcher downloads a plan by URL: first through authenticated object
// storage, then, if the URL cannot be resolved to a key or the download
// fails, as a plain public GET of the same URL.
type PlanFetcher interface {
	Fetch(ctx context.Context, planURL string) (*FetchResult, error)
}

type planFetcher struct {
	storage db.ObjectStorage
	client  *resty.Client
	log     *logrus.Logger
}

func NewPlanFetcher(storage db.ObjectStorage, log *logrus.Logger) PlanFetcher {
	return &planFetcher{
		storage: storage,
		client:  resty.New().SetRetryCount(0),
		log:     log,
	}
}

func (f *planFetcher) Fetch(ctx context.Context, planURL string) (*FetchResult, error) {
	result, storageErr := f.fromStorage(ctx, planURL)
	if storageErr == nil {
		return result, nil
	}
	f.log.WithError(storageErr).WithField("plan_url", planURL).Info("storage download failed, trying public url")

	result, publicErr := f.fromPublicURL(ctx, planURL)
	if publicErr == nil {
		return result, nil
	}
	return nil, errs.NewWithCode(
		fmt.Sprintf("unable to download plan: storage: %v; public: %v", storageErr, publicErr),
		errs.CodeUpstream, http.StatusInternalServerError)
}

func (f *planFetcher) fromStorage(ctx context.Context, planURL string) (*FetchResult, error) {
	if f.storage == nil {
		return nil, errs.Configuration("object storage")
	}
	key, err := f.storage.KeyFromURL(planURL)
	if err != nil {
		return nil, err
	}
	data, contentType, err := f.storage.Download(ctx, key)
	if err != nil {
		return nil, err
	}
	return &FetchResult{Data: data, ContentType: normalizeContentType(contentType, data), Source: FetchSourceStorage}, nil
}

func (f *planFetcher) fromPublicURL(ctx context.Context, planURL string) (*FetchResult, error) {
	resp, err := f.client.R().SetContext(ctx).Get(planURL)
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, fmt.Errorf("status %d", resp.StatusCode())
	}
	data := resp.Body()
	return &FetchResult{
		Data:        data,
		ContentType: normalizeContentType(resp.Header().Get("Content-Type"), data),
		Source:      FetchSourcePublic,
	}, nil
}

// normalizeContentType drops parameters and sniffs the bytes when the
// declared type is missing or generic.
func normalizeContentType(declared string, data []byte) string {
	if declared != "" {
		if mediaType, _, err := mime.ParseMediaType(declared); err == nil && mediaType != "application/octet-stream" {
			return mediaType
		}
	}
	sniffed, _, _ := mime.ParseMediaType(http.DetectContentType(data))
	return sniffed
}
