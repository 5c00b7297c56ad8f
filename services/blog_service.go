package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/techagentng/firesafe/config"
	"github.com/techagentng/firesafe/db"
	errs "github.com/techagentng/firesafe/errors"
	"github.com/techagentng/firesafe/eventbus"
	"github.com/techagentng/firesafe/metrics"
	"github.com/techagentng/firesafe/models"
	"gorm.io/gorm"
)

type BlogService interface {
	CreatePost(ctx context.Context, req *models.BlogPostRequest, authorID uint) (*models.BlogPost, error)
	UpdatePost(ctx context.Context, id uint, req *models.BlogPostRequest) (*models.BlogPost, error)
	DeletePost(id uint) error
	GetPost(id uint) (*models.BlogPost, error)
	ListPosts(filter models.BlogFilter) ([]models.BlogPost, int64, error)
	ListPublishedPosts(filter models.BlogFilter) ([]models.BlogPost, int64, error)
	ViewPublishedPost(slug string) (*models.BlogPost, error)
}

type blogService struct {
	Config   *config.Config
	blogRepo db.BlogRepository
	bus      eventbus.Bus
	log      *logrus.Logger
}

func NewBlogService(blogRepo db.BlogRepository, bus eventbus.Bus, conf *config.Config, log *logrus.Logger) BlogService {
	return &blogService{
		Config:   conf,
		blogRepo: blogRepo,
		bus:      bus,
		log:      log,
	}
}

// CreatePost validates in a fixed order: title, content, slug format, status,
// then slug uniqueness. An empty slug is derived from the title.
func (b *blogService) CreatePost(ctx context.Context, req *models.BlogPostRequest, authorID uint) (*models.BlogPost, error) {
	title := trimmed(req.Title)
	if title == "" {
		return nil, errs.NewWithCode("title is required", errs.CodeMissingTitle, http.StatusBadRequest)
	}
	content := trimmed(req.Content)
	if content == "" {
		return nil, errs.NewWithCode("content is required", errs.CodeMissingContent, http.StatusBadRequest)
	}

	slug := trimmed(req.Slug)
	if slug == "" {
		slug = models.Slugify(title)
	}
	if !models.ValidSlug(slug) {
		return nil, errs.NewWithCode(fmt.Sprintf("invalid slug %q", slug), errs.CodeInvalidSlug, http.StatusBadRequest)
	}

	status := models.BlogStatusDraft
	if req.Status != nil {
		status = strings.ToLower(strings.TrimSpace(*req.Status))
		if !validBlogStatus(status) {
			return nil, errs.NewWithCode(fmt.Sprintf("unknown status %q", *req.Status), errs.CodeInvalidStatus, http.StatusBadRequest)
		}
	}

	post := &models.BlogPost{
		Title:      title,
		Slug:       slug,
		Excerpt:    trimmed(req.Excerpt),
		Content:    content,
		Category:   trimmed(req.Category),
		CoverImage: trimmed(req.CoverImage),
		Status:     status,
		AuthorID:   &authorID,
	}
	if post.IsPublished() {
		now := time.Now().UTC()
		post.PublishedAt = &now
	}

	if err := b.blogRepo.CreatePost(post); err != nil {
		if errs.IsUniqueViolation(err) {
			return nil, errs.NewWithCode(fmt.Sprintf("slug %q already exists", slug), errs.CodeDuplicateSlug, http.StatusBadRequest)
		}
		return nil, err
	}

	if post.IsPublished() {
		b.publishPost(ctx, post)
	}
	return post, nil
}

// UpdatePost applies a partial update. The first transition to published
// stamps PublishedAt and triggers the push fan-out; later edits do not.
func (b *blogService) UpdatePost(ctx context.Context, id uint, req *models.BlogPostRequest) (*models.BlogPost, error) {
	post, err := b.GetPost(id)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		if post.Title = trimmed(req.Title); post.Title == "" {
			return nil, errs.NewWithCode("title is required", errs.CodeMissingTitle, http.StatusBadRequest)
		}
	}
	if req.Content != nil {
		if post.Content = trimmed(req.Content); post.Content == "" {
			return nil, errs.NewWithCode("content is required", errs.CodeMissingContent, http.StatusBadRequest)
		}
	}
	if req.Slug != nil {
		slug := trimmed(req.Slug)
		if !models.ValidSlug(slug) {
			return nil, errs.NewWithCode(fmt.Sprintf("invalid slug %q", slug), errs.CodeInvalidSlug, http.StatusBadRequest)
		}
		post.Slug = slug
	}
	if req.Status != nil {
		status := strings.ToLower(strings.TrimSpace(*req.Status))
		if !validBlogStatus(status) {
			return nil, errs.NewWithCode(fmt.Sprintf("unknown status %q", *req.Status), errs.CodeInvalidStatus, http.StatusBadRequest)
		}
		post.Status = status
	}
	if req.Excerpt != nil {
		post.Excerpt = trimmed(req.Excerpt)
	}
	if req.Category != nil {
		post.Category = trimmed(req.Category)
	}
	if req.CoverImage != nil {
		post.CoverImage = trimmed(req.CoverImage)
	}

	firstPublish := post.IsPublished() && post.PublishedAt == nil
	if firstPublish {
		now := time.Now().UTC()
		post.PublishedAt = &now
	}

	if err := b.blogRepo.UpdatePost(post); err != nil {
		if errs.IsUniqueViolation(err) {
			return nil, errs.NewWithCode(fmt.Sprintf("slug %q already exists", post.Slug), errs.CodeDuplicateSlug, http.StatusBadRequest)
		}
		return nil, err
	}
	if stored, err := b.blogRepo.GetPostByID(id); err == nil {
		post.Views = stored.Views
	}

	if firstPublish {
		b.publishPost(ctx, post)
	}
	return post, nil
}

func (b *blogService) DeletePost(id uint) error {
	if _, err := b.GetPost(id); err != nil {
		return err
	}
	return b.blogRepo.DeletePost(id)
}

func (b *blogService) GetPost(id uint) (*models.BlogPost, error) {
	post, err := b.blogRepo.GetPostByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.New("post not found", http.StatusNotFound)
		}
		return nil, err
	}
	return post, nil
}

func (b *blogService) ListPosts(filter models.BlogFilter) ([]models.BlogPost, int64, error) {
	if filter.Status != "" && !validBlogStatus(filter.Status) {
		return nil, 0, errs.NewWithCode(fmt.Sprintf("unknown status %q", filter.Status), errs.CodeInvalidStatus, http.StatusBadRequest)
	}
	return b.blogRepo.ListPosts(filter)
}

func (b *blogService) ListPublishedPosts(filter models.BlogFilter) ([]models.BlogPost, int64, error) {
	filter.Status = models.BlogStatusPublished
	return b.blogRepo.ListPosts(filter)
}

// ViewPublishedPost counts one view and returns the post. Drafts and missing
// slugs are not found and are not counted.
func (b *blogService) ViewPublishedPost(slug string) (*models.BlogPost, error) {
	if err := b.blogRepo.IncrementViews(slug); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.New("post not found", http.StatusNotFound)
		}
		return nil, err
	}
	post, err := b.blogRepo.GetPostBySlug(slug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.New("post not found", http.StatusNotFound)
		}
		return nil, err
	}
	metrics.BlogViews.Inc()
	return post, nil
}

func (b *blogService) publishPost(ctx context.Context, post *models.BlogPost) {
	eventbus.PublishEvent(ctx, b.bus, b.log, eventbus.Blog, eventbus.PostPublished, models.BlogRecord{
		ID:      post.ID,
		Status:  post.Status,
		Title:   post.Title,
		Excerpt: post.Excerpt,
		Slug:    post.Slug,
	})
}

func validBlogStatus(status string) bool {
	return status == models.BlogStatusDraft || status == models.BlogStatusPublished
}

func trimmed(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}
