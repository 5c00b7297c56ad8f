package models

import (
	"regexp"
	"strings"
	"time"
)

const (
	BlogStatusDraft     = "draft"
	BlogStatusPublished = "published"
)

var SlugPattern = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

type BlogPost struct {
	Model
	Title       string     `json:"title" gorm:"not null"`
	Slug        string     `json:"slug" gorm:"uniqueIndex;not null"`
	Excerpt     string     `json:"excerpt"`
	Content     string     `json:"content" gorm:"type:text;not null"`
	Category    string     `json:"category" gorm:"index"`
	CoverImage  string     `json:"cover_image"`
	Status      string     `json:"status" gorm:"index;not null;default:draft"`
	Views       int64      `json:"views" gorm:"not null;default:0"`
	AuthorID    *uint      `json:"author_id"`
	PublishedAt *time.Time `json:"published_at"`
}

func (p *BlogPost) IsPublished() bool {
	return p.Status == BlogStatusPublished
}

// BlogPostRequest is used for both create and partial update; nil fields are
// left untouched on update.
type BlogPostRequest struct {
	Title      *string `json:"title"`
	Slug       *string `json:"slug"`
	Excerpt    *string `json:"excerpt"`
	Content    *string `json:"content"`
	Category   *string `json:"category"`
	CoverImage *string `json:"cover_image"`
	Status     *string `json:"status"`
}

type BlogFilter struct {
	Status   string
	Category string
	Search   string
	Limit    int
	Offset   int
}

func ValidSlug(slug string) bool {
	return SlugPattern.MatchString(slug)
}

// Slugify derives a slug from a title: lowercase ASCII letters and digits
// separated by single hyphens.
func Slugify(title string) string {
	var b strings.Builder
	pendingHyphen := false
	for _, r := range strings.ToLower(title) {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(r)
		default:
			pendingHyphen = true
		}
	}
	return b.String()
}
