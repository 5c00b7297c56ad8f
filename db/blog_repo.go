package db

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/techagentng/firesafe/models"
	"gorm.io/gorm"
)

type BlogRepository interface {
	CreatePost(post *models.BlogPost) error
	GetPostByID(id uint) (*models.BlogPost, error)
	GetPostBySlug(slug string) (*models.BlogPost, error)
	IncrementViews(slug string) error
	ListPosts(filter models.BlogFilter) ([]models.BlogPost, int64, error)
	UpdatePost(post *models.BlogPost) error
	DeletePost(id uint) error
	CountPublished() (int64, error)
}

type blogRepo struct {
	DB *gorm.DB
}

func NewBlogRepo(db *GormDB) BlogRepository {
	return &blogRepo{db.DB}
}

func (b *blogRepo) CreatePost(post *models.BlogPost) error {
	return b.DB.Create(post).Error
}

func (b *blogRepo) GetPostByID(id uint) (*models.BlogPost, error) {
	var post models.BlogPost
	if err := b.DB.First(&post, id).Error; err != nil {
		return nil, err
	}
	return &post, nil
}

func (b *blogRepo) GetPostBySlug(slug string) (*models.BlogPost, error) {
	var post models.BlogPost
	if err := b.DB.Where("slug = ?", slug).First(&post).Error; err != nil {
		return nil, err
	}
	return &post, nil
}

// IncrementViews adds one view to a published post in a single statement.
// gorm.ErrRecordNotFound is returned when no published post has the slug.
func (b *blogRepo) IncrementViews(slug string) error {
	result := b.DB.Model(&models.BlogPost{}).
		Where("slug = ? AND status = ?", slug, models.BlogStatusPublished).
		UpdateColumn("views", gorm.Expr("views + ?", 1))
	if result.Error != nil {
		return errors.Wrap(result.Error, "increment views")
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (b *blogRepo) ListPosts(filter models.BlogFilter) ([]models.BlogPost, int64, error) {
	query := b.DB.Model(&models.BlogPost{})
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}
	if filter.Search != "" {
		pattern := "%" + strings.ToLower(filter.Search) + "%"
		query = query.Where("LOWER(title) LIKE ? OR LOWER(excerpt) LIKE ? OR LOWER(content) LIKE ?", pattern, pattern, pattern)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, errors.Wrap(err, "count posts")
	}

	var posts []models.BlogPost
	err := query.Order("COALESCE(published_at, created_at) DESC").Order("id DESC").
		Limit(filter.Limit).Offset(filter.Offset).
		Find(&posts).Error
	if err != nil {
		return nil, 0, errors.Wrap(err, "list posts")
	}
	return posts, total, nil
}

// UpdatePost leaves views alone; IncrementViews owns that column.
func (b *blogRepo) UpdatePost(post *models.BlogPost) error {
	return b.DB.Model(post).Select("*").Omit("id", "created_at", "views").Updates(post).Error
}

func (b *blogRepo) DeletePost(id uint) error {
	result := b.DB.Delete(&models.BlogPost{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (b *blogRepo) CountPublished() (int64, error) {
	var count int64
	err := b.DB.Model(&models.BlogPost{}).Where("status = ?", models.BlogStatusPublished).Count(&count).Error
	return count, err
}
