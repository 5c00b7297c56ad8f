package db

import (
	"github.com/techagentng/firesafe/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PushTokenRepository interface {
	UpsertToken(token *models.PushToken) error
	ListTokens() ([]models.PushToken, error)
	DeleteToken(id uint) error
	DeleteBySubscription(subscription string) error
}

type pushTokenRepo struct {
	DB *gorm.DB
}

func NewPushTokenRepo(db *GormDB) PushTokenRepository {
	return &pushTokenRepo{db.DB}
}

// UpsertToken stores a subscription, refreshing provider and owner when the
// same subscription registers again.
func (p *pushTokenRepo) UpsertToken(token *models.PushToken) error {
	return p.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "subscription"}},
		DoUpdates: clause.AssignmentColumns([]string{"provider", "user_id", "updated_at"}),
	}).Create(token).Error
}

func (p *pushTokenRepo) ListTokens() ([]models.PushToken, error) {
	var tokens []models.PushToken
	err := p.DB.Order("id ASC").Find(&tokens).Error
	return tokens, err
}

func (p *pushTokenRepo) DeleteToken(id uint) error {
	return p.DB.Delete(&models.PushToken{}, id).Error
}

func (p *pushTokenRepo) DeleteBySubscription(subscription string) error {
	result := p.DB.Where("subscription = ?", subscription).Delete(&models.PushToken{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
