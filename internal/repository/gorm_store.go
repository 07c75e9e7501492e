// internal/repository/gorm_store.go
package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/javajoker/beatmarket/internal/models"
	"github.com/javajoker/beatmarket/internal/utils"
)

// GormStore implements Store on any gorm dialect (postgres in production, sqlite for
// single-process deployments and tests).
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Transaction(ctx context.Context, fn func(tx Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormStore{db: tx})
	})
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrAlreadyExists
	default:
		return fmt.Errorf("database error: %w", err)
	}
}

// Users

func (s *GormStore) CreateUser(ctx context.Context, user *models.User) error {
	return translate(s.db.WithContext(ctx).Create(user).Error)
}

func (s *GormStore) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

// Beats

func (s *GormStore) CreateBeat(ctx context.Context, beat *models.Beat) error {
	return translate(s.db.WithContext(ctx).Omit("Producer").Create(beat).Error)
}

func (s *GormStore) GetBeat(ctx context.Context, id uuid.UUID) (*models.Beat, error) {
	var beat models.Beat
	err := s.db.WithContext(ctx).
		Preload("Producer").
		Preload("Contributors", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		First(&beat, "id = ?", id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &beat, nil
}

// UpdateBeat persists scalar beat fields only; contributors have their own calls.
func (s *GormStore) UpdateBeat(ctx context.Context, beat *models.Beat) error {
	return translate(s.db.WithContext(ctx).Omit(clause.Associations).Save(beat).Error)
}

func (s *GormStore) SearchBeats(ctx context.Context, filter BeatFilter) ([]models.Beat, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.Beat{})

	if len(filter.Statuses) > 0 {
		query = query.Where("status IN ?", filter.Statuses)
	}
	if filter.ProducerID != nil {
		query = query.Where("producer_id = ?", *filter.ProducerID)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		like := "%" + strings.ToLower(search) + "%"
		producers := s.db.WithContext(ctx).Model(&models.User{}).Select("id").Where("LOWER(name) LIKE ?", like)
		query = query.Where("(LOWER(title) LIKE ? OR LOWER(tags) LIKE ? OR producer_id IN (?))", like, like, producers)
	}
	if len(filter.Genres) > 0 {
		query = query.Where("LOWER(genre) IN ?", lowerAll(filter.Genres))
	}
	if len(filter.Moods) > 0 {
		query = query.Where("LOWER(mood) IN ?", lowerAll(filter.Moods))
	}
	if filter.MinBPM > 0 {
		query = query.Where("bpm >= ?", filter.MinBPM)
	}
	if filter.MaxBPM > 0 {
		query = query.Where("bpm <= ?", filter.MaxBPM)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, translate(err)
	}

	query = utils.ApplySort(query, filter.Pagination)
	if filter.Pagination.Limit > 0 {
		query = utils.ApplyPagination(query, filter.Pagination)
	}

	var beats []models.Beat
	if err := query.Preload("Producer").Preload("Contributors").Find(&beats).Error; err != nil {
		return nil, 0, translate(err)
	}
	return beats, total, nil
}

func (s *GormStore) ListBeatsByProducer(ctx context.Context, producerID uuid.UUID) ([]models.Beat, error) {
	var beats []models.Beat
	err := s.db.WithContext(ctx).
		Preload("Contributors").
		Where("producer_id = ?", producerID).
		Order("created_at DESC").
		Find(&beats).Error
	return beats, translate(err)
}

// Contributors

func (s *GormStore) AddContributor(ctx context.Context, contributor *models.Contributor) error {
	return translate(s.db.WithContext(ctx).Create(contributor).Error)
}

func (s *GormStore) RemoveContributor(ctx context.Context, beatID, contributorID uuid.UUID) error {
	return translate(s.db.WithContext(ctx).Unscoped().
		Where("beat_id = ? AND contributor_id = ?", beatID, contributorID).
		Delete(&models.Contributor{}).Error)
}

func (s *GormStore) ListContributions(ctx context.Context, contributorID uuid.UUID) ([]models.Contributor, error) {
	var contributors []models.Contributor
	err := s.db.WithContext(ctx).Where("contributor_id = ?", contributorID).Find(&contributors).Error
	return contributors, translate(err)
}

// Contracts

func (s *GormStore) CreateContract(ctx context.Context, contract *models.Contract) error {
	return translate(s.db.WithContext(ctx).Create(contract).Error)
}

func (s *GormStore) GetContract(ctx context.Context, id uuid.UUID) (*models.Contract, error) {
	var contract models.Contract
	if err := s.db.WithContext(ctx).First(&contract, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &contract, nil
}

func (s *GormStore) ListContractsForUser(ctx context.Context, userID uuid.UUID) ([]models.Contract, error) {
	var contracts []models.Contract
	err := s.db.WithContext(ctx).
		Where("buyer_id = ? OR seller_id = ?", userID, userID).
		Order("signed_at DESC").
		Find(&contracts).Error
	return contracts, translate(err)
}

// ListContractsBySeller returns a producer's sales, oldest first.
func (s *GormStore) ListContractsBySeller(ctx context.Context, sellerID uuid.UUID) ([]models.Contract, error) {
	var contracts []models.Contract
	err := s.db.WithContext(ctx).
		Where("seller_id = ?", sellerID).
		Order("signed_at ASC").
		Find(&contracts).Error
	return contracts, translate(err)
}

func (s *GormStore) SumContractPrices(ctx context.Context, beatID uuid.UUID) (float64, error) {
	var total float64
	err := s.db.WithContext(ctx).Model(&models.Contract{}).
		Select("COALESCE(SUM(price_at_purchase), 0)").
		Where("beat_id = ?", beatID).
		Scan(&total).Error
	return total, translate(err)
}

// Ownership

func (s *GormStore) GetOwnership(ctx context.Context, buyerID, beatID uuid.UUID) (*models.Ownership, error) {
	var ownership models.Ownership
	err := s.db.WithContext(ctx).First(&ownership, "buyer_id = ? AND beat_id = ?", buyerID, beatID).Error
	if err != nil {
		return nil, translate(err)
	}
	return &ownership, nil
}

func (s *GormStore) SaveOwnership(ctx context.Context, ownership *models.Ownership) error {
	db := s.db.WithContext(ctx).Omit(clause.Associations)
	if ownership.ID == uuid.Nil {
		return translate(db.Create(ownership).Error)
	}
	return translate(db.Save(ownership).Error)
}

func (s *GormStore) ListOwnerships(ctx context.Context, buyerID uuid.UUID) ([]models.Ownership, error) {
	var ownerships []models.Ownership
	err := s.db.WithContext(ctx).
		Preload("Beat").
		Preload("Beat.Producer").
		Where("buyer_id = ?", buyerID).
		Order("created_at DESC").
		Find(&ownerships).Error
	return ownerships, translate(err)
}

// Ratings

func (s *GormStore) GetRatingEntry(ctx context.Context, raterID, beatID uuid.UUID) (*models.RatingEntry, error) {
	var entry models.RatingEntry
	err := s.db.WithContext(ctx).First(&entry, "rater_id = ? AND beat_id = ?", raterID, beatID).Error
	if err != nil {
		return nil, translate(err)
	}
	return &entry, nil
}

func (s *GormStore) SaveRatingEntry(ctx context.Context, entry *models.RatingEntry) error {
	if entry.ID == uuid.Nil {
		return translate(s.db.WithContext(ctx).Create(entry).Error)
	}
	return translate(s.db.WithContext(ctx).Save(entry).Error)
}

// Withdrawals

func (s *GormStore) CreateWithdrawal(ctx context.Context, w *models.WithdrawalRequest) error {
	return translate(s.db.WithContext(ctx).Create(w).Error)
}

func (s *GormStore) GetWithdrawal(ctx context.Context, id uuid.UUID) (*models.WithdrawalRequest, error) {
	var w models.WithdrawalRequest
	if err := s.db.WithContext(ctx).First(&w, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &w, nil
}

func (s *GormStore) UpdateWithdrawal(ctx context.Context, w *models.WithdrawalRequest) error {
	return translate(s.db.WithContext(ctx).Save(w).Error)
}

func (s *GormStore) ListWithdrawals(ctx context.Context, producerID uuid.UUID) ([]models.WithdrawalRequest, error) {
	var withdrawals []models.WithdrawalRequest
	err := s.db.WithContext(ctx).
		Where("producer_id = ?", producerID).
		Order("requested_at DESC").
		Find(&withdrawals).Error
	return withdrawals, translate(err)
}

func (s *GormStore) SumWithdrawals(ctx context.Context, producerID uuid.UUID, statuses ...models.WithdrawalStatus) (float64, error) {
	query := s.db.WithContext(ctx).Model(&models.WithdrawalRequest{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("producer_id = ?", producerID)
	if len(statuses) > 0 {
		query = query.Where("status IN ?", statuses)
	}

	var total float64
	err := query.Scan(&total).Error
	return total, translate(err)
}

// Favorites

func (s *GormStore) ToggleFavorite(ctx context.Context, userID, beatID uuid.UUID) (bool, error) {
	db := s.db.WithContext(ctx)

	var existing models.Favorite
	err := db.First(&existing, "user_id = ? AND beat_id = ?", userID, beatID).Error
	switch {
	case err == nil:
		if err := db.Unscoped().Delete(&existing).Error; err != nil {
			return false, translate(err)
		}
		return false, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		favorite := &models.Favorite{UserID: userID, BeatID: beatID}
		if err := db.Omit(clause.Associations).Create(favorite).Error; err != nil {
			return false, translate(err)
		}
		return true, nil
	default:
		return false, translate(err)
	}
}

func (s *GormStore) ListFavorites(ctx context.Context, userID uuid.UUID) ([]models.Favorite, error) {
	var favorites []models.Favorite
	err := s.db.WithContext(ctx).
		Preload("Beat").
		Preload("Beat.Producer").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&favorites).Error
	return favorites, translate(err)
}

func lowerAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		out = append(out, strings.ToLower(v))
	}
	return out
}
