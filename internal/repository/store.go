// internal/repository/store.go
package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/javajoker/beatmarket/internal/models"
	"github.com/javajoker/beatmarket/internal/utils"
)

var (
	ErrNotFound      = errors.New("repository: record not found")
	ErrAlreadyExists = errors.New("repository: record already exists")
)

// BeatFilter narrows catalog listings. Empty slices and zero values mean "any".
type BeatFilter struct {
	Search     string
	Genres     []string
	Moods      []string
	MinBPM     int
	MaxBPM     int
	ProducerID *uuid.UUID
	Statuses   []models.BeatStatus
	Pagination utils.PaginationParams
}

// Store is the persistence boundary of the marketplace core.
type Store interface {
	// Transaction runs fn against a Store bound to a single database transaction.
	Transaction(ctx context.Context, fn func(tx Store) error) error

	CreateUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)

	CreateBeat(ctx context.Context, beat *models.Beat) error
	GetBeat(ctx context.Context, id uuid.UUID) (*models.Beat, error)
	UpdateBeat(ctx context.Context, beat *models.Beat) error
	SearchBeats(ctx context.Context, filter BeatFilter) ([]models.Beat, int64, error)
	ListBeatsByProducer(ctx context.Context, producerID uuid.UUID) ([]models.Beat, error)

	AddContributor(ctx context.Context, contributor *models.Contributor) error
	RemoveContributor(ctx context.Context, beatID, contributorID uuid.UUID) error
	ListContributions(ctx context.Context, contributorID uuid.UUID) ([]models.Contributor, error)

	CreateContract(ctx context.Context, contract *models.Contract) error
	GetContract(ctx context.Context, id uuid.UUID) (*models.Contract, error)
	ListContractsForUser(ctx context.Context, userID uuid.UUID) ([]models.Contract, error)
	ListContractsBySeller(ctx context.Context, sellerID uuid.UUID) ([]models.Contract, error)
	SumContractPrices(ctx context.Context, beatID uuid.UUID) (float64, error)

	GetOwnership(ctx context.Context, buyerID, beatID uuid.UUID) (*models.Ownership, error)
	SaveOwnership(ctx context.Context, ownership *models.Ownership) error
	ListOwnerships(ctx context.Context, buyerID uuid.UUID) ([]models.Ownership, error)

	GetRatingEntry(ctx context.Context, raterID, beatID uuid.UUID) (*models.RatingEntry, error)
	SaveRatingEntry(ctx context.Context, entry *models.RatingEntry) error

	CreateWithdrawal(ctx context.Context, w *models.WithdrawalRequest) error
	GetWithdrawal(ctx context.Context, id uuid.UUID) (*models.WithdrawalRequest, error)
	UpdateWithdrawal(ctx context.Context, w *models.WithdrawalRequest) error
	ListWithdrawals(ctx context.Context, producerID uuid.UUID) ([]models.WithdrawalRequest, error)
	SumWithdrawals(ctx context.Context, producerID uuid.UUID, statuses ...models.WithdrawalStatus) (float64, error)

	ToggleFavorite(ctx context.Context, userID, beatID uuid.UUID) (bool, error)
	ListFavorites(ctx context.Context, userID uuid.UUID) ([]models.Favorite, error)
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
