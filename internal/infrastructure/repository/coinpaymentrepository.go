package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/orris-inc/coinpayable/internal/domain/payment"
	vo "github.com/orris-inc/coinpayable/internal/domain/payment/valueobjects"
	"github.com/orris-inc/coinpayable/internal/infrastructure/persistence/mappers"
	"github.com/orris-inc/coinpayable/internal/infrastructure/persistence/models"
	"github.com/orris-inc/coinpayable/internal/shared/db"
	"github.com/orris-inc/coinpayable/internal/shared/errors"
	"github.com/orris-inc/coinpayable/internal/shared/logger"
)

type CoinPaymentRepository struct {
	db     *gorm.DB
	logger logger.Interface
}

func NewCoinPaymentRepository(db *gorm.DB, logger logger.Interface) *CoinPaymentRepository {
	return &CoinPaymentRepository{db: db, logger: logger}
}

var _ payment.PaymentRepository = (*CoinPaymentRepository)(nil)

func preloadTransactions(tx *gorm.DB) *gorm.DB {
	return tx.Preload("Transactions", func(db *gorm.DB) *gorm.DB {
		return db.Order("id ASC")
	})
}

func (r *CoinPaymentRepository) Create(ctx context.Context, p *payment.Payment) error {
	model := mappers.PaymentToModel(p)

	if err := db.GetTxFromContext(ctx, r.db).Omit(clause.Associations).Create(model).Error; err != nil {
		return fmt.Errorf("failed to create payment: %w", err)
	}

	// Write back the auto-generated ID to the domain object
	p.SetID(model.ID)

	return nil
}

func (r *CoinPaymentRepository) SaveAddress(ctx context.Context, p *payment.Payment) error {
	if p.Address() == nil {
		return errors.NewValidationError("payment has no address to save")
	}

	result := db.GetTxFromContext(ctx, r.db).
		Model(&models.CoinPaymentModel{}).
		Where("id = ? AND address IS NULL", p.ID()).
		Updates(map[string]interface{}{
			"address":    *p.Address(),
			"version":    p.Version(),
			"updated_at": p.UpdatedAt(),
		})
	if result.Error != nil {
		if errors.IsDuplicateError(result.Error) {
			return errors.NewConflictError("address already used by another payment", *p.Address())
		}
		return fmt.Errorf("failed to save payment address: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("payment %d: %w", p.ID(), payment.ErrAddressAlreadyAssigned)
	}

	return nil
}

func (r *CoinPaymentRepository) GetByID(ctx context.Context, id uint) (*payment.Payment, error) {
	return r.first(ctx, db.GetTxFromContext(ctx, r.db).Where("id = ?", id))
}

func (r *CoinPaymentRepository) GetByIDForUpdate(ctx context.Context, id uint) (*payment.Payment, error) {
	return r.first(ctx, db.GetTxFromContext(ctx, r.db).
		Scopes(db.LockForUpdate()).
		Where("id = ?", id))
}

func (r *CoinPaymentRepository) GetByAddress(ctx context.Context, address string) (*payment.Payment, error) {
	return r.first(ctx, db.GetTxFromContext(ctx, r.db).Where("address = ?", address))
}

func (r *CoinPaymentRepository) GetByTransactionHash(ctx context.Context, hash string) (*payment.Payment, error) {
	tx := db.GetTxFromContext(ctx, r.db)
	sub := tx.Session(&gorm.Session{NewDB: true}).
		Model(&models.CoinPaymentTransactionModel{}).
		Select("payment_id").
		Where("transaction_hash = ?", hash)
	return r.first(ctx, tx.Where("id IN (?)", sub))
}

func (r *CoinPaymentRepository) first(ctx context.Context, query *gorm.DB) (*payment.Payment, error) {
	var model models.CoinPaymentModel

	if err := preloadTransactions(query).First(&model).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.NewNotFoundError("payment not found")
		}
		return nil, fmt.Errorf("failed to get payment: %w", err)
	}

	return mappers.PaymentToDomain(&model)
}

func (r *CoinPaymentRepository) FindUnconfirmed(ctx context.Context) ([]*payment.Payment, error) {
	return r.findInStates(ctx, "unconfirmed", vo.UnconfirmedStates())
}

func (r *CoinPaymentRepository) FindUnpaid(ctx context.Context) ([]*payment.Payment, error) {
	return r.findInStates(ctx, "unpaid", vo.UnpaidStates())
}

func (r *CoinPaymentRepository) FindStale(ctx context.Context, updatedBefore time.Time) ([]*payment.Payment, error) {
	query := db.GetTxFromContext(ctx, r.db).
		Where("updated_at < ? OR coin_amount_due = ?", updatedBefore, 0)
	return r.find(query, "stale")
}

func (r *CoinPaymentRepository) findInStates(ctx context.Context, label string, states []vo.PaymentState) ([]*payment.Payment, error) {
	names := make([]string, 0, len(states))
	for _, s := range states {
		names = append(names, s.String())
	}
	return r.find(db.GetTxFromContext(ctx, r.db).Scopes(db.StateIn(names...)), label)
}

func (r *CoinPaymentRepository) find(query *gorm.DB, label string) ([]*payment.Payment, error) {
	var paymentModels []models.CoinPaymentModel
	if err := preloadTransactions(query).
		Scopes(db.OrderByID()).
		Find(&paymentModels).Error; err != nil {
		return nil, fmt.Errorf("failed to find %s payments: %w", label, err)
	}

	payments := make([]*payment.Payment, 0, len(paymentModels))
	for i := range paymentModels {
		p, err := mappers.PaymentToDomain(&paymentModels[i])
		if err != nil {
			r.logger.Errorw("skipping unreadable payment row",
				"payment_id", paymentModels[i].ID,
				"error", err,
			)
			continue
		}
		payments = append(payments, p)
	}

	return payments, nil
}

// SaveLedger upserts changed rows on (payment_id, transaction_hash). An existing row only
// takes the new confirmations, so estimated_value and coin_conversion never change.
func (r *CoinPaymentRepository) SaveLedger(ctx context.Context, p *payment.Payment, changed []*payment.Transaction) error {
	tx := db.GetTxFromContext(ctx, r.db)

	if len(changed) > 0 {
		rows := make([]*models.CoinPaymentTransactionModel, 0, len(changed))
		for _, t := range changed {
			row := mappers.TransactionToModel(t)
			// Existing rows resolve through the (payment_id, transaction_hash) conflict
			row.ID = 0
			rows = append(rows, row)
		}

		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "payment_id"}, {Name: "transaction_hash"}},
			DoUpdates: clause.AssignmentColumns([]string{"confirmations", "updated_at"}),
		}).Create(&rows).Error; err != nil {
			return fmt.Errorf("failed to upsert payment transactions: %w", err)
		}

		for i, t := range changed {
			if t.ID() == 0 && rows[i].ID != 0 {
				t.SetID(rows[i].ID)
			}
		}
	}

	if err := tx.Model(&models.CoinPaymentModel{}).
		Where("id = ?", p.ID()).
		Updates(map[string]interface{}{
			"coin_amount_due": p.CoinAmountDue(),
			"coin_conversion": p.CoinConversion(),
			"version":         p.Version(),
			"updated_at":      p.UpdatedAt(),
		}).Error; err != nil {
		return fmt.Errorf("failed to update payment amounts: %w", err)
	}

	return nil
}

// SaveState writes the new state only if the stored state still equals from
func (r *CoinPaymentRepository) SaveState(ctx context.Context, p *payment.Payment, from vo.PaymentState) error {
	result := db.GetTxFromContext(ctx, r.db).
		Model(&models.CoinPaymentModel{}).
		Where("id = ? AND state = ?", p.ID(), from.String()).
		Updates(map[string]interface{}{
			"state":      p.State().String(),
			"version":    p.Version(),
			"updated_at": p.UpdatedAt(),
		})
	if result.Error != nil {
		return fmt.Errorf("failed to save payment state: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return errors.NewConflictError("payment state changed concurrently",
			fmt.Sprintf("payment %d is no longer %s", p.ID(), from))
	}

	return nil
}
