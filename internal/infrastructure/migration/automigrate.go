package migration

import (
	"github.com/orris-inc/coinpayable/internal/infrastructure/persistence/models"
)

func AutoMigrateModels() []interface{} {
	return []interface{}{
		&models.CoinPaymentModel{},
		&models.CoinPaymentTransactionModel{},
		&models.CurrencyConversionModel{},
	}
}
