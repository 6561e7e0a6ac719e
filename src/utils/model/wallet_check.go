package model

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const TableWalletChecks = "wallet_checks"

// WalletCheck is the per-wallet reconciliation cursor. CheckedLt only ever
// moves forward; batches are re-fetched from it after a restart.
type WalletCheck struct {
	WalletAddress string `gorm:"primaryKey" json:"wallet_address"`
	CheckedLt     uint64 `json:"checked_lt"`
}

func (WalletCheck) TableName() string {
	return TableWalletChecks
}

// GetCheckedLt returns the last fully processed logical time of the wallet.
// found is false when the wallet has never been scanned.
func GetCheckedLt(ctx context.Context, db *gorm.DB, walletAddress string) (lt uint64, found bool, err error) {
	var check WalletCheck
	err = db.WithContext(ctx).
		Where("wallet_address = ?", walletAddress).
		First(&check).
		Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return
	}
	return check.CheckedLt, true, nil
}

// AdvanceCheckedLt bumps the cursor to lt. The cursor never moves backwards,
// a stale writer loses the conflict and the row keeps the higher value.
func AdvanceCheckedLt(ctx context.Context, db *gorm.DB, walletAddress string, lt uint64) (err error) {
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "wallet_address"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"checked_lt": lt,
			}),
			Where: clause.Where{
				Exprs: []clause.Expression{
					clause.Lt{Column: clause.Column{Table: TableWalletChecks, Name: "checked_lt"}, Value: lt},
				},
			},
		}).
		Create(&WalletCheck{
			WalletAddress: walletAddress,
			CheckedLt:     lt,
		}).
		Error
}
