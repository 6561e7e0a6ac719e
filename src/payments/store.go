package payments

import (
	"context"

	"github.com/onton/reconciler/src/utils/model"

	"gorm.io/gorm"
)

// Store keeps the per-wallet reconciliation cursor
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) (self *Store) {
	self = new(Store)
	self.db = db
	return
}

// GetCheckedLt returns the last fully processed logical time of the wallet.
// found is false when the wallet has never been reconciled.
func (self *Store) GetCheckedLt(ctx context.Context, walletAddress string) (lt uint64, found bool, err error) {
	return model.GetCheckedLt(ctx, self.db, walletAddress)
}

// AdvanceCheckedLt bumps the cursor to lt. The cursor never moves backwards.
func (self *Store) AdvanceCheckedLt(ctx context.Context, walletAddress string, lt uint64) (err error) {
	return model.AdvanceCheckedLt(ctx, self.db, walletAddress, lt)
}
