package payments

import (
	"context"
	"math"
	"strings"

	"github.com/onton/reconciler/src/utils/config"
	"github.com/onton/reconciler/src/utils/logger"
	"github.com/onton/reconciler/src/utils/model"
	"github.com/onton/reconciler/src/utils/monitoring"
	"github.com/onton/reconciler/src/utils/notify"
	"github.com/onton/reconciler/src/utils/ton"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// JettonResolver is the subset of the indexer client the matcher needs
type JettonResolver interface {
	GetJettonWallet(ctx context.Context, address string) (*ton.JettonWallet, error)
}

// Matcher reconciles a single incoming transaction against the orders table.
// Transactions that carry the payment comment prefix but cannot be matched
// are forwarded to the notifier.
type Matcher struct {
	db       *gorm.DB
	resolver JettonResolver
	monitor  monitoring.Monitor
	config   *config.Payments
	output   chan *notify.UnreconciledRecord
	log      *logrus.Entry
}

func NewMatcher(config *config.Config) (self *Matcher) {
	self = new(Matcher)
	self.config = &config.Payments
	self.log = logger.NewSublogger("matcher")
	return
}

func (self *Matcher) WithDb(v *gorm.DB) *Matcher {
	self.db = v
	return self
}

func (self *Matcher) WithResolver(v JettonResolver) *Matcher {
	self.resolver = v
	return self
}

func (self *Matcher) WithMonitor(v monitoring.Monitor) *Matcher {
	self.monitor = v
	return self
}

func (self *Matcher) WithOutputChannel(v chan *notify.UnreconciledRecord) *Matcher {
	self.output = v
	return self
}

// Match processes one transaction. Returns whether the order was moved to
// processing. Transactions without the payment prefix are ignored, failed
// matches of prefixed transactions are reported and do not fail the batch.
func (self *Matcher) Match(ctx context.Context, trx *ton.Transaction) (matched bool, err error) {
	if trx.In == nil || trx.In.Comment == "" {
		return
	}

	orderId, ok := ton.ExtractCorrelationId(trx.In.Comment, self.config.CommentPrefix)
	if !ok {
		// Not a payment to this system
		return
	}

	log := self.log.WithField("order_id", orderId).WithField("trx_hash", trx.Hash)

	var order model.Order
	err = self.db.WithContext(ctx).
		Where("id = ?", orderId).
		First(&order).
		Error
	if err == gorm.ErrRecordNotFound {
		self.reject(trx, "order not found")
		return false, nil
	}
	if err != nil {
		log.WithError(err).Error("Failed to load order")
		self.monitor.GetReport().Payments.Errors.DbOrderUpdateErrors.Inc()
		return
	}

	paidAmount, payerAddress, reason, err := self.resolvePayment(ctx, trx, &order)
	if err != nil {
		// Infrastructure failure, abort the batch so the transaction is
		// retried on the next pass
		return
	}
	if reason != "" {
		self.reject(trx, reason)
		return false, nil
	}

	if math.Abs(paidAmount-order.TotalPrice) > self.config.AmountEpsilon {
		self.reject(trx, "amount mismatch")
		return false, nil
	}

	err = self.acceptPayment(ctx, &order, trx, payerAddress)
	if err != nil {
		log.WithError(err).Error("Failed to accept payment")
		self.monitor.GetReport().Payments.Errors.DbOrderUpdateErrors.Inc()
		return
	}

	log.Info("Order payment confirmed")
	self.monitor.GetReport().Payments.State.OrdersConfirmed.Inc()
	return true, nil
}

// resolvePayment derives the effective paid amount and payer for the
// transaction and checks the asset against the order's expectation.
// A non-empty reason means the transaction is not a valid payment.
func (self *Matcher) resolvePayment(ctx context.Context, trx *ton.Transaction, order *model.Order) (amount float64, payer string, reason string, err error) {
	switch trx.In.Kind {
	case ton.PaymentKindNative:
		if !isNativeToken(order.PaymentToken) {
			return 0, "", "native transfer for a jetton order", nil
		}
		amount = float64(trx.In.Value) / math.Pow10(ton.NativeDecimals)
		payer = trx.In.Sender
		return

	case ton.PaymentKindJetton:
		if isNativeToken(order.PaymentToken) {
			return 0, "", "jetton transfer for a native order", nil
		}

		// The forwarding wallet declares nothing trustworthy about its
		// token, resolve the master contract through the indexer
		wallet, err := self.resolver.GetJettonWallet(ctx, trx.In.Sender)
		if err == ton.ErrNotFound {
			return 0, "", "sender is not a jetton wallet", nil
		}
		if err != nil {
			self.monitor.GetReport().Payments.Errors.JettonResolveErrors.Inc()
			return 0, "", "", err
		}

		if !ton.AddressesEqual(wallet.Jetton, order.PaymentToken) {
			return 0, "", "wrong jetton master", nil
		}

		amount = float64(trx.In.JettonAmount) / math.Pow10(wallet.Decimals)
		payer = trx.In.JettonSender
		return amount, payer, "", nil

	default:
		return 0, "", "unsupported payment kind", nil
	}
}

// acceptPayment flips the order to processing and registers the buyer for
// the event in one transaction. The conditional update makes duplicate
// deliveries of the same payment a no-op.
func (self *Matcher) acceptPayment(ctx context.Context, order *model.Order, trx *ton.Transaction, payerAddress string) (err error) {
	return self.db.WithContext(ctx).
		Transaction(func(dbTx *gorm.DB) error {
			result := dbTx.
				Model(&model.Order{}).
				Where("id = ? AND state IN ?", order.Id, OrderPayableStateStrings()).
				Updates(map[string]interface{}{
					"state":         model.OrderStateProcessing,
					"payer_address": payerAddress,
					"trx_hash":      trx.Hash,
				})
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				// Already paid, someone replayed the correlation id
				self.log.WithField("order_id", order.Id).Info("Order already processed, skipping")
				self.monitor.GetReport().Payments.State.AlreadyProcessedCorrelation.Inc()
				return nil
			}

			return dbTx.
				Clauses(clause.OnConflict{
					Columns:   []clause.Column{{Name: "event_id"}, {Name: "user_id"}},
					DoNothing: true,
				}).
				Create(&model.Registrant{
					EventId: order.EventId,
					UserId:  order.UserId,
					OrderId: order.Id,
				}).
				Error
		})
}

func (self *Matcher) reject(trx *ton.Transaction, reason string) {
	self.log.
		WithField("trx_hash", trx.Hash).
		WithField("reason", reason).
		Warn("Transaction carries payment comment but could not be reconciled")
	self.monitor.GetReport().Payments.State.UnmatchedTransactions.Inc()

	if self.output == nil {
		return
	}
	self.output <- &notify.UnreconciledRecord{
		TrxHash: trx.Hash,
		Lt:      trx.Lt,
		Sender:  trx.In.Sender,
		Comment: trx.In.Comment,
		Reason:  reason,
	}
}

func isNativeToken(token string) bool {
	switch strings.ToUpper(token) {
	case "", "TON", "NATIVE":
		return true
	}
	return false
}

// OrderPayableStateStrings adapts the payable states for gorm's IN clause
func OrderPayableStateStrings() (out []string) {
	for _, state := range model.OrderPayableStates {
		out = append(out, string(state))
	}
	return
}
