package ton

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/onton/reconciler/src/utils/config"
	"github.com/onton/reconciler/src/utils/logger"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
)

var ErrNotFound = errors.New("indexer returned no records")

// Client queries the chain indexer REST API. API keys are picked round-robin
// per request; failures retry a bounded number of times with a fixed delay
// before the error is propagated to the caller.
type Client struct {
	httpClient *resty.Client
	keys       *KeyPool
	config     *config.Ton
	log        *logrus.Entry
}

func NewClient(config *config.Ton) (self *Client) {
	self = new(Client)
	self.config = config
	self.keys = NewKeyPool(config.IndexerApiKeys)
	self.log = logger.NewSublogger("ton-client")
	self.httpClient = resty.New().
		SetBaseURL(config.IndexerUrl).
		SetTimeout(config.IndexerRequestTimeout)
	return
}

func (self *Client) request(ctx context.Context, result interface{}) *resty.Request {
	req := self.httpClient.R().
		SetContext(ctx).
		SetResult(result).
		ForceContentType("application/json").
		SetHeader("Accept", "application/json")

	if key := self.keys.Next(); key != "" {
		req.SetHeader("X-Api-Key", key)
	}
	return req
}

// withRetry runs f up to IndexerMaxAttempts times with a fixed delay.
// Exhausting attempts propagates the last error so callers can abort their
// batch without advancing the cursor.
func (self *Client) withRetry(ctx context.Context, f func() error) (err error) {
	for attempt := 0; attempt < self.config.IndexerMaxAttempts; attempt++ {
		err = f()
		if err == nil {
			return nil
		}

		self.log.WithError(err).WithField("attempt", attempt).Warn("Indexer request failed")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(self.config.IndexerRetryDelay):
		}
	}
	return err
}

// GetTransactions lists transactions of an account in ascending logical
// time order. Exactly one of startLt (exclusive) and startUtime is used.
func (self *Client) GetTransactions(ctx context.Context, account string, startLt uint64, startUtime int64, limit, offset int) (out []Transaction, err error) {
	params := map[string]string{
		"account": account,
		"limit":   strconv.Itoa(limit),
		"offset":  strconv.Itoa(offset),
		"sort":    "asc",
	}
	if startLt > 0 {
		// Cursor is the last processed lt, request strictly newer ones
		params["start_lt"] = strconv.FormatUint(startLt+1, 10)
	} else {
		params["start_utime"] = strconv.FormatInt(startUtime, 10)
	}

	var result *transactionsResponse
	err = self.withRetry(ctx, func() error {
		resp, err := self.request(ctx, transactionsResponse{}).
			SetQueryParams(params).
			Get("/transactions")
		if err != nil {
			return err
		}
		if !resp.IsSuccess() {
			return fmt.Errorf("indexer transactions request failed with status %d", resp.StatusCode())
		}

		var ok bool
		result, ok = resp.Result().(*transactionsResponse)
		if !ok {
			return errors.New("failed to parse transactions response")
		}
		return nil
	})
	if err != nil {
		return
	}

	for i := range result.Transactions {
		out = append(out, normalizeTransaction(&result.Transactions[i]))
	}
	return
}

// GetJettonWallet resolves a jetton wallet's issuing master contract.
// Used to verify the token identity independent of the forwarding wallet.
func (self *Client) GetJettonWallet(ctx context.Context, address string) (wallet *JettonWallet, err error) {
	var result *jettonWalletsResponse
	err = self.withRetry(ctx, func() error {
		resp, err := self.request(ctx, jettonWalletsResponse{}).
			SetQueryParams(map[string]string{"address": address}).
			Get("/jetton/wallets")
		if err != nil {
			return err
		}
		if !resp.IsSuccess() {
			return fmt.Errorf("indexer jetton wallet request failed with status %d", resp.StatusCode())
		}

		var ok bool
		result, ok = resp.Result().(*jettonWalletsResponse)
		if !ok {
			return errors.New("failed to parse jetton wallets response")
		}
		return nil
	})
	if err != nil {
		return
	}

	if len(result.JettonWallets) == 0 {
		return nil, ErrNotFound
	}
	return &result.JettonWallets[0], nil
}

// GetNftItem looks up a minted NFT item by collection and index
func (self *Client) GetNftItem(ctx context.Context, collection string, index int64) (item *NftItemInfo, err error) {
	var result *nftItemsResponse
	err = self.withRetry(ctx, func() error {
		resp, err := self.request(ctx, nftItemsResponse{}).
			SetQueryParams(map[string]string{
				"collection_address": collection,
				"index":              strconv.FormatInt(index, 10),
			}).
			Get("/nft/items")
		if err != nil {
			return err
		}
		if !resp.IsSuccess() {
			return fmt.Errorf("indexer nft items request failed with status %d", resp.StatusCode())
		}

		var ok bool
		result, ok = resp.Result().(*nftItemsResponse)
		if !ok {
			return errors.New("failed to parse nft items response")
		}
		return nil
	})
	if err != nil {
		return
	}

	if len(result.NftItems) == 0 {
		return nil, ErrNotFound
	}
	return &result.NftItems[0], nil
}

func normalizeTransaction(raw *rawTransaction) (out Transaction) {
	out = Transaction{
		Hash:  raw.Hash,
		Lt:    raw.Lt,
		Utime: raw.Now,
	}
	if raw.InMsg == nil {
		return
	}

	in := &IncomingMessage{
		Kind:   PaymentKindNative,
		Sender: raw.InMsg.Source,
		Value:  raw.InMsg.Value,
	}

	if raw.InMsg.MessageContent != nil && raw.InMsg.MessageContent.Decoded != nil {
		decoded := raw.InMsg.MessageContent.Decoded
		switch decoded.Type {
		case "text_comment":
			in.Comment = decoded.Comment
		case "jetton_transfer_notification":
			// The payment comment sits in the forward payload, one level
			// deeper than a plain transfer
			in.Kind = PaymentKindJetton
			in.Comment = decoded.ForwardComment
			in.JettonAmount = decoded.JettonAmount
			in.JettonSender = decoded.JettonSender
		}
	}

	out.In = in
	return
}
