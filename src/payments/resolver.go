package payments

import (
	"context"
	"encoding/json"

	"github.com/onton/reconciler/src/utils/logger"
	"github.com/onton/reconciler/src/utils/ton"

	"github.com/sirupsen/logrus"
)

const jettonWalletCachePrefix = "jetton-wallet:"

// resolverCache is the subset of the locker's cache the resolver needs
type resolverCache interface {
	CacheGet(ctx context.Context, key string) (string, bool)
	CacheSet(ctx context.Context, key string, value string)
}

// CachedResolver memoizes jetton wallet resolutions. A wallet's master
// contract binding is immutable on chain, so repeat payers skip the indexer
// round trip. Cache failures degrade to plain lookups.
type CachedResolver struct {
	inner JettonResolver
	cache resolverCache
	log   *logrus.Entry
}

func NewCachedResolver(inner JettonResolver, cache resolverCache) (self *CachedResolver) {
	self = new(CachedResolver)
	self.inner = inner
	self.cache = cache
	self.log = logger.NewSublogger("resolver-cache")
	return
}

func (self *CachedResolver) GetJettonWallet(ctx context.Context, address string) (wallet *ton.JettonWallet, err error) {
	key := jettonWalletCachePrefix + address
	if cached, ok := self.cache.CacheGet(ctx, key); ok {
		wallet = new(ton.JettonWallet)
		if err = json.Unmarshal([]byte(cached), wallet); err == nil {
			return wallet, nil
		}
		self.log.WithField("address", address).Warn("Unreadable cache entry, resolving through the indexer")
	}

	wallet, err = self.inner.GetJettonWallet(ctx, address)
	if err != nil {
		// Not-found stays uncached, the wallet may simply not be indexed yet
		return nil, err
	}

	if payload, err := json.Marshal(wallet); err == nil {
		self.cache.CacheSet(ctx, key, string(payload))
	}
	return wallet, nil
}
