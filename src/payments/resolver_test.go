package payments

import (
	"context"
	"testing"

	"github.com/onton/reconciler/src/utils/ton"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCache struct {
	entries map[string]string
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[string]string)}
}

func (self *fakeCache) CacheGet(ctx context.Context, key string) (string, bool) {
	value, ok := self.entries[key]
	return value, ok
}

func (self *fakeCache) CacheSet(ctx context.Context, key string, value string) {
	self.entries[key] = value
}

type countingResolver struct {
	wallets map[string]*ton.JettonWallet
	calls   int
}

func (self *countingResolver) GetJettonWallet(ctx context.Context, address string) (*ton.JettonWallet, error) {
	self.calls++
	wallet, ok := self.wallets[address]
	if !ok {
		return nil, ton.ErrNotFound
	}
	return wallet, nil
}

func TestRepeatLookupsHitTheCache(t *testing.T) {
	inner := &countingResolver{
		wallets: map[string]*ton.JettonWallet{
			testJettonWallet: {
				Address:  testJettonWallet,
				Owner:    testPayer,
				Jetton:   testJettonMaster,
				Decimals: 6,
			},
		},
	}
	resolver := NewCachedResolver(inner, newFakeCache())

	first, err := resolver.GetJettonWallet(context.Background(), testJettonWallet)
	require.NoError(t, err)

	second, err := resolver.GetJettonWallet(context.Background(), testJettonWallet)
	require.NoError(t, err)

	assert.Equal(t, 1, inner.calls)
	assert.Equal(t, first, second)
	assert.Equal(t, testJettonMaster, second.Jetton)
	assert.Equal(t, 6, second.Decimals)
}

func TestNotFoundIsNotCached(t *testing.T) {
	inner := &countingResolver{}
	cache := newFakeCache()
	resolver := NewCachedResolver(inner, cache)

	_, err := resolver.GetJettonWallet(context.Background(), testJettonWallet)
	require.ErrorIs(t, err, ton.ErrNotFound)

	_, err = resolver.GetJettonWallet(context.Background(), testJettonWallet)
	require.ErrorIs(t, err, ton.ErrNotFound)

	assert.Equal(t, 2, inner.calls)
	assert.Empty(t, cache.entries)
}

func TestUnreadableCacheEntryFallsThrough(t *testing.T) {
	inner := &countingResolver{
		wallets: map[string]*ton.JettonWallet{
			testJettonWallet: {Address: testJettonWallet, Jetton: testJettonMaster},
		},
	}
	cache := newFakeCache()
	cache.entries[jettonWalletCachePrefix+testJettonWallet] = "not json"
	resolver := NewCachedResolver(inner, cache)

	wallet, err := resolver.GetJettonWallet(context.Background(), testJettonWallet)
	require.NoError(t, err)
	assert.Equal(t, testJettonMaster, wallet.Jetton)
	assert.Equal(t, 1, inner.calls)

	// The bad entry is replaced with the fresh resolution
	wallet, err = resolver.GetJettonWallet(context.Background(), testJettonWallet)
	require.NoError(t, err)
	assert.Equal(t, testJettonMaster, wallet.Jetton)
	assert.Equal(t, 1, inner.calls)
}
