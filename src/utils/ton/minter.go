package ton

import (
	"context"
	"errors"
	"time"

	"github.com/onton/reconciler/src/utils/config"
	"github.com/onton/reconciler/src/utils/logger"

	"github.com/sirupsen/logrus"
	"github.com/tonkeeper/tongo/boc"
	"github.com/tonkeeper/tongo/liteapi"
	"github.com/tonkeeper/tongo/tlb"
	"github.com/tonkeeper/tongo/ton"
	"github.com/tonkeeper/tongo/wallet"
)

// Deploy-new-item opcode of the standard NFT collection contract
const opCollectionMint = 1

// Off-chain content tag of TEP-64 metadata
const offchainContentTag = 0x01

var walletVersions = map[string]wallet.Version{
	"v3r2": wallet.V3R2,
	"v4r1": wallet.V4R1,
	"v4r2": wallet.V4R2,
}

// Minter submits mint messages to an NFT collection contract through a
// liteserver-backed wallet and resolves the address of the minted item
// through the indexer.
type Minter struct {
	wallet *wallet.Wallet
	client *Client
	config *config.Ton
	log    *logrus.Entry
}

func NewMinter(config *config.Ton, client *Client) (self *Minter, err error) {
	self = new(Minter)
	self.config = config
	self.client = client
	self.log = logger.NewSublogger("minter")

	if config.MinterWalletMnemonic == "" {
		return nil, errors.New("minter wallet mnemonic not configured")
	}

	version, ok := walletVersions[config.MinterWalletVersion]
	if !ok {
		return nil, errors.New("unsupported minter wallet version: " + config.MinterWalletVersion)
	}

	liteClient, err := liteapi.NewClientWithDefaultMainnet()
	if err != nil {
		return
	}

	privateKey, err := wallet.SeedToPrivateKey(config.MinterWalletMnemonic)
	if err != nil {
		return
	}

	w, err := wallet.New(privateKey, version, liteClient)
	if err != nil {
		return
	}
	self.wallet = &w

	return
}

// MintNFT deploys item `index` of the collection to `ownerAddress` with
// off-chain metadata at metadataUrl, and returns the new item's address.
func (self *Minter) MintNFT(ctx context.Context, ownerAddress, collectionAddress string, index int64, metadataUrl string) (nftAddress string, err error) {
	collection, err := ton.ParseAccountID(collectionAddress)
	if err != nil {
		return
	}

	owner, err := ton.ParseAccountID(ownerAddress)
	if err != nil {
		return
	}

	body, err := buildMintBody(owner, index, metadataUrl)
	if err != nil {
		return
	}

	message := wallet.Message{
		Amount:  tlb.Grams(self.config.MintAmount),
		Address: collection,
		Bounce:  true,
		Mode:    wallet.DefaultMessageMode,
		Body:    body,
	}

	self.log.WithField("collection", collectionAddress).WithField("index", index).
		Info("Submitting mint message")

	_, err = self.wallet.SendV2(ctx, self.config.MintSendTimeout, message)
	if err != nil {
		return
	}

	// The item address is assigned by the collection contract; poll the
	// indexer until the deployed item shows up
	return self.waitForItem(ctx, collectionAddress, index)
}

func (self *Minter) waitForItem(ctx context.Context, collectionAddress string, index int64) (nftAddress string, err error) {
	deadline := time.Now().Add(self.config.MintSendTimeout)
	for {
		item, err := self.client.GetNftItem(ctx, collectionAddress, index)
		if err == nil {
			return item.Address, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return "", err
		}
		if time.Now().After(deadline) {
			return "", errors.New("minted item did not appear in the indexer in time")
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(5 * time.Second):
		}
	}
}

func buildMintBody(owner ton.AccountID, index int64, metadataUrl string) (body *boc.Cell, err error) {
	content := boc.NewCell()
	if err = content.WriteUint(offchainContentTag, 8); err != nil {
		return
	}
	if err = content.WriteBytes([]byte(metadataUrl)); err != nil {
		return
	}

	itemData := boc.NewCell()
	if err = tlb.Marshal(itemData, owner.ToMsgAddress()); err != nil {
		return
	}
	if err = itemData.AddRef(content); err != nil {
		return
	}

	body = boc.NewCell()
	if err = body.WriteUint(opCollectionMint, 32); err != nil {
		return
	}
	// query_id
	if err = body.WriteUint(uint64(time.Now().UnixNano()), 64); err != nil {
		return
	}
	if err = body.WriteUint(uint64(index), 64); err != nil {
		return
	}
	// Coins forwarded to the item for its deployment
	if err = tlb.Marshal(body, tlb.Grams(20_000_000)); err != nil {
		return
	}
	if err = body.AddRef(itemData); err != nil {
		return
	}

	return body, nil
}
