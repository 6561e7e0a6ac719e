package ton

// Opcode of a jetton transfer notification message
const OpJettonTransferNotification = "0x7362d09c"

// Nanotons per TON
const NativeDecimals = 9

type PaymentKind string

const (
	// Plain native-coin transfer carrying a text comment
	PaymentKindNative PaymentKind = "native"

	// Jetton transfer notification; the comment sits one level deeper in
	// the forward payload and the sender field is the payer's jetton
	// wallet, not the payer
	PaymentKindJetton PaymentKind = "jetton"
)

// Transaction is the normalized record the jobs work with
type Transaction struct {
	Hash  string
	Lt    uint64
	Utime int64
	In    *IncomingMessage
}

type IncomingMessage struct {
	Kind PaymentKind

	// Message sender. For jetton notifications this is the jetton wallet
	// that forwarded the transfer; it cannot be trusted to declare its own
	// token and must be resolved through the indexer.
	Sender string

	// Nanotons attached to a native transfer
	Value uint64

	// Decoded text comment (native) or forward-payload comment (jetton)
	Comment string

	// Jetton amount in minimal units, for jetton notifications
	JettonAmount uint64

	// Wallet that actually paid, for jetton notifications
	JettonSender string
}

// Wire types of the indexer REST API

type transactionsResponse struct {
	Transactions []rawTransaction `json:"transactions"`
}

type rawTransaction struct {
	Hash  string      `json:"hash"`
	Lt    uint64      `json:"lt,string"`
	Now   int64       `json:"now"`
	InMsg *rawMessage `json:"in_msg"`
}

type rawMessage struct {
	Source         string             `json:"source"`
	Destination    string             `json:"destination"`
	Value          uint64             `json:"value,string"`
	Opcode         string             `json:"opcode"`
	MessageContent *rawMessageContent `json:"message_content"`
}

type rawMessageContent struct {
	Decoded *rawDecodedContent `json:"decoded"`
}

type rawDecodedContent struct {
	Type string `json:"type"`

	// Set for type == "text_comment"
	Comment string `json:"comment"`

	// Set for type == "jetton_transfer_notification"
	JettonAmount   uint64 `json:"jetton_amount,string"`
	JettonSender   string `json:"jetton_sender"`
	ForwardComment string `json:"forward_comment"`
}

type jettonWalletsResponse struct {
	JettonWallets []JettonWallet `json:"jetton_wallets"`
}

// JettonWallet resolves a jetton wallet to its issuing master contract
type JettonWallet struct {
	Address  string `json:"address"`
	Owner    string `json:"owner"`
	Jetton   string `json:"jetton"`
	Decimals int    `json:"decimals"`
}

type nftItemsResponse struct {
	NftItems []NftItemInfo `json:"nft_items"`
}

// NftItemInfo is the indexer's view of a minted NFT item
type NftItemInfo struct {
	Address           string `json:"address"`
	CollectionAddress string `json:"collection_address"`
	Index             int64  `json:"index,string"`
	OwnerAddress      string `json:"owner_address"`
}
