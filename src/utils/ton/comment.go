package ton

import (
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// ExtractCorrelationId pulls an order correlation UUID out of a transaction
// comment. Comments are adversarial input, anything malformed is simply not
// a payment to this system.
func ExtractCorrelationId(comment, prefix string) (id string, ok bool) {
	if !strings.HasPrefix(comment, prefix) {
		return "", false
	}

	id = strings.TrimSpace(strings.TrimPrefix(comment, prefix))
	parsed, err := uuid.Parse(id)
	if err != nil {
		return "", false
	}
	return parsed.String(), true
}

// MergeRequest is the decoded structured comment of a merge transaction:
// the requester's wallet and the indices of the three NFTs to merge.
type MergeRequest struct {
	WalletAddress string
	GoldIndex     int64
	SilverIndex   int64
	BronzeIndex   int64
}

// ParseMergeComment decodes "<prefix><wallet>:<gold>:<silver>:<bronze>"
func ParseMergeComment(comment, prefix string) (request *MergeRequest, ok bool) {
	if !strings.HasPrefix(comment, prefix) {
		return nil, false
	}

	parts := strings.Split(strings.TrimSpace(strings.TrimPrefix(comment, prefix)), ":")
	if len(parts) < 4 {
		return nil, false
	}

	// Raw-form addresses contain a colon themselves, only the last three
	// segments are indices
	wallet := strings.Join(parts[:len(parts)-3], ":")
	if _, err := NormalizeAddress(wallet); err != nil {
		return nil, false
	}

	indices := make([]int64, 3)
	for i, part := range parts[len(parts)-3:] {
		index, err := strconv.ParseInt(part, 10, 64)
		if err != nil || index < 0 {
			return nil, false
		}
		indices[i] = index
	}

	return &MergeRequest{
		WalletAddress: wallet,
		GoldIndex:     indices[0],
		SilverIndex:   indices[1],
		BronzeIndex:   indices[2],
	}, true
}
