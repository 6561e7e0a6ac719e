package ton

import (
	"sync/atomic"
)

// KeyPool hands out indexer API keys round-robin so that one key's rate
// limit is not exhausted by a single job. Owns its rotation counter, there
// is no shared module state.
type KeyPool struct {
	keys []string
	next atomic.Uint32
}

func NewKeyPool(keys []string) (self *KeyPool) {
	self = new(KeyPool)
	for _, key := range keys {
		if key != "" {
			self.keys = append(self.keys, key)
		}
	}
	return
}

func (self *KeyPool) Size() int {
	return len(self.keys)
}

// Next returns the next key, or an empty string when no keys are configured
func (self *KeyPool) Next() string {
	if len(self.keys) == 0 {
		return ""
	}
	n := self.next.Add(1) - 1
	return self.keys[int(n)%len(self.keys)]
}
