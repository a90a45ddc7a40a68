package badger

import (
	"fmt"

	"github.com/poiesic/fingerprint/core"
)

// Key prefixes for different data types
const (
	vectorPrefix = "vec"
)

// makeVectorKey generates the key for a cached vector.
// Format: vec:model:hex(blake2b-64(text))
func makeVectorKey(model, text string) []byte {
	return []byte(fmt.Sprintf("%s:%s:%016x", vectorPrefix, model, uint64(core.IDFromContent(text))))
}

// makeVectorModelPrefix generates the prefix shared by all vectors of a model.
func makeVectorModelPrefix(model string) []byte {
	return []byte(fmt.Sprintf("%s:%s:", vectorPrefix, model))
}
