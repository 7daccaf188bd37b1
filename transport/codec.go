package transport

import (
	"sync"

	"github.com/goccy/go-json"
)

// Codec encodes request payloads and decodes response bodies. The default
// implementation is based on goccy/go-json and may be swapped with SetCodec.
type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
	Name() string
}

var (
	codecMu      sync.RWMutex
	currentCodec Codec = gojsonCodec{}
)

// SetCodec replaces the global codec; nil values are ignored.
func SetCodec(c Codec) {
	if c == nil {
		return
	}
	codecMu.Lock()
	currentCodec = c
	codecMu.Unlock()
}

// UseDefaultCodec restores the goccy/go-json-backed codec.
func UseDefaultCodec() {
	codecMu.Lock()
	currentCodec = gojsonCodec{}
	codecMu.Unlock()
}

func getCodec() Codec {
	codecMu.RLock()
	c := currentCodec
	codecMu.RUnlock()
	return c
}

type gojsonCodec struct{}

func (gojsonCodec) Marshal(v any) ([]byte, error)      { return json.Marshal(v) }
func (gojsonCodec) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }
func (gojsonCodec) Name() string                       { return "goccy/go-json" }
