// Package tokens estimates how many model tokens a piece of text uses.
package tokens

import (
	"fmt"
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

const (
	// EncodingName is the BPE encoding used for all counts.
	EncodingName = "cl100k_base"

	// MessageOverhead is added to every count for the chat message framing.
	MessageOverhead = 4
)

// Encoder turns text into token ids.
type Encoder interface {
	Encode(text string) []int
}

// Counter counts tokens with an Encoder.
type Counter struct {
	enc Encoder
}

// NewCounter returns a Counter backed by enc.
func NewCounter(enc Encoder) *Counter {
	return &Counter{enc: enc}
}

// CountTokens returns the encoded length of text plus MessageOverhead.
func (c *Counter) CountTokens(text string) int {
	return len(c.enc.Encode(text)) + MessageOverhead
}

type tiktokenEncoder struct {
	tk *tiktoken.Tiktoken
}

func (e tiktokenEncoder) Encode(text string) []int {
	return e.tk.Encode(text, nil, nil)
}

var (
	cl100kOnce sync.Once
	cl100k     *Counter
	cl100kErr  error
)

// NewCL100K returns a Counter using the cl100k_base encoding. The encoding
// is loaded once per process; loading may download the BPE ranks on first use.
func NewCL100K() (*Counter, error) {
	cl100kOnce.Do(func() {
		tk, err := tiktoken.GetEncoding(EncodingName)
		if err != nil {
			cl100kErr = fmt.Errorf("failed to load %s encoding: %w", EncodingName, err)
			return
		}
		cl100k = NewCounter(tiktokenEncoder{tk: tk})
	})
	return cl100k, cl100kErr
}
