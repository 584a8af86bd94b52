// Package noopcodec stores data as is. It is used for the evaluation
// database manifest and for uncompressed reports.
package noopcodec

import (
	"io"

	"github.com/discochess/gamelens/internal/codec"
)

var _ codec.Codec = (*Codec)(nil)

// Codec passes data through unchanged.
type Codec struct{}

// New returns a Codec.
func New() *Codec {
	return &Codec{}
}

// Reader returns r. Closing the result leaves r open; stores close their
// own streams.
func (c *Codec) Reader(r io.Reader) (io.ReadCloser, error) {
	return io.NopCloser(r), nil
}

// Writer returns w. Closing the result leaves w open, so a store can
// finalize its object after the codec is done.
func (c *Codec) Writer(w io.Writer) (io.WriteCloser, error) {
	return writeCloser{w}, nil
}

// Extension is empty: keys map to objects unchanged.
func (c *Codec) Extension() string {
	return ""
}

type writeCloser struct {
	io.Writer
}

func (writeCloser) Close() error { return nil }
