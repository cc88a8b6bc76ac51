package metadata

import (
	"crypto/ed25519"

	"github.com/pkg/errors"

	"github.com/code-payments/code-authority-server/pkg/solana/binary"
)

const (
	creatorSize           = ed25519.PublicKeySize + 1 + 1
	collectionSize        = 1 + ed25519.PublicKeySize
	usesSize              = 1 + 8 + 8
	collectionDetailsSize = 1 + 8
	editionNonceSize      = 1
)

var errTruncatedOptions = errors.New("truncated borsh data")

// optionReader walks borsh encoded data to find which options are present.
// borsh decodes None as a pointer to the zero value, so presence can't be
// recovered from the decoded struct.
type optionReader struct {
	data   []byte
	offset int
	err    error
}

func (r *optionReader) skip(n int) {
	if r.err != nil {
		return
	}
	if n < 0 || len(r.data)-r.offset < n {
		r.err = errTruncatedOptions
		return
	}
	r.offset += n
}

func (r *optionReader) skipString() {
	if r.err != nil {
		return
	}
	var s string
	if !binary.GetString(r.data[r.offset:], &s, &r.offset) {
		r.err = errTruncatedOptions
	}
}

// option reads an option tag and skips a present value of the given size
func (r *optionReader) option(size int) bool {
	present := r.tag()
	if present {
		r.skip(size)
	}
	return present && r.err == nil
}

// creators reads the option tag of a creator list and skips the list
func (r *optionReader) creators() bool {
	if !r.tag() {
		return false
	}

	if len(r.data)-r.offset < 4 {
		r.err = errTruncatedOptions
		return false
	}

	var count uint32
	binary.GetUint32(r.data[r.offset:], &count, &r.offset)
	if uint64(count) > uint64(len(r.data)-r.offset)/creatorSize {
		r.err = errTruncatedOptions
		return false
	}
	r.skip(int(count) * creatorSize)
	return r.err == nil
}

func (r *optionReader) tag() bool {
	if r.err != nil {
		return false
	}
	if r.offset >= len(r.data) {
		r.err = errTruncatedOptions
		return false
	}

	tag := r.data[r.offset]
	r.offset++
	switch tag {
	case 0:
		return false
	case 1:
		return true
	}
	r.err = errors.Errorf("invalid option tag %d", tag)
	return false
}
