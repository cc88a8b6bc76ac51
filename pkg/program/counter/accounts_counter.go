package counter

import (
	"crypto/ed25519"

	"github.com/pkg/errors"

	"github.com/code-payments/code-authority-server/pkg/program"
	"github.com/code-payments/code-authority-server/pkg/solana/binary"
)

const (
	CounterAccountSize = (1 + // bump
		32 + // authority
		8) // count
)

var CounterAccountDiscriminator = program.AccountDiscriminator("Counter")

type CounterAccount struct {
	Bump      uint8
	Authority ed25519.PublicKey
	Count     uint64
}

func (obj *CounterAccount) Name() string {
	return "Counter"
}

func (obj *CounterAccount) Size() int {
	return CounterAccountSize
}

func (obj *CounterAccount) Marshal() []byte {
	data := make([]byte, CounterAccountSize)

	var offset int
	binary.PutUint8(data[offset:], obj.Bump, &offset)
	binary.PutKey32(data[offset:], obj.Authority, &offset)
	binary.PutUint64(data[offset:], obj.Count, &offset)

	return data
}

func (obj *CounterAccount) Unmarshal(data []byte) error {
	if len(data) != CounterAccountSize {
		return errors.Errorf("invalid counter account size: %d", len(data))
	}

	var offset int
	binary.GetUint8(data[offset:], &obj.Bump, &offset)
	binary.GetKey32(data[offset:], &obj.Authority, &offset)
	binary.GetUint64(data[offset:], &obj.Count, &offset)

	return nil
}

// UnmarshalCounterAccount decodes persisted counter account data, header
// included
func UnmarshalCounterAccount(data []byte) (*CounterAccount, error) {
	var obj CounterAccount
	if err := program.DecodeRecord(data, &obj); err != nil {
		return nil, err
	}
	return &obj, nil
}
