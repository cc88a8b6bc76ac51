package system

import (
	"encoding/binary"
	"strings"
	"testing"

	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/code-authority-server/pkg/solana"
	"github.com/code-payments/code-authority-server/pkg/testutil"
)

func TestProgramKey(t *testing.T) {
	assert.Equal(t, "11111111111111111111111111111111", base58.Encode(ProgramKey))
}

func TestCreateAccount(t *testing.T) {
	keys := testutil.GenerateSolanaKeys(t, 3)

	instruction := CreateAccount(keys[0], keys[1], keys[2], 12345, 67890)

	command := make([]byte, 4)
	lamports := make([]byte, 8)
	binary.LittleEndian.PutUint64(lamports, 12345)
	size := make([]byte, 8)
	binary.LittleEndian.PutUint64(size, 67890)

	assert.Equal(t, command, instruction.Data[0:4])
	assert.Equal(t, lamports, instruction.Data[4:12])
	assert.Equal(t, size, instruction.Data[12:20])
	assert.Equal(t, []byte(keys[2]), instruction.Data[20:52])

	decompiled, err := DecompileCreateAccount(instruction)
	require.NoError(t, err)
	assert.Equal(t, decompiled.Funder, keys[0])
	assert.Equal(t, decompiled.Address, keys[1])
	assert.Equal(t, decompiled.Owner, keys[2])
	assert.EqualValues(t, decompiled.Lamports, 12345)
	assert.EqualValues(t, decompiled.Size, 67890)
}

func TestDecompileNonCreate(t *testing.T) {
	keys := testutil.GenerateSolanaKeys(t, 3)

	instruction := CreateAccount(keys[0], keys[1], keys[2], 12345, 67890)
	instruction.Accounts = append(instruction.Accounts, solana.NewReadonlyAccountMeta(keys[2], false))
	_, err := DecompileCreateAccount(instruction)
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "invalid number of accounts"), err)

	instruction = CreateAccount(keys[0], keys[1], keys[2], 12345, 67890)
	binary.LittleEndian.PutUint32(instruction.Data, commandTransfer)
	_, err = DecompileCreateAccount(instruction)
	assert.Equal(t, solana.ErrIncorrectInstruction, err)

	instruction.Data = make([]byte, 3)
	_, err = DecompileCreateAccount(instruction)
	assert.Equal(t, solana.ErrIncorrectInstruction, err)

	instruction = CreateAccount(keys[0], keys[1], keys[2], 12345, 67890)
	instruction.Program = keys[0]
	_, err = DecompileCreateAccount(instruction)
	assert.Equal(t, solana.ErrIncorrectProgram, err)
}
