package token

import (
	"crypto/ed25519"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/code-authority-server/pkg/solana"
	"github.com/code-payments/code-authority-server/pkg/solana/system"
)

func TestGetCommand(t *testing.T) {
	keys := generateKeys(t, 3)

	cmd, err := GetCommand(MintTo(keys[0], keys[1], keys[2], 10))
	require.NoError(t, err)
	assert.Equal(t, CommandMintTo, cmd)

	cmd, err = GetCommand(InitializeMint2(keys[0], keys[1], nil, 6))
	require.NoError(t, err)
	assert.Equal(t, CommandInitializeMint2, cmd)
}

func TestGetCommand_Error(t *testing.T) {
	keys := generateKeys(t, 4)

	cmd, err := GetCommand(solana.NewInstruction(keys[0], []byte{byte(CommandMintTo)}))
	assert.Equal(t, solana.ErrIncorrectProgram, err)
	assert.Equal(t, CommandUnknown, cmd)

	cmd, err = GetCommand(solana.NewInstruction(ProgramKey, nil))
	assert.Error(t, err)
	assert.Equal(t, CommandUnknown, cmd)
}

func TestInitializeMint2(t *testing.T) {
	keys := generateKeys(t, 3)

	instruction := InitializeMint2(keys[0], keys[1], keys[2], 9)

	require.Len(t, instruction.Accounts, 1)
	assert.Equal(t, keys[0], instruction.Accounts[0].PublicKey)
	assert.True(t, instruction.Accounts[0].IsWritable)
	assert.False(t, instruction.Accounts[0].IsSigner)

	require.Len(t, instruction.Data, 2+2*ed25519.PublicKeySize+1)
	assert.EqualValues(t, CommandInitializeMint2, instruction.Data[0])
	assert.EqualValues(t, 9, instruction.Data[1])
	assert.EqualValues(t, keys[1], instruction.Data[2:34])
	assert.EqualValues(t, 1, instruction.Data[34])
	assert.EqualValues(t, keys[2], instruction.Data[35:])

	decompiled, err := DecompileInitializeMint2(instruction)
	require.NoError(t, err)
	assert.Equal(t, keys[0], decompiled.Mint)
	assert.EqualValues(t, 9, decompiled.Decimals)
	assert.Equal(t, keys[1], decompiled.MintAuthority)
	assert.Equal(t, keys[2], decompiled.FreezeAuthority)
}

func TestInitializeMint2_NoFreezeAuthority(t *testing.T) {
	keys := generateKeys(t, 2)

	instruction := InitializeMint2(keys[0], keys[1], nil, 0)
	require.Len(t, instruction.Data, 2+ed25519.PublicKeySize+1)
	assert.EqualValues(t, 0, instruction.Data[34])

	decompiled, err := DecompileInitializeMint2(instruction)
	require.NoError(t, err)
	assert.Equal(t, keys[1], decompiled.MintAuthority)
	assert.Nil(t, decompiled.FreezeAuthority)

	instruction.Data = append(instruction.Data, 1)
	_, err = DecompileInitializeMint2(instruction)
	assert.Error(t, err)

	instruction.Data[0] = byte(CommandInitializeMint)
	_, err = DecompileInitializeMint2(instruction)
	assert.Equal(t, solana.ErrIncorrectInstruction, err)
}

func TestInitializeAccount(t *testing.T) {
	keys := generateKeys(t, 3)

	instruction := InitializeAccount(keys[0], keys[1], keys[2])

	assert.Equal(t, []byte{byte(CommandInitializeAccount)}, instruction.Data)
	require.Len(t, instruction.Accounts, 4)
	assert.True(t, instruction.Accounts[0].IsWritable)
	for i := 1; i < len(instruction.Accounts); i++ {
		assert.False(t, instruction.Accounts[i].IsWritable)
	}
	for i := 0; i < len(instruction.Accounts); i++ {
		assert.False(t, instruction.Accounts[i].IsSigner)
	}
	assert.EqualValues(t, system.RentSysVar, instruction.Accounts[3].PublicKey)

	decompiled, err := DecompileInitializeAccount(instruction)
	require.NoError(t, err)
	assert.Equal(t, keys[0], decompiled.Account)
	assert.Equal(t, keys[1], decompiled.Mint)
	assert.Equal(t, keys[2], decompiled.Owner)

	instruction.Accounts[3].PublicKey = keys[0]
	_, err = DecompileInitializeAccount(instruction)
	assert.Error(t, err)
}

func TestMintTo(t *testing.T) {
	keys := generateKeys(t, 3)

	instruction := MintTo(keys[0], keys[1], keys[2], 123456789)

	expectedAmount := make([]byte, 8)
	binary.LittleEndian.PutUint64(expectedAmount, 123456789)

	assert.EqualValues(t, CommandMintTo, instruction.Data[0])
	assert.Equal(t, expectedAmount, instruction.Data[1:])

	require.Len(t, instruction.Accounts, 3)
	assert.True(t, instruction.Accounts[0].IsWritable)
	assert.True(t, instruction.Accounts[1].IsWritable)
	assert.False(t, instruction.Accounts[2].IsWritable)
	assert.True(t, instruction.Accounts[2].IsSigner)
	assert.Equal(t, []ed25519.PublicKey{keys[2]}, instruction.Signers())

	decompiled, err := DecompileMintTo(instruction)
	require.NoError(t, err)
	assert.Equal(t, keys[0], decompiled.Mint)
	assert.Equal(t, keys[1], decompiled.Destination)
	assert.Equal(t, keys[2], decompiled.Authority)
	assert.EqualValues(t, 123456789, decompiled.Amount)

	instruction.Data = instruction.Data[:5]
	_, err = DecompileMintTo(instruction)
	assert.Error(t, err)

	instruction.Accounts = instruction.Accounts[:2]
	_, err = DecompileMintTo(instruction)
	assert.Error(t, err)
}

func generateKeys(t *testing.T, amount int) []ed25519.PublicKey {
	keys := make([]ed25519.PublicKey, amount)

	for i := 0; i < amount; i++ {
		pub, _, err := ed25519.GenerateKey(nil)
		require.NoError(t, err)
		keys[i] = pub
	}

	return keys
}
