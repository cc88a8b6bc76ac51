package counter

import (
	"github.com/code-payments/code-authority-server/pkg/program"
	"github.com/code-payments/code-authority-server/pkg/solana"
)

var (
	PROGRAM_ADDRESS = solana.MustBase58Decode("AxEx7K72AZiwkxgwxw3KkEtjAc6ezdPxcYK3zFJd3Qgu")
	PROGRAM_ID      = PROGRAM_ADDRESS
)

var (
	ErrUnauthorized      = program.NewError(6000, "Unauthorized", "Only the authority can increment the counter.", program.ClassUnauthorized)
	ErrNumericalOverflow = program.NewError(6000, "NumericalOverflow", "Numerical overflow", program.ClassNumericalOverflow)
)
