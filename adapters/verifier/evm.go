package verifier

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

// SchemeEVM identifies 0x-prefixed Ethereum addresses
const SchemeEVM = "evm"

// EVMVerifier checks personal_sign (EIP-191) signatures by recovering the
// signer and comparing it with the claimed address.
type EVMVerifier struct{}

func NewEVMVerifier() *EVMVerifier {
	return &EVMVerifier{}
}

func (v *EVMVerifier) Scheme() string {
	return SchemeEVM
}

func (v *EVMVerifier) ValidAddress(address string) bool {
	return strings.HasPrefix(address, "0x") && common.IsHexAddress(address)
}

// Verify checks a 0x hex encoded 65 byte [R || S || V] signature
func (v *EVMVerifier) Verify(address, signature, message string) bool {
	if !v.ValidAddress(address) {
		return false
	}

	sig, err := hexutil.Decode(signature)
	if err != nil || len(sig) != crypto.SignatureLength {
		return false
	}

	// Wallets emit V as 27/28, recovery expects 0/1
	if sig[crypto.RecoveryIDOffset] >= 27 {
		sig[crypto.RecoveryIDOffset] -= 27
	}
	if sig[crypto.RecoveryIDOffset] > 1 {
		return false
	}

	pub, err := crypto.SigToPub(accounts.TextHash([]byte(message)), sig)
	if err != nil {
		return false
	}

	return crypto.PubkeyToAddress(*pub) == common.HexToAddress(address)
}
