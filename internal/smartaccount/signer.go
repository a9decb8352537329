package smartaccount

import (
	"crypto/ecdsa"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Signer is the EOA owner of a smart account.
type Signer struct {
	sk      *ecdsa.PrivateKey
	address common.Address
}

func NewSigner(skHex string) (*Signer, error) {
	k, err := crypto.HexToECDSA(trim0x(skHex))
	if err != nil {
		return nil, fmt.Errorf("owner key: %w", err)
	}
	return &Signer{sk: k, address: crypto.PubkeyToAddress(k.PublicKey)}, nil
}

func (s *Signer) Address() common.Address { return s.address }

// SignHash signs a 32-byte digest with no prefix. v is returned as 27/28,
// which is what the account's ecrecover check expects.
func (s *Signer) SignHash(hash common.Hash) ([]byte, error) {
	sig, err := crypto.Sign(hash[:], s.sk)
	if err != nil {
		return nil, err
	}
	sig[64] += 27
	return sig, nil
}

func trim0x(s string) string {
	if len(s) >= 2 && (s[:2] == "0x" || s[:2] == "0X") {
		return s[2:]
	}
	return s
}
