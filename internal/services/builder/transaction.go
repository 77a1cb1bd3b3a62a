package builder

import (
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"sync/atomic"

	"github.com/gagliardetto/solana-go"
)

var placeholderSeq atomic.Uint64

// placeholderSignature returns a signature that is unique within the process and
// never valid. It only fills the signature slot for simulation with sigVerify off.
func placeholderSignature() solana.Signature {
	var sig solana.Signature
	copy(sig[:], "placeholder")
	binary.LittleEndian.PutUint64(sig[len(sig)-8:], placeholderSeq.Add(1))
	return sig
}

// NewSimulationTransaction wraps the instructions into a legacy transaction paid by
// payer, with a zero blockhash and a placeholder signature. The node replaces the
// blockhash during simulation. The result must never be broadcast.
func NewSimulationTransaction(payer solana.PublicKey, instructions ...solana.Instruction) (*solana.Transaction, error) {
	tx, err := solana.NewTransaction(instructions, solana.Hash{}, solana.TransactionPayer(payer))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBuildFailed, err)
	}
	required := int(tx.Message.Header.NumRequiredSignatures)
	tx.Signatures = make([]solana.Signature, required)
	for i := range tx.Signatures {
		tx.Signatures[i] = placeholderSignature()
	}
	return tx, nil
}

// EncodeTransaction serializes tx to the base64 wire form.
func EncodeTransaction(tx *solana.Transaction) (string, error) {
	raw, err := tx.MarshalBinary()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrBuildFailed, err)
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}
