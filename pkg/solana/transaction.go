package solana

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// Transaction is a message along with one signature slot per required signer.
// Slot i holds the signature of the i-th account key of the message.
type Transaction struct {
	Signatures []Signature
	Message    Message
}

// NewUnsignedTransaction wraps m with every signature slot unsigned.
func NewUnsignedTransaction(m Message) Transaction {
	return Transaction{
		Signatures: make([]Signature, m.Header.NumRequiredSignatures),
		Message:    m,
	}
}

// NewTransaction compiles instructions into an unsigned transaction paid for
// by payer.
func NewTransaction(payer PublicKey, blockhash Hash, instructions ...Instruction) (Transaction, error) {
	m, err := NewMessage(instructions, &payer, blockhash)
	if err != nil {
		return Transaction{}, err
	}
	return NewUnsignedTransaction(m), nil
}

// Signature returns the first signature, which identifies the transaction.
func (t *Transaction) Signature() Signature {
	if len(t.Signatures) == 0 {
		return Signature{}
	}
	return t.Signatures[0]
}

// IsSigned reports whether every required signature slot is filled.
func (t *Transaction) IsSigned() bool {
	numRequired := int(t.Message.Header.NumRequiredSignatures)
	if len(t.Signatures) < numRequired {
		return false
	}

	for _, sig := range t.Signatures[:numRequired] {
		if sig.IsZero() {
			return false
		}
	}
	return true
}

// TryPartialSign signs the message with each of signers, leaving other slots
// untouched. If blockhash differs from the message's recent blockhash, the
// blockhash is replaced and every existing signature is cleared first.
func (t *Transaction) TryPartialSign(signers []Signer, blockhash Hash) error {
	positions, err := t.signerPositions(signers)
	if err != nil {
		return err
	}

	if blockhash != t.Message.RecentBlockhash {
		t.Message.RecentBlockhash = blockhash
		for i := range t.Signatures {
			t.Signatures[i] = Signature{}
		}
	}

	messageBytes := t.Message.Marshal()
	for i, signer := range signers {
		sig, err := signer.Sign(messageBytes)
		if err != nil {
			return errors.Wrapf(err, "failed to sign with %s", signer.PublicKey())
		}
		t.Signatures[positions[i]] = sig
	}

	return nil
}

// TrySign is TryPartialSign, but fails unless every signature slot is filled
// afterwards.
func (t *Transaction) TrySign(signers []Signer, blockhash Hash) error {
	if err := t.TryPartialSign(signers, blockhash); err != nil {
		return err
	}
	if !t.IsSigned() {
		return ErrNotEnoughSigners
	}
	return nil
}

func (t *Transaction) signerPositions(signers []Signer) ([]int, error) {
	numRequired := int(t.Message.Header.NumRequiredSignatures)
	if numRequired > len(t.Message.AccountKeys) {
		numRequired = len(t.Message.AccountKeys)
	}

	positions := make([]int, len(signers))
	for i, signer := range signers {
		pub := signer.PublicKey()
		index, ok := position(t.Message.AccountKeys[:numRequired], pub)
		if !ok {
			return nil, errors.Wrapf(ErrKeypairMismatch, "%s", pub)
		}
		positions[i] = index
	}

	if len(t.Signatures) < numRequired {
		signatures := make([]Signature, numRequired)
		copy(signatures, t.Signatures)
		t.Signatures = signatures
	}
	return positions, nil
}

// VerifyWithResults checks each signature slot against the account key at the
// same index. Required slots missing from Signatures are reported as false.
func (t *Transaction) VerifyWithResults() []bool {
	messageBytes := t.Message.Marshal()

	n := len(t.Signatures)
	if numRequired := int(t.Message.Header.NumRequiredSignatures); numRequired > n {
		n = numRequired
	}

	results := make([]bool, n)
	for i, sig := range t.Signatures {
		if i >= len(t.Message.AccountKeys) {
			continue
		}
		results[i] = sig.Verify(t.Message.AccountKeys[i], messageBytes)
	}
	return results
}

// Verify fails with ErrSignatureFailure if any signature does not verify.
func (t *Transaction) Verify() error {
	for i, ok := range t.VerifyWithResults() {
		if !ok {
			return errors.Wrapf(ErrSignatureFailure, "signature %d", i)
		}
	}
	return nil
}

// VerifyAndHashMessage verifies every signature and returns the hash of the
// message.
func (t *Transaction) VerifyAndHashMessage() (Hash, error) {
	if err := t.Verify(); err != nil {
		return Hash{}, err
	}
	return HashRawMessage(t.Message.Marshal()), nil
}

// Sanitize checks the signature count against the header and sanitizes the
// message.
func (t *Transaction) Sanitize() error {
	numRequired := int(t.Message.Header.NumRequiredSignatures)
	if numRequired > len(t.Signatures) {
		return errors.Wrapf(ErrSanitize, "%d signatures for %d required signers", len(t.Signatures), numRequired)
	}
	if len(t.Signatures) > len(t.Message.AccountKeys) {
		return errors.Wrapf(ErrSanitize, "%d signatures for %d account keys", len(t.Signatures), len(t.Message.AccountKeys))
	}
	return t.Message.Sanitize()
}

func (t *Transaction) String() string {
	var sb strings.Builder
	sb.WriteString("Signatures:\n")
	for i, s := range t.Signatures {
		sb.WriteString(fmt.Sprintf("  %d: %s\n", i, s))
	}
	sb.WriteString("Message:\n")
	for _, line := range strings.Split(strings.TrimSuffix(t.Message.String(), "\n"), "\n") {
		sb.WriteString("  ")
		sb.WriteString(line)
		sb.WriteString("\n")
	}
	return sb.String()
}
