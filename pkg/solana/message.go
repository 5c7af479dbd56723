package solana

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"lukechampine.com/blake3"
)

const (
	// MaxTransactionSize taken from: https://github.com/solana-labs/solana/blob/39b3ac6a8d29e14faa1de73d8b46d390ad41797b/sdk/src/packet.rs#L9-L13
	MaxTransactionSize = 1232

	// maxAccountKeys is the combined limit of static and lookup table loaded
	// account keys a message may reference.
	maxAccountKeys = 256

	messageHashDomain = "solana-tx-message-v1"
)

// MessageHeader describes how the account keys of a message are partitioned.
type MessageHeader struct {
	NumRequiredSignatures       byte
	NumReadonlySignedAccounts   byte
	NumReadonlyUnsignedAccounts byte
}

// MessageAddressTableLookup loads additional accounts from an on-chain address
// lookup table.
type MessageAddressTableLookup struct {
	AccountKey      PublicKey
	WritableIndexes []byte
	ReadonlyIndexes []byte
}

// Message is the signed portion of a transaction.
type Message struct {
	Header              MessageHeader
	AccountKeys         []PublicKey
	RecentBlockhash     Hash
	Instructions        []CompiledInstruction
	AddressTableLookups []MessageAddressTableLookup
}

// NewMessage compiles instructions into a message. If payer is set, it is the
// first account key and pays for the transaction.
func NewMessage(instructions []Instruction, payer *PublicKey, blockhash Hash) (Message, error) {
	header, keys, err := CompileKeys(instructions, payer).TryIntoMessageComponents()
	if err != nil {
		return Message{}, err
	}

	compiled, err := CompileInstructions(instructions, keys)
	if err != nil {
		return Message{}, err
	}

	return NewMessageWithCompiledInstructions(header, keys, blockhash, compiled, nil), nil
}

// NewMessageWithCompiledInstructions assembles a message from already compiled
// components. The result is not sanitized.
func NewMessageWithCompiledInstructions(
	header MessageHeader,
	accountKeys []PublicKey,
	blockhash Hash,
	instructions []CompiledInstruction,
	lookups []MessageAddressTableLookup,
) Message {
	return Message{
		Header:              header,
		AccountKeys:         accountKeys,
		RecentBlockhash:     blockhash,
		Instructions:        instructions,
		AddressTableLookups: lookups,
	}
}

// Sanitize verifies the structural integrity of the message. Messages decoded
// from untrusted bytes must be sanitized before they are signed or inspected.
func (m Message) Sanitize() error {
	numKeys := len(m.AccountKeys)
	numRequired := int(m.Header.NumRequiredSignatures)

	if numRequired+int(m.Header.NumReadonlyUnsignedAccounts) > numKeys {
		return errors.Wrapf(
			ErrSanitize,
			"%d required signatures and %d readonly unsigned accounts exceed %d account keys",
			numRequired,
			m.Header.NumReadonlyUnsignedAccounts,
			numKeys,
		)
	}

	// The fee payer must be a writable signer.
	if int(m.Header.NumReadonlySignedAccounts) >= numRequired {
		return errors.Wrap(ErrSanitize, "no writable signer for the fee payer")
	}

	totalKeys := numKeys
	for i, lookup := range m.AddressTableLookups {
		numIndexes := len(lookup.WritableIndexes) + len(lookup.ReadonlyIndexes)
		if numIndexes == 0 {
			return errors.Wrapf(ErrSanitize, "address table lookup %d loads no accounts", i)
		}

		totalKeys += numIndexes
		if totalKeys > maxAccountKeys {
			return errors.Wrapf(ErrSanitize, "%d account keys exceed %d", totalKeys, maxAccountKeys)
		}

		maxIndex := totalKeys - 1
		for _, index := range lookup.WritableIndexes {
			if int(index) > maxIndex {
				return errors.Wrapf(ErrSanitize, "address table lookup %d writable index %d out of bounds", i, index)
			}
		}
		for _, index := range lookup.ReadonlyIndexes {
			if int(index) > maxIndex {
				return errors.Wrapf(ErrSanitize, "address table lookup %d readonly index %d out of bounds", i, index)
			}
		}
	}

	for i, ix := range m.Instructions {
		if int(ix.ProgramIDIndex) >= numKeys {
			return errors.Wrapf(ErrSanitize, "instruction %d program index %d out of bounds", i, ix.ProgramIDIndex)
		}

		// The fee payer can't be the program.
		if ix.ProgramIDIndex == 0 {
			return errors.Wrapf(ErrSanitize, "instruction %d invokes the fee payer", i)
		}

		for _, index := range ix.Accounts {
			if int(index) >= numKeys {
				return errors.Wrapf(ErrSanitize, "instruction %d account index %d out of bounds", i, index)
			}
		}
	}

	return nil
}

// IsSigner reports whether the key at index i must sign.
func (m Message) IsSigner(i int) bool {
	return i < int(m.Header.NumRequiredSignatures)
}

// IsWritable reports whether the key at index i is writable once the message
// is executed. Builtin programs, sysvars and invoked programs are demoted to
// readonly regardless of the header.
func (m Message) IsWritable(i int) bool {
	if i < 0 || i >= len(m.AccountKeys) {
		return false
	}

	numRequired := int(m.Header.NumRequiredSignatures)
	inWritableRange := i < numRequired-int(m.Header.NumReadonlySignedAccounts) ||
		(i >= numRequired && i < len(m.AccountKeys)-int(m.Header.NumReadonlyUnsignedAccounts))

	return inWritableRange && !IsBuiltinKeyOrSysvar(m.AccountKeys[i]) && !m.DemoteProgramID(i)
}

// IsKeyCalledAsProgram reports whether the key at index i is invoked by any
// instruction.
func (m Message) IsKeyCalledAsProgram(i int) bool {
	if i < 0 || i > 255 {
		return false
	}

	for _, ix := range m.Instructions {
		if int(ix.ProgramIDIndex) == i {
			return true
		}
	}
	return false
}

// IsKeyPassedToProgram reports whether the key at index i is an account input
// of any instruction.
func (m Message) IsKeyPassedToProgram(i int) bool {
	if i < 0 || i > 255 {
		return false
	}

	for _, ix := range m.Instructions {
		for _, index := range ix.Accounts {
			if int(index) == i {
				return true
			}
		}
	}
	return false
}

// IsNonLoaderKey reports whether the key at index i is anything other than a
// program that is only ever invoked.
func (m Message) IsNonLoaderKey(i int) bool {
	return !m.IsKeyCalledAsProgram(i) || m.IsKeyPassedToProgram(i)
}

// IsUpgradeableLoaderPresent reports whether the upgradeable BPF loader is one
// of the account keys.
func (m Message) IsUpgradeableLoaderPresent() bool {
	for _, key := range m.AccountKeys {
		if key == BPFLoaderUpgradeableProgramID {
			return true
		}
	}
	return false
}

// DemoteProgramID reports whether the key at index i loses write access
// because it is invoked as a program.
func (m Message) DemoteProgramID(i int) bool {
	return m.IsKeyCalledAsProgram(i) && !m.IsUpgradeableLoaderPresent()
}

// HasDuplicates reports whether any account key appears more than once.
func (m Message) HasDuplicates() bool {
	seen := make(map[PublicKey]struct{}, len(m.AccountKeys))
	for _, key := range m.AccountKeys {
		if _, ok := seen[key]; ok {
			return true
		}
		seen[key] = struct{}{}
	}
	return false
}

// SignerKeys returns the keys that must sign the message, in signature order.
func (m Message) SignerKeys() []PublicKey {
	n := int(m.Header.NumRequiredSignatures)
	if n > len(m.AccountKeys) {
		n = len(m.AccountKeys)
	}

	keys := make([]PublicKey, n)
	copy(keys, m.AccountKeys[:n])
	return keys
}

// ProgramID returns the program invoked by the instruction at ixIndex.
func (m Message) ProgramID(ixIndex int) (PublicKey, bool) {
	programIndex, ok := m.ProgramIndex(ixIndex)
	if !ok || programIndex >= len(m.AccountKeys) {
		return PublicKey{}, false
	}
	return m.AccountKeys[programIndex], true
}

// InstructionAccounts resolves the accounts of the instruction at ixIndex
// against the static account keys.
func (m Message) InstructionAccounts(ixIndex int) ([]PublicKey, bool) {
	if ixIndex < 0 || ixIndex >= len(m.Instructions) {
		return nil, false
	}

	indexes := m.Instructions[ixIndex].Accounts
	accounts := make([]PublicKey, len(indexes))
	for i, index := range indexes {
		if int(index) >= len(m.AccountKeys) {
			return nil, false
		}
		accounts[i] = m.AccountKeys[index]
	}
	return accounts, true
}

// ProgramIndex returns the account index of the program invoked by the
// instruction at ixIndex.
func (m Message) ProgramIndex(ixIndex int) (int, bool) {
	if ixIndex < 0 || ixIndex >= len(m.Instructions) {
		return 0, false
	}
	return int(m.Instructions[ixIndex].ProgramIDIndex), true
}

// ProgramIDs returns the program invoked by each instruction, in instruction
// order.
func (m Message) ProgramIDs() []PublicKey {
	ids := make([]PublicKey, 0, len(m.Instructions))
	for i := range m.Instructions {
		if id, ok := m.ProgramID(i); ok {
			ids = append(ids, id)
		}
	}
	return ids
}

// ProgramPosition returns the position of the key at index i within
// ProgramIDs.
func (m Message) ProgramPosition(i int) (int, bool) {
	if i < 0 || i >= len(m.AccountKeys) {
		return 0, false
	}

	for pos, id := range m.ProgramIDs() {
		if id == m.AccountKeys[i] {
			return pos, true
		}
	}
	return 0, false
}

// MaybeExecutable reports whether the key at index i may be an executable
// account.
func (m Message) MaybeExecutable(i int) bool {
	_, ok := m.ProgramPosition(i)
	return ok
}

// HashRawMessage returns the identity hash of a serialized message.
func HashRawMessage(messageBytes []byte) Hash {
	h := blake3.New(HashSize, nil)
	_, _ = h.Write([]byte(messageHashDomain))
	_, _ = h.Write(messageBytes)

	var hash Hash
	copy(hash[:], h.Sum(nil))
	return hash
}

// Hash returns the identity hash of the serialized message.
func (m Message) Hash() Hash {
	return HashRawMessage(m.Marshal())
}

func (m Message) String() string {
	var sb strings.Builder
	sb.WriteString("Header:\n")
	sb.WriteString(fmt.Sprintf("  NumRequiredSignatures: %d\n", m.Header.NumRequiredSignatures))
	sb.WriteString(fmt.Sprintf("  NumReadonlySignedAccounts: %d\n", m.Header.NumReadonlySignedAccounts))
	sb.WriteString(fmt.Sprintf("  NumReadonlyUnsignedAccounts: %d\n", m.Header.NumReadonlyUnsignedAccounts))
	sb.WriteString("Account Keys:\n")
	for i, key := range m.AccountKeys {
		sb.WriteString(fmt.Sprintf("  %d: %s\n", i, key))
	}
	sb.WriteString(fmt.Sprintf("Recent Blockhash: %s\n", m.RecentBlockhash))
	sb.WriteString("Instructions:\n")
	for i, ix := range m.Instructions {
		sb.WriteString(fmt.Sprintf("  %d:\n", i))
		sb.WriteString(fmt.Sprintf("    ProgramIDIndex: %d\n", ix.ProgramIDIndex))
		sb.WriteString(fmt.Sprintf("    Accounts: %v\n", ix.Accounts))
		sb.WriteString(fmt.Sprintf("    Data: %v\n", ix.Data))
	}
	if len(m.AddressTableLookups) > 0 {
		sb.WriteString("Address Table Lookups:\n")
		for _, lookup := range m.AddressTableLookups {
			sb.WriteString(fmt.Sprintf("  %s:\n", lookup.AccountKey))
			sb.WriteString(fmt.Sprintf("    Writable Indexes: %v\n", lookup.WritableIndexes))
			sb.WriteString(fmt.Sprintf("    Readonly Indexes: %v\n", lookup.ReadonlyIndexes))
		}
	}
	return sb.String()
}
