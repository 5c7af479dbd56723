package solana

import (
	"bytes"
	"io"

	"github.com/pkg/errors"

	"github.com/code-payments/code-solana-sdk/pkg/solana/shortvec"
)

// messageVersionPrefix marks a versioned message. The low bits carry the
// version, and only version 0 is supported.
const (
	messageVersionPrefix byte = 0x80
	messageVersion0      byte = 0
)

// Marshal returns the wire encoding of the transaction: the signatures
// followed by the message.
func (t Transaction) Marshal() []byte {
	b := bytes.NewBuffer(nil)

	// Signatures
	_, _ = shortvec.EncodeLen(b, len(t.Signatures))
	for _, s := range t.Signatures {
		_, _ = b.Write(s[:])
	}

	// Message
	_, _ = b.Write(t.Message.Marshal())

	return b.Bytes()
}

// Unmarshal decodes a transaction from its wire encoding.
func (t *Transaction) Unmarshal(b []byte) error {
	buf := bytes.NewReader(b)

	sigLen, err := shortvec.DecodeLen(buf)
	if err != nil {
		return wrapDeserialization(err, "failed to read signature length")
	}
	if sigLen*SignatureSize > buf.Len() {
		return errors.Wrapf(ErrDeserialization, "%d signatures exceed remaining %d bytes", sigLen, buf.Len())
	}

	signatures := make([]Signature, sigLen)
	for i := range signatures {
		if _, err = io.ReadFull(buf, signatures[i][:]); err != nil {
			return wrapDeserialization(err, "failed to read signature at %d", i)
		}
	}

	var m Message
	if err := m.unmarshal(buf); err != nil {
		return err
	}

	t.Signatures = signatures
	t.Message = m
	return nil
}

// Marshal returns the versioned (v0) wire encoding of the message.
func (m Message) Marshal() []byte {
	b := bytes.NewBuffer(nil)

	// Version Number
	_ = b.WriteByte(messageVersionPrefix | messageVersion0)

	// Header
	_ = b.WriteByte(m.Header.NumRequiredSignatures)
	_ = b.WriteByte(m.Header.NumReadonlySignedAccounts)
	_ = b.WriteByte(m.Header.NumReadonlyUnsignedAccounts)

	// Accounts
	_, _ = shortvec.EncodeLen(b, len(m.AccountKeys))
	for _, a := range m.AccountKeys {
		_, _ = b.Write(a[:])
	}

	// Recent Blockhash
	_, _ = b.Write(m.RecentBlockhash[:])

	// Instructions
	_, _ = shortvec.EncodeLen(b, len(m.Instructions))
	for _, i := range m.Instructions {
		_ = b.WriteByte(i.ProgramIDIndex)

		_, _ = shortvec.EncodeLen(b, len(i.Accounts))
		_, _ = b.Write(i.Accounts)

		_, _ = shortvec.EncodeLen(b, len(i.Data))
		_, _ = b.Write(i.Data)
	}

	// Address Table Lookups
	_, _ = shortvec.EncodeLen(b, len(m.AddressTableLookups))
	for _, lookup := range m.AddressTableLookups {
		_, _ = b.Write(lookup.AccountKey[:])

		_, _ = shortvec.EncodeLen(b, len(lookup.WritableIndexes))
		_, _ = b.Write(lookup.WritableIndexes)

		_, _ = shortvec.EncodeLen(b, len(lookup.ReadonlyIndexes))
		_, _ = b.Write(lookup.ReadonlyIndexes)
	}

	return b.Bytes()
}

// Unmarshal decodes a versioned (v0) message. The decoded message is not
// sanitized.
func (m *Message) Unmarshal(b []byte) error {
	return m.unmarshal(bytes.NewReader(b))
}

func (m *Message) unmarshal(buf *bytes.Reader) (err error) {
	version, err := buf.ReadByte()
	if err != nil {
		return wrapDeserialization(err, "failed to read message version")
	}
	if version&messageVersionPrefix == 0 {
		return errors.Wrap(ErrDeserialization, "legacy messages not supported")
	}
	if v := version &^ messageVersionPrefix; v != messageVersion0 {
		return errors.Wrapf(ErrDeserialization, "unsupported message version: %d", v)
	}

	var decoded Message

	// Header
	var header [3]byte
	if _, err = io.ReadFull(buf, header[:]); err != nil {
		return wrapDeserialization(err, "failed to read header")
	}
	decoded.Header = MessageHeader{
		NumRequiredSignatures:       header[0],
		NumReadonlySignedAccounts:   header[1],
		NumReadonlyUnsignedAccounts: header[2],
	}

	// Accounts
	accountLen, err := shortvec.DecodeLen(buf)
	if err != nil {
		return wrapDeserialization(err, "failed to read account len")
	}
	if accountLen*PublicKeySize > buf.Len() {
		return errors.Wrapf(ErrDeserialization, "%d accounts exceed remaining %d bytes", accountLen, buf.Len())
	}
	decoded.AccountKeys = make([]PublicKey, accountLen)
	for i := range decoded.AccountKeys {
		if _, err = io.ReadFull(buf, decoded.AccountKeys[i][:]); err != nil {
			return wrapDeserialization(err, "failed to read account at index %d", i)
		}
	}

	// Recent Blockhash
	if _, err = io.ReadFull(buf, decoded.RecentBlockhash[:]); err != nil {
		return wrapDeserialization(err, "failed to read recent blockhash")
	}

	// Instructions
	instructionLen, err := shortvec.DecodeLen(buf)
	if err != nil {
		return wrapDeserialization(err, "failed to read instruction len")
	}
	if instructionLen > buf.Len() {
		return errors.Wrapf(ErrDeserialization, "%d instructions exceed remaining %d bytes", instructionLen, buf.Len())
	}
	decoded.Instructions = make([]CompiledInstruction, instructionLen)
	for i := range decoded.Instructions {
		var c CompiledInstruction

		if c.ProgramIDIndex, err = buf.ReadByte(); err != nil {
			return wrapDeserialization(err, "failed to read instruction[%d] program index", i)
		}
		if c.Accounts, err = readBytes(buf); err != nil {
			return wrapDeserialization(err, "failed to read instruction[%d] accounts", i)
		}
		if c.Data, err = readBytes(buf); err != nil {
			return wrapDeserialization(err, "failed to read instruction[%d] data", i)
		}

		decoded.Instructions[i] = c
	}

	// Address Table Lookups
	lookupLen, err := shortvec.DecodeLen(buf)
	if err != nil {
		return wrapDeserialization(err, "failed to read address table lookup len")
	}
	if lookupLen*PublicKeySize > buf.Len() {
		return errors.Wrapf(ErrDeserialization, "%d address table lookups exceed remaining %d bytes", lookupLen, buf.Len())
	}
	if lookupLen > 0 {
		decoded.AddressTableLookups = make([]MessageAddressTableLookup, lookupLen)
	}
	for i := range decoded.AddressTableLookups {
		var lookup MessageAddressTableLookup

		if _, err = io.ReadFull(buf, lookup.AccountKey[:]); err != nil {
			return wrapDeserialization(err, "failed to read address table lookup[%d] key", i)
		}
		if lookup.WritableIndexes, err = readBytes(buf); err != nil {
			return wrapDeserialization(err, "failed to read address table lookup[%d] writable indexes", i)
		}
		if lookup.ReadonlyIndexes, err = readBytes(buf); err != nil {
			return wrapDeserialization(err, "failed to read address table lookup[%d] readonly indexes", i)
		}

		decoded.AddressTableLookups[i] = lookup
	}

	if buf.Len() > 0 {
		return errors.Wrapf(ErrDeserialization, "%d trailing bytes", buf.Len())
	}

	*m = decoded
	return nil
}

// readBytes reads a shortvec length prefixed byte string.
func readBytes(buf *bytes.Reader) ([]byte, error) {
	n, err := shortvec.DecodeLen(buf)
	if err != nil {
		return nil, err
	}
	if n > buf.Len() {
		return nil, io.ErrUnexpectedEOF
	}

	b := make([]byte, n)
	if _, err := io.ReadFull(buf, b); err != nil {
		return nil, err
	}
	return b, nil
}

func wrapDeserialization(err error, format string, args ...interface{}) error {
	return errors.Wrapf(ErrDeserialization, format+": %v", append(args, err)...)
}
