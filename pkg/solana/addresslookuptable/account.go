package address_lookup_table

import (
	"fmt"
	"math"
	"strings"

	"github.com/pkg/errors"

	"github.com/code-payments/code-solana-sdk/pkg/solana"
	"github.com/code-payments/code-solana-sdk/pkg/solana/binary"
)

var (
	ErrInvalidAccountSize = errors.New("invalid address lookup table account size")
	ErrInvalidAccountType = errors.New("invalid account type")
)

const (
	altDescriminator = 1

	metadataSize = 56
	maxAddresses = 256

	optionSize = 1
)

// ActiveDeactivationSlot is the deactivation slot of a table that has not
// been deactivated.
const ActiveDeactivationSlot = math.MaxUint64

type AddressLookupTableAccount struct {
	DeactivationSlot           uint64
	LastExtendedSlot           uint64
	LastExtendedSlotStartIndex uint8
	Authority                  *solana.PublicKey // nil once frozen
	Addresses                  []solana.PublicKey
}

func (obj AddressLookupTableAccount) IsActive() bool {
	return obj.DeactivationSlot == ActiveDeactivationSlot
}

// ToAddressLookupTable returns the resolved table stored at address.
func (obj AddressLookupTableAccount) ToAddressLookupTable(address solana.PublicKey) solana.AddressLookupTable {
	addresses := make([]solana.PublicKey, len(obj.Addresses))
	copy(addresses, obj.Addresses)

	return solana.AddressLookupTable{
		PublicKey: address,
		Addresses: addresses,
	}
}

func (obj AddressLookupTableAccount) Marshal() []byte {
	data := make([]byte, metadataSize+len(obj.Addresses)*solana.PublicKeySize)

	var offset int
	binary.PutUint32(data[offset:], altDescriminator, &offset)
	binary.PutUint64(data[offset:], obj.DeactivationSlot, &offset)
	binary.PutUint64(data[offset:], obj.LastExtendedSlot, &offset)
	binary.PutUint8(data[offset:], obj.LastExtendedSlotStartIndex, &offset)
	binary.PutOptionalKey32(data[offset:], obj.Authority, &offset, optionSize)

	offset = metadataSize
	for _, address := range obj.Addresses {
		binary.PutKey32(data[offset:], address, &offset)
	}

	return data
}

func (obj *AddressLookupTableAccount) Unmarshal(data []byte) error {
	if len(data) < metadataSize {
		return ErrInvalidAccountSize
	}

	var offset int

	var descriminator uint32
	binary.GetUint32(data[offset:], &descriminator, &offset)
	if descriminator != altDescriminator {
		return ErrInvalidAccountType
	}

	addressBufferSize := len(data) - metadataSize
	addressCount := addressBufferSize / solana.PublicKeySize
	if addressBufferSize%solana.PublicKeySize != 0 {
		return ErrInvalidAccountSize
	} else if addressCount > maxAddresses {
		return ErrInvalidAccountSize
	}

	obj.Authority = nil
	binary.GetUint64(data[offset:], &obj.DeactivationSlot, &offset)
	binary.GetUint64(data[offset:], &obj.LastExtendedSlot, &offset)
	binary.GetUint8(data[offset:], &obj.LastExtendedSlotStartIndex, &offset)
	binary.GetOptionalKey32(data[offset:], &obj.Authority, &offset, optionSize)

	offset = metadataSize

	obj.Addresses = make([]solana.PublicKey, addressCount)
	for i := range addressCount {
		binary.GetKey32(data[offset:], &obj.Addresses[i], &offset)
	}

	return nil
}

func (obj *AddressLookupTableAccount) String() string {
	var addresses strings.Builder
	addresses.WriteString("{")
	for i, address := range obj.Addresses {
		fmt.Fprintf(&addresses, "%d:%s,", i, address)
	}
	addresses.WriteString("}")

	authority := "<nil>"
	if obj.Authority != nil {
		authority = obj.Authority.String()
	}

	return fmt.Sprintf(
		"AddressLookupTable{deactivation_slot=%d,last_extended_slot=%d,last_extended_slot_start_index=%d,authority=%s,addresses=%s}",
		obj.DeactivationSlot,
		obj.LastExtendedSlot,
		obj.LastExtendedSlotStartIndex,
		authority,
		addresses.String(),
	)
}
