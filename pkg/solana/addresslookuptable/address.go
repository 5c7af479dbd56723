package address_lookup_table

import (
	"encoding/binary"

	"github.com/code-payments/code-solana-sdk/pkg/solana"
)

// GetAddress derives the address of the table created by authority at
// recentSlot.
func GetAddress(authority solana.PublicKey, recentSlot uint64) (solana.PublicKey, uint8, error) {
	var recentSlotBytes [8]byte
	binary.LittleEndian.PutUint64(recentSlotBytes[:], recentSlot)

	return solana.FindProgramAddressAndBump(
		ProgramKey,
		authority[:],
		recentSlotBytes[:],
	)
}
