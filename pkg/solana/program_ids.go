package solana

import "sync"

// Builtin programs.
var (
	SystemProgramID               = MustPublicKeyFromBase58("11111111111111111111111111111111")
	ConfigProgramID               = MustPublicKeyFromBase58("Config1111111111111111111111111111111111111")
	FeatureProgramID              = MustPublicKeyFromBase58("Feature111111111111111111111111111111111111")
	NativeLoaderProgramID         = MustPublicKeyFromBase58("NativeLoader1111111111111111111111111111111")
	StakeProgramID                = MustPublicKeyFromBase58("Stake11111111111111111111111111111111111111")
	StakeConfigProgramID          = MustPublicKeyFromBase58("StakeConfig11111111111111111111111111111111")
	VoteProgramID                 = MustPublicKeyFromBase58("Vote111111111111111111111111111111111111111")
	BPFLoaderProgramID            = MustPublicKeyFromBase58("BPFLoader2111111111111111111111111111111111")
	BPFLoaderDeprecatedProgramID  = MustPublicKeyFromBase58("BPFLoader1111111111111111111111111111111111")
	BPFLoaderUpgradeableProgramID = MustPublicKeyFromBase58("BPFLoaderUpgradeab1e11111111111111111111111")
)

// Sysvars.
var (
	SysvarClockID             = MustPublicKeyFromBase58("SysvarC1ock11111111111111111111111111111111")
	SysvarEpochScheduleID     = MustPublicKeyFromBase58("SysvarEpochSchedu1e111111111111111111111111")
	SysvarFeesID              = MustPublicKeyFromBase58("SysvarFees111111111111111111111111111111111")
	SysvarInstructionsID      = MustPublicKeyFromBase58("Sysvar1nstructions1111111111111111111111111")
	SysvarRecentBlockhashesID = MustPublicKeyFromBase58("SysvarRecentB1ockHashes11111111111111111111")
	SysvarRentID              = MustPublicKeyFromBase58("SysvarRent111111111111111111111111111111111")
	SysvarRewardsID           = MustPublicKeyFromBase58("SysvarRewards111111111111111111111111111111")
	SysvarSlotHashesID        = MustPublicKeyFromBase58("SysvarS1otHashes111111111111111111111111111")
	SysvarSlotHistoryID       = MustPublicKeyFromBase58("SysvarS1otHistory11111111111111111111111111")
	SysvarStakeHistoryID      = MustPublicKeyFromBase58("SysvarStakeHistory1111111111111111111111111")
)

type builtinKeySet struct {
	keys map[PublicKey]struct{}

	// maybeBuiltin[b] is set when some builtin or sysvar key starts with b.
	maybeBuiltin [256]bool
}

var (
	builtinOnce sync.Once
	builtins    *builtinKeySet
)

func loadBuiltins() *builtinKeySet {
	builtinOnce.Do(func() {
		set := &builtinKeySet{keys: make(map[PublicKey]struct{})}
		for _, key := range []PublicKey{
			ConfigProgramID,
			FeatureProgramID,
			NativeLoaderProgramID,
			StakeProgramID,
			StakeConfigProgramID,
			VoteProgramID,
			SystemProgramID,
			BPFLoaderProgramID,
			BPFLoaderDeprecatedProgramID,
			BPFLoaderUpgradeableProgramID,

			SysvarClockID,
			SysvarEpochScheduleID,
			SysvarFeesID,
			SysvarInstructionsID,
			SysvarRecentBlockhashesID,
			SysvarRentID,
			SysvarRewardsID,
			SysvarSlotHashesID,
			SysvarSlotHistoryID,
			SysvarStakeHistoryID,
		} {
			set.keys[key] = struct{}{}
			set.maybeBuiltin[key[0]] = true
		}
		builtins = set
	})
	return builtins
}

// IsBuiltinKeyOrSysvar reports whether key is a builtin program or a sysvar.
// Such keys are never writable in a message.
func IsBuiltinKeyOrSysvar(key PublicKey) bool {
	set := loadBuiltins()
	if !set.maybeBuiltin[key[0]] {
		return false
	}
	_, ok := set.keys[key]
	return ok
}
