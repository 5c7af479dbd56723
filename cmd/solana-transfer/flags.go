package main

import (
	"github.com/urfave/cli/v2"
)

var (
	configFlag = &cli.StringFlag{
		Name:  "config",
		Usage: "configuration file path",
		Value: "config.yaml",
	}
	rpcFlag = &cli.StringFlag{
		Name:    "rpc",
		Usage:   "rpc endpoint or cluster name, ie. devnet, testnet, mainnet-beta, localnet",
		EnvVars: []string{"SOLANA_RPC_ENDPOINT"},
	}
	commitmentFlag = &cli.StringFlag{
		Name:    "commitment",
		Usage:   "commitment level, ie. processed, confirmed, finalized",
		EnvVars: []string{"SOLANA_COMMITMENT"},
	}
	logLevelFlag = &cli.StringFlag{
		Name:    "log-level",
		Usage:   "log level",
		Value:   "info",
		EnvVars: []string{"LOG_LEVEL"},
	}
	appNameFlag = &cli.StringFlag{
		Name:    "app-name",
		Usage:   "application name reported to new relic",
		Value:   "solana-transfer",
		EnvVars: []string{"APP_NAME"},
	}
	newRelicLicenseFlag = &cli.StringFlag{
		Name:    "new-relic-license",
		Usage:   "new relic license key, metrics are disabled when empty",
		EnvVars: []string{"NEW_RELIC_LICENSE_KEY"},
	}

	keypairFlag = &cli.StringFlag{
		Name:     "keypair",
		Usage:    "keypair file",
		Required: true,
	}
	outFlag = &cli.StringFlag{
		Name:     "out",
		Usage:    "output keypair file",
		Required: true,
	}
	forceFlag = &cli.BoolFlag{
		Name:  "force",
		Usage: "overwrite an existing keypair file",
	}
	addressFlag = &cli.StringFlag{
		Name:  "address",
		Usage: "account address, defaults to the keypair address",
	}
	optionalKeypairFlag = &cli.StringFlag{
		Name:  "keypair",
		Usage: "keypair file",
	}
	toFlag = &cli.StringFlag{
		Name:     "to",
		Usage:    "recipient address",
		Required: true,
	}
	lamportsFlag = &cli.Uint64Flag{
		Name:     "lamports",
		Usage:    "amount in lamports",
		Required: true,
	}
	memoFlag = &cli.StringFlag{
		Name:  "memo",
		Usage: "transaction memo",
	}
	computeUnitPriceFlag = &cli.Uint64Flag{
		Name:  "compute-unit-price",
		Usage: "prioritization fee in micro-lamports per compute unit",
	}
	computeUnitLimitFlag = &cli.UintFlag{
		Name:  "compute-unit-limit",
		Usage: "compute unit limit",
	}
	skipPreflightFlag = &cli.BoolFlag{
		Name:  "skip-preflight",
		Usage: "skip the preflight simulation",
	}
	waitFlag = &cli.BoolFlag{
		Name:  "wait",
		Usage: "wait for the transaction to reach the commitment level",
	}
	dryRunFlag = &cli.BoolFlag{
		Name:  "dryrun",
		Usage: "sign and print the transaction without submitting it",
	}
)
