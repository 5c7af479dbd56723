package main

import (
	"os"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/code-payments/code-solana-sdk/pkg/solana"
	compute_budget "github.com/code-payments/code-solana-sdk/pkg/solana/computebudget"
	"github.com/code-payments/code-solana-sdk/pkg/solana/memo"
	"github.com/code-payments/code-solana-sdk/pkg/solana/system"
)

var (
	keygenCommand = &cli.Command{
		Action: keygenAction,
		Name:   "keygen",
		Usage:  "generate a new keypair file",
		Flags: []cli.Flag{
			outFlag,
			forceFlag,
		},
	}
	balanceCommand = &cli.Command{
		Action: balanceAction,
		Name:   "balance",
		Usage:  "get the balance of an account",
		Flags: []cli.Flag{
			addressFlag,
			optionalKeypairFlag,
		},
	}
	airdropCommand = &cli.Command{
		Action: airdropAction,
		Name:   "airdrop",
		Usage:  "request an airdrop on a test cluster",
		Flags: []cli.Flag{
			addressFlag,
			optionalKeypairFlag,
			lamportsFlag,
			waitFlag,
		},
	}
	transferCommand = &cli.Command{
		Action: transferAction,
		Name:   "transfer",
		Usage:  "transfer lamports from the keypair account",
		Flags: []cli.Flag{
			keypairFlag,
			toFlag,
			lamportsFlag,
			memoFlag,
			computeUnitPriceFlag,
			computeUnitLimitFlag,
			skipPreflightFlag,
			waitFlag,
			dryRunFlag,
		},
	}
)

func keygenAction(c *cli.Context) error {
	path := c.String(outFlag.Name)
	if !c.Bool(forceFlag.Name) {
		if _, err := os.Stat(path); err == nil {
			return errors.Errorf("%s already exists", path)
		}
	}

	kp, err := solana.NewKeypair()
	if err != nil {
		return err
	}
	if err := kp.WriteFile(path); err != nil {
		return err
	}

	printResult(c, "%s", kp.PublicKey())
	return nil
}

func balanceAction(c *cli.Context) error {
	account, err := accountFromFlags(c)
	if err != nil {
		return err
	}

	balance, err := client.GetBalance(commandContext(c), account, commitment)
	if err != nil {
		return errors.Wrap(err, "failed to get balance")
	}

	printResult(c, "%d", balance)
	return nil
}

func airdropAction(c *cli.Context) error {
	ctx := commandContext(c)

	account, err := accountFromFlags(c)
	if err != nil {
		return err
	}

	sig, err := client.RequestAirdrop(ctx, account, c.Uint64(lamportsFlag.Name), commitment)
	if err != nil {
		return errors.Wrap(err, "failed to request airdrop")
	}

	log.WithFields(logrus.Fields{
		"account":   account.String(),
		"signature": sig.String(),
	}).Info("requested airdrop")

	if c.Bool(waitFlag.Name) {
		if _, err := client.ConfirmTransaction(ctx, sig, commitment); err != nil {
			return errors.Wrap(err, "airdrop did not confirm")
		}
	}

	printResult(c, "%s", sig)
	return nil
}

func transferAction(c *cli.Context) error {
	ctx := commandContext(c)

	sender, err := solana.LoadKeypairFile(c.String(keypairFlag.Name))
	if err != nil {
		return err
	}

	receiver, err := solana.PublicKeyFromBase58(c.String(toFlag.Name))
	if err != nil {
		return errors.Wrap(err, "invalid recipient address")
	}

	ixns := transferInstructions(transferArgs{
		from:             sender.PublicKey(),
		to:               receiver,
		lamports:         c.Uint64(lamportsFlag.Name),
		memo:             c.String(memoFlag.Name),
		computeUnitPrice: c.Uint64(computeUnitPriceFlag.Name),
		computeUnitLimit: uint32(c.Uint(computeUnitLimitFlag.Name)),
	})

	tx, err := solana.NewTransaction(sender.PublicKey(), solana.Hash{}, ixns...)
	if err != nil {
		return errors.Wrap(err, "failed to build transaction")
	}

	log := log.WithFields(logrus.Fields{
		"from":     sender.PublicKey().String(),
		"to":       receiver.String(),
		"lamports": c.Uint64(lamportsFlag.Name),
	})

	if c.Bool(dryRunFlag.Name) {
		blockhash, _, err := client.GetLatestBlockhash(ctx, commitment)
		if err != nil {
			return err
		}
		if err := tx.TrySign([]solana.Signer{sender}, blockhash); err != nil {
			return err
		}

		log.Debug(tx.String())
		printResult(c, "%s", base58.Encode(tx.Marshal()))
		return nil
	}

	opts := solana.DefaultSendOptions()
	opts.SkipPreflight = c.Bool(skipPreflightFlag.Name)
	opts.PreflightCommitment = commitment

	sig, err := solana.SignAndSubmit(ctx, client, client, &tx, []solana.Signer{sender}, opts)
	if err != nil {
		log.WithError(err).WithField("signature", sig.String()).Warn("failure submitting transaction")
		return err
	}

	log.WithField("signature", sig.String()).Info("submitted transaction")

	if c.Bool(waitFlag.Name) {
		if _, err := client.ConfirmTransaction(ctx, sig, commitment); err != nil {
			return errors.Wrap(err, "transaction did not confirm")
		}
	}

	printResult(c, "%s", sig)
	return nil
}

type transferArgs struct {
	from             solana.PublicKey
	to               solana.PublicKey
	lamports         uint64
	memo             string
	computeUnitPrice uint64
	computeUnitLimit uint32
}

// transferInstructions returns the compute budget instructions, if any,
// followed by the transfer and an optional memo.
func transferInstructions(args transferArgs) []solana.Instruction {
	var ixns []solana.Instruction
	if args.computeUnitLimit > 0 {
		ixns = append(ixns, compute_budget.SetComputeUnitLimit(args.computeUnitLimit))
	}
	if args.computeUnitPrice > 0 {
		ixns = append(ixns, compute_budget.SetComputeUnitPrice(args.computeUnitPrice))
	}

	ixns = append(ixns, system.Transfer(args.from, args.to, args.lamports))

	if len(args.memo) > 0 {
		ixns = append(ixns, memo.Instruction(args.memo))
	}
	return ixns
}

func accountFromFlags(c *cli.Context) (solana.PublicKey, error) {
	if address := c.String(addressFlag.Name); len(address) > 0 {
		account, err := solana.PublicKeyFromBase58(address)
		if err != nil {
			return solana.PublicKey{}, errors.Wrap(err, "invalid address")
		}
		return account, nil
	}

	if path := c.String(optionalKeypairFlag.Name); len(path) > 0 {
		kp, err := solana.LoadKeypairFile(path)
		if err != nil {
			return solana.PublicKey{}, err
		}
		return kp.PublicKey(), nil
	}

	return solana.PublicKey{}, errors.New("one of --address or --keypair is required")
}
