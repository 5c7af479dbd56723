package solana

import (
	"context"

	"github.com/pkg/errors"
)

// Commitment is the level of finality an RPC node should apply to a request.
type Commitment struct {
	Commitment string `json:"commitment"`
}

const (
	confirmationStatusProcessed = "processed"
	confirmationStatusConfirmed = "confirmed"
	confirmationStatusFinalized = "finalized"
)

var (
	CommitmentProcessed = Commitment{Commitment: confirmationStatusProcessed}
	CommitmentConfirmed = Commitment{Commitment: confirmationStatusConfirmed}
	CommitmentFinalized = Commitment{Commitment: confirmationStatusFinalized}
)

// ParseCommitment parses one of "processed", "confirmed" or "finalized".
func ParseCommitment(s string) (Commitment, error) {
	switch s {
	case confirmationStatusProcessed:
		return CommitmentProcessed, nil
	case confirmationStatusConfirmed:
		return CommitmentConfirmed, nil
	case confirmationStatusFinalized:
		return CommitmentFinalized, nil
	default:
		return Commitment{}, errors.Errorf("unknown commitment: %q", s)
	}
}

func (c Commitment) String() string {
	return c.Commitment
}

// DefaultMaxRetries is the number of times an RPC node rebroadcasts a
// transaction when SendOptions doesn't say otherwise.
const DefaultMaxRetries uint = 5

// SendOptions controls how an RPC node handles a submitted transaction.
type SendOptions struct {
	SkipPreflight       bool
	PreflightCommitment Commitment

	// MaxRetries is the number of times the node rebroadcasts the transaction.
	// A nil value uses DefaultMaxRetries.
	MaxRetries *uint
}

// DefaultSendOptions runs preflight at confirmed commitment.
func DefaultSendOptions() SendOptions {
	return SendOptions{
		PreflightCommitment: CommitmentConfirmed,
	}
}

// BlockhashFetcher provides recent blockhashes to sign transactions against.
type BlockhashFetcher interface {
	// GetLatestBlockhash returns the latest blockhash and the last block height
	// at which a transaction referencing it is valid.
	GetLatestBlockhash(ctx context.Context, commitment Commitment) (Hash, uint64, error)
}

// TransactionSubmitter submits signed transactions to the network.
type TransactionSubmitter interface {
	SendTransaction(ctx context.Context, tx Transaction, opts SendOptions) (Signature, error)
}

// SignAndSubmit signs tx with signers against a freshly fetched blockhash and
// submits it. Collaborator failures are returned wrapped with
// ErrRequestFailure, without retry.
func SignAndSubmit(
	ctx context.Context,
	fetcher BlockhashFetcher,
	submitter TransactionSubmitter,
	tx *Transaction,
	signers []Signer,
	opts SendOptions,
) (Signature, error) {
	commitment := opts.PreflightCommitment
	if commitment == (Commitment{}) {
		commitment = CommitmentConfirmed
	}

	blockhash, _, err := fetcher.GetLatestBlockhash(ctx, commitment)
	if err != nil {
		return Signature{}, asRequestFailure(err, "failed to fetch latest blockhash")
	}

	if err := tx.TrySign(signers, blockhash); err != nil {
		return Signature{}, err
	}

	sig, err := submitter.SendTransaction(ctx, *tx, opts)
	if err != nil {
		return tx.Signature(), asRequestFailure(err, "failed to submit transaction")
	}
	return sig, nil
}

// requestError reports a failed collaborator call. It matches
// ErrRequestFailure and unwraps to the underlying cause.
type requestError struct {
	message string
	cause   error
}

func (e *requestError) Error() string {
	return e.message + ": " + e.cause.Error()
}

func (e *requestError) Is(target error) bool {
	return target == ErrRequestFailure
}

func (e *requestError) Unwrap() error {
	return e.cause
}

func (e *requestError) Cause() error {
	return e.cause
}

func asRequestFailure(err error, message string) error {
	if errors.Is(err, ErrRequestFailure) {
		return errors.WithMessage(err, message)
	}
	return &requestError{message: message, cause: err}
}
