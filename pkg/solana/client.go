package solana

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/ybbus/jsonrpc"
	xrate "golang.org/x/time/rate"

	"github.com/code-payments/code-solana-sdk/pkg/cache"
	"github.com/code-payments/code-solana-sdk/pkg/metrics"
	"github.com/code-payments/code-solana-sdk/pkg/rate"
	"github.com/code-payments/code-solana-sdk/pkg/retry"
	"github.com/code-payments/code-solana-sdk/pkg/retry/backoff"
)

const (
	// todo: we can retrieve these from the Syscall account
	//       but they're unlikely to change.
	ticksPerSec  = 160
	ticksPerSlot = 64
	slotsPerSec  = ticksPerSec / ticksPerSlot

	// PollRate is the rate at which signature statuses are polled.
	PollRate = (time.Second / slotsPerSec) / 2

	// Poll rate is ~2x the slot rate, and we want to wait ~32 slots
	sigStatusPollLimit = 2 * 32

	// Reference: https://github.com/solana-labs/solana/blob/71e9958e061493d7545bd28d4ac7a85aaed6ffbb/client/src/rpc_custom_error.rs#L11
	rpcNodeUnhealthyCode = -32005

	invalidParamCode = -32602
	rateLimitedCode  = 429

	// Number of account sizes with a cached rent exemption minimum.
	rentCacheBudget = 1024

	metricsStructName = "solana.client"

	submitTransactionMetricName       = "Solana/SubmitTransaction"
	submitTransactionFailureEventName = "SolanaSubmitTransactionFailure"
)

// retriableRPCCodes are retried by the client with backoff.
var retriableRPCCodes = []int{
	rateLimitedCode,
	http.StatusInternalServerError,
	http.StatusBadGateway,
	http.StatusServiceUnavailable,
	http.StatusGatewayTimeout,
	rpcNodeUnhealthyCode,
}

var (
	ErrNoAccountInfo     = errors.New("no account info")
	ErrSignatureNotFound = errors.New("signature not found")
	ErrNoBalance         = errors.New("no balance")
)

// AccountInfo contains the Solana account information (not to be confused with a TokenAccount)
type AccountInfo struct {
	Data       []byte
	Owner      PublicKey
	Lamports   uint64
	Executable bool
}

type SignatureStatus struct {
	Slot        uint64
	ErrorResult *TransactionError

	// Confirmations will be nil if the transaction has been rooted.
	Confirmations      *int
	ConfirmationStatus string
}

func (s SignatureStatus) Confirmed() bool {
	if s.Finalized() {
		return true
	}

	if s.ConfirmationStatus == confirmationStatusConfirmed {
		return true
	}

	return *s.Confirmations >= 1
}

func (s SignatureStatus) Finalized() bool {
	return s.Confirmations == nil || s.ConfirmationStatus == confirmationStatusFinalized
}

// Satisfies reports whether the status has reached commitment.
func (s SignatureStatus) Satisfies(commitment Commitment) bool {
	switch commitment {
	case CommitmentFinalized:
		return s.Finalized()
	case CommitmentConfirmed:
		return s.Confirmed()
	default:
		return true
	}
}

// Client provides an interaction with the Solana JSON RPC API.
//
// Reference: https://docs.solana.com/apps/jsonrpc-api
type Client interface {
	BlockhashFetcher
	TransactionSubmitter

	GetAccountInfo(ctx context.Context, account PublicKey, commitment Commitment) (AccountInfo, error)
	GetBalance(ctx context.Context, account PublicKey, commitment Commitment) (uint64, error)
	GetMinimumBalanceForRentExemption(ctx context.Context, size uint64) (lamports uint64, err error)
	GetSignatureStatuses(ctx context.Context, sigs []Signature) ([]*SignatureStatus, error)
	GetSlot(ctx context.Context, commitment Commitment) (uint64, error)
	RequestAirdrop(ctx context.Context, account PublicKey, lamports uint64, commitment Commitment) (Signature, error)

	// ConfirmTransaction polls the status of sig until it reaches commitment,
	// the transaction fails, or polling gives up.
	ConfirmTransaction(ctx context.Context, sig Signature, commitment Commitment) (*SignatureStatus, error)
}

type client struct {
	log        *logrus.Entry
	client     jsonrpc.RPCClient
	retrier    retry.Retrier
	limiter    rate.Limiter
	commitment Commitment
	pollRate   time.Duration

	// Rent exemption minimums by account size.
	rentCache cache.Cache
}

// New returns a client using the specified endpoint.
func New(endpoint string) Client {
	return NewWithRPCOptions(endpoint, nil)
}

// NewWithRPCOptions returns a client configured with the specified RPC options.
func NewWithRPCOptions(endpoint string, opts *jsonrpc.RPCClientOpts) Client {
	return newClient(
		jsonrpc.NewClientWithOpts(endpoint, opts),
		defaultClientConfig.MaxRetries,
		&rate.NoLimiter{},
		CommitmentConfirmed,
	)
}

// NewWithConfig returns a client configured by config.
func NewWithConfig(config ClientConfig) (Client, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	commitment, err := ParseCommitment(config.Commitment)
	if err != nil {
		return nil, err
	}

	var limiter rate.Limiter = &rate.NoLimiter{}
	if config.RequestsPerSecond > 0 {
		limiter = rate.NewLocalRateLimiter(xrate.Limit(config.RequestsPerSecond))
	}

	opts := &jsonrpc.RPCClientOpts{
		HTTPClient: &http.Client{Timeout: config.Timeout},
	}

	return newClient(
		jsonrpc.NewClientWithOpts(config.Endpoint, opts),
		config.MaxRetries,
		limiter,
		commitment,
	), nil
}

func newClient(rpc jsonrpc.RPCClient, maxRetries uint, limiter rate.Limiter, commitment Commitment) *client {
	return &client{
		log:    logrus.StandardLogger().WithField("type", "solana/client"),
		client: rpc,
		retrier: retry.NewRetrier(
			retry.RetriableRPCCodes(retriableRPCCodes...),
			retry.Limit(maxRetries),
			retry.BackoffWithJitter(backoff.BinaryExponential(time.Second), 10*time.Second, 0.1),
		),
		limiter:    limiter,
		commitment: commitment,
		pollRate:   PollRate,
		rentCache:  cache.NewCache(rentCacheBudget),
	}
}

func (c *client) call(ctx context.Context, out interface{}, method string, params ...interface{}) error {
	_, err := c.retrier.Retry(ctx, func() error {
		if err := ctx.Err(); err != nil {
			return err
		}

		if err := c.limiter.Wait(ctx, method); err != nil {
			return errors.Wrapf(err, "%s() rate limiter", method)
		}

		err := c.client.CallFor(out, method, params...)
		if err == nil {
			return nil
		}

		if code, ok := rpcErrorCode(err); ok && code == rateLimitedCode {
			c.log.WithField("method", method).Warn("rate limited")
		}
		return err
	})

	return err
}

func rpcErrorCode(err error) (int, bool) {
	var rpcErr *jsonrpc.RPCError
	if errors.As(err, &rpcErr) {
		return rpcErr.Code, true
	}
	return 0, false
}

// GetLatestBlockhash implements BlockhashFetcher.GetLatestBlockhash.
func (c *client) GetLatestBlockhash(ctx context.Context, commitment Commitment) (Hash, uint64, error) {
	tracer := metrics.TraceMethodCall(ctx, metricsStructName, "GetLatestBlockhash")
	defer tracer.End()

	type response struct {
		Value struct {
			Blockhash            string `json:"blockhash"`
			LastValidBlockHeight uint64 `json:"lastValidBlockHeight"`
		} `json:"value"`
	}

	// note: we have to wrap the commitment in an []interface{} otherwise the
	//       solana RPC node complains. Technically this is a violation of the
	//       JSON RPC v2.0 spec.
	var resp response
	if err := c.call(ctx, &resp, "getLatestBlockhash", []interface{}{commitment}); err != nil {
		tracer.OnError(err)
		return Hash{}, 0, errors.Wrap(err, "getLatestBlockhash() failed to send request")
	}

	hash, err := HashFromBase58(resp.Value.Blockhash)
	if err != nil {
		tracer.OnError(err)
		return Hash{}, 0, errors.Wrap(err, "invalid base58 encoded hash in response")
	}
	if hash.IsZero() {
		return Hash{}, 0, errors.New("empty blockhash returned")
	}

	return hash, resp.Value.LastValidBlockHeight, nil
}

// SendTransaction implements TransactionSubmitter.SendTransaction.
//
// If the node rejects the transaction during preflight, the returned error is
// the *TransactionError it reported.
func (c *client) SendTransaction(ctx context.Context, txn Transaction, opts SendOptions) (Signature, error) {
	tracer := metrics.TraceMethodCall(ctx, metricsStructName, "SendTransaction")
	defer tracer.End()

	sig := txn.Signature()
	log := c.log.WithFields(logrus.Fields{
		"method":    "SendTransaction",
		"signature": sig.String(),
	})

	preflightCommitment := opts.PreflightCommitment
	if preflightCommitment == (Commitment{}) {
		preflightCommitment = c.commitment
	}
	maxRetries := DefaultMaxRetries
	if opts.MaxRetries != nil {
		maxRetries = *opts.MaxRetries
	}

	config := struct {
		Encoding            string `json:"encoding"`
		SkipPreflight       bool   `json:"skipPreflight"`
		PreflightCommitment string `json:"preflightCommitment"`
		MaxRetries          uint   `json:"maxRetries"`
	}{
		Encoding:            "base58",
		SkipPreflight:       opts.SkipPreflight,
		PreflightCommitment: preflightCommitment.Commitment,
		MaxRetries:          maxRetries,
	}

	start := time.Now()

	var sigStr string
	err := c.call(ctx, &sigStr, "sendTransaction", base58.Encode(txn.Marshal()), config)
	if err != nil {
		tracer.OnError(err)
		metrics.RecordEvent(ctx, submitTransactionFailureEventName, map[string]interface{}{
			"signature": sig.String(),
			"error":     err.Error(),
		})
		log.WithError(err).Warn("failed to submit transaction")

		var rpcErr *jsonrpc.RPCError
		if errors.As(err, &rpcErr) {
			txErr, parseErr := ParseRPCError(rpcErr)
			if parseErr == nil && txErr != nil {
				if len(txErr.Logs) > 0 {
					log.WithField("logs", txErr.Logs).Debug("preflight simulation logs")
				}
				return sig, txErr
			}
		}

		return sig, errors.Wrap(err, "sendTransaction() failed to send request")
	}

	metrics.RecordDuration(ctx, submitTransactionMetricName, time.Since(start))

	returned, err := SignatureFromBase58(sigStr)
	if err != nil {
		return sig, errors.Wrap(err, "invalid signature in response")
	}
	if returned != sig {
		log.WithField("returned", returned.String()).Warn("node returned an unexpected signature")
	}

	return returned, nil
}

func (c *client) GetMinimumBalanceForRentExemption(ctx context.Context, dataSize uint64) (lamports uint64, err error) {
	tracer := metrics.TraceMethodCall(ctx, metricsStructName, "GetMinimumBalanceForRentExemption")
	defer tracer.End()

	key := strconv.FormatUint(dataSize, 10)
	if cached, ok := c.rentCache.Retrieve(key); ok {
		return cached.(uint64), nil
	}

	if err := c.call(ctx, &lamports, "getMinimumBalanceForRentExemption", dataSize); err != nil {
		tracer.OnError(err)
		return 0, errors.Wrapf(err, "getMinimumBalanceForRentExemption() failed to send request")
	}

	// A concurrent call may have inserted the same value first.
	_ = c.rentCache.Insert(key, lamports, 1)

	return lamports, nil
}

func (c *client) GetSlot(ctx context.Context, commitment Commitment) (slot uint64, err error) {
	tracer := metrics.TraceMethodCall(ctx, metricsStructName, "GetSlot")
	defer tracer.End()

	if err := c.call(ctx, &slot, "getSlot", []interface{}{commitment}); err != nil {
		tracer.OnError(err)
		return 0, errors.Wrapf(err, "getSlot() failed to send request")
	}

	return slot, nil
}

func (c *client) GetBalance(ctx context.Context, account PublicKey, commitment Commitment) (uint64, error) {
	tracer := metrics.TraceMethodCall(ctx, metricsStructName, "GetBalance")
	defer tracer.End()

	var resp struct {
		Value *uint64 `json:"value"`
	}
	if err := c.call(ctx, &resp, "getBalance", account.String(), commitment); err != nil {
		if code, ok := rpcErrorCode(err); ok && code == invalidParamCode {
			return 0, ErrNoBalance
		}

		tracer.OnError(err)
		return 0, errors.Wrapf(err, "getBalance() failed to send request")
	}

	if resp.Value == nil {
		return 0, errors.Errorf("invalid value in response")
	}

	return *resp.Value, nil
}

func (c *client) GetAccountInfo(ctx context.Context, account PublicKey, commitment Commitment) (accountInfo AccountInfo, err error) {
	tracer := metrics.TraceMethodCall(ctx, metricsStructName, "GetAccountInfo")
	defer tracer.End()

	type rpcResponse struct {
		Value *struct {
			Lamports   uint64   `json:"lamports"`
			Owner      string   `json:"owner"`
			Data       []string `json:"data"`
			Executable bool     `json:"executable"`
		} `json:"value"`
	}

	rpcConfig := struct {
		Commitment string `json:"commitment"`
		Encoding   string `json:"encoding"`
	}{
		Commitment: commitment.Commitment,
		Encoding:   "base64",
	}

	var resp rpcResponse
	if err := c.call(ctx, &resp, "getAccountInfo", account.String(), rpcConfig); err != nil {
		tracer.OnError(err)
		return accountInfo, errors.Wrap(err, "getAccountInfo() failed to send request")
	}

	if resp.Value == nil {
		return accountInfo, ErrNoAccountInfo
	}

	accountInfo.Owner, err = PublicKeyFromBase58(resp.Value.Owner)
	if err != nil {
		return accountInfo, errors.Wrap(err, "invalid base58 encoded owner")
	}

	if len(resp.Value.Data) == 0 {
		return accountInfo, errors.New("missing account data")
	}
	accountInfo.Data, err = base64.StdEncoding.DecodeString(resp.Value.Data[0])
	if err != nil {
		return accountInfo, errors.Wrap(err, "invalid base64 encoded data")
	}

	accountInfo.Lamports = resp.Value.Lamports
	accountInfo.Executable = resp.Value.Executable

	return accountInfo, nil
}

func (c *client) RequestAirdrop(ctx context.Context, account PublicKey, lamports uint64, commitment Commitment) (Signature, error) {
	tracer := metrics.TraceMethodCall(ctx, metricsStructName, "RequestAirdrop")
	defer tracer.End()

	var sigStr string
	if err := c.call(ctx, &sigStr, "requestAirdrop", account.String(), lamports, commitment); err != nil {
		tracer.OnError(err)
		return Signature{}, errors.Wrapf(err, "requestAirdrop() failed to send request")
	}

	sig, err := SignatureFromBase58(sigStr)
	if err != nil {
		return Signature{}, errors.Wrap(err, "invalid signature in response")
	}

	if sig.IsZero() {
		return Signature{}, errors.New("empty signature returned")
	}

	return sig, nil
}

func (c *client) GetSignatureStatuses(ctx context.Context, sigs []Signature) ([]*SignatureStatus, error) {
	tracer := metrics.TraceMethodCall(ctx, metricsStructName, "GetSignatureStatuses")
	defer tracer.End()

	b58Sigs := make([]string, len(sigs))
	for i := range sigs {
		b58Sigs[i] = sigs[i].String()
	}

	req := struct {
		SearchTransactionHistory bool `json:"searchTransactionHistory"`
	}{
		SearchTransactionHistory: true,
	}

	type signatureStatus struct {
		Slot               uint64          `json:"slot"`
		Confirmations      *int            `json:"confirmations"`
		ConfirmationStatus string          `json:"confirmationStatus"`
		Err                json.RawMessage `json:"err"`
	}

	type rpcResp struct {
		Value []*signatureStatus `json:"value"`
	}

	var resp rpcResp
	if err := c.call(ctx, &resp, "getSignatureStatuses", b58Sigs, req); err != nil {
		tracer.OnError(err)
		return nil, errors.Wrap(err, "getSignatureStatuses() failed to send request")
	}
	if len(resp.Value) > len(sigs) {
		return nil, errors.Errorf("received %d statuses for %d signatures", len(resp.Value), len(sigs))
	}

	statuses := make([]*SignatureStatus, len(sigs))
	for i, v := range resp.Value {
		if v == nil {
			continue
		}

		statuses[i] = &SignatureStatus{
			Slot:               v.Slot,
			Confirmations:      v.Confirmations,
			ConfirmationStatus: v.ConfirmationStatus,
		}

		if len(v.Err) > 0 && string(v.Err) != "null" {
			var txError interface{}
			if err := json.Unmarshal(v.Err, &txError); err != nil {
				return nil, errors.Wrap(err, "failed to parse transaction result")
			}

			txErr, err := ParseTransactionError(txError)
			if err != nil {
				return nil, errors.Wrap(err, "failed to parse transaction result")
			}
			statuses[i].ErrorResult = txErr
		}
	}

	return statuses, nil
}

func (c *client) ConfirmTransaction(ctx context.Context, sig Signature, commitment Commitment) (*SignatureStatus, error) {
	tracer := metrics.TraceMethodCall(ctx, metricsStructName, "ConfirmTransaction")
	defer tracer.End()

	var s *SignatureStatus
	errConfirmationsNotReached := errors.New("confirmations not reached")
	_, err := retry.Retry(
		ctx,
		func() error {
			statuses, err := c.GetSignatureStatuses(ctx, []Signature{sig})
			if err != nil {
				return err
			}

			s = statuses[0]
			if s == nil {
				return ErrSignatureNotFound
			}

			if s.ErrorResult != nil {
				return s.ErrorResult
			}

			if s.Satisfies(commitment) {
				return nil
			}

			return errConfirmationsNotReached
		},
		retry.RetriableErrors(ErrSignatureNotFound, errConfirmationsNotReached),
		retry.Limit(sigStatusPollLimit),
		retry.Backoff(backoff.Constant(c.pollRate), c.pollRate),
	)
	if err != nil {
		tracer.OnError(err)
	}

	return s, err
}
