package solana

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/pkg/errors"
	"github.com/ybbus/jsonrpc"
)

var (
	// ErrAccountIndexOverflow indicates a privilege partition of the compiled
	// key table exceeded what a single index byte can address.
	ErrAccountIndexOverflow = errors.New("account index overflow")

	// ErrKeyNotFound indicates an instruction referenced a key that is not in
	// the compiled key table.
	ErrKeyNotFound = errors.New("key not found in compiled keys")

	// ErrSanitize indicates a structurally invalid message.
	ErrSanitize = errors.New("message failed to sanitize")

	ErrKeypairMismatch  = errors.New("signer is not a required signer of the message")
	ErrNotEnoughSigners = errors.New("not enough signers")
	ErrSignatureFailure = errors.New("signature verification failed")

	// ErrDeserialization indicates malformed input bytes or text.
	ErrDeserialization = errors.New("deserialization failed")

	// ErrRequestFailure indicates the network collaborator reported a failure.
	ErrRequestFailure = errors.New("request failed")

	ErrIncorrectProgram     = errors.New("incorrect program")
	ErrIncorrectInstruction = errors.New("incorrect instruction")
)

// TransactionErrorKey is the key of a transaction error reported by an RPC node
// when a submitted transaction fails preflight or execution.
type TransactionErrorKey string

const (
	TransactionErrorInternal TransactionErrorKey = "Internal"

	TransactionErrorAccountInUse                 TransactionErrorKey = "AccountInUse"
	TransactionErrorAccountLoadedTwice           TransactionErrorKey = "AccountLoadedTwice"
	TransactionErrorAccountNotFound              TransactionErrorKey = "AccountNotFound"
	TransactionErrorProgramAccountNotFound       TransactionErrorKey = "ProgramAccountNotFound"
	TransactionErrorInsufficientFundsForFee      TransactionErrorKey = "InsufficientFundsForFee"
	TransactionErrorInvalidAccountForFee         TransactionErrorKey = "InvalidAccountForFee"
	TransactionErrorDuplicateSignature           TransactionErrorKey = "DuplicateSignature"
	TransactionErrorBlockhashNotFound            TransactionErrorKey = "BlockhashNotFound"
	TransactionErrorInstructionError             TransactionErrorKey = "InstructionError"
	TransactionErrorCallChainTooDeep             TransactionErrorKey = "CallChainTooDeep"
	TransactionErrorMissingSignatureForFee       TransactionErrorKey = "MissingSignatureForFee"
	TransactionErrorInvalidAccountIndex          TransactionErrorKey = "InvalidAccountIndex"
	TransactionErrorSignatureFailure             TransactionErrorKey = "SignatureFailure"
	TransactionErrorInvalidProgramForExecution   TransactionErrorKey = "InvalidProgramForExecution"
	TransactionErrorSanitizeFailure              TransactionErrorKey = "SanitizeFailure"
	TransactionErrorClusterMaintenance           TransactionErrorKey = "ClusterMaintenance"
	TransactionErrorAccountBorrowOutstanding     TransactionErrorKey = "AccountBorrowOutstanding"
	TransactionErrorWouldExceedMaxBlockCostLimit TransactionErrorKey = "WouldExceedMaxBlockCostLimit"
	TransactionErrorUnsupportedVersion           TransactionErrorKey = "UnsupportedVersion"
	TransactionErrorInvalidWritableAccount       TransactionErrorKey = "InvalidWritableAccount"

	TransactionErrorAddressLookupTableNotFound     TransactionErrorKey = "AddressLookupTableNotFound"
	TransactionErrorInvalidAddressLookupTableOwner TransactionErrorKey = "InvalidAddressLookupTableOwner"
	TransactionErrorInvalidAddressLookupTableData  TransactionErrorKey = "InvalidAddressLookupTableData"
	TransactionErrorInvalidAddressLookupTableIndex TransactionErrorKey = "InvalidAddressLookupTableIndex"
	TransactionErrorInsufficientFundsForRent       TransactionErrorKey = "InsufficientFundsForRent"
	TransactionErrorDuplicateInstruction           TransactionErrorKey = "DuplicateInstruction"
	TransactionErrorAlreadyProcessed               TransactionErrorKey = "AlreadyProcessed"
	TransactionErrorTooManyAccountLocks            TransactionErrorKey = "TooManyAccountLocks"
	TransactionErrorInvalidRentPayingAccount       TransactionErrorKey = "InvalidRentPayingAccount"
	TransactionErrorUnbalancedTransaction          TransactionErrorKey = "UnbalancedTransaction"
	TransactionErrorResanitizationNeeded           TransactionErrorKey = "ResanitizationNeeded"

	TransactionErrorWouldExceedMaxAccountCostLimit    TransactionErrorKey = "WouldExceedMaxAccountCostLimit"
	TransactionErrorWouldExceedAccountDataBlockLimit  TransactionErrorKey = "WouldExceedAccountDataBlockLimit"
	TransactionErrorWouldExceedMaxVoteCostLimit       TransactionErrorKey = "WouldExceedMaxVoteCostLimit"
	TransactionErrorMaxLoadedAccountsDataSizeExceeded TransactionErrorKey = "MaxLoadedAccountsDataSizeExceeded"

	transactionErrorUnhandled TransactionErrorKey = "unhandled transaction error"
)

// InstructionErrorKey is the key of an instruction error nested inside an
// InstructionError transaction error.
type InstructionErrorKey string

const (
	InstructionErrorGenericError                   InstructionErrorKey = "GenericError"
	InstructionErrorInvalidArgument                InstructionErrorKey = "InvalidArgument"
	InstructionErrorInvalidInstructionData         InstructionErrorKey = "InvalidInstructionData"
	InstructionErrorInvalidAccountData             InstructionErrorKey = "InvalidAccountData"
	InstructionErrorAccountDataTooSmall            InstructionErrorKey = "AccountDataTooSmall"
	InstructionErrorInsufficientFunds              InstructionErrorKey = "InsufficientFunds"
	InstructionErrorIncorrectProgramID             InstructionErrorKey = "IncorrectProgramId"
	InstructionErrorMissingRequiredSignature       InstructionErrorKey = "MissingRequiredSignature"
	InstructionErrorAccountAlreadyInitialized      InstructionErrorKey = "AccountAlreadyInitialized"
	InstructionErrorUninitializedAccount           InstructionErrorKey = "UninitializedAccount"
	InstructionErrorUnbalancedInstruction          InstructionErrorKey = "UnbalancedInstruction"
	InstructionErrorModifiedProgramID              InstructionErrorKey = "ModifiedProgramId"
	InstructionErrorExternalAccountLamportSpend    InstructionErrorKey = "ExternalAccountLamportSpend"
	InstructionErrorExternalAccountDataModified    InstructionErrorKey = "ExternalAccountDataModified"
	InstructionErrorReadonlyLamportChange          InstructionErrorKey = "ReadonlyLamportChange"
	InstructionErrorReadonlyDataModified           InstructionErrorKey = "ReadonlyDataModified"
	InstructionErrorDuplicateAccountIndex          InstructionErrorKey = "DuplicateAccountIndex"
	InstructionErrorExecutableModified             InstructionErrorKey = "ExecutableModified"
	InstructionErrorRentEpochModified              InstructionErrorKey = "RentEpochModified"
	InstructionErrorNotEnoughAccountKeys           InstructionErrorKey = "NotEnoughAccountKeys"
	InstructionErrorAccountDataSizeChanged         InstructionErrorKey = "AccountDataSizeChanged"
	InstructionErrorAccountNotExecutable           InstructionErrorKey = "AccountNotExecutable"
	InstructionErrorAccountBorrowFailed            InstructionErrorKey = "AccountBorrowFailed"
	InstructionErrorAccountBorrowOutstanding       InstructionErrorKey = "AccountBorrowOutstanding"
	InstructionErrorDuplicateAccountOutOfSync      InstructionErrorKey = "DuplicateAccountOutOfSync"
	InstructionErrorCustom                         InstructionErrorKey = "Custom"
	InstructionErrorInvalidError                   InstructionErrorKey = "InvalidError"
	InstructionErrorExecutableDataModified         InstructionErrorKey = "ExecutableDataModified"
	InstructionErrorExecutableLamportChange        InstructionErrorKey = "ExecutableLamportChange"
	InstructionErrorExecutableAccountNotRentExempt InstructionErrorKey = "ExecutableAccountNotRentExempt"
	InstructionErrorUnsupportedProgramID           InstructionErrorKey = "UnsupportedProgramId"
	InstructionErrorCallDepth                      InstructionErrorKey = "CallDepth"
	InstructionErrorMissingAccount                 InstructionErrorKey = "MissingAccount"
	InstructionErrorReentrancyNotAllowed           InstructionErrorKey = "ReentrancyNotAllowed"
	InstructionErrorMaxSeedLengthExceeded          InstructionErrorKey = "MaxSeedLengthExceeded"
	InstructionErrorInvalidSeeds                   InstructionErrorKey = "InvalidSeeds"
	InstructionErrorInvalidRealloc                 InstructionErrorKey = "InvalidRealloc"

	InstructionErrorComputationalBudgetExceeded InstructionErrorKey = "ComputationalBudgetExceeded"
	InstructionErrorPrivilegeEscalation         InstructionErrorKey = "PrivilegeEscalation"
	InstructionErrorProgramFailedToComplete     InstructionErrorKey = "ProgramFailedToComplete"
	InstructionErrorBorshIOError                InstructionErrorKey = "BorshIoError"
	InstructionErrorAccountNotRentExempt        InstructionErrorKey = "AccountNotRentExempt"
	InstructionErrorInvalidAccountOwner         InstructionErrorKey = "InvalidAccountOwner"
	InstructionErrorArithmeticOverflow          InstructionErrorKey = "ArithmeticOverflow"
	InstructionErrorUnsupportedSysvar           InstructionErrorKey = "UnsupportedSysvar"
	InstructionErrorIllegalOwner                InstructionErrorKey = "IllegalOwner"
	InstructionErrorImmutable                   InstructionErrorKey = "Immutable"
	InstructionErrorIncorrectAuthority          InstructionErrorKey = "IncorrectAuthority"
)

// CustomError is the numerical error returned by a non-builtin program.
type CustomError uint32

func (c CustomError) Error() string {
	return fmt.Sprintf("custom program error: 0x%x", uint32(c))
}

// InstructionError indicates an instruction returned an error in a transaction.
type InstructionError struct {
	Index int
	Err   error
}

func parseInstructionError(v interface{}) (e InstructionError, err error) {
	values, ok := v.([]interface{})
	if !ok {
		return e, errors.New("unexpected instruction error format")
	}
	if len(values) != 2 {
		return e, errors.Errorf("invalid number of entries in InstructionError tuple: %d", len(values))
	}

	e.Index, err = parseJSONNumber(values[0])
	if err != nil {
		return e, err
	}

	switch t := values[1].(type) {
	case string:
		e.Err = errors.New(t)
	case map[string]interface{}:
		k, v, ok := singleEntry(t)
		if !ok {
			e.Err = errors.New("unhandled InstructionError")
			return e, errors.Errorf("invalid instruction result size: %d", len(t))
		}

		// Variants with a payload, such as BorshIoError, are reported by name.
		if k != string(InstructionErrorCustom) {
			e.Err = errors.New(k)
			break
		}

		code, err := parseJSONNumber(v)
		if err != nil || code < 0 {
			e.Err = errors.New("unhandled CustomError")
			break
		}
		e.Err = CustomError(code)
	default:
		return e, errors.Errorf("unexpected instruction error type: %T", t)
	}

	return e, nil
}

func (i InstructionError) Error() string {
	return fmt.Sprintf("Error processing Instruction %d: %v", i.Index, i.Err)
}

func (i InstructionError) ErrorKey() InstructionErrorKey {
	if i.Err == nil {
		return ""
	}
	if i.CustomError() != nil {
		return InstructionErrorCustom
	}
	return InstructionErrorKey(i.Err.Error())
}

func (i InstructionError) JSONString() string {
	if e := i.CustomError(); e != nil {
		return fmt.Sprintf(`[%d, {"%s": %d}]`, i.Index, InstructionErrorCustom, *e)
	}
	return fmt.Sprintf(`[%d, "%s"]`, i.Index, i.Err.Error())
}

func (i InstructionError) CustomError() *CustomError {
	if ce, ok := i.Err.(CustomError); ok {
		return &ce
	}
	return nil
}

// TransactionError is a transaction failure reported by an RPC node, either
// from preflight simulation or from a processed transaction's status.
type TransactionError struct {
	key              TransactionErrorKey
	instructionError *InstructionError
	raw              interface{}

	// Logs are the program logs of a failed preflight simulation, if any.
	Logs []string
}

// ParseRPCError extracts the transaction error carried in the data of an
// RPC error. It returns nil if err carries none.
func ParseRPCError(err *jsonrpc.RPCError) (*TransactionError, error) {
	if err == nil || err.Data == nil {
		return nil, nil
	}

	data, ok := err.Data.(map[string]interface{})
	if !ok {
		return nil, errors.Errorf("unexpected rpc error data type: %T", err.Data)
	}

	raw, ok := data["err"]
	if !ok || raw == nil {
		return nil, nil
	}

	txErr, parseErr := ParseTransactionError(raw)
	if txErr != nil {
		txErr.Logs = parseLogs(data["logs"])
	}
	return txErr, parseErr
}

// ParseTransactionError parses the JSON value of the "err" field returned by
// various RPC methods.
func ParseTransactionError(raw interface{}) (*TransactionError, error) {
	switch t := raw.(type) {
	case nil:
		return nil, nil
	case string:
		return &TransactionError{key: TransactionErrorKey(t), raw: raw}, nil
	case map[string]interface{}:
		k, v, ok := singleEntry(t)
		if !ok {
			return &TransactionError{key: transactionErrorUnhandled, raw: raw},
				errors.Errorf("invalid transaction result size: %d", len(t))
		}

		// Variants with a payload other than InstructionError, such as
		// InsufficientFundsForRent, are reported by name.
		if k != string(TransactionErrorInstructionError) {
			return &TransactionError{key: TransactionErrorKey(k), raw: raw}, nil
		}

		instructionErr, err := parseInstructionError(v)
		if err != nil {
			return &TransactionError{key: transactionErrorUnhandled, raw: raw},
				errors.Wrap(err, "failed to parse instruction error")
		}

		return &TransactionError{
			key:              TransactionErrorInstructionError,
			instructionError: &instructionErr,
			raw:              raw,
		}, nil
	default:
		return nil, errors.Errorf("unhandled error type: %T", t)
	}
}

func NewTransactionError(key TransactionErrorKey) *TransactionError {
	return &TransactionError{
		key: key,
		raw: string(key),
	}
}

func TransactionErrorFromInstructionError(err *InstructionError) (*TransactionError, error) {
	var raw interface{}
	if err := json.Unmarshal([]byte(err.JSONString()), &raw); err != nil {
		return nil, errors.Wrap(err, "failed to generate raw value")
	}

	return &TransactionError{
		key:              TransactionErrorInstructionError,
		instructionError: err,
		raw: map[string]interface{}{
			string(TransactionErrorInstructionError): raw,
		},
	}, nil
}

func (t TransactionError) Error() string {
	if t.instructionError != nil {
		return t.instructionError.Error()
	}
	return string(t.key)
}

func (t TransactionError) ErrorKey() TransactionErrorKey {
	return t.key
}

func (t TransactionError) InstructionError() *InstructionError {
	return t.instructionError
}

func (t TransactionError) JSONString() (string, error) {
	b, err := json.Marshal(t.raw)
	return string(b), err
}

// singleEntry returns the only entry of a serialized enum variant.
func singleEntry(m map[string]interface{}) (string, interface{}, bool) {
	if len(m) != 1 {
		return "", nil, false
	}
	for k, v := range m {
		return k, v, true
	}
	return "", nil, false
}

func parseLogs(v interface{}) []string {
	values, ok := v.([]interface{})
	if !ok {
		return nil
	}

	logs := make([]string, 0, len(values))
	for _, value := range values {
		if line, ok := value.(string); ok {
			logs = append(logs, line)
		}
	}
	return logs
}

func parseJSONNumber(v interface{}) (int, error) {
	switch t := v.(type) {
	case json.Number:
		n, err := t.Int64()
		if err != nil {
			return 0, errors.Errorf("non int64 value: %v", v)
		}
		return int(n), nil
	case string:
		n, err := strconv.ParseInt(t, 10, 64)
		if err != nil {
			return 0, errors.Errorf("non numeric value: %v", v)
		}
		return int(n), nil
	case float64:
		return int(t), nil
	default:
		return 0, errors.Errorf("non numeric value: %v", v)
	}
}
