package solana

import (
	"encoding/json"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ybbus/jsonrpc"
)

func decodeJSON(t *testing.T, s string) interface{} {
	var v interface{}
	require.NoError(t, json.Unmarshal([]byte(s), &v))
	return v
}

func TestParseTransactionError(t *testing.T) {
	for _, tc := range []struct {
		raw         string
		key         TransactionErrorKey
		ixIndex     int
		ixKey       InstructionErrorKey
		custom      *CustomError
		message     string
		expectedErr bool
	}{
		{
			raw:     `"BlockhashNotFound"`,
			key:     TransactionErrorBlockhashNotFound,
			message: "BlockhashNotFound",
		},
		{
			raw:     `{"InstructionError":[2,{"Custom":3}]}`,
			key:     TransactionErrorInstructionError,
			ixIndex: 2,
			ixKey:   InstructionErrorCustom,
			custom:  customErr(3),
			message: "Error processing Instruction 2: custom program error: 0x3",
		},
		{
			raw:     `{"InstructionError":[0,"InvalidArgument"]}`,
			key:     TransactionErrorInstructionError,
			ixKey:   InstructionErrorInvalidArgument,
			message: "Error processing Instruction 0: InvalidArgument",
		},
		{
			raw:     `{"InstructionError":[1,{"BorshIoError":"Unknown"}]}`,
			key:     TransactionErrorInstructionError,
			ixIndex: 1,
			ixKey:   InstructionErrorBorshIOError,
			message: "Error processing Instruction 1: BorshIoError",
		},
		{
			raw:     `{"InsufficientFundsForRent":{"account_index":2}}`,
			key:     TransactionErrorInsufficientFundsForRent,
			message: "InsufficientFundsForRent",
		},
		{
			raw:     `{"DuplicateInstruction":3}`,
			key:     TransactionErrorDuplicateInstruction,
			message: "DuplicateInstruction",
		},
		{
			raw:         `{"InstructionError":[0]}`,
			key:         transactionErrorUnhandled,
			expectedErr: true,
		},
		{
			raw:         `{"A":1,"B":2}`,
			key:         transactionErrorUnhandled,
			expectedErr: true,
		},
	} {
		txErr, err := ParseTransactionError(decodeJSON(t, tc.raw))
		if tc.expectedErr {
			assert.Error(t, err, tc.raw)
		} else {
			require.NoError(t, err, tc.raw)
			assert.Equal(t, tc.message, txErr.Error(), tc.raw)
		}
		require.NotNil(t, txErr, tc.raw)
		assert.Equal(t, tc.key, txErr.ErrorKey(), tc.raw)

		if tc.key != TransactionErrorInstructionError {
			assert.Nil(t, txErr.InstructionError(), tc.raw)
			continue
		}

		ixErr := txErr.InstructionError()
		require.NotNil(t, ixErr, tc.raw)
		assert.Equal(t, tc.ixIndex, ixErr.Index, tc.raw)
		assert.Equal(t, tc.ixKey, ixErr.ErrorKey(), tc.raw)
		assert.Equal(t, tc.custom, ixErr.CustomError(), tc.raw)
	}

	txErr, err := ParseTransactionError(nil)
	assert.NoError(t, err)
	assert.Nil(t, txErr)

	_, err = ParseTransactionError(true)
	assert.Error(t, err)
}

func TestParseRPCError(t *testing.T) {
	txErr, err := ParseRPCError(&jsonrpc.RPCError{
		Code:    -32002,
		Message: "Transaction simulation failed: Error processing Instruction 0: custom program error: 0x1",
		Data: decodeJSON(t, `{
			"accounts": null,
			"err": {"InstructionError": [0, {"Custom": 1}]},
			"logs": [
				"Program 11111111111111111111111111111111 invoke [1]",
				"Transfer: insufficient lamports 0, need 10",
				"Program 11111111111111111111111111111111 failed: custom program error: 0x1"
			],
			"unitsConsumed": 150
		}`),
	})
	require.NoError(t, err)
	require.NotNil(t, txErr)
	assert.Equal(t, TransactionErrorInstructionError, txErr.ErrorKey())
	assert.Equal(t, customErr(1), txErr.InstructionError().CustomError())
	require.Len(t, txErr.Logs, 3)
	assert.Equal(t, "Transfer: insufficient lamports 0, need 10", txErr.Logs[1])

	// Node side failures carry no transaction error.
	for _, rpcErr := range []*jsonrpc.RPCError{
		nil,
		{Code: -32005, Message: "Node is behind"},
		{Code: -32002, Message: "simulation failed", Data: decodeJSON(t, `{"err": null}`)},
	} {
		txErr, err := ParseRPCError(rpcErr)
		assert.NoError(t, err)
		assert.Nil(t, txErr)
	}

	_, err = ParseRPCError(&jsonrpc.RPCError{Code: -32002, Data: "unexpected"})
	assert.Error(t, err)
}

func TestTransactionError_RawValue(t *testing.T) {
	txErr := NewTransactionError(TransactionErrorAlreadyProcessed)
	encoded, err := txErr.JSONString()
	require.NoError(t, err)
	assert.Equal(t, `"AlreadyProcessed"`, encoded)

	for _, tc := range []struct {
		ixErr    InstructionError
		expected string
	}{
		{
			ixErr:    InstructionError{Index: 1, Err: errors.New(string(InstructionErrorMissingRequiredSignature))},
			expected: `{"InstructionError":[1,"MissingRequiredSignature"]}`,
		},
		{
			ixErr:    InstructionError{Index: 3, Err: CustomError(6001)},
			expected: `{"InstructionError":[3,{"Custom":6001}]}`,
		},
	} {
		txErr, err := TransactionErrorFromInstructionError(&tc.ixErr)
		require.NoError(t, err)
		assert.Equal(t, decodeJSON(t, tc.expected), txErr.raw)

		encoded, err := txErr.JSONString()
		require.NoError(t, err)
		assert.JSONEq(t, tc.expected, encoded)

		// The raw value parses back to the same error.
		parsed, err := ParseTransactionError(decodeJSON(t, encoded))
		require.NoError(t, err)
		assert.Equal(t, tc.ixErr.ErrorKey(), parsed.InstructionError().ErrorKey())
		assert.Equal(t, tc.ixErr.Index, parsed.InstructionError().Index)
	}
}

func TestParseJSONNumber(t *testing.T) {
	for _, v := range []interface{}{"7", 7.0, json.Number("7")} {
		n, err := parseJSONNumber(v)
		require.NoError(t, err)
		assert.Equal(t, 7, n)
	}

	for _, v := range []interface{}{"seven", json.Number("7.5"), nil, []interface{}{}} {
		_, err := parseJSONNumber(v)
		assert.Error(t, err)
	}
}

func customErr(code uint32) *CustomError {
	e := CustomError(code)
	return &e
}
