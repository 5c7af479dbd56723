package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/code-solana-sdk/pkg/solana"
	compute_budget "github.com/code-payments/code-solana-sdk/pkg/solana/computebudget"
	"github.com/code-payments/code-solana-sdk/pkg/solana/memo"
	"github.com/code-payments/code-solana-sdk/pkg/solana/system"
	"github.com/code-payments/code-solana-sdk/pkg/testutil"
)

func TestTransferInstructions(t *testing.T) {
	keys := testutil.GenerateSolanaKeys(t, 2)
	from, to := keys[0], keys[1]

	ixns := transferInstructions(transferArgs{from: from, to: to, lamports: 10})
	require.Len(t, ixns, 1)
	assert.Equal(t, system.Transfer(from, to, 10), ixns[0])

	ixns = transferInstructions(transferArgs{
		from:             from,
		to:               to,
		lamports:         10,
		memo:             "hello",
		computeUnitPrice: 5,
		computeUnitLimit: 1000,
	})
	require.Len(t, ixns, 4)
	assert.Equal(t, compute_budget.SetComputeUnitLimit(1000), ixns[0])
	assert.Equal(t, compute_budget.SetComputeUnitPrice(5), ixns[1])
	assert.Equal(t, system.Transfer(from, to, 10), ixns[2])
	assert.Equal(t, memo.Instruction("hello"), ixns[3])

	tx, err := solana.NewTransaction(from, solana.Hash{}, ixns...)
	require.NoError(t, err)
	require.NoError(t, tx.Sanitize())
	assert.Equal(t, from, tx.Message.AccountKeys[0])
}

func TestKeygenAndBalance(t *testing.T) {
	var methods []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ID     int               `json:"id"`
			Method string            `json:"method"`
			Params []json.RawMessage `json:"params"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		methods = append(methods, req.Method)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"result": map[string]interface{}{
				"context": map[string]interface{}{"slot": 1},
				"value":   42,
			},
		})
	}))
	defer server.Close()

	path := filepath.Join(t.TempDir(), "id.json")

	var out bytes.Buffer
	app := newApp()
	app.Writer = &out

	require.NoError(t, app.RunContext(context.Background(), []string{"solana-transfer", "--rpc", server.URL, "keygen", "--out", path}))
	kp, err := solana.LoadKeypairFile(path)
	require.NoError(t, err)
	assert.Equal(t, kp.PublicKey().String(), strings.TrimSpace(out.String()))

	// Existing files are not overwritten.
	assert.Error(t, app.RunContext(context.Background(), []string{"solana-transfer", "--rpc", server.URL, "keygen", "--out", path}))

	out.Reset()
	require.NoError(t, app.RunContext(context.Background(), []string{"solana-transfer", "--rpc", server.URL, "--commitment", "finalized", "balance", "--keypair", path}))
	assert.Equal(t, "42", strings.TrimSpace(out.String()))
	assert.Equal(t, []string{"getBalance"}, methods)
	assert.Equal(t, solana.CommitmentFinalized, commitment)

	assert.Error(t, app.RunContext(context.Background(), []string{"solana-transfer", "--rpc", server.URL, "balance"}))
}

func TestLoadConfig_MissingFile(t *testing.T) {
	app := newApp()
	err := app.RunContext(context.Background(), []string{"solana-transfer", "--config", filepath.Join(t.TempDir(), "missing.yaml"), "keygen", "--out", "unused"})
	assert.Error(t, err)
}
