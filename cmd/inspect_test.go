package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ethpandaops/execution-body/pkg/body"
)

func TestInspectFile(t *testing.T) {
	encoded, err := body.New(nil, nil).MarshalSSZ()
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "body.ssz")
	require.NoError(t, os.WriteFile(path, encoded, 0o600))

	var out bytes.Buffer

	inspectCmd.SetOut(&out)
	require.NoError(t, inspectCmd.RunE(inspectCmd, []string{path}))

	assert.Contains(t, out.String(), "Size:              9 bytes")
	assert.Contains(t, out.String(), "Transactions:      0 (legacy 0, access-list 0, fee-market 0)")
	assert.Contains(t, out.String(), types.EmptyRootHash.Hex())
	assert.Contains(t, out.String(), types.EmptyUncleHash.Hex())
}

func TestInspectErrors(t *testing.T) {
	assert.ErrorContains(t, inspectCmd.RunE(inspectCmd, nil), "either a file or --hash")

	path := filepath.Join(t.TempDir(), "garbage.ssz")
	require.NoError(t, os.WriteFile(path, []byte{1, 2, 3}, 0o600))
	assert.ErrorIs(t, inspectCmd.RunE(inspectCmd, []string{path}), body.ErrContainerDecode)
}
