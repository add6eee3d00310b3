package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/spf13/cobra"

	"github.com/ethpandaops/execution-body/pkg/body"
	"github.com/ethpandaops/execution-body/pkg/redis"
	"github.com/ethpandaops/execution-body/pkg/store"
	"github.com/ethpandaops/execution-body/pkg/transaction"
)

var inspectHash string

var inspectCmd = &cobra.Command{
	Use:   "inspect [file]",
	Short: "Decodes a stored block body and prints its roots.",
	Long: `Decodes an SSZ block body container, read from a file or from the
store by block hash (--hash), and prints its transactions and uncles roots.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var (
			encoded []byte
			err     error
		)

		switch {
		case len(args) == 1:
			encoded, err = os.ReadFile(args[0])
		case inspectHash != "":
			encoded, err = loadStoredBody(cmd, inspectHash)
		default:
			return fmt.Errorf("either a file or --hash is required")
		}

		if err != nil {
			return err
		}

		b, err := body.DecodeSSZ(encoded)
		if err != nil {
			return err
		}

		return printBody(cmd.OutOrStdout(), b, len(encoded))
	},
}

func init() {
	inspectCmd.Flags().StringVar(&inspectHash, "hash", "", "block hash to load from the store")

	rootCmd.AddCommand(inspectCmd)
}

func loadStoredBody(cmd *cobra.Command, hash string) ([]byte, error) {
	raw, err := hexutil.Decode(hash)
	if err != nil || len(raw) != common.HashLength {
		return nil, fmt.Errorf("invalid block hash %q", hash)
	}

	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	if cfg.Redis == nil {
		return nil, fmt.Errorf("redis configuration is required")
	}

	if err := cfg.Redis.Validate(); err != nil {
		return nil, err
	}

	client, err := redis.New(cfg.Redis)
	if err != nil {
		return nil, err
	}

	defer func() { _ = client.Close() }()

	return store.New(log, client, cfg.Redis.Prefix, cfg.Redis.TTL).GetRaw(cmd.Context(), common.BytesToHash(raw))
}

func printBody(w io.Writer, b *body.BlockBody, size int) error {
	txRoot, err := b.TransactionsRoot()
	if err != nil {
		return err
	}

	unclesRoot, err := b.UnclesRoot()
	if err != nil {
		return err
	}

	counts := make(map[transaction.Type]int)
	for _, tx := range b.Transactions {
		counts[tx.Type()]++
	}

	fmt.Fprintf(w, "Size:              %d bytes\n", size)
	fmt.Fprintf(w, "Transactions:      %d (legacy %d, access-list %d, fee-market %d)\n",
		len(b.Transactions), counts[transaction.LegacyTxType], counts[transaction.AccessListTxType], counts[transaction.FeeMarketTxType])
	fmt.Fprintf(w, "Uncles:            %d\n", len(b.Uncles))
	fmt.Fprintf(w, "Transactions root: %s\n", txRoot.Hex())
	fmt.Fprintf(w, "Uncles root:       %s\n", unclesRoot.Hex())

	return nil
}
