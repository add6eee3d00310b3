package body

import (
	"bytes"

	"github.com/ethereum/go-ethereum/trie"
)

// rawTxs feeds pre-encoded transactions to types.DeriveSha.
type rawTxs [][]byte

func (l rawTxs) Len() int { return len(l) }

func (l rawTxs) EncodeIndex(i int, w *bytes.Buffer) { w.Write(l[i]) }

func newStackTrie() *trie.StackTrie {
	return trie.NewStackTrie(nil)
}
