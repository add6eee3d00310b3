package execution

import (
	"encoding/json"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/valyala/fastjson"

	"github.com/ethpandaops/execution-body/pkg/body"
	"github.com/ethpandaops/execution-body/pkg/transaction"
)

// Block is a fetched block: its header and the body committed to by it.
type Block struct {
	Number uint64
	Hash   common.Hash
	Header *types.Header
	Body   *body.BlockBody
}

// Verify checks the body against the roots in the header. A block without a
// header or body is invalid.
func (b *Block) Verify() error {
	switch {
	case b == nil:
		return fmt.Errorf("%w: nil block", ErrInvalidBlock)
	case b.Header == nil:
		return fmt.Errorf("%w: block %d has no header", ErrInvalidBlock, b.Number)
	case b.Body == nil:
		return fmt.Errorf("%w: block %d has no body", ErrInvalidBlock, b.Number)
	}

	return b.Body.Validate(b.Header)
}

// rpcBlock is the part of an eth_getBlockByNumber response needed to build a
// Block. Uncles are only listed by hash and fetched separately.
type rpcBlock struct {
	header      *types.Header
	hash        common.Hash
	txs         []*transaction.Transaction
	uncleHashes []common.Hash
}

// parseBlock reads a block response with hydrated transactions.
func parseBlock(raw []byte) (*rpcBlock, error) {
	var p fastjson.Parser

	v, err := p.ParseBytes(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidBlock, err)
	}

	if v.Type() == fastjson.TypeNull {
		return nil, ErrBlockNotFound
	}

	header := new(types.Header)
	if err := json.Unmarshal(raw, header); err != nil {
		return nil, fmt.Errorf("%w: header: %w", ErrInvalidBlock, err)
	}

	hash, err := hashField(v, "hash")
	if err != nil {
		return nil, err
	}

	if computed := header.Hash(); computed != hash {
		return nil, fmt.Errorf("%w: header hashes to %s, response claims %s", ErrInvalidBlock, computed, hash)
	}

	txValues, err := arrayField(v, "transactions")
	if err != nil {
		return nil, err
	}

	txs := make([]*transaction.Transaction, 0, len(txValues))

	for i, txv := range txValues {
		if txv.Type() != fastjson.TypeObject {
			return nil, fmt.Errorf("%w: transaction %d is not an object", ErrInvalidBlock, i)
		}

		tx, err := transaction.FromJSON(txv.MarshalTo(nil))
		if err != nil {
			return nil, fmt.Errorf("%w: transaction %d: %w", ErrInvalidBlock, i, err)
		}

		txs = append(txs, tx)
	}

	uncleValues, err := arrayField(v, "uncles")
	if err != nil {
		return nil, err
	}

	uncleHashes := make([]common.Hash, 0, len(uncleValues))

	for i, uv := range uncleValues {
		h, err := hashValue(uv)
		if err != nil {
			return nil, fmt.Errorf("%w: uncle %d: %w", ErrInvalidBlock, i, err)
		}

		uncleHashes = append(uncleHashes, h)
	}

	return &rpcBlock{
		header:      header,
		hash:        hash,
		txs:         txs,
		uncleHashes: uncleHashes,
	}, nil
}

func arrayField(v *fastjson.Value, key string) ([]*fastjson.Value, error) {
	field := v.Get(key)
	if field == nil {
		return nil, fmt.Errorf("%w: %s: missing", ErrInvalidBlock, key)
	}

	values, err := field.Array()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidBlock, key, err)
	}

	return values, nil
}

func hashField(v *fastjson.Value, key string) (common.Hash, error) {
	h, err := hashValue(v.Get(key))
	if err != nil {
		return common.Hash{}, fmt.Errorf("%w: %s: %w", ErrInvalidBlock, key, err)
	}

	return h, nil
}

func hashValue(v *fastjson.Value) (common.Hash, error) {
	if v == nil {
		return common.Hash{}, fmt.Errorf("missing")
	}

	s, err := v.StringBytes()
	if err != nil {
		return common.Hash{}, err
	}

	b, err := hexutil.Decode(string(s))
	if err != nil {
		return common.Hash{}, err
	}

	if len(b) != common.HashLength {
		return common.Hash{}, fmt.Errorf("hash of %d bytes", len(b))
	}

	return common.BytesToHash(b), nil
}
