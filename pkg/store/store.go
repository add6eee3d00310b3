// Package store keeps SSZ encoded block bodies in redis, keyed by their
// history network content key.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	r "github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/ethpandaops/execution-body/pkg/body"
	pcommon "github.com/ethpandaops/execution-body/pkg/common"
)

// BlockBodySelector is the content type byte of a block body content key.
const BlockBodySelector byte = 0x01

const (
	statusError   = "error"
	statusSuccess = "success"
	statusMissing = "missing"
)

// ContentKey returns the content key of the body of the block with the given
// hash.
func ContentKey(blockHash common.Hash) []byte {
	return append([]byte{BlockBodySelector}, blockHash[:]...)
}

// Store reads and writes block bodies.
type Store struct {
	log    logrus.FieldLogger
	client *r.Client
	prefix string
	ttl    time.Duration
}

// New returns a store writing under prefix. A zero ttl keeps bodies forever.
func New(log logrus.FieldLogger, client *r.Client, prefix string, ttl time.Duration) *Store {
	return &Store{
		log:    log.WithField("component", "store"),
		client: client,
		prefix: prefix,
		ttl:    ttl,
	}
}

func (s *Store) key(blockHash common.Hash) string {
	return fmt.Sprintf("%s:content:%s", s.prefix, hexutil.Encode(ContentKey(blockHash)))
}

func record(operation string, err error) {
	status := statusSuccess

	switch {
	case errors.Is(err, ErrNotFound):
		status = statusMissing
	case err != nil:
		status = statusError
	}

	pcommon.StoreOperationsTotal.WithLabelValues(operation, status).Inc()
}

// Put stores the container encoding of b under blockHash.
func (s *Store) Put(ctx context.Context, blockHash common.Hash, b *body.BlockBody) (err error) {
	defer func() { record("put", err) }()

	encoded, err := b.MarshalSSZ()
	if err != nil {
		return fmt.Errorf("failed to encode body %s: %w", blockHash, err)
	}

	if err := s.PutRaw(ctx, blockHash, encoded); err != nil {
		return err
	}

	s.log.WithFields(logrus.Fields{
		"block_hash":   blockHash.Hex(),
		"transactions": len(b.Transactions),
		"uncles":       len(b.Uncles),
		"bytes":        len(encoded),
	}).Debug("Stored block body")

	return nil
}

// PutRaw stores an already encoded body under blockHash.
func (s *Store) PutRaw(ctx context.Context, blockHash common.Hash, encoded []byte) error {
	if err := s.client.Set(ctx, s.key(blockHash), encoded, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store body %s: %w", blockHash, err)
	}

	return nil
}

// GetRaw returns the container encoding stored under blockHash.
func (s *Store) GetRaw(ctx context.Context, blockHash common.Hash) ([]byte, error) {
	encoded, err := s.client.Get(ctx, s.key(blockHash)).Bytes()
	if errors.Is(err, r.Nil) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, blockHash)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to load body %s: %w", blockHash, err)
	}

	return encoded, nil
}

// Get loads and decodes the body stored under blockHash.
func (s *Store) Get(ctx context.Context, blockHash common.Hash) (b *body.BlockBody, err error) {
	defer func() { record("get", err) }()

	encoded, err := s.GetRaw(ctx, blockHash)
	if err != nil {
		return nil, err
	}

	b, err = body.DecodeSSZ(encoded)
	if err != nil {
		return nil, fmt.Errorf("failed to decode body %s: %w", blockHash, err)
	}

	return b, nil
}

// Has reports whether a body is stored under blockHash.
func (s *Store) Has(ctx context.Context, blockHash common.Hash) (bool, error) {
	n, err := s.client.Exists(ctx, s.key(blockHash)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check body %s: %w", blockHash, err)
	}

	return n > 0, nil
}
