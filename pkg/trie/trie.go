// Package trie implements an in-memory Merkle-Patricia trie used to derive
// commitment roots over ordered lists (e.g. the transactions of a block).
//
// Nodes are stored in a single arena and reference each other by index. A Trie
// is built, hashed and discarded; it never persists nodes and does not support
// deletion.
package trie

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
)

// EmptyRoot is the root hash of a trie with no entries.
var EmptyRoot = types.EmptyRootHash

// ErrEmptyValue is returned when inserting a zero-length value.
var ErrEmptyValue = errors.New("trie: empty value")

const nilRef = -1

type nodeKind uint8

const (
	leafNode nodeKind = iota + 1
	extensionNode
	branchNode
)

// node is a single arena slot. Which fields are meaningful depends on kind:
// leaves use path and value, extensions use path and child, branches use
// children and (optionally) value.
type node struct {
	kind     nodeKind
	path     []byte
	value    []byte
	child    int
	children [16]int
}

// Trie is an arena-backed Merkle-Patricia trie. It is not safe for concurrent
// use; callers build one per derivation.
type Trie struct {
	nodes  []node
	root   int
	hasher crypto.KeccakState
}

// New returns an empty trie with its own Keccak state.
func New() *Trie {
	return NewWithHasher(crypto.NewKeccakState())
}

// NewWithHasher returns an empty trie hashing with the given state. The state
// is reset before every use.
func NewWithHasher(hasher crypto.KeccakState) *Trie {
	return &Trie{
		root:   nilRef,
		hasher: hasher,
	}
}

// Len returns the number of allocated nodes.
func (t *Trie) Len() int {
	return len(t.nodes)
}

// Insert sets key to value, replacing any previous value.
func (t *Trie) Insert(key, value []byte) error {
	if len(value) == 0 {
		return fmt.Errorf("%w: key %x", ErrEmptyValue, key)
	}

	t.root = t.insert(t.root, keybytesToHex(key), value)

	return nil
}

// Get returns the value stored under key.
func (t *Trie) Get(key []byte) ([]byte, bool) {
	path := keybytesToHex(key)
	ref := t.root

	for ref != nilRef {
		n := &t.nodes[ref]

		switch n.kind {
		case leafNode:
			if string(n.path) == string(path) {
				return n.value, true
			}

			return nil, false
		case extensionNode:
			if len(path) < len(n.path) || string(path[:len(n.path)]) != string(n.path) {
				return nil, false
			}

			path, ref = path[len(n.path):], n.child
		case branchNode:
			if len(path) == 0 {
				return n.value, n.value != nil
			}

			path, ref = path[1:], n.children[path[0]]
		}
	}

	return nil, false
}

func (t *Trie) alloc(n node) int {
	t.nodes = append(t.nodes, n)

	return len(t.nodes) - 1
}

func (t *Trie) newLeaf(path, value []byte) int {
	return t.alloc(node{kind: leafNode, path: path, value: value, child: nilRef})
}

func (t *Trie) newExtension(path []byte, child int) int {
	return t.alloc(node{kind: extensionNode, path: path, child: child})
}

func (t *Trie) newBranch() int {
	n := node{kind: branchNode, child: nilRef}
	for i := range n.children {
		n.children[i] = nilRef
	}

	return t.alloc(n)
}

// insert places value at path below ref and returns the index of the node
// replacing ref. Slots are re-read after every allocation since appending may
// move the arena.
func (t *Trie) insert(ref int, path, value []byte) int {
	if ref == nilRef {
		return t.newLeaf(path, value)
	}

	switch t.nodes[ref].kind {
	case leafNode:
		leafPath, leafValue := t.nodes[ref].path, t.nodes[ref].value

		match := prefixLen(leafPath, path)
		if match == len(leafPath) && match == len(path) {
			t.nodes[ref].value = value

			return ref
		}

		branch := t.newBranch()
		t.attach(branch, leafPath[match:], leafValue, nilRef)
		t.attach(branch, path[match:], value, nilRef)

		if match == 0 {
			return branch
		}

		return t.newExtension(path[:match], branch)

	case extensionNode:
		extPath, extChild := t.nodes[ref].path, t.nodes[ref].child

		match := prefixLen(extPath, path)
		if match == len(extPath) {
			child := t.insert(extChild, path[match:], value)
			t.nodes[ref].child = child

			return ref
		}

		branch := t.newBranch()
		t.attach(branch, extPath[match:], nil, extChild)
		t.attach(branch, path[match:], value, nilRef)

		if match == 0 {
			return branch
		}

		return t.newExtension(path[:match], branch)

	default:
		if len(path) == 0 {
			t.nodes[ref].value = value

			return ref
		}

		child := t.insert(t.nodes[ref].children[path[0]], path[1:], value)
		t.nodes[ref].children[path[0]] = child

		return ref
	}
}

// attach hangs a remainder below a fresh branch. A remainder is either a value
// (leaf) or, when sub is set, the child of a split extension. Extension splits
// always leave at least one nibble, so an empty rest only occurs for values.
func (t *Trie) attach(branch int, rest, value []byte, sub int) {
	if len(rest) == 0 {
		t.nodes[branch].value = value

		return
	}

	var child int

	switch {
	case sub == nilRef:
		child = t.newLeaf(rest[1:], value)
	case len(rest) == 1:
		child = sub
	default:
		child = t.newExtension(rest[1:], sub)
	}

	t.nodes[branch].children[rest[0]] = child
}

// Hash returns the root hash. The root node is always hashed, even when its
// encoding is shorter than 32 bytes.
func (t *Trie) Hash() common.Hash {
	if t.root == nilRef {
		return EmptyRoot
	}

	return crypto.HashData(t.hasher, t.encode(t.root))
}

// encode returns the RLP encoding of the node at ref.
func (t *Trie) encode(ref int) []byte {
	n := &t.nodes[ref]
	w := rlp.NewEncoderBuffer(nil)

	offset := w.List()

	switch n.kind {
	case leafNode:
		w.WriteBytes(hexToCompact(n.path, true))
		w.WriteBytes(n.value)
	case extensionNode:
		w.WriteBytes(hexToCompact(n.path, false))
		t.writeRef(&w, n.child)
	case branchNode:
		for _, child := range n.children {
			if child == nilRef {
				w.Write(rlp.EmptyString)

				continue
			}

			t.writeRef(&w, child)
		}

		w.WriteBytes(n.value)
	}

	w.ListEnd(offset)

	enc := w.ToBytes()
	_ = w.Flush()

	return enc
}

// writeRef embeds a child whose encoding is shorter than a hash and writes the
// Keccak256 of the encoding otherwise.
func (t *Trie) writeRef(w *rlp.EncoderBuffer, ref int) {
	enc := t.encode(ref)
	if len(enc) < common.HashLength {
		w.Write(enc)

		return
	}

	h := crypto.HashData(t.hasher, enc)
	w.WriteBytes(h[:])
}

func prefixLen(a, b []byte) int {
	i := 0
	for i < len(a) && i < len(b) && a[i] == b[i] {
		i++
	}

	return i
}
