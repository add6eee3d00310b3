package transaction

import (
	"fmt"
	"io"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rlp"
)

// ToAddress is the recipient of a transaction. The zero value is Empty, which
// marks a contract creation.
type ToAddress struct {
	addr *common.Address
}

// EmptyToAddress returns the recipient of a contract creation.
func EmptyToAddress() ToAddress {
	return ToAddress{}
}

// NewToAddress returns a recipient set to addr.
func NewToAddress(addr common.Address) ToAddress {
	return ToAddress{addr: &addr}
}

// Address returns the recipient and whether one exists.
func (a ToAddress) Address() (common.Address, bool) {
	if a.addr == nil {
		return common.Address{}, false
	}

	return *a.addr, true
}

// IsEmpty reports whether the recipient is absent.
func (a ToAddress) IsEmpty() bool {
	return a.addr == nil
}

func (a ToAddress) String() string {
	if a.addr == nil {
		return "<contract creation>"
	}

	return a.addr.Hex()
}

// EncodeRLP writes an empty string for Empty and the 20 address bytes otherwise.
func (a ToAddress) EncodeRLP(w io.Writer) error {
	if a.addr == nil {
		_, err := w.Write(rlp.EmptyString)

		return err
	}

	return rlp.Encode(w, a.addr[:])
}

// DecodeRLP accepts an empty string or a 20 byte string.
func (a *ToAddress) DecodeRLP(s *rlp.Stream) error {
	b, err := s.Bytes()
	if err != nil {
		return err
	}

	switch len(b) {
	case 0:
		a.addr = nil
	case common.AddressLength:
		addr := common.BytesToAddress(b)
		a.addr = &addr
	default:
		return fmt.Errorf("%w: %d bytes", ErrInvalidAddressLength, len(b))
	}

	return nil
}

// parseToAddress converts the JSON form of a recipient. An empty string is
// treated the same as null.
func parseToAddress(s string) (ToAddress, error) {
	if s == "" {
		return EmptyToAddress(), nil
	}

	b, err := hexutil.Decode(s)
	if err != nil {
		return ToAddress{}, err
	}

	if len(b) != common.AddressLength {
		return ToAddress{}, fmt.Errorf("%w: %d bytes", ErrInvalidAddressLength, len(b))
	}

	return NewToAddress(common.BytesToAddress(b)), nil
}
