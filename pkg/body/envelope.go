package body

import (
	ssz "github.com/ferranbt/fastssz"
)

// Container limits.
const (
	// MaxTransactionCount is the maximum number of transactions in a body.
	MaxTransactionCount = 16384
	// MaxTransactionLength is the maximum length of one encoded transaction.
	MaxTransactionLength = 16777216
	// MaxEncodedUnclesLength is the maximum length of the RLP encoded uncle list.
	MaxEncodedUnclesLength = 131072
)

// encodedParts is the SSZ container carrying a block body:
// the encoded transactions as a list of byte lists, followed by the RLP
// encoding of the uncle headers as a byte list.
type encodedParts struct {
	EncodedTxs [][]byte `ssz-max:"16384,16777216"`
	RLPUncles  []byte   `ssz-max:"131072"`
}

// MarshalSSZ ssz marshals the encodedParts object
func (e *encodedParts) MarshalSSZ() ([]byte, error) {
	return ssz.MarshalSSZ(e)
}

// MarshalSSZTo ssz marshals the encodedParts object to a target array
func (e *encodedParts) MarshalSSZTo(buf []byte) (dst []byte, err error) {
	dst = buf
	offset := int(8)

	// Offset (0) 'EncodedTxs'
	dst = ssz.WriteOffset(dst, offset)
	for ii := 0; ii < len(e.EncodedTxs); ii++ {
		offset += 4
		offset += len(e.EncodedTxs[ii])
	}

	// Offset (1) 'RLPUncles'
	dst = ssz.WriteOffset(dst, offset)

	// Field (0) 'EncodedTxs'
	if size := len(e.EncodedTxs); size > MaxTransactionCount {
		err = ssz.ErrListTooBigFn("encodedParts.EncodedTxs", size, MaxTransactionCount)
		return
	}
	{
		offset = 4 * len(e.EncodedTxs)
		for ii := 0; ii < len(e.EncodedTxs); ii++ {
			dst = ssz.WriteOffset(dst, offset)
			offset += len(e.EncodedTxs[ii])
		}
	}
	for ii := 0; ii < len(e.EncodedTxs); ii++ {
		if size := len(e.EncodedTxs[ii]); size > MaxTransactionLength {
			err = ssz.ErrBytesLengthFn("encodedParts.EncodedTxs[ii]", size, MaxTransactionLength)
			return
		}
		dst = append(dst, e.EncodedTxs[ii]...)
	}

	// Field (1) 'RLPUncles'
	if size := len(e.RLPUncles); size > MaxEncodedUnclesLength {
		err = ssz.ErrBytesLengthFn("encodedParts.RLPUncles", size, MaxEncodedUnclesLength)
		return
	}
	dst = append(dst, e.RLPUncles...)

	return
}

// UnmarshalSSZ ssz unmarshals the encodedParts object
func (e *encodedParts) UnmarshalSSZ(buf []byte) error {
	var err error
	size := uint64(len(buf))
	if size < 8 {
		return ssz.ErrSize
	}

	tail := buf
	var o0, o1 uint64

	// Offset (0) 'EncodedTxs'
	if o0 = ssz.ReadOffset(buf[0:4]); o0 > size {
		return ssz.ErrOffset
	}

	if o0 != 8 {
		return ssz.ErrInvalidVariableOffset
	}

	// Offset (1) 'RLPUncles'
	if o1 = ssz.ReadOffset(buf[4:8]); o1 > size || o0 > o1 {
		return ssz.ErrOffset
	}

	// Field (0) 'EncodedTxs'
	{
		buf = tail[o0:o1]
		num, err := ssz.DecodeDynamicLength(buf, MaxTransactionCount)
		if err != nil {
			return err
		}
		e.EncodedTxs = make([][]byte, num)
		err = ssz.UnmarshalDynamic(buf, num, func(indx int, buf []byte) (err error) {
			if len(buf) > MaxTransactionLength {
				return ssz.ErrBytesLength
			}
			e.EncodedTxs[indx] = append(make([]byte, 0, len(buf)), buf...)
			return nil
		})
		if err != nil {
			return err
		}
	}

	// Field (1) 'RLPUncles'
	{
		buf = tail[o1:]
		if len(buf) > MaxEncodedUnclesLength {
			return ssz.ErrBytesLength
		}
		e.RLPUncles = append(make([]byte, 0, len(buf)), buf...)
	}

	return err
}

// SizeSSZ returns the ssz encoded size in bytes for the encodedParts object
func (e *encodedParts) SizeSSZ() (size int) {
	size = 8

	// Field (0) 'EncodedTxs'
	for ii := 0; ii < len(e.EncodedTxs); ii++ {
		size += 4
		size += len(e.EncodedTxs[ii])
	}

	// Field (1) 'RLPUncles'
	size += len(e.RLPUncles)

	return
}
