package transaction

import (
	"github.com/ethereum/go-ethereum/common"
)

// AccessList is the ordered list of addresses and storage keys a typed
// transaction declares. Entries keep the order and duplicates they were
// constructed with.
type AccessList []AccessListItem

// AccessListItem is a single access list entry.
type AccessListItem struct {
	Address     common.Address
	StorageKeys []common.Hash
}

// StorageKeys returns the total number of storage keys in the list.
func (al AccessList) StorageKeys() int {
	sum := 0

	for _, item := range al {
		sum += len(item.StorageKeys)
	}

	return sum
}

// normalized returns the list with nil slices replaced by empty ones.
func (al AccessList) normalized() AccessList {
	if al == nil {
		return AccessList{}
	}

	for i := range al {
		if al[i].StorageKeys == nil {
			al[i].StorageKeys = []common.Hash{}
		}
	}

	return al
}
