package hashset

import (
	"sort"
	"strings"

	"github.com/kaspanet/chainsyncd/domain/consensus/model/externalapi"
)

// HashSet is an unordered set of block hashes.
type HashSet map[externalapi.BlockHash]struct{}

// New returns an empty HashSet
func New() HashSet {
	return HashSet{}
}

// NewFromSlice returns a HashSet holding the given hashes
func NewFromSlice(hashes ...*externalapi.BlockHash) HashSet {
	set := New()
	for _, hash := range hashes {
		set.Add(hash)
	}
	return set
}

func (hs HashSet) String() string {
	return strings.Join(externalapi.HashesToStrings(hs.ToSlice()), ", ")
}

// Add adds hash to the set
func (hs HashSet) Add(hash *externalapi.BlockHash) {
	hs[*hash] = struct{}{}
}

// Remove removes hash from the set
func (hs HashSet) Remove(hash *externalapi.BlockHash) {
	delete(hs, *hash)
}

// Contains returns whether hash is in the set
func (hs HashSet) Contains(hash *externalapi.BlockHash) bool {
	_, ok := hs[*hash]
	return ok
}

// Subtract returns the hashes of hs that are not in other
func (hs HashSet) Subtract(other HashSet) HashSet {
	diff := New()
	for hash := range hs {
		if _, ok := other[hash]; !ok {
			diff[hash] = struct{}{}
		}
	}
	return diff
}

// Union returns a new set holding the hashes of both sets
func (hs HashSet) Union(other HashSet) HashSet {
	union := make(HashSet, len(hs)+len(other))
	for hash := range hs {
		union[hash] = struct{}{}
	}
	for hash := range other {
		union[hash] = struct{}{}
	}
	return union
}

// ToSlice returns the hashes of the set in ascending byte order
func (hs HashSet) ToSlice() []*externalapi.BlockHash {
	hashes := make([]*externalapi.BlockHash, 0, len(hs))
	for hash := range hs {
		hash := hash
		hashes = append(hashes, &hash)
	}
	sort.Slice(hashes, func(i, j int) bool {
		return hashes[i].Less(hashes[j])
	})
	return hashes
}
