package hashset

import (
	"testing"

	"github.com/kaspanet/chainsyncd/domain/consensus/model/externalapi"
)

func TestHashSetOperations(t *testing.T) {
	a := externalapi.NewBlockHash([]byte{1})
	b := externalapi.NewBlockHash([]byte{2})
	c := externalapi.NewBlockHash([]byte{3})

	set := NewFromSlice(c, a, b)
	other := NewFromSlice(b)

	diff := set.Subtract(other)
	if len(diff) != 2 || !diff.Contains(a) || !diff.Contains(c) || diff.Contains(b) {
		t.Fatalf("Subtract returned %s", diff)
	}
	union := diff.Union(other)
	if len(union) != 3 {
		t.Fatalf("Union returned %s", union)
	}

	sorted := set.ToSlice()
	if !externalapi.HashesEqual(sorted, []*externalapi.BlockHash{a, b, c}) {
		t.Fatalf("ToSlice is not sorted: %s", set)
	}
	if set.String() != "01, 02, 03" {
		t.Fatalf("unexpected String(): %s", set.String())
	}

	set.Remove(b)
	if set.Contains(b) {
		t.Fatalf("Remove did not remove the hash")
	}
}
