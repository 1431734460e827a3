package ruleerrors

import (
	"errors"
	"testing"

	"github.com/kaspanet/chainsyncd/domain/consensus/model/externalapi"
	pkgerrors "github.com/pkg/errors"
)

func TestWrappedRuleErrorMatches(t *testing.T) {
	err := pkgerrors.Wrapf(ErrUnexpectedBlockNumber, "block %d has parent %d", 7, 3)
	if !errors.Is(err, ErrUnexpectedBlockNumber) {
		t.Fatalf("errors.Is did not match the wrapped rule error")
	}
	if errors.Is(err, ErrMissingDifficulty) {
		t.Fatalf("errors.Is matched the wrong rule error")
	}
	if !IsRuleError(err) {
		t.Fatalf("IsRuleError did not recognize a wrapped rule error")
	}
	if IsRuleError(pkgerrors.New("disk failure")) {
		t.Fatalf("IsRuleError recognized a non-rule error")
	}
}

func TestNewErrInvalidUncles(t *testing.T) {
	uncleHash := externalapi.NewBlockHash([]byte{0xff, 0xee})
	outer := NewErrInvalidUncles([]InvalidUncle{{Hash: uncleHash, Err: ErrUncleIsAncestor}})
	expectedOuterErr := "ErrInvalidUncles: [(ffee: ErrUncleIsAncestor)]"

	inner := &ErrInvalidUncles{}
	if !errors.As(outer, inner) {
		t.Fatal("TestNewErrInvalidUncles: Outer should contain ErrInvalidUncles in it")
	}
	if len(inner.InvalidUncles) != 1 {
		t.Fatalf("TestNewErrInvalidUncles: Expected 1 invalid uncle, found: %d", len(inner.InvalidUncles))
	}
	if inner.InvalidUncles[0].Err != ErrUncleIsAncestor {
		t.Fatalf("TestNewErrInvalidUncles: Expected ErrUncleIsAncestor, found: %v", inner.InvalidUncles[0].Err)
	}

	rule := &RuleError{}
	if !errors.As(outer, rule) {
		t.Fatal("TestNewErrInvalidUncles: Outer should contain RuleError in it")
	}
	if rule.message != "ErrInvalidUncles" {
		t.Fatalf("TestNewErrInvalidUncles: Expected message 'ErrInvalidUncles', found: '%s'", rule.message)
	}
	if outer.Error() != expectedOuterErr {
		t.Fatalf("TestNewErrInvalidUncles: Expected %s, found: %s", expectedOuterErr, outer.Error())
	}
}
