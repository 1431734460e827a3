package ruleerrors

import (
	"fmt"

	"github.com/kaspanet/chainsyncd/domain/consensus/model/externalapi"
	"github.com/pkg/errors"
)

// These constants are used to identify a specific RuleError.
var (
	// ErrInvalidHashLength indicates the block hash is not BlockHashSize bytes long.
	ErrInvalidHashLength = newRuleError("ErrInvalidHashLength")

	// ErrMissingParentHash indicates the header carries no parent hash.
	ErrMissingParentHash = newRuleError("ErrMissingParentHash")

	// ErrMissingDifficulty indicates the header carries no difficulty.
	ErrMissingDifficulty = newRuleError("ErrMissingDifficulty")

	// ErrNegativeDifficulty indicates the header difficulty is below zero.
	ErrNegativeDifficulty = newRuleError("ErrNegativeDifficulty")

	// ErrUnexpectedBlockNumber indicates the block height is not one more
	// than its parent's.
	ErrUnexpectedBlockNumber = newRuleError("ErrUnexpectedBlockNumber")

	// ErrInvalidGenesis indicates a block at height 0 that does not point
	// to the zero hash, or a block pointing to the zero hash above height 0.
	ErrInvalidGenesis = newRuleError("ErrInvalidGenesis")

	// ErrBadUnclesHash indicates the header uncles hash does not commit to
	// the uncles carried by the block.
	ErrBadUnclesHash = newRuleError("ErrBadUnclesHash")

	// ErrTooManyUncles indicates the block includes more uncles than allowed.
	ErrTooManyUncles = newRuleError("ErrTooManyUncles")

	// ErrDuplicateUncle indicates the same uncle is included twice in a block.
	ErrDuplicateUncle = newRuleError("ErrDuplicateUncle")

	// ErrUncleIsAncestor indicates an included uncle is a direct ancestor
	// of the block.
	ErrUncleIsAncestor = newRuleError("ErrUncleIsAncestor")

	// ErrUncleAlreadyUsed indicates an included uncle was already included by
	// an ancestor.
	ErrUncleAlreadyUsed = newRuleError("ErrUncleAlreadyUsed")

	// ErrUnknownUncle indicates an included uncle is not a known block.
	ErrUnknownUncle = newRuleError("ErrUnknownUncle")

	// ErrUncleNotEligible indicates an included uncle's parent is not an
	// ancestor within the uncle generation limit.
	ErrUncleNotEligible = newRuleError("ErrUncleNotEligible")
)

// RuleError identifies a rule violation. It is used to indicate that
// processing of a block failed due to one of the validation rules. The
// caller can use errors.As to determine if a failure was specifically due
// to a rule violation, and errors.Is to match a specific rule.
type RuleError struct {
	message string
	inner   error
}

// Error satisfies the error interface and prints human-readable errors.
func (e RuleError) Error() string {
	if e.inner != nil {
		return e.message + ": " + e.inner.Error()
	}
	return e.message
}

// Unwrap satisfies the errors.Unwrap interface
func (e RuleError) Unwrap() error {
	return e.inner
}

// Cause satisfies the github.com/pkg/errors.Cause interface
func (e RuleError) Cause() error {
	return e.inner
}

func newRuleError(message string) RuleError {
	return RuleError{message: message, inner: nil}
}

// ErrInvalidUncles lists the uncles of a block that failed validation.
type ErrInvalidUncles struct {
	InvalidUncles []InvalidUncle
}

// InvalidUncle pairs an uncle hash with the reason it was rejected.
type InvalidUncle struct {
	Hash *externalapi.BlockHash
	Err  error
}

func (invalid InvalidUncle) String() string {
	return fmt.Sprintf("(%s: %s)", invalid.Hash, invalid.Err)
}

func (e ErrInvalidUncles) Error() string {
	return fmt.Sprint(e.InvalidUncles)
}

// NewErrInvalidUncles creates a new ErrInvalidUncles error wrapped in a RuleError
func NewErrInvalidUncles(invalidUncles []InvalidUncle) error {
	return errors.WithStack(RuleError{
		message: "ErrInvalidUncles",
		inner:   ErrInvalidUncles{invalidUncles},
	})
}

// IsRuleError returns whether err is, or wraps, a RuleError.
func IsRuleError(err error) bool {
	return errors.As(err, &RuleError{})
}
