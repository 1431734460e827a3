package familyresolver

import (
	"github.com/kaspanet/chainsyncd/domain/consensus/database"
	"github.com/kaspanet/chainsyncd/domain/consensus/model/externalapi"
	"github.com/kaspanet/chainsyncd/domain/consensus/ruleerrors"
	"github.com/kaspanet/chainsyncd/domain/consensus/utils/hashset"
	"github.com/pkg/errors"
)

// ValidateUncles checks that the uncles included by block commit to its
// header, and that each one is a known block of block's family within
// depth generations that is neither an ancestor of block nor already
// included by one.
func (fr *familyResolver) ValidateUncles(block *externalapi.DomainBlock, depth int) error {
	unclesHash := externalapi.CalcUnclesHash(block.Uncles)
	if !unclesHash.Equal(block.Header.UnclesHash) {
		return errors.Wrapf(ruleerrors.ErrBadUnclesHash, "block %s has uncles hash %s "+
			"while its uncles hash to %s", block.Hash(), block.Header.UnclesHash, unclesHash)
	}
	if len(block.Uncles) == 0 {
		return nil
	}
	if len(block.Uncles) > fr.maxUncles {
		return errors.Wrapf(ruleerrors.ErrTooManyUncles, "block %s includes %d uncles "+
			"while the maximum is %d", block.Hash(), len(block.Uncles), fr.maxUncles)
	}

	ancestors, err := fr.Ancestors(block, depth)
	if err != nil {
		return err
	}
	used, err := fr.UsedUncles(block, depth)
	if err != nil {
		return err
	}
	eligible, err := fr.Uncles(block, depth)
	if err != nil {
		return err
	}

	seen := hashset.New()
	var invalidUncles []ruleerrors.InvalidUncle
	for _, uncle := range block.Uncles {
		uncleHash := uncle.Hash()
		uncleErr := fr.validateUncle(uncleHash, seen, ancestors, used, eligible)
		if uncleErr != nil {
			invalidUncles = append(invalidUncles, ruleerrors.InvalidUncle{Hash: uncleHash, Err: uncleErr})
		}
		seen.Add(uncleHash)
	}
	if len(invalidUncles) > 0 {
		return ruleerrors.NewErrInvalidUncles(invalidUncles)
	}
	return nil
}

func (fr *familyResolver) validateUncle(uncleHash *externalapi.BlockHash,
	seen, ancestors, used, eligible hashset.HashSet) error {

	switch {
	case seen.Contains(uncleHash):
		return ruleerrors.ErrDuplicateUncle
	case ancestors.Contains(uncleHash):
		return ruleerrors.ErrUncleIsAncestor
	case used.Contains(uncleHash):
		return ruleerrors.ErrUncleAlreadyUsed
	}

	_, err := fr.blockStore.BlockByHash(uncleHash)
	if database.IsNotFoundError(err) {
		return ruleerrors.ErrUnknownUncle
	}
	if err != nil {
		return err
	}
	if !eligible.Contains(uncleHash) {
		return ruleerrors.ErrUncleNotEligible
	}
	return nil
}
