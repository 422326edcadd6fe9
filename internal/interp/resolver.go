package interp

import (
	"context"

	"github.com/dgw-tools/coursemapper/internal/types"
)

// resolveActive resolves a block reference to zero or one target block.
// Zero matches and unresolved ambiguity are failures for the caller to
// skip, never fatal. Multiple matches are disambiguated by the major1
// discriminator: the candidate survives when its discriminator matches a
// block value already on the context chain. The heuristic has a known
// failure mode (zero or several survivors) and deliberately skips rather
// than guessing.
func (m *Mapper) resolveActive(ctx context.Context, institution, blockType,
	blockValue string, stack types.ContextStack, where string) *types.Block {
	key := currentKey(stack)
	candidates, err := m.store.FindActive(ctx, institution, blockType, blockValue)
	if err != nil {
		m.rep.Fail(key.Institution, key.RequirementID, "%s: %v", where, err)
		return nil
	}
	switch len(candidates) {
	case 0:
		m.rep.Fail(key.Institution, key.RequirementID,
			"%s: no active [%s %s] blocks", where, blockType, blockValue)
		m.counters.Skip(ctx, "unresolved_reference")
		return nil
	case 1:
		return candidates[0]
	}

	values := stack.BlockValues()
	var survivors []*types.Block
	for _, c := range candidates {
		if containsString(values, c.Major1) {
			survivors = append(survivors, c)
		}
	}
	if len(survivors) == 1 {
		return survivors[0]
	}
	m.rep.Fail(key.Institution, key.RequirementID,
		"%s: %d active [%s %s] blocks; %d major1 matches",
		where, len(candidates), blockType, blockValue, len(survivors))
	m.counters.Skip(ctx, "ambiguous_reference")
	return nil
}

// copyTarget resolves a copy-rules target: the current, non-expired version
// of a block in the same institution, with a usable body and no cycle back
// into the context chain. Returns nils when the reference must be skipped.
func (m *Mapper) copyTarget(ctx context.Context, key types.BlockKey,
	targetID string, stack types.ContextStack, where string) (*types.Block, *types.ParseTree) {
	target, err := m.store.FindCurrent(ctx, types.BlockKey{
		Institution:   key.Institution,
		RequirementID: targetID,
	})
	if err != nil {
		m.rep.Fail(key.Institution, key.RequirementID, "%s: %s: %v", where, targetID, err)
		return nil, nil
	}
	if target == nil {
		m.rep.Fail(key.Institution, key.RequirementID, "%s: %s not current", where, targetID)
		return nil, nil
	}

	if stack.ContainsRequirementID(target.RequirementID) {
		m.rep.Fail(key.Institution, key.RequirementID, "Circular %s refused", where)
		m.counters.Skip(ctx, "circular_reference")
		return nil, nil
	}

	tree, err := m.parseTree(ctx, target)
	if err != nil {
		m.rep.Fail(key.Institution, key.RequirementID,
			"%s target %s: %v", where, target.RequirementID, err)
		return nil, nil
	}
	if tree.Error != "" {
		m.rep.Fail(key.Institution, key.RequirementID,
			"%s target %s: %s", where, target.RequirementID, tree.Error)
		return nil, nil
	}
	if len(tree.BodyList) == 0 {
		m.rep.Fail(key.Institution, key.RequirementID,
			"%s target %s: empty body_list", where, target.RequirementID)
		return nil, nil
	}
	return target, tree
}
