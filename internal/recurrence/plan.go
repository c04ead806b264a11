package recurrence

import (
	"cmp"
	"fmt"
	"slices"

	"volunteerhub/internal/domain"
)

// Plan returns the identifiers of the occurrences a scoped mutation must touch,
// in start order (ties broken by identifier). occurrences are the current
// members of one recurrence group; they are sorted here, so callers may pass
// them in any order.
//
// Plan only selects identifiers. It never recomputes start or end of any
// occurrence. A referenceID that is not among occurrences yields
// domain.ErrInvalidReference and no identifiers.
func Plan(occurrences []domain.OccurrenceRef, referenceID string, scope domain.Scope) ([]string, error) {
	ordered := slices.Clone(occurrences)
	slices.SortStableFunc(ordered, compareRefs)

	idx := slices.IndexFunc(ordered, func(o domain.OccurrenceRef) bool { return o.ID == referenceID })
	if idx < 0 {
		return nil, fmt.Errorf("%w: %q is not part of the series", domain.ErrInvalidReference, referenceID)
	}

	var selected []domain.OccurrenceRef
	switch scope {
	case domain.ScopeThisOnly:
		selected = ordered[idx : idx+1]
	case domain.ScopeThisAndFollowing:
		ref := ordered[idx]
		// Occurrences sharing the reference's start sort before it by ID but are
		// still "following" it.
		first := idx
		for first > 0 && ordered[first-1].Start.Equal(ref.Start) {
			first--
		}
		selected = ordered[first:]
	case domain.ScopeAll:
		selected = ordered
	default:
		return nil, fmt.Errorf("%w: unknown scope %q", domain.ErrInvalidInput, scope)
	}

	ids := make([]string, len(selected))
	for i, o := range selected {
		ids[i] = o.ID
	}
	return ids, nil
}

func compareRefs(a, b domain.OccurrenceRef) int {
	if c := a.Start.Compare(b.Start); c != 0 {
		return c
	}
	return cmp.Compare(a.ID, b.ID)
}
