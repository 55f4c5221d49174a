package build

import (
	"github.com/cespare/xxhash/v2"

	types "github.com/yungbote/archgraph/internal/domain"
)

// fallbackOwner picks an owner from pool by hashing id, so rebuilding the
// same dataset always yields the same owner.
func fallbackOwner(id string, pool []string) string {
	if len(pool) == 0 {
		return ""
	}
	return pool[xxhash.Sum64String(id)%uint64(len(pool))]
}

// fallbackInterfaceOwners adds one OWNED_BY link for every interface that
// has no declared owner.
func fallbackInterfaceOwners(m *types.Model) []types.Link {
	pool := m.OwnerPool
	if len(pool) == 0 {
		pool = m.PersonIDs()
	}
	owned := map[string]bool{}
	for _, l := range m.Ownership {
		if l.Type == types.RelOwnedBy {
			owned[l.From] = true
		}
	}
	var out []types.Link
	for _, e := range m.EntitiesByLabel(types.LabelApplicationInterface) {
		if owned[e.ID] {
			continue
		}
		owner := fallbackOwner(e.ID, pool)
		if owner == "" {
			continue
		}
		out = append(out, types.Link{
			Type:      types.RelOwnedBy,
			From:      e.ID,
			FromLabel: types.LabelApplicationInterface,
			To:        owner,
			ToLabel:   types.LabelPerson,
		})
	}
	return out
}
