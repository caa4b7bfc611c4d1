// Package batch filters lookup entities and splits them into bounded groups
// for bulk submission.
package batch

import "github.com/dshills/eslookup-mcp/pkg/types"

// MaxEntitiesPerGroup is the largest number of entities sent in one bulk request
const MaxEntitiesPerGroup = 10

// Filter drops private IP entities unless searchPrivateIPs is set. Dropped
// entities do not appear in any lookup output; this is the only case where a
// submitted entity is not represented in the result.
func Filter(entities []types.Entity, searchPrivateIPs bool) []types.Entity {
	filtered := make([]types.Entity, 0, len(entities))
	for _, e := range entities {
		if e.IsIP() && e.IsPrivate && !searchPrivateIPs {
			continue
		}
		filtered = append(filtered, e)
	}
	return filtered
}

// Partition splits entities into consecutive groups of at most size entities.
// A non-positive size uses MaxEntitiesPerGroup.
func Partition(entities []types.Entity, size int) [][]types.Entity {
	if size <= 0 {
		size = MaxEntitiesPerGroup
	}

	groups := make([][]types.Entity, 0, (len(entities)+size-1)/size)
	for i := 0; i < len(entities); i += size {
		end := i + size
		if end > len(entities) {
			end = len(entities)
		}
		groups = append(groups, entities[i:end:end])
	}
	return groups
}
