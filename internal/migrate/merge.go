package migrate

import (
	"errors"
	"fmt"
)

// Merge collapses a sequential chain of migrations into one. Adjacent
// migrations must line up exactly (prev.ToVersion == curr.FromVersion).
// The merged migration spans the first input's FromVersion to the last
// input's ToVersion, is breaking if any input was, and carries the latest
// input timestamp. A single input is cloned under a fresh id.
func Merge(migrations []*Migration) (*Migration, error) {
	if len(migrations) == 0 {
		return nil, errors.New("merge requires at least one migration")
	}

	if len(migrations) == 1 {
		merged := migrations[0].Clone()
		merged.ID = NewMigrationID()
		return merged, nil
	}

	for i := 1; i < len(migrations); i++ {
		prev, curr := migrations[i-1], migrations[i]
		if !prev.ToVersion.Equal(curr.FromVersion) {
			return nil, fmt.Errorf("migration chain broken: %s ends at version %s but the next migration starts at %s",
				prev.ID, prev.ToVersion, curr.FromVersion)
		}
	}

	merged := &Migration{
		ID:          NewMigrationID(),
		FromVersion: migrations[0].FromVersion,
		ToVersion:   migrations[len(migrations)-1].ToVersion,
	}

	var ops []Operation
	described := false
	for _, m := range migrations {
		ops = append(ops, cloneOperations(m.Operations)...)
		if m.IsBreaking {
			merged.IsBreaking = true
		}
		if m.Timestamp.After(merged.Timestamp) {
			merged.Timestamp = m.Timestamp
		}
		if m.Description != "" {
			described = true
		}
	}
	merged.Operations = cancelAddDropPairs(ops)
	if described {
		merged.Description = fmt.Sprintf("merge of %d migrations", len(migrations))
	}

	return merged, nil
}

// cancelAddDropPairs scans left to right and removes addColumn/dropColumn
// pairs targeting the same table.column key: a column added and later
// dropped within the chain never happened. A drop with no pending add
// survives, and the key stops accepting new pending adds afterwards.
func cancelAddDropPairs(ops []Operation) []Operation {
	result := make([]Operation, 0, len(ops))
	pendingAdd := make(map[string]int)
	droppedKeys := make(map[string]bool)

	for _, op := range ops {
		key := op.Table + "." + op.Column

		switch op.Kind {
		case OpAddColumn:
			if !droppedKeys[key] {
				pendingAdd[key] = len(result)
			}
			result = append(result, op)

		case OpDropColumn:
			idx, ok := pendingAdd[key]
			if !ok {
				droppedKeys[key] = true
				result = append(result, op)
				continue
			}
			result = append(result[:idx], result[idx+1:]...)
			delete(pendingAdd, key)
			for k, v := range pendingAdd {
				if v > idx {
					pendingAdd[k] = v - 1
				}
			}

		default:
			result = append(result, op)
		}
	}

	return result
}
