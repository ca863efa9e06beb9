package concepts

import (
	"sort"
	"strings"

	"github.com/queryforge-ai/queryforge-engine/pkg/models"
)

// ValidateJoins checks whether a list of required join conditions can be
// satisfied by the available entities.
//
// Each join string containing "=" is split on it, and every side containing
// "." contributes the lower-cased table qualifier before the first dot to
// the required-entity set. A join is classified "satisfied" only when ALL
// required entities, across the whole join list, are available, not just
// the two tables the join itself names. Downstream consumers treat a
// concept's joins as usable all together or not at all, so either every
// join is satisfied or none is.
func ValidateJoins(availableEntities []string, requiredJoins []string) models.JoinValidation {
	result := models.JoinValidation{
		Valid:            true,
		MissingEntities:  []string{},
		SatisfiedJoins:   []string{},
		UnsatisfiedJoins: []string{},
	}

	available := make(map[string]struct{}, len(availableEntities))
	for _, e := range availableEntities {
		available[strings.ToLower(e)] = struct{}{}
	}

	required := make(map[string]struct{})
	for _, join := range requiredJoins {
		for _, entity := range joinQualifiers(join) {
			required[entity] = struct{}{}
		}
	}

	var missing []string
	for entity := range required {
		if _, ok := available[entity]; !ok {
			missing = append(missing, entity)
		}
	}
	sort.Strings(missing)

	if len(missing) > 0 {
		result.Valid = false
		result.MissingEntities = missing
	}

	allPresent := len(missing) == 0
	for _, join := range requiredJoins {
		if allPresent {
			result.SatisfiedJoins = append(result.SatisfiedJoins, join)
		} else {
			result.UnsatisfiedJoins = append(result.UnsatisfiedJoins, join)
		}
	}

	return result
}

// joinQualifiers extracts the lower-cased table qualifiers from one join
// condition string, e.g. "a.id=b.a_id" yields ["a", "b"].
func joinQualifiers(join string) []string {
	join = strings.ToLower(join)
	if !strings.Contains(join, "=") {
		return nil
	}

	var entities []string
	for _, side := range strings.Split(join, "=") {
		if !strings.Contains(side, ".") {
			continue
		}
		qualifier := strings.TrimSpace(side[:strings.Index(side, ".")])
		if qualifier != "" {
			entities = append(entities, qualifier)
		}
	}
	return entities
}
