package annotation

import (
	linq "github.com/ahmetb/go-linq"

	"bgdb/annotator/models"
)

// Select yields the records eligible for annotation, in store order.
// A record is a candidate iff the policy overwrites, or it is missing
// at least one field of fieldSet. The limit is applied to the filtered
// stream, so "--limit 10" always means ten candidates actually
// considered, never ten raw records.
func Select(records []models.Variant, fieldSet []string, policy models.Policy) []models.Variant {
	query := linq.From(records).Where(func(item interface{}) bool {
		variant := item.(models.Variant)
		return policy.Overwrite || missingAny(&variant, fieldSet)
	})
	if policy.Limit > 0 {
		query = query.Take(policy.Limit)
	}

	var selected []models.Variant
	query.ToSlice(&selected)
	return selected
}

func missingAny(v *models.Variant, fieldSet []string) bool {
	for _, field := range fieldSet {
		if !v.HasField(field) {
			return true
		}
	}
	return false
}

func hasAny(v *models.Variant, fieldSet []string) bool {
	for _, field := range fieldSet {
		if v.HasField(field) {
			return true
		}
	}
	return false
}
