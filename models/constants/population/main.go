package population

/*
	gnomAD v4 superpopulation codes and the store fields they map to.
*/

const (
	FieldAll = "gnomad_all" // all populations combined
	FieldAfr = "gnomad_afr" // African/African American
	FieldAmr = "gnomad_amr" // Admixed American
	FieldAsj = "gnomad_asj" // Ashkenazi Jewish
	FieldEas = "gnomad_eas" // East Asian
	FieldFin = "gnomad_fin" // Finnish
	FieldNfe = "gnomad_nfe" // Non-Finnish European
	FieldOth = "gnomad_oth" // Other (population not assigned)
	FieldSas = "gnomad_sas" // South Asian
)

// AllFields lists every store field owned by the gnomAD annotator.
func AllFields() []string {
	return []string{
		FieldAll, FieldAfr, FieldAmr, FieldAsj, FieldEas,
		FieldFin, FieldNfe, FieldOth, FieldSas,
	}
}

// FieldForPopulation maps a gnomAD population id to its store field.
// gnomAD v4 reports the unassigned population as "remaining"; older
// responses use "oth".
func FieldForPopulation(id string) (string, bool) {
	switch id {
	case "afr":
		return FieldAfr, true
	case "amr":
		return FieldAmr, true
	case "asj":
		return FieldAsj, true
	case "eas":
		return FieldEas, true
	case "fin":
		return FieldFin, true
	case "nfe":
		return FieldNfe, true
	case "oth", "remaining":
		return FieldOth, true
	case "sas":
		return FieldSas, true
	}
	return "", false
}
