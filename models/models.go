package models

import (
	"time"

	"github.com/google/uuid"
)

// Variant is a single record in the remote blood group database.
// Coordinate and annotation fields are pointers because the store
// may omit or null any of them; Raw keeps the record as it came off
// the wire so that field-presence checks don't depend on decoding.
type Variant struct {
	Id string `json:"id"`

	Grch38Chr *string `json:"grch38_chr"`
	Grch38Pos *int    `json:"grch38_pos"`
	Grch38Ref *string `json:"grch38_ref"`
	Grch38Alt *string `json:"grch38_alt"`

	HgvsTranscript *string `json:"hgvs_transcript"`

	Rsid   *string `json:"rsid"`
	Exon   *string `json:"exon"`
	Intron *string `json:"intron"`

	GnomadAll *float64 `json:"gnomad_all"`
	GnomadAfr *float64 `json:"gnomad_afr"`
	GnomadAmr *float64 `json:"gnomad_amr"`
	GnomadAsj *float64 `json:"gnomad_asj"`
	GnomadEas *float64 `json:"gnomad_eas"`
	GnomadFin *float64 `json:"gnomad_fin"`
	GnomadNfe *float64 `json:"gnomad_nfe"`
	GnomadOth *float64 `json:"gnomad_oth"`
	GnomadSas *float64 `json:"gnomad_sas"`

	Raw map[string]interface{} `json:"-"`
}

// HasField reports whether the named annotation field carries a value
// in the raw store record. Empty strings count as missing, the same
// way the store renders cleared fields.
func (v *Variant) HasField(name string) bool {
	if v.Raw == nil {
		return false
	}
	value, ok := v.Raw[name]
	if !ok || value == nil {
		return false
	}
	if s, isString := value.(string); isString && s == "" {
		return false
	}
	return true
}

// Coordinates returns the GRCh38 coordinate tuple, with ok=false when
// any part of it is missing.
func (v *Variant) Coordinates() (chrom string, pos int, ref string, alt string, ok bool) {
	if v.Grch38Chr == nil || v.Grch38Pos == nil || v.Grch38Ref == nil || v.Grch38Alt == nil {
		return "", 0, "", "", false
	}
	return *v.Grch38Chr, *v.Grch38Pos, *v.Grch38Ref, *v.Grch38Alt, true
}

type AnnotationStatus int

const (
	StatusFound AnnotationStatus = iota
	StatusNotFound
	StatusSkipped
)

// AnnotationResult is the normalized outcome of one source adapter
// lookup. It only lives for a single pipeline iteration.
type AnnotationResult struct {
	Status AnnotationStatus

	// Fields maps store field names to the values to patch. Present
	// only when Status is StatusFound; nil values translate to JSON
	// nulls (a population with no observation, for instance).
	Fields map[string]interface{}

	// Reason explains a StatusSkipped result.
	Reason string
}

func Found(fields map[string]interface{}) AnnotationResult {
	return AnnotationResult{Status: StatusFound, Fields: fields}
}

func NotFound() AnnotationResult {
	return AnnotationResult{Status: StatusNotFound}
}

func Skipped(reason string) AnnotationResult {
	return AnnotationResult{Status: StatusSkipped, Reason: reason}
}

// Policy is the immutable per-run configuration.
type Policy struct {
	// Overwrite re-processes records that already carry values for the
	// target fields.
	Overwrite bool

	// Limit caps how many selected candidates are processed; zero
	// means no cap. The cap is counted over the filtered stream, not
	// the raw record set.
	Limit int

	// TestMode suppresses all writes; the run still reports what it
	// would have written.
	TestMode bool

	// ClearNotFound nulls the target fields when the upstream API has
	// no match. Only honored together with Overwrite.
	ClearNotFound bool
}

// PatchRequest is a partial update for one variant. Built fresh per
// record; it never accumulates state across records.
type PatchRequest struct {
	VariantId string
	Fields    map[string]interface{}
}

// RunSummary is the per-run outcome report.
type RunSummary struct {
	RunId   string
	Adapter string

	Selected    int
	Updated     int
	Skipped     int
	NotFound    int
	Cleared     int
	Errored     int
	WriteFailed int

	StartedAt  time.Time
	FinishedAt time.Time
}

func NewRunSummary(adapter string) RunSummary {
	return RunSummary{
		RunId:     uuid.New().String(),
		Adapter:   adapter,
		StartedAt: time.Now(),
	}
}
