package gnomad

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/Jeffail/gabs"

	"bgdb/annotator/models"
	"bgdb/annotator/models/constants/population"
	"bgdb/annotator/utils"
)

const (
	DefaultURL = "https://gnomad.broadinstitute.org/api"
	dataset    = "gnomad_r4"

	// gnomAD allows 10 requests per 60 seconds; 6.5s between requests
	// keeps a run inside the quota even when retries pile up.
	RequestInterval = 6500 * time.Millisecond

	// Alleles beyond this trip 413 Request Entity Too Large upstream.
	maxAlleleLength = 1000
)

const frequencyQuery = `
query GnomadVariant($variantId: String!, $datasetId: DatasetId!) {
  variant(variantId: $variantId, dataset: $datasetId) {
    variant_id
    exome {
      af
      populations {
        id
        ac
        an
      }
    }
    genome {
      af
      populations {
        id
        ac
        an
      }
    }
  }
}
`

// Adapter annotates variants with gnomAD v4 population minor-allele
// frequencies via the GraphQL API, keyed by GRCh38 coordinates.
type Adapter struct {
	client *utils.RetryClient
	url    string
	logger *slog.Logger
}

func New(client *utils.RetryClient, logger *slog.Logger) *Adapter {
	return NewWithURL(client, logger, DefaultURL)
}

func NewWithURL(client *utils.RetryClient, logger *slog.Logger, url string) *Adapter {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Adapter{client: client, url: url, logger: logger}
}

func (a *Adapter) Name() string { return "gnomad" }

func (a *Adapter) Fields() []string { return population.AllFields() }

// SelectionFields keys candidacy off gnomad_all alone: a record either
// has gnomAD data or it doesn't, the store never carries partial rows.
func (a *Adapter) SelectionFields() []string {
	return []string{population.FieldAll}
}

func (a *Adapter) Fetch(ctx context.Context, v *models.Variant) (models.AnnotationResult, error) {
	chrom, pos, ref, alt, ok := v.Coordinates()
	if !ok {
		return models.Skipped("missing GRCh38 coordinates"), nil
	}
	if ref == alt {
		return models.Skipped("ref and alt are identical"), nil
	}
	if len(ref) > maxAlleleLength || len(alt) > maxAlleleLength {
		return models.Skipped(fmt.Sprintf("allele too long (ref: %d, alt: %d)", len(ref), len(alt))), nil
	}

	variantId := fmt.Sprintf("%s-%d-%s-%s", chrom, pos, ref, alt)
	body, err := json.Marshal(map[string]interface{}{
		"query": frequencyQuery,
		"variables": map[string]string{
			"variantId": variantId,
			"datasetId": dataset,
		},
	})
	if err != nil {
		return models.AnnotationResult{}, fmt.Errorf("encode gnomad query: %w", err)
	}

	header := http.Header{}
	header.Set("Content-Type", "application/json")

	a.logger.Info("querying gnomAD", "variant", variantId)
	resp, err := a.client.Do(ctx, http.MethodPost, a.url, body, header)
	if err != nil {
		return models.AnnotationResult{}, err
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return models.AnnotationResult{}, fmt.Errorf("read gnomad response: %w", err)
	}

	return a.parse(payload)
}

func (a *Adapter) parse(payload []byte) (models.AnnotationResult, error) {
	parsed, err := gabs.ParseJSON(payload)
	if err != nil {
		return models.AnnotationResult{}, &models.AdapterError{Adapter: a.Name(), Detail: fmt.Sprintf("malformed response: %v", err)}
	}

	// A GraphQL errors member means the variant id did not resolve.
	if parsed.Exists("errors") {
		return models.NotFound(), nil
	}
	if parsed.Path("data.variant").Data() == nil {
		return models.NotFound(), nil
	}

	// Prefer genome frequencies; exome-only variants fall back to the
	// exome block so they are still captured.
	frequencies := parsed.Path("data.variant.genome")
	if frequencies == nil || frequencies.Data() == nil {
		frequencies = parsed.Path("data.variant.exome")
	}
	if frequencies == nil || frequencies.Data() == nil {
		return models.NotFound(), nil
	}

	fields := make(map[string]interface{}, 9)
	for _, field := range population.AllFields() {
		fields[field] = nil
	}

	if af, ok := frequencies.Path("af").Data().(float64); ok {
		fields[population.FieldAll] = minorAlleleFrequency(af)
	}

	populations, err := frequencies.Path("populations").Children()
	if err != nil {
		return models.AnnotationResult{}, &models.AdapterError{Adapter: a.Name(), Detail: "populations is not a list"}
	}
	for _, pop := range populations {
		id, _ := pop.Path("id").Data().(string)
		field, known := population.FieldForPopulation(id)
		if !known {
			// Sex-specific and sub-population entries are not stored.
			continue
		}

		ac, acOk := pop.Path("ac").Data().(float64)
		an, anOk := pop.Path("an").Data().(float64)
		if !acOk || !anOk || an <= 0 {
			// No observation for this population: null, not zero.
			continue
		}
		fields[field] = minorAlleleFrequency(ac / an)
	}

	return models.Found(fields), nil
}

// minorAlleleFrequency folds an allele frequency onto the minor
// allele: AF above 0.5 means the alternate is the major allele.
func minorAlleleFrequency(af float64) float64 {
	if af > 0.5 {
		return 1 - af
	}
	return af
}
