package dbsnp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/Jeffail/gabs"

	"bgdb/annotator/models"
	"bgdb/annotator/models/constants/chromosome"
	"bgdb/annotator/utils"
)

const (
	DefaultURL = "https://api.ncbi.nlm.nih.gov"

	// NCBI allows 3 requests per second without an API key; 2/s keeps
	// headroom.
	RequestInterval = 500 * time.Millisecond

	// Long indels don't resolve well through the SPDI endpoint.
	maxAlleleLength = 50
)

const FieldRsid = "rsid"

// Adapter annotates variants with dbSNP reference SNP identifiers via
// the NCBI Variation API, using SPDI notation built from GRCh38
// coordinates.
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

func (a *Adapter) Name() string { return "dbsnp" }

func (a *Adapter) Fields() []string { return []string{FieldRsid} }

func (a *Adapter) SelectionFields() []string { return []string{FieldRsid} }

func (a *Adapter) Fetch(ctx context.Context, v *models.Variant) (models.AnnotationResult, error) {
	chrom, pos, ref, alt, ok := v.Coordinates()
	if !ok {
		return models.Skipped("missing GRCh38 coordinates"), nil
	}
	if ref == alt {
		return models.Skipped("ref and alt are identical"), nil
	}
	if len(ref) > maxAlleleLength || len(alt) > maxAlleleLength {
		return models.Skipped(fmt.Sprintf("alleles too long (ref: %d, alt: %d)", len(ref), len(alt))), nil
	}
	accession, known := chromosome.RefSeqAccession(chrom)
	if !known {
		return models.Skipped(fmt.Sprintf("unknown chromosome: %s", chrom)), nil
	}

	// SPDI positions are 0-based; the store keeps 1-based coordinates.
	url := fmt.Sprintf("%s/variation/v0/spdi/%s:%d:%s:%s/rsids", a.url, accession, pos-1, ref, alt)

	a.logger.Info("querying dbSNP", "spdi", fmt.Sprintf("%s:%d:%s:%s", accession, pos-1, ref, alt))
	resp, err := a.client.Do(ctx, http.MethodGet, url, nil, nil)
	if err != nil {
		// The endpoint answers 404 for variants dbSNP has never seen;
		// that's a clean no-match, not a failure.
		var clientErr *utils.ClientError
		if errors.As(err, &clientErr) && clientErr.Status == http.StatusNotFound {
			return models.NotFound(), nil
		}
		return models.AnnotationResult{}, err
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return models.AnnotationResult{}, fmt.Errorf("read dbsnp response: %w", err)
	}

	return a.parse(payload)
}

func (a *Adapter) parse(payload []byte) (models.AnnotationResult, error) {
	parsed, err := gabs.ParseJSON(payload)
	if err != nil {
		return models.AnnotationResult{}, &models.AdapterError{Adapter: a.Name(), Detail: fmt.Sprintf("malformed response: %v", err)}
	}

	rsids, err := parsed.Path("data.rsids").Children()
	if err != nil || len(rsids) == 0 {
		return models.NotFound(), nil
	}

	first, ok := rsids[0].Data().(float64)
	if !ok {
		return models.AnnotationResult{}, &models.AdapterError{Adapter: a.Name(), Detail: "rsid is not numeric"}
	}

	return models.Found(map[string]interface{}{
		FieldRsid: fmt.Sprintf("rs%d", int64(first)),
	}), nil
}
