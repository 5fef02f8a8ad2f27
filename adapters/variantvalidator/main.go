package variantvalidator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Jeffail/gabs"

	"bgdb/annotator/models"
	"bgdb/annotator/utils"
)

const (
	DefaultURL = "https://rest.variantvalidator.org"

	// VariantValidator recommends at most 4 requests per second.
	RequestInterval = 250 * time.Millisecond
)

const (
	FieldExon   = "exon"
	FieldIntron = "intron"
)

// Adapter annotates variants with exon/intron numbers from
// VariantValidator, keyed by the variant's HGVS transcript string on
// GRCh38. A variant spanning a splice boundary comes back as a range
// ("5-6"), which is stored verbatim.
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

func (a *Adapter) Name() string { return "variantvalidator" }

func (a *Adapter) Fields() []string { return []string{FieldExon, FieldIntron} }

func (a *Adapter) SelectionFields() []string { return []string{FieldExon, FieldIntron} }

func (a *Adapter) Fetch(ctx context.Context, v *models.Variant) (models.AnnotationResult, error) {
	if v.HgvsTranscript == nil || *v.HgvsTranscript == "" {
		return models.Skipped("no HGVS transcript"), nil
	}
	hgvs := *v.HgvsTranscript

	transcript, _, found := strings.Cut(hgvs, ":")
	if !found || transcript == "" {
		return models.Skipped(fmt.Sprintf("unparseable HGVS transcript: %s", hgvs)), nil
	}

	lookup := fmt.Sprintf("%s/VariantValidator/variantvalidator/GRCh38/%s/%s",
		a.url, url.PathEscape(hgvs), url.PathEscape(transcript))

	a.logger.Info("querying VariantValidator", "hgvs", hgvs)
	resp, err := a.client.Do(ctx, http.MethodGet, lookup, nil, nil)
	if err != nil {
		// VariantValidator signals an unresolvable description with a
		// client error status rather than an empty body.
		var clientErr *utils.ClientError
		if errors.As(err, &clientErr) {
			return models.NotFound(), nil
		}
		return models.AnnotationResult{}, err
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return models.AnnotationResult{}, fmt.Errorf("read variantvalidator response: %w", err)
	}

	return a.parse(payload, hgvs)
}

func (a *Adapter) parse(payload []byte, hgvs string) (models.AnnotationResult, error) {
	parsed, err := gabs.ParseJSON(payload)
	if err != nil {
		return models.AnnotationResult{}, &models.AdapterError{Adapter: a.Name(), Detail: fmt.Sprintf("malformed response: %v", err)}
	}

	record := parsed.Search(hgvs)
	if record == nil || record.Data() == nil {
		return models.NotFound(), nil
	}

	exonic := record.Search("variant_exonic_positions")
	positionsByAccession, err := exonic.ChildrenMap()
	if err != nil || len(positionsByAccession) == 0 {
		return models.NotFound(), nil
	}

	// Several genome-build accessions may be present; take the latest
	// GRCh38 RefSeq version.
	var positions *gabs.Container
	latestVersion := 0
	for accession, child := range positionsByAccession {
		if !strings.HasPrefix(accession, "NC") {
			continue
		}
		parts := strings.SplitN(accession, ".", 2)
		if len(parts) != 2 {
			continue
		}
		version, convErr := strconv.Atoi(parts[1])
		if convErr != nil {
			continue
		}
		if version > latestVersion {
			latestVersion = version
			positions = child
		}
	}
	if positions == nil {
		return models.NotFound(), nil
	}

	exon := rangeValue(positions.Search("start_exon").Data(), positions.Search("end_exon").Data())
	intron := rangeValue(positions.Search("start_intron").Data(), positions.Search("end_intron").Data())
	if exon == "" && intron == "" {
		return models.NotFound(), nil
	}

	fields := map[string]interface{}{}
	if exon != "" {
		fields[FieldExon] = exon
	}
	if intron != "" {
		fields[FieldIntron] = intron
	}
	return models.Found(fields), nil
}

// rangeValue renders a start/end pair as the store's exon/intron
// value: "5" for a single position, "5-6" when the variant spans a
// boundary, "" when either end is absent.
func rangeValue(start, end interface{}) string {
	startText := positionText(start)
	endText := positionText(end)
	if startText == "" || endText == "" {
		return ""
	}
	if startText == endText {
		return startText
	}
	return startText + "-" + endText
}

// positionText normalizes a position that upstream may render as a
// number or a string. Zero and empty both mean "not exonic/intronic".
func positionText(value interface{}) string {
	switch typed := value.(type) {
	case nil:
		return ""
	case string:
		if typed == "" || typed == "0" {
			return ""
		}
		return typed
	case float64:
		if typed == 0 {
			return ""
		}
		return strconv.FormatFloat(typed, 'f', -1, 64)
	default:
		return ""
	}
}
