package gnomad

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bgdb/annotator/models"
	"bgdb/annotator/models/constants/population"
	"bgdb/annotator/utils"
)

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

func testVariant(chrom string, pos int, ref, alt string) *models.Variant {
	return &models.Variant{
		Id:        "v1",
		Grch38Chr: strPtr(chrom),
		Grch38Pos: intPtr(pos),
		Grch38Ref: strPtr(ref),
		Grch38Alt: strPtr(alt),
	}
}

type countingLimiter struct{ acquired int }

func (c *countingLimiter) Acquire() { c.acquired++ }

// gnomadServer serves a canned GraphQL response and records the
// request bodies it saw.
func gnomadServer(t *testing.T, response string) (*httptest.Server, *[]map[string]interface{}) {
	t.Helper()
	var requests []map[string]interface{}

	e := echo.New()
	e.POST("/api", func(c echo.Context) error {
		body, _ := io.ReadAll(c.Request().Body)
		var decoded map[string]interface{}
		require.NoError(t, json.Unmarshal(body, &decoded))
		requests = append(requests, decoded)
		return c.JSONBlob(http.StatusOK, []byte(response))
	})

	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)
	return srv, &requests
}

func newTestAdapter(t *testing.T, srv *httptest.Server) *Adapter {
	t.Helper()
	client := utils.NewRetryClient(nil, utils.WithSleep(func(time.Duration) {}))
	return NewWithURL(client, nil, srv.URL+"/api")
}

func TestFetchConvertsFrequenciesToMAF(t *testing.T) {
	response := `{
		"data": {
			"variant": {
				"variant_id": "1-12345-A-G",
				"exome": null,
				"genome": {
					"af": 0.7,
					"populations": [
						{"id": "afr", "ac": 3, "an": 10},
						{"id": "amr", "ac": 30, "an": 100},
						{"id": "eas", "ac": 0, "an": 0},
						{"id": "remaining", "ac": 1, "an": 4},
						{"id": "afr_XX", "ac": 9, "an": 10},
						{"id": "nfe:male", "ac": 9, "an": 10}
					]
				}
			}
		}
	}`
	srv, requests := gnomadServer(t, response)
	adapter := newTestAdapter(t, srv)

	result, err := adapter.Fetch(context.Background(), testVariant("1", 12345, "A", "G"))
	require.NoError(t, err)
	require.Equal(t, models.StatusFound, result.Status)

	// overall AF above 0.5 folds to the minor allele
	assert.InDelta(t, 0.3, result.Fields[population.FieldAll].(float64), 1e-9)
	// ac/an below 0.5 passes through unchanged
	assert.InDelta(t, 0.3, result.Fields[population.FieldAfr].(float64), 1e-9)
	assert.InDelta(t, 0.3, result.Fields[population.FieldAmr].(float64), 1e-9)
	// v4 calls the unassigned population "remaining"
	assert.InDelta(t, 0.25, result.Fields[population.FieldOth].(float64), 1e-9)
	// an == 0 means no observation: null, never zero
	assert.Nil(t, result.Fields[population.FieldEas])
	// populations absent from the response stay null
	assert.Nil(t, result.Fields[population.FieldSas])
	// every owned field is present in the patch
	assert.Len(t, result.Fields, 9)

	// request shape: variant id and dataset
	require.Len(t, *requests, 1)
	variables := (*requests)[0]["variables"].(map[string]interface{})
	assert.Equal(t, "1-12345-A-G", variables["variantId"])
	assert.Equal(t, "gnomad_r4", variables["datasetId"])
}

func TestFetchZeroFrequencyIsNotNull(t *testing.T) {
	response := `{
		"data": {
			"variant": {
				"variant_id": "1-12345-A-G",
				"genome": {
					"af": 0.0,
					"populations": [{"id": "fin", "ac": 0, "an": 500}]
				}
			}
		}
	}`
	srv, _ := gnomadServer(t, response)
	adapter := newTestAdapter(t, srv)

	result, err := adapter.Fetch(context.Background(), testVariant("1", 12345, "A", "G"))
	require.NoError(t, err)

	// a true zero frequency is stored as 0, distinct from null
	require.NotNil(t, result.Fields[population.FieldFin])
	assert.Zero(t, result.Fields[population.FieldFin].(float64))
	require.NotNil(t, result.Fields[population.FieldAll])
	assert.Zero(t, result.Fields[population.FieldAll].(float64))
}

func TestFetchFallsBackToExomeOnlyVariants(t *testing.T) {
	response := `{
		"data": {
			"variant": {
				"variant_id": "7-142957922-T-A",
				"exome": {
					"af": 0.0001,
					"populations": [{"id": "sas", "ac": 2, "an": 10000}]
				},
				"genome": null
			}
		}
	}`
	srv, _ := gnomadServer(t, response)
	adapter := newTestAdapter(t, srv)

	result, err := adapter.Fetch(context.Background(), testVariant("7", 142957922, "T", "A"))
	require.NoError(t, err)
	require.Equal(t, models.StatusFound, result.Status)
	assert.InDelta(t, 0.0001, result.Fields[population.FieldAll].(float64), 1e-12)
	assert.InDelta(t, 0.0002, result.Fields[population.FieldSas].(float64), 1e-12)
}

func TestFetchNotFoundShapes(t *testing.T) {
	for name, response := range map[string]string{
		"graphql errors":  `{"errors": [{"message": "Variant not found"}], "data": {"variant": null}}`,
		"null variant":    `{"data": {"variant": null}}`,
		"no genome/exome": `{"data": {"variant": {"variant_id": "x", "genome": null, "exome": null}}}`,
	} {
		t.Run(name, func(t *testing.T) {
			srv, _ := gnomadServer(t, response)
			adapter := newTestAdapter(t, srv)

			result, err := adapter.Fetch(context.Background(), testVariant("1", 12345, "A", "G"))
			require.NoError(t, err)
			assert.Equal(t, models.StatusNotFound, result.Status)
		})
	}
}

func TestFetchValidationSkipsWithoutNetwork(t *testing.T) {
	hit := false
	e := echo.New()
	e.POST("/api", func(c echo.Context) error {
		hit = true
		return c.NoContent(http.StatusOK)
	})
	srv := httptest.NewServer(e)
	defer srv.Close()

	limiter := &countingLimiter{}
	client := utils.NewRetryClient(limiter, utils.WithSleep(func(time.Duration) {}))
	adapter := NewWithURL(client, nil, srv.URL+"/api")

	longAllele := make([]byte, 1001)
	for i := range longAllele {
		longAllele[i] = 'A'
	}

	cases := map[string]*models.Variant{
		"missing coordinates": {Id: "v1", Grch38Chr: strPtr("1")},
		"ref equals alt":      testVariant("1", 12345, "A", "A"),
		"allele too long":     testVariant("1", 12345, string(longAllele), "G"),
	}
	for name, variant := range cases {
		t.Run(name, func(t *testing.T) {
			result, err := adapter.Fetch(context.Background(), variant)
			require.NoError(t, err)
			assert.Equal(t, models.StatusSkipped, result.Status)
			assert.NotEmpty(t, result.Reason)
		})
	}

	// validation failures never reach the wire or the rate limiter
	assert.False(t, hit)
	assert.Zero(t, limiter.acquired)
}

func TestFetchMalformedResponseIsAdapterError(t *testing.T) {
	e := echo.New()
	e.POST("/api", func(c echo.Context) error {
		return c.String(http.StatusOK, "<html>maintenance</html>")
	})
	srv := httptest.NewServer(e)
	defer srv.Close()

	adapter := newTestAdapter(t, srv)
	_, err := adapter.Fetch(context.Background(), testVariant("1", 12345, "A", "G"))

	var adapterErr *models.AdapterError
	require.ErrorAs(t, err, &adapterErr)
	assert.Equal(t, "gnomad", adapterErr.Adapter)
}

func TestMinorAlleleFrequency(t *testing.T) {
	assert.InDelta(t, 0.3, minorAlleleFrequency(0.7), 1e-9)
	assert.InDelta(t, 0.3, minorAlleleFrequency(0.3), 1e-9)
	assert.InDelta(t, 0.5, minorAlleleFrequency(0.5), 1e-9)
	assert.Zero(t, minorAlleleFrequency(0))
}
