package leadstore

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bgdb/annotator/models"
)

// fakeStore is an in-memory stand-in for the blood group database.
type fakeStore struct {
	variants []map[string]interface{}
	patches  map[string]map[string]interface{}
	logins   int
}

func newFakeStore(t *testing.T, variants []map[string]interface{}) (*fakeStore, *httptest.Server) {
	t.Helper()
	store := &fakeStore{
		variants: variants,
		patches:  map[string]map[string]interface{}{},
	}

	e := echo.New()
	e.POST("/auth/login", func(c echo.Context) error {
		var creds map[string]string
		if err := json.NewDecoder(c.Request().Body).Decode(&creds); err != nil {
			return c.NoContent(http.StatusBadRequest)
		}
		if creds["email"] != "curator@example.org" || creds["password"] != "hunter2" {
			return c.NoContent(http.StatusUnauthorized)
		}
		store.logins++
		c.SetCookie(&http.Cookie{Name: "session", Value: "tok", Path: "/"})
		return c.NoContent(http.StatusOK)
	})
	e.GET("/variant", func(c echo.Context) error {
		if cookie, err := c.Cookie("session"); err != nil || cookie.Value != "tok" {
			return c.NoContent(http.StatusUnauthorized)
		}
		return c.JSON(http.StatusOK, store.variants)
	})
	e.PATCH("/variant/:id", func(c echo.Context) error {
		body, _ := io.ReadAll(c.Request().Body)
		var fields map[string]interface{}
		if err := json.Unmarshal(body, &fields); err != nil {
			return c.NoContent(http.StatusBadRequest)
		}
		store.patches[c.Param("id")] = fields
		return c.NoContent(http.StatusOK)
	})

	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)
	return store, srv
}

func TestClientLoginAndList(t *testing.T) {
	store, srv := newFakeStore(t, []map[string]interface{}{
		{
			"id":         "v1",
			"grch38_chr": "1",
			"grch38_pos": 12345,
			"grch38_ref": "A",
			"grch38_alt": "G",
			"rsid":       nil,
			"gnomad_all": 0.01,
		},
		{
			"id":              42,
			"hgvs_transcript": "NM_020485.8:c.286G>A",
			"exon":            "2",
		},
	})

	client := New(srv.URL, "curator@example.org", "hunter2")
	ctx := context.Background()
	require.NoError(t, client.Login(ctx))
	assert.Equal(t, 1, store.logins)

	variants, err := client.GetVariants(ctx)
	require.NoError(t, err)
	require.Len(t, variants, 2)

	first := variants[0]
	assert.Equal(t, "v1", first.Id)
	require.NotNil(t, first.Grch38Pos)
	assert.Equal(t, 12345, *first.Grch38Pos)
	assert.Nil(t, first.Rsid)
	require.NotNil(t, first.GnomadAll)
	assert.InDelta(t, 0.01, *first.GnomadAll, 1e-9)
	assert.True(t, first.HasField("gnomad_all"))
	assert.False(t, first.HasField("rsid"))

	// numeric ids come through as strings
	second := variants[1]
	assert.Equal(t, "42", second.Id)
	require.NotNil(t, second.HgvsTranscript)
	assert.Equal(t, "NM_020485.8:c.286G>A", *second.HgvsTranscript)
	assert.True(t, second.HasField("exon"))
	assert.False(t, second.HasField("intron"))
}

func TestClientListWithoutLoginFails(t *testing.T) {
	_, srv := newFakeStore(t, nil)

	client := New(srv.URL, "curator@example.org", "hunter2")
	_, err := client.GetVariants(context.Background())
	require.Error(t, err)
}

func TestClientPatchIsPartial(t *testing.T) {
	store, srv := newFakeStore(t, nil)

	client := New(srv.URL, "curator@example.org", "hunter2")
	ctx := context.Background()
	require.NoError(t, client.Login(ctx))

	require.NoError(t, client.Patch(ctx, "v1", map[string]interface{}{"rsid": "rs999"}))
	assert.Equal(t, map[string]interface{}{"rsid": "rs999"}, store.patches["v1"])

	// nil values travel as JSON nulls to clear fields
	require.NoError(t, client.Patch(ctx, "v2", map[string]interface{}{"rsid": nil}))
	assert.Equal(t, map[string]interface{}{"rsid": nil}, store.patches["v2"])
}

func TestClientPatchRejectionIsWriteError(t *testing.T) {
	e := echo.New()
	e.PATCH("/variant/:id", func(c echo.Context) error {
		return c.NoContent(http.StatusForbidden)
	})
	srv := httptest.NewServer(e)
	defer srv.Close()

	client := New(srv.URL, "curator@example.org", "hunter2")
	err := client.Patch(context.Background(), "v1", map[string]interface{}{"rsid": "rs1"})

	var writeErr *models.WriteError
	require.ErrorAs(t, err, &writeErr)
	assert.Equal(t, "v1", writeErr.VariantId)
}

func TestDecodeVariantKeepsRawRecord(t *testing.T) {
	raw := map[string]interface{}{
		"id":         "v1",
		"grch38_chr": "X",
		"grch38_pos": float64(1000),
		"custom":     "kept",
	}

	variant, err := DecodeVariant(raw)
	require.NoError(t, err)
	assert.Equal(t, raw, variant.Raw)
	require.NotNil(t, variant.Grch38Pos)
	assert.Equal(t, 1000, *variant.Grch38Pos)
	assert.True(t, variant.HasField("custom"))
}
