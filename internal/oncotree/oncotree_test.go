package oncotree

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tumorTypesJSON = `[
  {"code": "LUAD", "name": "Lung Adenocarcinoma", "mainType": "Non-Small Cell Lung Cancer", "tissue": "Lung", "parent": "NSCLC", "level": 3},
  {"code": "BRCA", "name": "Invasive Breast Carcinoma", "mainType": "Breast Cancer", "tissue": "Breast", "parent": "BREAST", "level": 2},
  {"name": "missing code"}
]`

type staticFetcher struct {
	terms []Term
	err   error
}

func (f staticFetcher) FetchTumorTypes(context.Context) ([]Term, error) {
	return f.terms, f.err
}

func TestParseTumorTypes(t *testing.T) {
	terms, err := ParseTumorTypes([]byte(tumorTypesJSON))
	require.NoError(t, err)
	require.Len(t, terms, 2)

	assert.Equal(t, Term{
		Code:     "LUAD",
		Name:     "Lung Adenocarcinoma",
		MainType: "Non-Small Cell Lung Cancer",
		Tissue:   "Lung",
		Parent:   "NSCLC",
		Level:    3,
	}, terms[0])

	_, err = ParseTumorTypes([]byte(`{"code": "X"}`))
	assert.Error(t, err)

	_, err = ParseTumorTypes([]byte(`not json`))
	assert.Error(t, err)
}

func TestClientRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, tumorTypesPath, r.URL.Path)
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(tumorTypesJSON))
	}))
	defer srv.Close()

	logger := zerolog.Nop()
	client := NewClient(srv.URL+"/", &logger)
	client.http.RetryWaitMin = time.Millisecond
	client.http.RetryWaitMax = time.Millisecond

	terms, err := client.FetchTumorTypes(context.Background())
	require.NoError(t, err)
	assert.Len(t, terms, 2)
	assert.Equal(t, int32(2), calls.Load())
}

func TestClientNotFound(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	logger := zerolog.Nop()
	_, err := NewClient(srv.URL, &logger).FetchTumorTypes(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

func TestCacheWarmAndLookup(t *testing.T) {
	logger := zerolog.Nop()
	cache := NewCache(staticFetcher{terms: []Term{
		{Code: "LUAD", Name: "Lung Adenocarcinoma", MainType: "Non-Small Cell Lung Cancer"},
	}}, time.Hour, &logger)

	assert.Error(t, cache.Ping(context.Background()))
	assert.True(t, cache.LastWarm().IsZero())

	n, err := cache.Warm(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.NoError(t, cache.Ping(context.Background()))
	assert.False(t, cache.LastWarm().IsZero())

	term, ok := cache.Lookup(" luad ")
	require.True(t, ok)
	assert.Equal(t, "Non-Small Cell Lung Cancer", term.MainType)

	_, ok = cache.Lookup("NOPE")
	assert.False(t, ok)
	_, ok = cache.Lookup("")
	assert.False(t, ok)
}

func TestCacheFailedWarmKeepsEntries(t *testing.T) {
	logger := zerolog.Nop()
	fetcher := &switchFetcher{terms: []Term{{Code: "BRCA", MainType: "Breast Cancer"}}}
	cache := NewCache(fetcher, time.Hour, &logger)

	_, err := cache.Warm(context.Background())
	require.NoError(t, err)

	fetcher.err = errors.New("oncotree down")
	_, err = cache.Warm(context.Background())
	require.Error(t, err)

	_, ok := cache.Lookup("BRCA")
	assert.True(t, ok)
}

func TestCacheEntriesExpire(t *testing.T) {
	logger := zerolog.Nop()
	cache := NewCache(staticFetcher{terms: []Term{{Code: "BRCA"}}}, 20*time.Millisecond, &logger)

	_, err := cache.Warm(context.Background())
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		_, ok := cache.Lookup("BRCA")
		return !ok
	}, time.Second, 10*time.Millisecond)
}

type switchFetcher struct {
	terms []Term
	err   error
}

func (f *switchFetcher) FetchTumorTypes(context.Context) ([]Term, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.terms, nil
}
