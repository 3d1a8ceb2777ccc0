package metrics_test

import (
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"ytmeta/internal/metrics"
)

func TestRecordHelpers(t *testing.T) {
	beforeHit := testutil.ToFloat64(metrics.LookupsTotal.WithLabelValues("episode", "hit"))
	metrics.RecordLookup("episode", "hit")
	if got := testutil.ToFloat64(metrics.LookupsTotal.WithLabelValues("episode", "hit")); got != beforeHit+1 {
		t.Fatalf("expected lookup counter to increase, got %v", got)
	}

	beforeErr := testutil.ToFloat64(metrics.FetchTotal.WithLabelValues("search_channel", "error"))
	metrics.RecordFetch("search_channel", errors.New("boom"))
	if got := testutil.ToFloat64(metrics.FetchTotal.WithLabelValues("search_channel", "error")); got != beforeErr+1 {
		t.Fatalf("expected fetch error counter to increase, got %v", got)
	}

	metrics.SetProgress(42)
	if got := testutil.ToFloat64(metrics.IndexProgress); got != 42 {
		t.Fatalf("unexpected progress gauge %v", got)
	}
}

func TestHandlerExposesCollectors(t *testing.T) {
	metrics.RecordItemUpdated("episode")
	srv := httptest.NewServer(metrics.Handler())
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(body), "ytmeta_index_items_updated_total") {
		t.Fatalf("expected collector in exposition, got %s", body)
	}
}
