package metrics

import (
	"io/ioutil"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrometheus_Observe(t *testing.T) {
	p := NewPrometheusMetrics()

	p.Observe("embed", "pca", time.Now().Add(-time.Second), 100)
	p.Observe("embed", "pca", time.Now(), 50)
	p.Observe("embed", "tsne", time.Now(), 100)
	p.Score("svm", 0.9)

	assert.Equal(t, 150.0, testutil.ToFloat64(p.Samples.WithLabelValues("embed", "pca")))
	assert.Equal(t, 100.0, testutil.ToFloat64(p.Samples.WithLabelValues("embed", "tsne")))
	assert.Equal(t, 0.9, testutil.ToFloat64(p.Accuracy.WithLabelValues("svm")))

	families, err := p.Registry().Gather()
	require.NoError(t, err)
	for _, f := range families {
		if f.GetName() == "mnist_stage_duration_seconds" {
			require.Len(t, f.GetMetric(), 2)
			for _, m := range f.GetMetric() {
				if m.GetLabel()[1].GetValue() == "pca" {
					assert.Equal(t, uint64(2), m.GetHistogram().GetSampleCount())
					assert.True(t, m.GetHistogram().GetSampleSum() >= 1)
				}
			}
		}
	}
}

func TestPrometheus_Handler(t *testing.T) {
	p := NewPrometheusMetrics()
	p.Observe("classify", "fit", time.Now(), 10)

	srv := httptest.NewServer(p.Handler())
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	b, err := ioutil.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(b), `mnist_samples_total{pipeline="classify",stage="fit"} 10`)
}
