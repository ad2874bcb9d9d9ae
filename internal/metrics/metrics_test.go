package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordMutation(t *testing.T) {
	before := testutil.ToFloat64(MutationsTotal.WithLabelValues("add_section", "ok"))
	RecordMutation("add_section", "ok")
	RecordMutation("add_section", "ok")
	after := testutil.ToFloat64(MutationsTotal.WithLabelValues("add_section", "ok"))
	assert.Equal(t, before+2, after)
}

func TestRecordSourceFetch(t *testing.T) {
	RecordSourceFetch("demo", "movies", nil)
	RecordSourceFetch("demo", "movies", errors.New("boom"))
	assert.GreaterOrEqual(t, testutil.ToFloat64(SourceFetchTotal.WithLabelValues("demo", "movies", "success")), 1.0)
	assert.GreaterOrEqual(t, testutil.ToFloat64(SourceFetchTotal.WithLabelValues("demo", "movies", "failure")), 1.0)
}

func TestRecordRender(t *testing.T) {
	before := testutil.ToFloat64(RendersTotal.WithLabelValues("tabular", "document"))
	RecordRender("tabular", 3*time.Millisecond)
	RecordFragment("tabular")
	assert.Equal(t, before+1, testutil.ToFloat64(RendersTotal.WithLabelValues("tabular", "document")))
	assert.GreaterOrEqual(t, testutil.ToFloat64(RendersTotal.WithLabelValues("tabular", "section")), 1.0)
}
