package metrics

import (
	"net/http/httptest"
	"testing"

	"github.com/ckb-go/txpool/txpool/reject"
	"github.com/stretchr/testify/assert"
)

func TestRecordRejectIncrementsCounterForKind(t *testing.T) {
	before := rejectsByKind[reject.Duplicated].Count()

	RecordReject(reject.NewDuplicated("dup"))

	assert.Equal(t, before+1, rejectsByKind[reject.Duplicated].Count())
}

func TestRecordRejectNilIsNoop(t *testing.T) {
	assert.NotPanics(t, func() { RecordReject(nil) })
}

func TestHandlerServesPrometheusText(t *testing.T) {
	req := httptest.NewRequest("GET", "/metrics", nil)
	rec := httptest.NewRecorder()

	Handler().ServeHTTP(rec, req)

	assert.Equal(t, 200, rec.Code)
	assert.NotEmpty(t, rec.Body.String())
}
