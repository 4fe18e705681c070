package observability

import (
	"errors"
	"testing"
	"time"

	"github.com/danmuck/kmodctl/internal/kmod"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRegisterMetricsAndRecordersAreSafe(t *testing.T) {
	RegisterMetrics()
	RegisterMetrics()

	RecordHTTPRequest("POST", "/modules/verify", 200, 12*time.Millisecond)
	RecordHeader(kmod.Header{RuntimeVersion: "5.1.1"})
	RecordModuleWrite(nil)
	RecordModuleWrite(errors.New("disk full"))
}

func TestRecordModuleReadLabelsKind(t *testing.T) {
	mismatch := moduleReads.WithLabelValues(ResultError, kmod.KindRuntimeVersionMismatch.String())
	content := moduleReads.WithLabelValues(ResultError, "content")
	ok := moduleReads.WithLabelValues(ResultOK, kmod.KindNone.String())
	before := []float64{testutil.ToFloat64(mismatch), testutil.ToFloat64(content), testutil.ToFloat64(ok)}

	rt := kmod.Gate{}.Check(kmod.Header{Magic: kmod.Magic, FormatVersion: 1, RuntimeVersion: "x"})
	RecordModuleRead(rt)
	RecordModuleRead(errors.New("codec exploded"))
	RecordModuleRead(nil)

	assert.Equal(t, before[0]+1, testutil.ToFloat64(mismatch))
	assert.Equal(t, before[1]+1, testutil.ToFloat64(content))
	assert.Equal(t, before[2]+1, testutil.ToFloat64(ok))
}

func TestReadErrorKind(t *testing.T) {
	assert.Equal(t, "content", ReadErrorKind(errors.New("x")))
	assert.Equal(t, "invalid_magic", ReadErrorKind(kmod.Gate{}.Check(kmod.Header{})))
}
