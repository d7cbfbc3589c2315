// file: metrics/metrics_test.go
package metrics

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/cloudwatch"
	"github.com/aws/aws-sdk-go/service/cloudwatch/cloudwatchiface"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeCloudWatch records PutMetricData calls.
type fakeCloudWatch struct {
	cloudwatchiface.CloudWatchAPI
	mu     sync.Mutex
	inputs []*cloudwatch.PutMetricDataInput
}

func (f *fakeCloudWatch) PutMetricData(in *cloudwatch.PutMetricDataInput) (*cloudwatch.PutMetricDataOutput, error) {
	f.mu.Lock()
	f.inputs = append(f.inputs, in)
	f.mu.Unlock()
	return &cloudwatch.PutMetricDataOutput{}, nil
}

func (f *fakeCloudWatch) names() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, in := range f.inputs {
		out = append(out, aws.StringValue(in.MetricData[0].MetricName))
	}
	return out
}

func TestRecorder_ObserveScan(t *testing.T) {
	r := New(nil)

	r.ObserveScan("success", "verify", 120*time.Millisecond)
	r.ObserveScan("rejected", "verify", 80*time.Millisecond)
	r.ObserveScan("success", "verify", 90*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.scans.WithLabelValues("success", "verify")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.scans.WithLabelValues("rejected", "verify")))
	assert.Equal(t, 1, testutil.CollectAndCount(r.scanDuration))
}

func TestRecorder_ObserveAPICall(t *testing.T) {
	r := New(nil)

	r.ObserveAPICall(http.MethodGet, "/api/tickets/{id}", 200, time.Millisecond)
	r.ObserveAPICall(http.MethodGet, "/api/tickets/{id}", 0, time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(r.apiCalls.WithLabelValues("GET", "/api/tickets/{id}", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.apiCalls.WithLabelValues("GET", "/api/tickets/{id}", "error")))
}

func TestRecorder_ScanningSessions(t *testing.T) {
	cw := &fakeCloudWatch{}
	r := New(NewCloudWatchWithClient(cw))

	r.ScanningSessionOpened()
	r.ScanningSessionOpened()
	r.ScanningSessionClosed()

	assert.Equal(t, 1.0, testutil.ToFloat64(r.scanningSessions))
	require.Eventually(t, func() bool { return len(cw.names()) == 3 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"ScanningSessions", "ScanningSessions", "ScanningSessions"}, cw.names())
}

func TestRecorder_Handler(t *testing.T) {
	r := New(nil)
	r.ObserveScan("failed", "sales", time.Millisecond)

	w := httptest.NewRecorder()
	r.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `gate_scans_total{mode="sales",outcome="failed"} 1`)
}

func TestCloudWatch_PublishScan(t *testing.T) {
	cw := &fakeCloudWatch{}

	NewCloudWatchWithClient(cw).PublishScan("success", "verify", 250*time.Millisecond)

	require.Len(t, cw.inputs, 2)
	scan := cw.inputs[0]
	assert.Equal(t, "TicketGate", aws.StringValue(scan.Namespace))
	assert.Equal(t, "Scans", aws.StringValue(scan.MetricData[0].MetricName))
	assert.Len(t, scan.MetricData[0].Dimensions, 2)

	latency := cw.inputs[1].MetricData[0]
	assert.Equal(t, "ScanLatencyMs", aws.StringValue(latency.MetricName))
	assert.Equal(t, 250.0, aws.Float64Value(latency.Value))
	assert.Equal(t, cloudwatch.StandardUnitMilliseconds, aws.StringValue(latency.Unit))
}
