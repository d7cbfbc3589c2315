// File: metrics/cloudwatch.go
package metrics

import (
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/cloudwatch"
	"github.com/aws/aws-sdk-go/service/cloudwatch/cloudwatchiface"
	"ticket-gate/logger"
)

// Namespace for all gate metrics
const metricsNamespace = "TicketGate"

// CloudWatch pushes gate metrics with PutMetricData.
type CloudWatch struct {
	client    cloudwatchiface.CloudWatchAPI
	namespace string
}

// NewCloudWatch uses the default AWS credential chain and region.
func NewCloudWatch() (*CloudWatch, error) {
	sess, err := session.NewSession()
	if err != nil {
		return nil, err
	}
	return NewCloudWatchWithClient(cloudwatch.New(sess)), nil
}

// NewCloudWatchWithClient wraps an existing client.
func NewCloudWatchWithClient(client cloudwatchiface.CloudWatchAPI) *CloudWatch {
	return &CloudWatch{client: client, namespace: metricsNamespace}
}

// PublishScan pushes one scan outcome and its latency.
func (cw *CloudWatch) PublishScan(outcome, mode string, elapsed time.Duration) {
	dims := map[string]string{"Outcome": outcome, "Mode": mode}
	cw.putMetric("Scans", 1, cloudwatch.StandardUnitCount, dims)
	cw.putMetric("ScanLatencyMs", float64(elapsed.Milliseconds()), cloudwatch.StandardUnitMilliseconds,
		map[string]string{"Mode": mode})
}

// PublishScanningSessions pushes the open scanner connection count.
func (cw *CloudWatch) PublishScanningSessions(count int) {
	cw.putMetric("ScanningSessions", float64(count), cloudwatch.StandardUnitCount, nil)
}

// -----------------------------------------------------------
// internal helper function to package up CloudWatch calls
// -----------------------------------------------------------
func (cw *CloudWatch) putMetric(metricName string, value float64, unit string, dims map[string]string) {
	dimensions := make([]*cloudwatch.Dimension, 0, len(dims))
	for name, v := range dims {
		dimensions = append(dimensions, &cloudwatch.Dimension{
			Name:  aws.String(name),
			Value: aws.String(v),
		})
	}

	_, err := cw.client.PutMetricData(&cloudwatch.PutMetricDataInput{
		Namespace: aws.String(cw.namespace),
		MetricData: []*cloudwatch.MetricDatum{
			{
				MetricName: aws.String(metricName),
				Dimensions: dimensions,
				Timestamp:  aws.Time(time.Now()),
				Value:      aws.Float64(value),
				Unit:       aws.String(unit),
			},
		},
	})
	if err != nil {
		logger.Error.Printf("[putMetric] CloudWatch metric failed (%s): %v", metricName, err)
	}
}
