package halclient

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"
)

// Observer is notified around every request sent by the client.
// OnRequestFailure fires for transport failures and for rejected responses.
type Observer interface {
	OnRequestStart(ctx context.Context, req *http.Request)
	OnRequestFailure(ctx context.Context, req *http.Request, err error)
	OnRequestComplete(ctx context.Context, req *http.Request, resp *http.Response)
}

// ObserverFuncs adapts optional functions to Observer.
type ObserverFuncs struct {
	Start    func(ctx context.Context, req *http.Request)
	Failure  func(ctx context.Context, req *http.Request, err error)
	Complete func(ctx context.Context, req *http.Request, resp *http.Response)
}

func (o ObserverFuncs) OnRequestStart(ctx context.Context, req *http.Request) {
	if o.Start != nil {
		o.Start(ctx, req)
	}
}

func (o ObserverFuncs) OnRequestFailure(ctx context.Context, req *http.Request, err error) {
	if o.Failure != nil {
		o.Failure(ctx, req, err)
	}
}

func (o ObserverFuncs) OnRequestComplete(ctx context.Context, req *http.Request, resp *http.Response) {
	if o.Complete != nil {
		o.Complete(ctx, req, resp)
	}
}

// Observers fans notifications out in order.
type Observers []Observer

func (o Observers) OnRequestStart(ctx context.Context, req *http.Request) {
	for _, observer := range o {
		observer.OnRequestStart(ctx, req)
	}
}

func (o Observers) OnRequestFailure(ctx context.Context, req *http.Request, err error) {
	for _, observer := range o {
		observer.OnRequestFailure(ctx, req, err)
	}
}

func (o Observers) OnRequestComplete(ctx context.Context, req *http.Request, resp *http.Response) {
	for _, observer := range o {
		observer.OnRequestComplete(ctx, req, resp)
	}
}

// LoggingObserver logs requests at debug level and failures at error level.
type LoggingObserver struct {
	logger Logger
}

// NewLoggingObserver creates a logging observer.
func NewLoggingObserver(logger Logger) *LoggingObserver {
	if logger == nil {
		logger = NoOpLogger{}
	}

	return &LoggingObserver{logger: logger}
}

func (o *LoggingObserver) OnRequestStart(_ context.Context, req *http.Request) {
	o.logger.Debug("API Request", requestFields(req))
}

func (o *LoggingObserver) OnRequestFailure(_ context.Context, req *http.Request, err error) {
	fields := requestFields(req)
	fields["error"] = err.Error()

	if status := StatusCode(err); status != 0 {
		fields["status_code"] = status
	}

	o.logger.Error("API Response Error", fields)
}

func (o *LoggingObserver) OnRequestComplete(_ context.Context, req *http.Request, resp *http.Response) {
	fields := requestFields(req)
	fields["status_code"] = resp.StatusCode

	o.logger.Debug("API Response", fields)
}

func requestFields(req *http.Request) map[string]interface{} {
	return map[string]interface{}{
		"method": req.Method,
		"path":   req.URL.Path,
	}
}

// Metrics holds counters for one endpoint.
type Metrics struct {
	TotalRequests   int64
	TotalErrors     int64
	TotalLatency    time.Duration
	AverageLatency  time.Duration
	LastRequestTime time.Time
}

// MetricsCollector counts requests, errors and latency per endpoint, keyed
// by "METHOD path".
type MetricsCollector struct {
	mu       sync.Mutex
	metrics  map[string]*Metrics
	started  map[*http.Request]time.Time
	onChange func(endpoint string, metrics Metrics)
	now      func() time.Time
}

// NewMetricsCollector creates a new metrics collector.
func NewMetricsCollector() *MetricsCollector {
	return &MetricsCollector{
		metrics: make(map[string]*Metrics),
		started: make(map[*http.Request]time.Time),
		now:     time.Now,
	}
}

// SetOnChange sets a callback for when metrics change.
func (m *MetricsCollector) SetOnChange(fn func(endpoint string, metrics Metrics)) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.onChange = fn
}

// GetMetrics returns a snapshot for endpoint.
func (m *MetricsCollector) GetMetrics(endpoint string) (Metrics, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	metrics, ok := m.metrics[endpoint]
	if !ok {
		return Metrics{}, false
	}

	return *metrics, true
}

// Endpoints returns the endpoints seen so far.
func (m *MetricsCollector) Endpoints() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	endpoints := make([]string, 0, len(m.metrics))
	for endpoint := range m.metrics {
		endpoints = append(endpoints, endpoint)
	}

	return endpoints
}

func (m *MetricsCollector) OnRequestStart(_ context.Context, req *http.Request) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.started[req] = m.now()
}

// OnRequestFailure counts an error. A response that completed and was then
// rejected has already been counted as a request.
func (m *MetricsCollector) OnRequestFailure(_ context.Context, req *http.Request, _ error) {
	m.record(req, true)
}

func (m *MetricsCollector) OnRequestComplete(_ context.Context, req *http.Request, _ *http.Response) {
	m.record(req, false)
}

func (m *MetricsCollector) record(req *http.Request, failed bool) {
	m.mu.Lock()

	endpoint := fmt.Sprintf("%s %s", req.Method, req.URL.Path)

	metrics, ok := m.metrics[endpoint]
	if !ok {
		metrics = &Metrics{}
		m.metrics[endpoint] = metrics
	}

	now := m.now()

	start, inFlight := m.started[req]
	if inFlight {
		delete(m.started, req)

		metrics.TotalRequests++
		metrics.LastRequestTime = now
		metrics.TotalLatency += now.Sub(start)
		metrics.AverageLatency = metrics.TotalLatency / time.Duration(metrics.TotalRequests)
	}

	if failed {
		metrics.TotalErrors++
	}

	snapshot := *metrics
	onChange := m.onChange

	m.mu.Unlock()

	if onChange != nil {
		onChange(endpoint, snapshot)
	}
}
