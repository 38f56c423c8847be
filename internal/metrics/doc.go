// Package metrics provides observability hooks for content build cycles.
//
// Components receive a Recorder through dependency injection and default to
// NoopRecorder, so metrics collection never needs nil checks:
//
//	runner := pipeline.NewRunner(src, deriver, writer, pipeline.WithRecorder(metrics.NoopRecorder{}))
//
// The dev server swaps in a PrometheusRecorder and exposes its registry with
// HTTPHandler on /metrics.
package metrics
