// Package metrics provides build metrics for docmerge.
//
// Components receive a Recorder and default to NoopRecorder, so metrics
// collection never needs nil checks at call sites:
//
//	composer := compose.New(syncer, compose.WithRecorder(metrics.NoopRecorder{}))
//
// When a metrics textfile is configured the CLI swaps in a
// PrometheusRecorder and writes its registry with WriteTextfile after the
// build finishes. The textfile format is the one consumed by the
// node-exporter textfile collector.
package metrics
