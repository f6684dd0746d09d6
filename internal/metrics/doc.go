// Package metrics records what each generation run did.
//
// Components receive a Recorder through dependency injection and default to
// NoopRecorder, so metrics stay optional and callers never nil-check:
//
//	p := pipeline.New(opts, w)                          // NoopRecorder
//	p := pipeline.New(opts, w, pipeline.WithRecorder(r)) // Prometheus
//
// A CLI run is short-lived, so instead of serving a scrape endpoint the
// registry is dumped in the text exposition format with WriteTextfile, ready
// for the node_exporter textfile collector.
package metrics
