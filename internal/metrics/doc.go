// Package metrics records task, stage and per-target compile metrics.
//
// Components receive a Recorder and default to NoopRecorder, so metrics are
// only collected when a project configures metrics.textfile. The
// PrometheusRecorder registers its collectors on a private registry which
// WriteTextfile dumps in the node_exporter textfile format at the end of a
// run; a one-shot CLI has nothing to serve a scrape endpoint from.
package metrics
