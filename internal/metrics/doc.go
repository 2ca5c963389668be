// Package metrics records aggregation and navigation metrics.
//
// Components receive a Recorder and default to NoopRecorder, so metrics cost
// nothing unless enabled. When metrics.textfile is configured the CLI installs
// a PrometheusRecorder on a private registry and writes that registry in
// node-exporter textfile format after each run:
//
//	reg := prometheus.NewRegistry()
//	rec := metrics.NewPrometheusRecorder(reg)
//	agg := aggregate.New(cfg, aggregate.WithRecorder(rec))
//	...
//	_ = metrics.WriteTextfile(reg, cfg.Metrics.Textfile)
package metrics
