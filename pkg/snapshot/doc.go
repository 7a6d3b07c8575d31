// Package snapshot exports materialized reactive state as JSON.
//
// An Exporter reads a tree of signals, computeds and observable
// collections through materialize.MapSignals, encodes the plain result and
// hands the bytes to a Sink:
//
//	exp := snapshot.NewExporter(snapshot.NewDirSink("./snapshots", 0))
//	err := exp.Export(ctx, "store", map[string]any{"todos": todos})
//
// Sinks are provided for any io.Writer, a local directory and S3.
package snapshot
