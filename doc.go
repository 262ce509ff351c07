// Package docmerge merges heterogeneous document batches into a single artifact.
//
// # Quick Start
//
// Create a merger, merge a batch of files, and inspect the result:
//
//	m, err := docmerge.NewMerger()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	result, err := m.Merge(ctx, docmerge.MergeRequest{
//	    Files: []docmerge.InputFile{
//	        {OriginalName: "report.docx", Path: "/uploads/report.docx"},
//	        {OriginalName: "data.csv", Path: "/uploads/data.csv"},
//	    },
//	    OutputFormat: docmerge.FormatPDF,
//	    DocumentName: "quarterly-review",
//	})
//
// The result describes the written artifact: filename, byte size, per-file
// validation results, performance metrics, and a 0-100 integrity score.
//
// # Pipeline
//
// A merge request flows through these stages:
//
//  1. Pre-flight validation of every input file (fail-fast)
//  2. Merge-order resolution and grouping by detected type
//  3. Per-file conversion to PDF fragments, executed by the resource
//     governor in concurrency-bounded batches
//  4. Assembly of fragments into the final artifact (pdf, docx, or zip)
//  5. Output validation and integrity scoring
//  6. Guaranteed cleanup of inputs and transient fragments
//
// Each converter tries an ordered chain of strategies of decreasing
// fidelity: a system-installed office engine first, then a structural parse
// of the document's native representation, then a descriptive placeholder
// page. A conversion therefore never fails the request outright.
//
// # Configuration
//
// Use functional options to customize the merger:
//
//	m, err := docmerge.NewMerger(
//	    docmerge.WithEngineTimeout(2 * time.Minute),
//	    docmerge.WithOutputDir("/srv/output"),
//	    docmerge.WithGovernorConfig(docmerge.GovernorConfig{BatchSize: 4}),
//	)
//
// The merger owns the lifetime of every input path it is handed: originals
// and intermediate fragments are deleted when Merge returns, on both the
// success and failure paths.
package docmerge
