package main

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// knownEnvVars lists valid DOCMERGE_* environment variables.
// Used to detect typos and warn users about unknown variables.
var knownEnvVars = map[string]bool{
	"DOCMERGE_CONFIG":         true,
	"DOCMERGE_UPLOAD_DIR":     true,
	"DOCMERGE_OUTPUT_DIR":     true,
	"DOCMERGE_TEMP_DIR":       true,
	"DOCMERGE_ENGINE":         true,
	"DOCMERGE_ENGINE_TIMEOUT": true,
	"DOCMERGE_WORKERS":        true,
	"DOCMERGE_BATCH_SIZE":     true,
}

// warnUnknownEnvVars prints a warning for any DOCMERGE_-prefixed variable
// that is not recognized, catching typos like DOCMERGE_WORKER.
func warnUnknownEnvVars(w io.Writer) {
	for _, kv := range os.Environ() {
		name, _, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(name, "DOCMERGE_") {
			continue
		}
		if !knownEnvVars[name] {
			fmt.Fprintf(w, "Warning: unknown environment variable %s (typo?)\n", name)
		}
	}
}
