package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"

	docmerge "github.com/alnah/go-docmerge"
	"github.com/alnah/go-docmerge/internal/fileutil"
)

// doctorResult holds all diagnostic information.
type doctorResult struct {
	Status   string     `json:"status"` // "ready", "warnings", "errors"
	Engine   engineInfo `json:"engine"`
	Env      envInfo    `json:"environment"`
	System   systemInfo `json:"system"`
	Warnings []string   `json:"warnings,omitempty"`
	Errors   []string   `json:"errors,omitempty"`
}

// engineInfo holds conversion-engine detection results.
type engineInfo struct {
	Found  bool   `json:"found"`
	Binary string `json:"binary"`
	Path   string `json:"path,omitempty"`
}

// envInfo holds environment detection results.
type envInfo struct {
	OS        string `json:"os"`
	Arch      string `json:"arch"`
	MaxProcs  int    `json:"maxprocs"`
	EngineEnv string `json:"docmerge_engine"`
}

// systemInfo holds system check results.
type systemInfo struct {
	TempWritable bool `json:"temp_writable"`
}

// runDoctorCmd executes the doctor command and returns an exit code.
// Exit codes: 0 = OK (including warnings), 1 = errors found.
func runDoctorCmd(flags *cliFlags, out io.Writer) int {
	result := runDoctor(flags)

	if flags.jsonOut {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		_ = enc.Encode(result)
	} else {
		printDoctorResult(out, result)
	}

	if result.Status == "errors" {
		return ExitGeneral
	}
	return ExitSuccess
}

// runDoctor performs all diagnostic checks.
func runDoctor(flags *cliFlags) *doctorResult {
	result := &doctorResult{
		Status: "ready",
		Env: envInfo{
			OS:        runtime.GOOS,
			Arch:      runtime.GOARCH,
			MaxProcs:  runtime.GOMAXPROCS(0),
			EngineEnv: os.Getenv("DOCMERGE_ENGINE"),
		},
	}

	checkEngine(flags, result)
	checkSystem(result)

	if len(result.Errors) > 0 {
		result.Status = "errors"
	} else if len(result.Warnings) > 0 {
		result.Status = "warnings"
	}
	return result
}

// checkEngine probes for the external conversion engine. A missing engine
// is a warning, not an error: the structural and placeholder strategies
// still produce output.
func checkEngine(flags *cliFlags, result *doctorResult) {
	binary := flags.engine
	if binary == "" {
		binary = os.Getenv("DOCMERGE_ENGINE")
	}
	if binary == "" {
		binary = docmerge.DefaultConfig().Engine.Binary
	}
	result.Engine.Binary = binary

	probe := docmerge.NewEngineProbe(binary)
	if probe.Available() {
		result.Engine.Found = true
		result.Engine.Path = probe.Path()
		return
	}

	// LibreOffice installs sometimes miss PATH; check the common spots.
	for _, candidate := range []string{"/usr/bin/soffice", "/usr/local/bin/soffice", "/opt/libreoffice/program/soffice"} {
		if _, err := exec.LookPath(candidate); err == nil {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("engine found at %s but not on PATH as %q", candidate, binary))
			return
		}
	}

	result.Warnings = append(result.Warnings,
		fmt.Sprintf("conversion engine %q not found; office documents will use fallback strategies", binary))
}

// checkSystem verifies the temp directory is writable.
func checkSystem(result *doctorResult) {
	_, cleanup, err := fileutil.WriteTempFile(os.TempDir(), "ok", "tmp")
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("temp directory not writable: %v", err))
		return
	}
	cleanup()
	result.System.TempWritable = true
}

// printDoctorResult writes a human-readable report.
func printDoctorResult(w io.Writer, result *doctorResult) {
	fmt.Fprintf(w, "docmerge doctor\n\n")

	engineStatus := "not found (fallback strategies active)"
	if result.Engine.Found {
		engineStatus = result.Engine.Path
	}
	fmt.Fprintf(w, "  engine (%s):  %s\n", result.Engine.Binary, engineStatus)
	fmt.Fprintf(w, "  platform:     %s/%s (GOMAXPROCS=%d)\n", result.Env.OS, result.Env.Arch, result.Env.MaxProcs)
	fmt.Fprintf(w, "  temp dir:     writable=%v\n", result.System.TempWritable)

	for _, warn := range result.Warnings {
		fmt.Fprintf(w, "\n  warning: %s\n", warn)
	}
	for _, e := range result.Errors {
		fmt.Fprintf(w, "\n  error: %s\n", e)
	}

	fmt.Fprintf(w, "\nStatus: %s\n", result.Status)
}
