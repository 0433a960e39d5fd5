// Package harness runs generation scenarios for conformance testing.
//
// A scenario carries everything one module needs: header files, the
// module's options file and its registry fields. The harness writes them
// to a scratch directory, generates the module through the real engine and
// evaluates the scenario's assertions against the artifact, the rewrite
// statistics and the diagnostics recorded in the generation log.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: nvml_checked
//	description: "Checked return types get @checked"
//	module: nvml
//	headers:
//	  - path: include/nvml.h
//	    content: |
//	      typedef int nvmlReturn_t;
//	      nvmlReturn_t nvmlInit_v2(void);
//	targets: [nvml.h]
//	config: |
//	  [general]
//	  output_file_path = "libnvml.jl"
//	  library_name = "libnvml"
//	  [api]
//	  checked_rettypes = ["nvmlReturn_t"]
//	assertions:
//	  - type: output_contains
//	    text: "@checked function nvmlInit_v2()"
//	  - type: stat
//	    stat: checked
//	    count: 1
//
// # Assertion Types
//
//   - output_contains: the artifact contains text
//   - output_omits: the artifact does not contain text
//   - stat: a rewrite statistic equals count, or is at least count with at_least: true
//   - diagnostic: a diagnostic of kind (and symbol, if set) was recorded
//   - diagnostic_count: exactly count diagnostics of kind were recorded
//   - module_failed: the module failed in phase, with message in its error
//
// # Deterministic Testing
//
// Every scenario runs in a fresh scratch directory against an in-memory
// generation log, with a fixed run ID and the built-in tidy formatter in
// place of any format_command. The same scenario always produces the same
// artifact, so artifacts can be compared against golden files.
//
// # Usage
//
//	scenario, err := harness.LoadScenario("testdata/scenarios/nvml.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	h, err := harness.NewDefault()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result, err := h.Run(ctx, scenario)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if !result.Pass {
//	    for _, e := range result.Errors {
//	        log.Println(e)
//	    }
//	}
package harness
