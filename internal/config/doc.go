// Package config loads per-module generator options.
//
// A module's options file is TOML (the default) or YAML, chosen by file
// extension. It carries three kinds of entries:
//
//	[general]
//	output_file_path = "../lib/libcuda.jl"
//	library_name = "libcuda"
//
//	[api]
//	checked_rettypes = ["CUresult"]
//
//	[api.cuMemAlloc.argtypes]
//	0 = "Ptr{CuPtr{Cvoid}}"
//
//	[api."cublas𝕏gemm".argtypes]
//	5 = "Ptr{T}"
//
// Function entries are keyed by exact name. Keys containing the template
// placeholder 𝕏 are template entries, consulted only when no exact entry
// applies. Argument indices are 0-based. All keys are NFC normalized.
package config
