package main

import "bitbucket.org/Davydov/scread/optimize"

// RunSummary is storing scread run summary information.
type RunSummary struct {
	// Version stores scread version.
	Version string `json:"version"`
	// RunID identifies the run, it is also stored in checkpoints.
	RunID string `json:"runID"`
	// CommandLine is an array storing binary name and all command-line parameters.
	CommandLine []string `json:"commandLine"`
	// Command is the subcommand.
	Command string `json:"command"`
	// Seed is the seed used for random number generation initialization.
	Seed int64 `json:"seed"`
	// NThreads is the number of processes used.
	NThreads int `json:"nThreads"`
	// Time is the computations time in seconds.
	Time float64 `json:"time"`
	// LnL is the final log likelihood.
	LnL float64 `json:"lnL"`
	// Model is the model summary.
	Model *ModelSummary `json:"model,omitempty"`
	// Optimizer is the summary of the optimizer, if one was used.
	Optimizer *optimize.Summary `json:"optimizer,omitempty"`
	// Calls is the number of genotype calls written.
	Calls int `json:"calls,omitempty"`
}

// ModelSummary describes the model.
type ModelSummary struct {
	Depth      string             `json:"depth"`
	Support    string             `json:"support"`
	Genotypes  string             `json:"genotypes"`
	Matrices   int                `json:"matrices"`
	Shards     int                `json:"shards"`
	Parameters map[string]float64 `json:"parameters"`
	// Discarded is the number of allele count groups with a
	// non-positive raw variance estimate.
	Discarded int `json:"discarded,omitempty"`
}
