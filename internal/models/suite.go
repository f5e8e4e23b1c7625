package models

// SuiteRun is one entry of a suite file. Omitted fields fall back to
// the batch-level values.
type SuiteRun struct {
	RunName string `json:"run_name" yaml:"run_name"`
	EnvID   string `json:"env_id,omitempty" yaml:"env_id,omitempty"`
	Variant string `json:"variant,omitempty" yaml:"variant,omitempty"`
	Seed    *int   `json:"seed,omitempty" yaml:"seed,omitempty"`
}

type SuiteFile struct {
	Runs []SuiteRun `json:"runs" yaml:"runs"`
}
