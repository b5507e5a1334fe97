package domain

import "time"

const SandboxRuntime = "react-18-iframe"

// SandboxConfig describes the environment a compiled artifact expects.
type SandboxConfig struct {
	Runtime        string    `json:"runtime"`
	AllowedGlobals []string  `json:"allowedGlobals"`
	CompiledAt     time.Time `json:"compiledAt"`
}

func NewSandboxConfig(compiledAt time.Time) SandboxConfig {
	return SandboxConfig{
		Runtime:        SandboxRuntime,
		AllowedGlobals: []string{"React", "ReactDOM", "require", "module", "exports"},
		CompiledAt:     compiledAt.UTC(),
	}
}
