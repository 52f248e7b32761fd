package domain

import "fmt"

// NetworkMode classifies the active network
type NetworkMode string

const (
	// ModeProduction is a live network: no test effects, test-only steps are skipped
	ModeProduction NetworkMode = "production"
	// ModeProductionFork is a fork of a live network used to rehearse migrations
	ModeProductionFork NetworkMode = "production-fork"
	// ModeDevelopment is a fresh local chain
	ModeDevelopment NetworkMode = "development"
)

// ParseNetworkMode validates a configured mode; empty means development
func ParseNetworkMode(s string) (NetworkMode, error) {
	switch NetworkMode(s) {
	case "":
		return ModeDevelopment, nil
	case ModeProduction, ModeProductionFork, ModeDevelopment:
		return NetworkMode(s), nil
	}
	return "", fmt.Errorf("invalid network mode %q (want production, production-fork or development)", s)
}

// IsProduction reports whether the mode is a live network
func (m NetworkMode) IsProduction() bool {
	return m == ModeProduction
}

// AllowsTestEffects reports whether minting test supply and resetting artifacts are permitted
func (m NetworkMode) AllowsTestEffects() bool {
	return m != ModeProduction
}
