// Package dist describes where this process sits in a distributed run.
//
// The identity is read once from the environment by the entrypoint and then
// passed explicitly to the components that gate single-writer work on it.
package dist

import (
	"fmt"
	"os"
	"strconv"
)

// Environment variables set by the launcher for every worker process.
const (
	EnvGlobalRank = "RANK"
	EnvLocalRank  = "LOCAL_RANK"
	EnvWorldSize  = "WORLD_SIZE"
)

// Identity is a worker's position in a distributed run.
type Identity struct {
	GlobalRank int
	LocalRank  int
	WorldSize  int
}

// Single is the identity of a non-distributed run.
var Single = Identity{GlobalRank: 0, LocalRank: 0, WorldSize: 1}

// IsLeader reports whether this process performs single-writer operations.
func (id Identity) IsLeader() bool { return id.GlobalRank == 0 }

// IsLocalLeader reports whether this process is the first on its node.
func (id Identity) IsLocalLeader() bool { return id.LocalRank == 0 }

func (id Identity) String() string {
	return fmt.Sprintf("rank%d/%d (local %d)", id.GlobalRank, id.WorldSize, id.LocalRank)
}

// Validate checks that the ranks fit inside the world size.
func (id Identity) Validate() error {
	if id.WorldSize < 1 {
		return fmt.Errorf("%s must be >= 1, got %d", EnvWorldSize, id.WorldSize)
	}
	if id.GlobalRank < 0 || id.GlobalRank >= id.WorldSize {
		return fmt.Errorf("%s must be in [0, %d), got %d", EnvGlobalRank, id.WorldSize, id.GlobalRank)
	}
	if id.LocalRank < 0 || id.LocalRank > id.GlobalRank {
		return fmt.Errorf("%s must be in [0, %d], got %d", EnvLocalRank, id.GlobalRank, id.LocalRank)
	}
	return nil
}

// FromEnv reads the identity from the process environment.
func FromEnv() (Identity, error) {
	return FromLookup(os.LookupEnv)
}

// FromLookup reads the identity through lookup. Unset variables fall back to
// a single-process run.
func FromLookup(lookup func(string) (string, bool)) (Identity, error) {
	id := Single
	var err error
	if id.GlobalRank, err = intVar(lookup, EnvGlobalRank, id.GlobalRank); err != nil {
		return Identity{}, err
	}
	if id.LocalRank, err = intVar(lookup, EnvLocalRank, id.LocalRank); err != nil {
		return Identity{}, err
	}
	if id.WorldSize, err = intVar(lookup, EnvWorldSize, id.WorldSize); err != nil {
		return Identity{}, err
	}
	if err := id.Validate(); err != nil {
		return Identity{}, err
	}
	return id, nil
}

func intVar(lookup func(string) (string, bool), key string, def int) (int, error) {
	raw, ok := lookup(key)
	if !ok || raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s=%q: %w", key, raw, err)
	}
	return v, nil
}
