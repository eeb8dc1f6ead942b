package modes

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"

	"minerva/pkg/errors"
	"minerva/pkg/logger"
)

// phaseConfigDoc mirrors the on-disk YAML document. The customModes key name
// is part of the persisted format shared with the configuration UI.
type phaseConfigDoc struct {
	CustomModes []AgentRoleConfig `yaml:"customModes"`
}

// Resolver loads and persists per-phase agent role configuration documents
// (phaseN_agents_config.yaml under the configured directory).
type Resolver struct {
	dir string
	mu  sync.Mutex
	log *logger.Logger
}

// NewResolver creates a resolver rooted at dir.
func NewResolver(dir string) *Resolver {
	return &Resolver{
		dir: dir,
		log: logger.Get().With("component", "modes_resolver"),
	}
}

// Path returns the configuration file path for a phase.
func (r *Resolver) Path(phaseID int) string {
	return filepath.Join(r.dir, fmt.Sprintf("phase%d_agents_config.yaml", phaseID))
}

// Resolve loads a phase's role set. A missing file is not an error: the set
// comes back with Exists=false and no roles, signaling create-on-first-save
// semantics to callers.
func (r *Resolver) Resolve(phaseID int) (*PhaseAgentSet, error) {
	path := r.Path(phaseID)
	set := &PhaseAgentSet{PhaseID: phaseID, Path: path}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			r.log.Debugf("Phase %d config absent at %s", phaseID, path)
			return set, nil
		}
		return nil, errors.Wrapf(err, "read phase %d config", phaseID)
	}

	var doc phaseConfigDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrapf(errors.ErrConfiguration, "parse %s: %v", path, err)
	}

	set.Exists = true
	set.Roles = doc.CustomModes
	return set, nil
}

// ValidateAndSave validates the whole role set and, only if every rule
// passes, atomically replaces the phase's configuration document. On any
// validation failure nothing is persisted.
func (r *Resolver) ValidateAndSave(phaseID int, roles []AgentRoleConfig) (*PhaseAgentSet, error) {
	if err := Validate(roles); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	path := r.Path(phaseID)
	data, err := yaml.Marshal(phaseConfigDoc{CustomModes: roles})
	if err != nil {
		return nil, errors.Wrapf(err, "marshal phase %d config", phaseID)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, errors.Wrapf(err, "create config dir for phase %d", phaseID)
	}

	// Write to a temp file in the same directory, then rename over the
	// target so readers never observe a partial document.
	tmp, err := os.CreateTemp(filepath.Dir(path), ".phase_config_*.yaml")
	if err != nil {
		return nil, errors.Wrapf(err, "create temp config for phase %d", phaseID)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return nil, errors.Wrapf(err, "write temp config for phase %d", phaseID)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return nil, errors.Wrapf(err, "close temp config for phase %d", phaseID)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return nil, errors.Wrapf(err, "replace config for phase %d", phaseID)
	}

	r.log.Infof("Saved phase %d agent config (%d roles) to %s", phaseID, len(roles), path)

	return &PhaseAgentSet{PhaseID: phaseID, Path: path, Exists: true, Roles: roles}, nil
}

// Validate applies the save rules in a fixed order across the whole set:
// every slug non-empty, slugs pairwise unique, every name non-empty, every
// role definition non-empty. The first violation is returned.
func Validate(roles []AgentRoleConfig) error {
	for i, role := range roles {
		if role.Slug == "" {
			return errors.NewValidationError("", i, "slug is required")
		}
	}

	seen := make(map[string]int, len(roles))
	for i, role := range roles {
		if first, dup := seen[role.Slug]; dup {
			return errors.NewValidationError(role.Slug, i,
				fmt.Sprintf("duplicate slug (first declared at index %d)", first))
		}
		seen[role.Slug] = i
	}

	for i, role := range roles {
		if role.Name == "" {
			return errors.NewValidationError(role.Slug, i, "name is required")
		}
	}

	for i, role := range roles {
		if role.RoleDefinition == "" {
			return errors.NewValidationError(role.Slug, i, "roleDefinition is required")
		}
	}

	return nil
}
