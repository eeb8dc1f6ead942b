package modes

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultRoleSetsAreValid(t *testing.T) {
	require.Len(t, DefaultRoleSets, 4)
	for phaseID, roles := range DefaultRoleSets {
		assert.NoError(t, Validate(roles), "phase %d defaults must validate", phaseID)
		assert.NotEmpty(t, roles, "phase %d defaults must not be empty", phaseID)
	}
}

func TestEnsureConfigFiles_SeedsDefaults(t *testing.T) {
	r := NewResolver(t.TempDir())

	require.NoError(t, EnsureConfigFiles(r, ""))

	for phaseID := 1; phaseID <= 4; phaseID++ {
		set, err := r.Resolve(phaseID)
		require.NoError(t, err)
		assert.True(t, set.Exists, "phase %d config must exist after bootstrap", phaseID)
		assert.Equal(t, len(DefaultRoleSets[phaseID]), len(set.Roles))
	}
}

func TestEnsureConfigFiles_NeverOverwritesExisting(t *testing.T) {
	r := NewResolver(t.TempDir())

	custom := []AgentRoleConfig{
		{Slug: "custom-analyst", Name: "Custom Analyst", RoleDefinition: "Custom role."},
	}
	_, err := r.ValidateAndSave(1, custom)
	require.NoError(t, err)

	require.NoError(t, EnsureConfigFiles(r, ""))

	set, err := r.Resolve(1)
	require.NoError(t, err)
	assert.Equal(t, []string{"custom-analyst"}, set.Slugs())
}

func TestEnsureConfigFiles_PrefersInstallDir(t *testing.T) {
	installDir := t.TempDir()
	r := NewResolver(t.TempDir())

	// Install a packaged phase-1 config, leave the rest to defaults
	installed := NewResolver(installDir)
	_, err := installed.ValidateAndSave(1, []AgentRoleConfig{
		{Slug: "packaged-analyst", Name: "Packaged Analyst", RoleDefinition: "Packaged role."},
	})
	require.NoError(t, err)

	require.NoError(t, EnsureConfigFiles(r, installDir))

	set, err := r.Resolve(1)
	require.NoError(t, err)
	assert.Equal(t, []string{"packaged-analyst"}, set.Slugs())

	set2, err := r.Resolve(2)
	require.NoError(t, err)
	assert.Equal(t, len(DefaultRoleSets[2]), len(set2.Roles))
}

func TestEnsureConfigFiles_CopiedFileIsByteIdentical(t *testing.T) {
	installDir := t.TempDir()
	configDir := t.TempDir()

	srcPath := filepath.Join(installDir, "phase1_agents_config.yaml")
	content := []byte("customModes:\n  - slug: packaged-analyst\n    name: Packaged Analyst\n    roleDefinition: Packaged role.\n")
	require.NoError(t, os.WriteFile(srcPath, content, 0o644))

	r := NewResolver(configDir)
	require.NoError(t, EnsureConfigFiles(r, installDir))

	copied, err := os.ReadFile(filepath.Join(configDir, "phase1_agents_config.yaml"))
	require.NoError(t, err)
	assert.Equal(t, content, copied)
}
