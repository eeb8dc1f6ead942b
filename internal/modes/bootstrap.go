package modes

import (
	"io"
	"os"
	"path/filepath"

	"minerva/pkg/logger"
)

// EnsureConfigFiles makes sure every phase has a configuration document
// before the first run. Files are seeded from installDir when a default
// ships there, otherwise from the built-in role sets. Existing files are
// never touched, protecting user edits.
func EnsureConfigFiles(resolver *Resolver, installDir string) error {
	log := logger.Get().With("component", "modes_bootstrap")

	seeded := 0
	skipped := 0

	for phaseID := 1; phaseID <= 4; phaseID++ {
		path := resolver.Path(phaseID)

		if _, err := os.Stat(path); err == nil {
			skipped++
			continue
		}

		if installDir != "" {
			src := filepath.Join(installDir, filepath.Base(path))
			if copied, err := copyIfPresent(src, path); err != nil {
				return err
			} else if copied {
				log.Infof("Seeded phase %d config from %s", phaseID, src)
				seeded++
				continue
			}
		}

		roles, ok := DefaultRoleSets[phaseID]
		if !ok {
			continue
		}
		if _, err := resolver.ValidateAndSave(phaseID, roles); err != nil {
			return err
		}
		log.Infof("Seeded phase %d config with built-in defaults (%d roles)", phaseID, len(roles))
		seeded++
	}

	log.Infof("Config bootstrap done: %d seeded, %d already present", seeded, skipped)
	return nil
}

func copyIfPresent(src, dst string) (bool, error) {
	in, err := os.Open(src)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	defer func() { _ = in.Close() }()

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return false, err
	}

	out, err := os.Create(dst)
	if err != nil {
		return false, err
	}
	defer func() { _ = out.Close() }()

	if _, err := io.Copy(out, in); err != nil {
		return false, err
	}
	return true, nil
}
