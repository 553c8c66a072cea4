package session

import (
	"os"
	"path/filepath"
	"strings"

	"screenpilot/internal/errors"
)

// PutTemplate stores uploaded template bytes under a caller-chosen name and
// returns the reference steps should use. Names are flattened to their base
// so uploads cannot escape the template directory.
func (s *Session) PutTemplate(name string, data []byte) (string, error) {
	name = filepath.Base(strings.TrimSpace(name))
	if name == "" || name == "." || name == string(filepath.Separator) {
		return "", errors.New(errors.InvalidParams, "template name required")
	}
	if len(data) == 0 {
		return "", errors.New(errors.InvalidTemplate, "template data is empty")
	}
	path := filepath.Join(s.templateDir(), name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", errors.Wrapf(err, errors.Internal, "store template %q", name)
	}
	return name, nil
}

// ListTemplates returns the names of stored templates.
func (s *Session) ListTemplates() ([]string, error) {
	entries, err := os.ReadDir(s.templateDir())
	if err != nil {
		return nil, errors.Wrap(err, errors.Internal, "list templates")
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	return names, nil
}

// templateResolver resolves a step's template reference. Bare names resolve
// against the session template directory; absolute paths are read directly,
// which keeps scenario files portable between headless and server use.
type templateResolver struct {
	dir string
}

func (r templateResolver) Resolve(ref string) ([]byte, error) {
	path := ref
	if !filepath.IsAbs(ref) {
		path = filepath.Join(r.dir, filepath.Base(ref))
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, errors.InvalidTemplate, "read template %q", ref)
	}
	return data, nil
}
