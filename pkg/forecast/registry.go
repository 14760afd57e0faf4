package forecast

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// ErrModelNotFound is returned when a named model's job descriptor cannot be
// loaded.
var ErrModelNotFound = errors.New("model artifact not found")

// descriptorFile is the serialized job descriptor inside each model dir.
const descriptorFile = "pj.json"

// Registry lists and loads trained model artifacts. Each model is a
// directory under the registry root holding its job descriptor; the listing
// is re-scanned on every call rather than cached.
type Registry struct {
	dir string
}

// NewRegistry creates a registry rooted at the given directory.
func NewRegistry(dir string) *Registry {
	return &Registry{dir: dir}
}

// List returns the available model names, sorted. A missing registry
// directory is an empty listing, not an error.
func (r *Registry) List() ([]string, error) {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to list models: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// Load reads the job descriptor for a named model.
func (r *Registry) Load(name string) (JobDescriptor, error) {
	data, err := os.ReadFile(filepath.Join(r.dir, name, descriptorFile))
	if err != nil {
		if os.IsNotExist(err) {
			return JobDescriptor{}, fmt.Errorf("%w: %s", ErrModelNotFound, name)
		}
		return JobDescriptor{}, fmt.Errorf("failed to read job descriptor for %s: %w", name, err)
	}

	var job JobDescriptor
	if err := json.Unmarshal(data, &job); err != nil {
		return JobDescriptor{}, fmt.Errorf("corrupt job descriptor for %s: %w", name, err)
	}
	return job, nil
}

// Save persists a job descriptor under the model's directory, creating it if
// needed.
func (r *Registry) Save(name string, job JobDescriptor) error {
	dir := filepath.Join(r.dir, name)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create model directory: %w", err)
	}

	data, err := json.MarshalIndent(job, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(dir, descriptorFile), data, 0644); err != nil {
		return fmt.Errorf("failed to write job descriptor: %w", err)
	}
	return nil
}
