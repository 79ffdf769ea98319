package signature

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Pack is a YAML signature pack loaded at startup to extend the static set
// without a rebuild. Pack signatures carry OriginDynamic and match with
// identical semantics to static ones.
type Pack struct {
	Name       string       `yaml:"name"`
	Signatures []Definition `yaml:"signatures"`
}

// LoadPack parses YAML pack bytes and installs every definition in one
// snapshot swap. Any malformed definition fails the whole pack with
// ErrSignatureConfig and leaves the current snapshot untouched.
func (r *Registry) LoadPack(data []byte) error {
	var pack Pack
	if err := yaml.Unmarshal(data, &pack); err != nil {
		return fmt.Errorf("%w: pack does not parse: %v", ErrSignatureConfig, err)
	}
	if len(pack.Signatures) == 0 {
		return fmt.Errorf("%w: pack %q contains no signatures", ErrSignatureConfig, pack.Name)
	}

	compiled := make([]*Signature, 0, len(pack.Signatures))
	seen := make(map[string]bool, len(pack.Signatures))
	for _, def := range pack.Signatures {
		sig, err := compileDefinition(def, OriginDynamic)
		if err != nil {
			return fmt.Errorf("pack %q: %w", pack.Name, err)
		}
		if seen[sig.ID] {
			return fmt.Errorf("%w: pack %q repeats signature id %q", ErrSignatureConfig, pack.Name, sig.ID)
		}
		seen[sig.ID] = true
		compiled = append(compiled, sig)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	cur := r.current.Load()
	for _, sig := range compiled {
		if _, exists := cur.byID[sig.ID]; exists {
			return fmt.Errorf("%w: pack %q signature id %q already registered", ErrSignatureConfig, pack.Name, sig.ID)
		}
	}

	next := cur.clone()
	next.version = cur.version + 1
	for _, sig := range compiled {
		next.insert(sig)
	}
	r.current.Store(next)
	return nil
}

// LoadPackFile reads and installs a signature pack from disk.
func (r *Registry) LoadPackFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read signature pack %s: %w", path, err)
	}
	return r.LoadPack(data)
}
