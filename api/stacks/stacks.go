// Package stacks knows the language stacks apps are built with and the
// versions supported for each of them.
package stacks

import (
	_ "embed"
	"fmt"
	"slices"
	"sort"

	"gopkg.in/yaml.v3"
)

// Nginx serves static files and has no version.
const Nginx = "nginx"

//go:embed versions.yaml
var defaultVersions []byte

// Table maps every known stack to its versions, oldest first.
type Table struct {
	versions map[string][]string
}

// Load parses a YAML document mapping stack names to version lists.
func Load(data []byte) (*Table, error) {
	versions := map[string][]string{}
	if err := yaml.Unmarshal(data, &versions); err != nil {
		return nil, fmt.Errorf("parse stack versions: %w", err)
	}
	return &Table{versions: versions}, nil
}

// Default returns the table shipped with the binary.
func Default() *Table {
	t, err := Load(defaultVersions)
	if err != nil {
		panic(err)
	}
	return t
}

func (t *Table) Known(stack string) bool {
	_, ok := t.versions[stack]
	return ok
}

// Stacks returns the known stack names in alphabetical order.
func (t *Table) Stacks() []string {
	names := make([]string, 0, len(t.versions))
	for name := range t.versions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (t *Table) Versions(stack string) []string {
	return slices.Clone(t.versions[stack])
}

// Latest returns the newest version of stack. It is false for unknown stacks
// and for stacks without versions.
func (t *Table) Latest(stack string) (string, bool) {
	versions := t.versions[stack]
	if len(versions) == 0 {
		return "", false
	}
	return versions[len(versions)-1], true
}

// Resolve returns the version an app of stack is built with. An empty
// version resolves to the latest one; nginx always resolves to no version.
func (t *Table) Resolve(stack, version string) (string, error) {
	versions, ok := t.versions[stack]
	if !ok {
		return "", fmt.Errorf("unknown stack %s, supported stacks are %v", stack, t.Stacks())
	}
	if stack == Nginx {
		return "", nil
	}
	if version == "" {
		latest, _ := t.Latest(stack)
		return latest, nil
	}
	if !slices.Contains(versions, version) {
		return "", fmt.Errorf("invalid version for %s. Only the following versions are supported: %v", stack, versions)
	}
	return version, nil
}
