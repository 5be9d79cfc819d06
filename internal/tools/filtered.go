package tools

import "fmt"

// Filtered returns a read-only view of reg restricted by an allowlist and a
// blocklist. An empty allowlist admits every tool not blocked; the blocklist
// always wins.
func Filtered(reg Registry, allow, block []string) Registry {
	allowed := make(map[string]bool, len(allow))
	for _, name := range allow {
		allowed[name] = true
	}
	blocked := make(map[string]bool, len(block))
	for _, name := range block {
		blocked[name] = true
	}
	return &filteredRegistry{inner: reg, allowed: allowed, blocked: blocked}
}

type filteredRegistry struct {
	inner   Registry
	allowed map[string]bool
	blocked map[string]bool
}

func (f *filteredRegistry) admits(name string) bool {
	if f.blocked[name] {
		return false
	}
	if len(f.allowed) == 0 {
		return true
	}
	return f.allowed[name]
}

func (f *filteredRegistry) Register(ToolExecutor) error {
	return fmt.Errorf("filtered registry is read-only")
}

func (f *filteredRegistry) Unregister(string) error {
	return fmt.Errorf("filtered registry is read-only")
}

func (f *filteredRegistry) Get(name string) (ToolExecutor, error) {
	if !f.admits(name) {
		return nil, fmt.Errorf("tool not permitted: %s", name)
	}
	return f.inner.Get(name)
}

func (f *filteredRegistry) List() []ToolDefinition {
	all := f.inner.List()
	defs := make([]ToolDefinition, 0, len(all))
	for _, def := range all {
		if f.admits(def.Name) {
			defs = append(defs, def)
		}
	}
	return defs
}
