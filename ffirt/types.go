package ffirt

import "sync"

// GType identifies a registered binding type for the life of the process.
type GType uintptr

var types = struct {
	byName map[string]GType
	names  []string
	mu     sync.Mutex
}{byName: make(map[string]GType)}

// RegisterType returns the identity token of the type called name,
// registering it on first use. Registering the same name twice yields the
// same token.
func RegisterType(name string) GType {
	types.mu.Lock()
	defer types.mu.Unlock()

	if t, ok := types.byName[name]; ok {
		return t
	}

	types.names = append(types.names, name)
	t := GType(len(types.names))
	types.byName[name] = t
	return t
}

// TypeName returns the name a token was registered with, or "" for unknown
// tokens.
func TypeName(t GType) string {
	types.mu.Lock()
	defer types.mu.Unlock()

	if t == 0 || int(t) > len(types.names) {
		return ""
	}
	return types.names[t-1]
}
