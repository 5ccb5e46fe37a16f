package script

// Namespace is the ordered set of variables a script runs against.
// Names keep the position of their first insertion; re-setting a name
// updates its value in place.
type Namespace struct {
	names  []string
	values map[string]any
}

// NewNamespace returns an empty namespace.
func NewNamespace() *Namespace {
	return &Namespace{values: make(map[string]any)}
}

// Set binds name to value.
func (ns *Namespace) Set(name string, value any) {
	if _, ok := ns.values[name]; !ok {
		ns.names = append(ns.names, name)
	}
	ns.values[name] = value
}

// SetDefault binds name only when it is not bound yet and reports whether
// it did.
func (ns *Namespace) SetDefault(name string, value any) bool {
	if _, ok := ns.values[name]; ok {
		return false
	}
	ns.Set(name, value)
	return true
}

// Get returns the value bound to name.
func (ns *Namespace) Get(name string) (any, bool) {
	v, ok := ns.values[name]
	return v, ok
}

// Has reports whether name is bound.
func (ns *Namespace) Has(name string) bool {
	_, ok := ns.values[name]
	return ok
}

// Names returns the bound names in discovery order.
func (ns *Namespace) Names() []string {
	out := make([]string, len(ns.names))
	copy(out, ns.names)
	return out
}

// Len returns the number of bound names.
func (ns *Namespace) Len() int { return len(ns.names) }

// Map returns a copy of the bindings.
func (ns *Namespace) Map() map[string]any {
	out := make(map[string]any, len(ns.values))
	for k, v := range ns.values {
		out[k] = v
	}
	return out
}
