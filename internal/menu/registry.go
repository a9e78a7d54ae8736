package menu

// Renderer holds the items one owner renders.
type Renderer struct {
	OwnerID string
	Items   []RenderedItem
}

// Registry is the ordered set of renderers produced by one partitioning
// pass. Order is the first-seen order of owners. A Registry is not
// modified once Partition returns; a new pass builds a new Registry.
type Registry struct {
	local     string
	renderers []*Renderer
	lookup    map[string]int
}

// NewRegistry creates an empty registry for the given local agent.
func NewRegistry(local string) *Registry {
	return &Registry{
		local:  local,
		lookup: make(map[string]int),
	}
}

// LocalID returns the identity of the local agent.
func (r *Registry) LocalID() string {
	return r.local
}

// renderer returns the renderer for owner, creating it on first use.
func (r *Registry) renderer(owner string) *Renderer {
	if idx, ok := r.lookup[owner]; ok {
		return r.renderers[idx]
	}
	rd := &Renderer{OwnerID: owner}
	r.lookup[owner] = len(r.renderers)
	r.renderers = append(r.renderers, rd)
	return rd
}

// Renderers returns the renderers in owner order.
func (r *Registry) Renderers() []*Renderer {
	return r.renderers
}

// Has reports whether owner has a renderer in this registry.
func (r *Registry) Has(owner string) bool {
	_, ok := r.lookup[owner]
	return ok
}

// Owners returns the owner ids in registry order.
func (r *Registry) Owners() []string {
	owners := make([]string, len(r.renderers))
	for i, rd := range r.renderers {
		owners[i] = rd.OwnerID
	}
	return owners
}

// Len returns the number of renderers.
func (r *Registry) Len() int {
	return len(r.renderers)
}

// IsLocal reports whether the renderer belongs to the local agent.
func (r *Registry) IsLocal(rd *Renderer) bool {
	return rd.OwnerID == r.local
}

// ItemCount returns the total number of rendered items across owners.
func (r *Registry) ItemCount() int {
	n := 0
	for _, rd := range r.renderers {
		n += len(rd.Items)
	}
	return n
}
