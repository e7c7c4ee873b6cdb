package model

// Pool names one of the candidate pools entities are resolved against.
type Pool string

const (
	PoolVendors  Pool = "vendor" // workers and vendors
	PoolClients  Pool = "client"
	PoolProjects Pool = "project"
)

// ParsePool accepts the pool names used in seed files and CLI flags.
func ParsePool(s string) (Pool, bool) {
	switch s {
	case "vendor", "vendors", "worker", "workers":
		return PoolVendors, true
	case "client", "clients":
		return PoolClients, true
	case "project", "projects":
		return PoolProjects, true
	}
	return "", false
}

// AliasMatch controls how an alias is compared against input text.
type AliasMatch string

const (
	AliasExact    AliasMatch = "exact"
	AliasPrefix   AliasMatch = "prefix"
	AliasContains AliasMatch = "contains"
)

// Alias is one row of the alias table.
type Alias struct {
	Value string     `json:"value"`
	Match AliasMatch `json:"match"`
}

// Entity is a worker/vendor, client or project record.
type Entity struct {
	ID          string  `json:"id"`
	Pool        Pool    `json:"pool"`
	Number      string  `json:"number,omitempty"` // projects only
	DisplayName string  `json:"displayName"`
	Aliases     []Alias `json:"aliases,omitempty"`
}

// Pools holds the read-only candidate pools for one import run.
type Pools struct {
	Vendors  []Entity
	Clients  []Entity
	Projects []Entity
}

// Get returns the entities of a pool.
func (p Pools) Get(pool Pool) []Entity {
	switch pool {
	case PoolVendors:
		return p.Vendors
	case PoolClients:
		return p.Clients
	case PoolProjects:
		return p.Projects
	}
	return nil
}

// Find looks an entity up by id across all pools.
func (p Pools) Find(id string) (Entity, bool) {
	for _, pool := range [][]Entity{p.Vendors, p.Clients, p.Projects} {
		for _, e := range pool {
			if e.ID == id {
				return e, true
			}
		}
	}
	return Entity{}, false
}
