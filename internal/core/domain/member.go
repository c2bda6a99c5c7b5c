package domain

// Member is the record an instance publishes in its group.
type Member struct {
	Addresses map[string]string `json:"addresses"`
	Hostname  string            `json:"hostname"`
	Role      string            `json:"role"`
	Ordinal   int               `json:"ordinal"`
}

// Inventory is the live membership of every group of a deployment.
type Inventory struct {
	// Groups maps a role to the sorted hostnames of the members running it.
	Groups map[string][]string `json:"groups"`
	// HostVars maps a hostname to the record it published.
	HostVars map[string]Member `json:"hostvars"`
}

// NewInventory returns an empty inventory.
func NewInventory() Inventory {
	return Inventory{
		Groups:   make(map[string][]string),
		HostVars: make(map[string]Member),
	}
}
