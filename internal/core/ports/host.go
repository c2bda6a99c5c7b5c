package ports

// HostResolver discovers the identity this instance advertises.
//
//go:generate mockgen -source=host.go -destination=mocks/mock_host.go -package=mocks
type HostResolver interface {
	// Hostname returns the host name used for local status paths.
	Hostname() (string, error)

	// Addresses maps each interface name to its first IPv4 address.
	Addresses(interfaces []string) (map[string]string, error)
}
