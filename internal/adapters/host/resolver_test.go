package host_test

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/ignite/internal/adapters/host"
	"go.trai.ch/ignite/internal/core/domain"
	"go.trai.ch/zerr"
)

func fakeLookup(table map[string][]net.Addr) host.AddrLookup {
	return func(name string) ([]net.Addr, error) {
		addrs, ok := table[name]
		if !ok {
			return nil, zerr.New("no such network interface")
		}
		return addrs, nil
	}
}

func ipNet(s string) *net.IPNet {
	ip, n, err := net.ParseCIDR(s)
	if err != nil {
		panic(err)
	}
	n.IP = ip
	return n
}

func TestResolver_Addresses(t *testing.T) {
	r := host.NewResolver("", fakeLookup(map[string][]net.Addr{
		"eth0": {ipNet("fe80::1/64"), ipNet("10.0.0.5/24"), ipNet("10.0.0.6/24")},
		"eth1": {&net.IPAddr{IP: net.ParseIP("192.168.1.9")}},
	}))

	got, err := r.Addresses([]string{"eth0", "eth1"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"eth0": "10.0.0.5", "eth1": "192.168.1.9"}, got)
}

func TestResolver_AddressesMissing(t *testing.T) {
	r := host.NewResolver("", fakeLookup(map[string][]net.Addr{
		"eth0": {ipNet("fe80::1/64")},
	}))

	_, err := r.Addresses([]string{"eth0", "wg0"})
	require.ErrorIs(t, err, domain.ErrInterfaceNotFound)
	assert.Contains(t, err.Error(), "no address assigned")
	assert.Contains(t, err.Error(), "no such network interface")
}

func TestResolver_Loopback(t *testing.T) {
	ifaces, err := net.Interfaces()
	require.NoError(t, err)

	var loopback string
	for _, iface := range ifaces {
		if iface.Flags&net.FlagLoopback != 0 {
			loopback = iface.Name
			break
		}
	}
	if loopback == "" {
		t.Skip("no loopback interface")
	}

	got, err := host.NewResolver("", nil).Addresses([]string{loopback})
	if err != nil {
		t.Skipf("loopback has no ipv4 address: %v", err)
	}
	assert.Equal(t, "127.0.0.1", got[loopback])
}

func TestResolver_Hostname(t *testing.T) {
	name, err := host.NewResolver("db-1", nil).Hostname()
	require.NoError(t, err)
	assert.Equal(t, "db-1", name)

	name, err = host.NewResolver("", nil).Hostname()
	require.NoError(t, err)
	assert.NotEmpty(t, name)
	assert.NotContains(t, name, ".")
}
