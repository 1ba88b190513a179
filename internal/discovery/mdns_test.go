// ABOUTME: Tests for mDNS discovery
// ABOUTME: Tests configuration defaults and service entry parsing
package discovery

import (
	"net"
	"slices"
	"testing"
	"time"

	"github.com/hashicorp/mdns"
)

func TestNewManager(t *testing.T) {
	mgr := NewManager(Config{ServiceName: "Robot Server", Port: 8927})
	if mgr == nil {
		t.Fatal("expected manager to be created")
	}
	if mgr.config.BrowseTimeout != 3*time.Second {
		t.Errorf("expected default browse timeout, got %v", mgr.config.BrowseTimeout)
	}
	mgr.Stop()
}

func TestTXTRecords(t *testing.T) {
	tests := []struct {
		name     string
		cfg      Config
		expected []string
	}{
		{"path only", Config{}, []string{"path=/robot"}},
		{"with file", Config{File: "1002.rbt"}, []string{"path=/robot", "file=1002.rbt"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := txtRecords(tt.cfg); !slices.Equal(got, tt.expected) {
				t.Errorf("expected %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestEntryToServer(t *testing.T) {
	entry := &mdns.ServiceEntry{
		Name:       "Robot Server._robot._tcp.local.",
		AddrV4:     net.ParseIP("192.168.1.20"),
		Port:       8927,
		InfoFields: []string{"path=/stream", "file=1002.rbt", "junk"},
	}

	server := entryToServer(entry)
	if server == nil {
		t.Fatal("expected server")
	}
	if server.Addr() != "192.168.1.20:8927" {
		t.Errorf("unexpected addr %s", server.Addr())
	}
	if server.Path != "/stream" || server.File != "1002.rbt" {
		t.Errorf("unexpected TXT parse %+v", server)
	}

	if entryToServer(&mdns.ServiceEntry{Name: "v6 only"}) != nil {
		t.Error("expected entry without IPv4 to be ignored")
	}
}
