package domain

import "time"

// Store backends.
const (
	StoreConsul = "consul"
	StoreMemory = "memory"
)

// Settings are the per-instance values read from the environment at start.
type Settings struct {
	Deployment  string
	Role        string
	Group       string
	Interfaces  []string
	Hostname    string
	GraphPath   string
	Store       string
	StoreAddr   string
	StoreToken  string
	StorePrefix string
	SessionTTL  time.Duration
	Privileged  bool
	LogLevel    string
	LogFormat   string
}

// GroupName returns the group the instance joins, defaulting to its role.
func (s *Settings) GroupName() string {
	if s.Group != "" {
		return s.Group
	}
	return s.Role
}
