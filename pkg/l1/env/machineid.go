package env

import (
	"github.com/denisbrodbeck/machineid"
)

// AppID scopes the protected machine id to this application.
const AppID = "edgelink"

// MachineID retrieves the unique ID identifying the machine.
func MachineID() string {
	id, err := machineid.ProtectedID(AppID)
	if err != nil {
		panic(err)
	}
	return id
}

// ShortMachineID returns the first n characters of the machine ID, or
// fallback when the machine has none.
func ShortMachineID(n int, fallback string) string {
	id, err := machineid.ProtectedID(AppID)
	if err != nil || id == "" {
		return fallback
	}
	if n > 0 && len(id) > n {
		id = id[:n]
	}
	return id
}
