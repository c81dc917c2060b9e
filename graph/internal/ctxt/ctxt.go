// Package ctxt provides the GPU driver used by the graph package.
package ctxt

import (
	"errors"
	"strings"

	"github.com/llGuy/nezha/driver"
)

var (
	drv    driver.Driver
	gpu    driver.GPU
	limits driver.Limits
)

var errNoDriver = errors.New("ctxt: driver not found")

// loadDriver attempts to load any driver whose name contains the
// provided name string. It is case-sensitive. If name is the
// empty string, all registered drivers are considered. It
// assumes that drv and gpu hold invalid values and replaces both
// on success, also updating limits with a call to gpu.Limits().
func loadDriver(name string) error {
	drivers := driver.Drivers()
	err := errNoDriver
	for i := range drivers {
		if !strings.Contains(drivers[i].Name(), name) {
			continue
		}
		var u driver.GPU
		if u, err = drivers[i].Open(); err != nil {
			continue
		}
		drv = drivers[i]
		gpu = u
		limits = gpu.Limits()
		return nil
	}
	return err
}

// Set installs a GPU that has already been opened by the caller,
// bypassing driver lookup. It exists so tests and callers that
// manage device selection themselves (rather than relying on the
// driver registry) can inject a GPU directly.
func Set(d driver.Driver, g driver.GPU) {
	drv = d
	gpu = g
	limits = g.Limits()
}

// Load looks up and opens a registered driver whose name contains
// name, installing it as the active context.
func Load(name string) error {
	return loadDriver(name)
}

// Driver returns the active driver.Driver.
func Driver() driver.Driver { return drv }

// GPU returns the active driver.GPU.
func GPU() driver.GPU { return gpu }

// Limits returns the active GPU's driver.Limits.
// This value is retrieved once, when the driver is loaded, and
// must not be changed by the caller.
func Limits() *driver.Limits { return &limits }
