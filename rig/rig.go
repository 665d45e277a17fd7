/*Package rig turns an instrument configuration into a live parameter
registry.  A rig is the set of instruments wired up for an experiment; the
config file lists them by type, name and address, and BuildRegistry connects
each one and registers its parameters under the node name.
*/
package rig

import (
	"fmt"
	"strings"

	"goji.io"

	"github.com/qtmlab/qtmtoolbox/ivvi"
	"github.com/qtmlab/qtmtoolbox/keithley"
	"github.com/qtmlab/qtmtoolbox/oxford"
	"github.com/qtmlab/qtmtoolbox/param"
	"github.com/qtmlab/qtmtoolbox/server"
	"github.com/qtmlab/qtmtoolbox/srs"
)

// ObjSetup holds the args for a New<device> call
type ObjSetup struct {
	// Name is the identifier prefix of the device's parameters,
	// e.g. Name "kbg" on a keithley yields kbg.dcv, kbg.v, ...
	Name string `yaml:"Name" koanf:"Name"`

	// Addr holds the network or filesystem address of the remote device,
	// e.g. 192.168.100.123:2006 for a device behind an ethernet-GPIB
	// bridge, or /dev/ttyS4 for an RS232 device on a serial cable
	Addr string `yaml:"Addr" koanf:"Addr"`

	// Type is the "type" of the object, e.g. sr830
	Type string `yaml:"Type" koanf:"Type"`
}

// Config holds the initialization parameters of the server,
// populated from the yaml config file
type Config struct {
	// Addr is the address to listen at
	Addr string `yaml:"Addr" koanf:"Addr"`

	// Nodes is the list of instruments to set up
	Nodes []ObjSetup `yaml:"Nodes" koanf:"Nodes"`
}

// BuildRegistry connects every configured instrument and registers its
// parameters.  Connection failures are fatal here, at startup, with the
// node name in the error; they never surface mid-sweep.
func BuildRegistry(c Config) (*param.Registry, error) {
	reg := param.NewRegistry()
	for _, node := range c.Nodes {
		err := addNode(reg, node)
		if err != nil {
			return nil, fmt.Errorf("setting up node %q: %v", node.Name, err)
		}
	}
	return reg, nil
}

func addNode(reg *param.Registry, node ObjSetup) error {
	switch strings.ToLower(node.Type) {
	case "keithley2400", "k2400", "sourcemeter":
		sm := keithley.New(node.Addr)
		return sm.Register(reg, node.Name)
	case "sr830", "lockin":
		li := srs.New(node.Addr)
		return li.Register(reg, node.Name)
	case "ips120", "magnet":
		ms, err := oxford.NewMagnetSupply(node.Addr)
		if err != nil {
			return err
		}
		return ms.Register(reg, node.Name)
	case "ivvi", "dac":
		dr, err := ivvi.NewDACRack(node.Addr)
		if err != nil {
			return err
		}
		return dr.Register(reg, node.Name)
	default:
		return fmt.Errorf("unknown instrument type %q", node.Type)
	}
}

// BuildMux wraps the registry in its HTTP interface
func BuildMux(reg *param.Registry) *goji.Mux {
	mux := goji.NewMux()
	server.NewParamServer(reg).RT().Bind(mux)
	return mux
}
