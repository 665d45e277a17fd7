// Command qtmsweep runs one sweep described by a yaml file.
//
// The file names the instruments, the swept parameter, the measurement list
// and the output file; qtmsweep connects everything, runs the sweep with a
// progress spinner, and optionally archives the sweep description next to
// the data it produced.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/theckman/yacspin"
	"gopkg.in/yaml.v2"

	"github.com/qtmlab/qtmtoolbox/lab"
	"github.com/qtmlab/qtmtoolbox/rig"
)

// SweepSetup is the yaml shape of one sweep
type SweepSetup struct {
	// Target is the parameter identifier to sweep, e.g. gate.dcv
	Target string `yaml:"Target"`

	Start  float64 `yaml:"Start"`
	Stop   float64 `yaml:"Stop"`
	Rate   float64 `yaml:"Rate"`
	Points int     `yaml:"Points"`

	// Settle is the dwell after each move before measuring, e.g. "100ms"
	Settle string `yaml:"Settle"`

	// Measure lists the parameter identifiers to record at each point
	Measure []string `yaml:"Measure"`

	Filename string `yaml:"Filename"`
}

// Setup is the top level yaml shape
type Setup struct {
	Nodes []rig.ObjSetup `yaml:"Nodes"`
	Sweep SweepSetup     `yaml:"Sweep"`

	// Sample, when set, archives the sweep file under Data/<Sample>/Scripts
	Sample string `yaml:"Sample"`
}

func loadSetup(path string) (Setup, error) {
	s := Setup{}
	f, err := os.Open(path)
	if err != nil {
		return s, err
	}
	defer f.Close()
	err = yaml.NewDecoder(f).Decode(&s)
	return s, err
}

func main() {
	confPath := flag.String("conf", "sweep.yml", "path to the sweep description")
	flag.Parse()

	setup, err := loadSetup(*confPath)
	if err != nil {
		log.Fatalf("error loading sweep description: %v", err)
	}

	reg, err := rig.BuildRegistry(rig.Config{Nodes: setup.Nodes})
	if err != nil {
		log.Fatal(err)
	}
	target, err := reg.Settable(setup.Sweep.Target)
	if err != nil {
		log.Fatal(err)
	}
	list, err := lab.NewList(reg, setup.Sweep.Measure...)
	if err != nil {
		log.Fatal(err)
	}
	var settle time.Duration
	if setup.Sweep.Settle != "" {
		settle, err = time.ParseDuration(setup.Sweep.Settle)
		if err != nil {
			log.Fatalf("error parsing Settle: %v", err)
		}
	}

	spinner, err := yacspin.New(yacspin.Config{
		Frequency:     100 * time.Millisecond,
		CharSet:       yacspin.CharSets[14],
		Suffix:        " " + setup.Sweep.Target,
		StopCharacter: "done",
	})
	if err != nil {
		log.Fatal(err)
	}
	spinner.Start()

	cfg := lab.SweepConfig{
		Target:   target,
		TargetID: setup.Sweep.Target,
		Start:    setup.Sweep.Start,
		Stop:     setup.Sweep.Stop,
		Rate:     setup.Sweep.Rate,
		Points:   setup.Sweep.Points,
		Filename: setup.Sweep.Filename,
		List:     list,
		Settle:   settle,
		Progress: func(point, total int, setpoint float64) {
			spinner.Message(fmt.Sprintf("point %d/%d at %g", point, total, setpoint))
		},
	}
	path, err := lab.Sweep(context.Background(), cfg)
	spinner.Stop()
	if err != nil {
		log.Fatal(err)
	}
	log.Printf("sweep written to %s", path)

	if setup.Sample != "" {
		dataDir := filepath.Dir(path)
		archived, err := lab.ArchiveScript(dataDir, *confPath, setup.Sample)
		if err != nil {
			log.Fatalf("error archiving sweep description: %v", err)
		}
		log.Printf("sweep description archived to %s", archived)
	}
}
