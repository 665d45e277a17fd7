package rig

import (
	"strings"
	"testing"
)

func TestEmptyConfig(t *testing.T) {
	reg, err := BuildRegistry(Config{})
	if err != nil {
		t.Fatalf("empty config errored: %v", err)
	}
	if len(reg.IDs()) != 0 {
		t.Errorf("empty config registered parameters: %v", reg.IDs())
	}
}

func TestUnknownTypeNamesTheNode(t *testing.T) {
	_, err := BuildRegistry(Config{Nodes: []ObjSetup{
		{Name: "mystery", Type: "frobulator", Addr: "localhost:1"},
	}})
	if err == nil {
		t.Fatal("unknown instrument type accepted")
	}
	if !strings.Contains(err.Error(), "mystery") {
		t.Errorf("error does not name the node: %v", err)
	}
	if !strings.Contains(err.Error(), "frobulator") {
		t.Errorf("error does not name the type: %v", err)
	}
}
