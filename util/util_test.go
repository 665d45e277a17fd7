package util_test

import (
	"fmt"
	"testing"

	"github.com/qtmlab/qtmtoolbox/util"
)

func ExampleLinspace() {
	fmt.Println(util.Linspace(0, 1, 5, 0.001))
	// Output: [0 0.25 0.5 0.75 1]
}

func ExampleRound() {
	fmt.Println(util.Round(1.23456, 0.001))
	// Output: 1.235
}

func TestLinspaceEndpoints(t *testing.T) {
	pts := util.Linspace(-1, 1, 11, 0.001)
	if len(pts) != 11 {
		t.Fatalf("expected 11 points, got %d", len(pts))
	}
	if pts[0] != -1 || pts[10] != 1 {
		t.Errorf("expected endpoints -1 and 1, got %v and %v", pts[0], pts[10])
	}
}

func TestLinspaceDegenerate(t *testing.T) {
	if pts := util.Linspace(5, 10, 1, 0.001); len(pts) != 1 || pts[0] != 5 {
		t.Errorf("single point linspace: got %v", pts)
	}
	if pts := util.Linspace(0, 1, 0, 0.001); pts != nil {
		t.Errorf("zero point linspace: got %v", pts)
	}
}
