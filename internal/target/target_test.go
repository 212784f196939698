package target

import (
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/unikit-build/unikit/internal/builder"
	"github.com/unikit-build/unikit/internal/pipeline"
)

func testTarget() BuildTarget {
	return BuildTarget{
		Platform:   PlatformUnix,
		Mode:       ModeInstalled,
		Net:        NetDHCP,
		Action:     ActionBuild,
		ModulePath: "work/app.ml",
		Tools:      builder.DefaultConfig().Tools,
		Runtime:    "/usr/local/lib/mirage",
	}
}

func planLines(steps []pipeline.Step) []string {
	lines := make([]string, len(steps))
	for i, s := range steps {
		lines[i] = s.Line()
	}
	return lines
}

func TestCleanIsPlatformIndependent(t *testing.T) {
	base := testTarget()
	base.Action = ActionClean

	var plans [][]pipeline.Step
	for _, platform := range []Platform{PlatformUnix, PlatformXen, PlatformBrowser} {
		tt := base
		tt.Platform = platform
		plans = append(plans, tt.Plan())
	}

	for i, plan := range plans {
		if len(plan) != 1 {
			t.Fatalf("clean must be a single command, got %d", len(plan))
		}
		if !reflect.DeepEqual(plan, plans[0]) {
			t.Errorf("clean plan differs for platform %d: %v vs %v", i, plan, plans[0])
		}
	}

	step := plans[0][0]
	if step.Command != "rm" || step.Args[0] != "-f" {
		t.Errorf("clean step = %v", step)
	}
}

func TestUnixPlan(t *testing.T) {
	plan := testTarget().Plan()
	if len(plan) != 3 {
		t.Fatalf("unix plan = %v", planLines(plan))
	}

	if plan[0].Command != "ocamlbuild" || plan[0].Args[len(plan[0].Args)-1] != "app.nobj.o" {
		t.Errorf("compile step = %v", plan[0])
	}
	if plan[1].Command != "make" {
		t.Errorf("link step = %v", plan[1])
	}
	link := plan[1].Line()
	if !strings.Contains(link, "OBJ="+filepath.Join("_build", "app.nobj.o")) {
		t.Errorf("link step must inject the object path: %s", link)
	}
	if !strings.Contains(link, "NET=dhcp") {
		t.Errorf("link step must select the network flavor: %s", link)
	}
	if plan[2].Command != "mv" || plan[2].Args[1] != "app.bin" {
		t.Errorf("move step = %v", plan[2])
	}

	for _, step := range plan {
		if step.Dir != "work" {
			t.Errorf("step %v should run in the module directory", step)
		}
	}
}

func TestXenPlan(t *testing.T) {
	tt := testTarget()
	tt.Platform = PlatformXen
	tt.Net = NetStatic
	plan := tt.Plan()

	if len(plan) != 5 {
		t.Fatalf("xen plan = %v", planLines(plan))
	}

	objcopy := plan[1]
	if objcopy.Command != "objcopy" {
		t.Fatalf("expected objcopy second, got %v", objcopy)
	}
	line := objcopy.Line()
	for _, rename := range []string{".data=.mirdata", ".rodata=.mirrodata", ".text=.mirtext"} {
		if !strings.Contains(line, rename) {
			t.Errorf("objcopy must rename sections (%s): %s", rename, line)
		}
	}

	if !strings.Contains(plan[2].Line(), "NET=static") {
		t.Errorf("link step must select static networking: %s", plan[2].Line())
	}
	if plan[3].Command != "cp" || plan[3].Args[1] != "app.xen.gz" {
		t.Errorf("image copy step = %v", plan[3])
	}
	if plan[4].Command != "gzip" || !strings.Contains(plan[4].Line(), "-d -k") {
		t.Errorf("debug copy step = %v", plan[4])
	}
}

func TestBrowserPlan(t *testing.T) {
	tt := testTarget()
	tt.Platform = PlatformBrowser
	plan := tt.Plan()

	if len(plan) != 4 {
		t.Fatalf("browser plan = %v", planLines(plan))
	}
	if plan[0].Args[len(plan[0].Args)-1] != "app.byte" {
		t.Errorf("compile step = %v", plan[0])
	}
	if plan[1].Command != "js_of_ocaml" {
		t.Errorf("script link step = %v", plan[1])
	}
	if !strings.Contains(plan[1].Line(), "mir-support.js") {
		t.Errorf("script link must include the support libraries: %s", plan[1].Line())
	}
	if plan[2].Command != "mv" || plan[2].Args[1] != "app.js" {
		t.Errorf("script move step = %v", plan[2])
	}
	if plan[3].Command != "cp" || !strings.Contains(plan[3].Line(), "index.html") {
		t.Errorf("harness copy step = %v", plan[3])
	}
}

func TestRuntimeDirByMode(t *testing.T) {
	tt := testTarget()

	if got := tt.runtimeDir("unix"); got != filepath.Join("/usr/local/lib/mirage", "unix") {
		t.Errorf("installed runtime dir = %q", got)
	}

	tt.Mode = ModeTree
	if got := tt.runtimeDir("unix"); got != filepath.Join("runtime", "unix") {
		t.Errorf("tree runtime dir = %q", got)
	}
}

func TestExtraCflags(t *testing.T) {
	tt := testTarget()
	tt.Cflags = []string{"-verbose", "2"}
	plan := tt.Plan()

	line := plan[0].Line()
	if !strings.Contains(line, "-verbose 2 app.nobj.o") {
		t.Errorf("extra flags must precede the artifact: %s", line)
	}
}
