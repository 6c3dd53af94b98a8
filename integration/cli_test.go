//go:build integration

package integration

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

// binaryPath returns the path to the built CLI binary
func binaryPath(t *testing.T) string {
	t.Helper()
	paths := []string{
		"../prodtrack",
		"./prodtrack",
		filepath.Join(os.Getenv("GOPATH"), "bin", "prodtrack"),
	}

	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			abs, _ := filepath.Abs(p)
			return abs
		}
	}

	// Try to build it
	t.Log("Binary not found, building...")
	cmd := exec.Command("go", "build", "-o", "../prodtrack", "../cmd/prodtrack")
	if out, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("Failed to build binary: %v\n%s", err, out)
	}

	abs, _ := filepath.Abs("../prodtrack")
	return abs
}

func run(t *testing.T, binary, configPath string, args ...string) string {
	t.Helper()
	cmd := exec.Command(binary, append(args, "--config", configPath)...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("%s failed: %v\n%s", strings.Join(args, " "), err, out)
	}
	return string(out)
}

func newEnv(t *testing.T) (binary, configPath, importDir string) {
	t.Helper()
	binary = binaryPath(t)
	importDir = t.TempDir()
	configPath = createTestConfig(t, TempDBPath(t), filepath.Join(t.TempDir(), "funcionarios.db"), importDir)
	return binary, configPath, importDir
}

// TestCLI_ImportAndList imports a seed drop, then checks the queue
func TestCLI_ImportAndList(t *testing.T) {
	binary, configPath, importDir := newEnv(t)

	writeSeed(t, importDir, "1500.yaml", "1500", "F2000")
	writeSeed(t, importDir, "1501.yaml", "1501", "F3000")

	out := run(t, binary, configPath, "import", importDir)
	if !strings.Contains(out, "Imported 2 programs") {
		t.Errorf("Expected 'Imported 2 programs' in output, got: %s", out)
	}

	// Re-importing the same drop is a no-op
	out = run(t, binary, configPath, "import", importDir)
	if !strings.Contains(out, "Imported 0 programs") {
		t.Errorf("duplicate import should create nothing, got: %s", out)
	}

	out = run(t, binary, configPath, "list")
	if !strings.Contains(out, "1500") || !strings.Contains(out, "1501") {
		t.Errorf("list missing imported programs: %s", out)
	}
	if !strings.Contains(out, "Pendente") {
		t.Errorf("imported programs should be Pendente: %s", out)
	}
}

// TestCLI_Status checks the queue counts line
func TestCLI_Status(t *testing.T) {
	binary, configPath, importDir := newEnv(t)

	writeSeed(t, importDir, "1500.yaml", "1500", "F2000")
	run(t, binary, configPath, "import", importDir)

	out := run(t, binary, configPath, "status")
	if !strings.Contains(out, "1 total") {
		t.Errorf("Expected '1 total' in output, got: %s", out)
	}
	if !strings.Contains(out, "1 pendentes") {
		t.Errorf("Expected '1 pendentes' in output, got: %s", out)
	}
}

// TestCLI_Employees registers an operator and lists the registry
func TestCLI_Employees(t *testing.T) {
	binary, configPath, _ := newEnv(t)

	out := run(t, binary, configPath, "employees", "add", "12345", "João Silva", "segredo", "--cargo", "Operador CNC")
	if !strings.Contains(out, "João Silva") {
		t.Errorf("Expected employee name in output, got: %s", out)
	}

	out = run(t, binary, configPath, "employees", "list")
	if !strings.Contains(out, "12345") || !strings.Contains(out, "Operador CNC") {
		t.Errorf("list missing registered employee: %s", out)
	}
	if strings.Contains(out, "segredo") {
		t.Errorf("credential must never be printed: %s", out)
	}
}

// TestCLI_ListStatusFilter rejects unknown status values
func TestCLI_ListStatusFilter(t *testing.T) {
	binary, configPath, _ := newEnv(t)

	cmd := exec.Command(binary, "list", "--status", "Bogus", "--config", configPath)
	out, err := cmd.CombinedOutput()
	if err == nil {
		t.Errorf("unknown status should fail, got: %s", out)
	}
}
