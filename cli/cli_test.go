package cli

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ardnew/bindc/cli/cmd"
	"github.com/ardnew/bindc/log"
	"github.com/ardnew/bindc/pkg"
)

const invoice = `
root: Invoice
types:
  Invoice:
    Customer: string
    Lines: "[]Line"
    Due: time.Duration
  Line:
    Name: string
    Qty: int
data:
  Customer: ada
  Due: 90m
  Lines:
    - {Name: pen, Qty: 4}
    - {Name: ink, Qty: 1}
`

func TestMain(m *testing.M) {
	dir, err := os.MkdirTemp("", "bindc-cli-*")
	if err != nil {
		panic(err)
	}

	os.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	os.Setenv("XDG_CACHE_HOME", filepath.Join(dir, "cache"))

	log.SetDefault(log.Make(nil))

	code := m.Run()

	os.RemoveAll(dir)
	os.Exit(code)
}

// run executes the CLI with args, returning what the command wrote.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer

	ctx := cmd.WithOutput(context.Background(), &out)
	exit := func(code int) { t.Fatalf("exit(%d) with args %q", code, args) }

	err := Run(ctx, exit, args...)

	return out.String(), err
}

func modelFile(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "invoice.yaml")
	if err := os.WriteFile(path, []byte(invoice), 0o600); err != nil {
		t.Fatal(err)
	}

	return path
}

func TestRun_Check(t *testing.T) {
	out, err := run(t, "--model", modelFile(t), "check", "Customer", "len(Lines)")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	for _, want := range []string{
		"arg 1: ok Customer string\n",
		"arg 2: ok len(Lines) int\n",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output %q does not contain %q", out, want)
		}
	}
}

func TestRun_CheckReportsErrors(t *testing.T) {
	out, err := run(t, "--model", modelFile(t), "check", "Custmer")
	if !errors.Is(err, cmd.ErrCheck) {
		t.Fatalf("Run() error = %v, want %v", err, cmd.ErrCheck)
	}

	if !strings.Contains(out, "arg 1: error:") || !strings.Contains(out, "Customer") {
		t.Errorf("output %q should name the binding and suggest Customer", out)
	}
}

func TestRun_Eval(t *testing.T) {
	path := modelFile(t)

	tests := []struct {
		args []string
		want string
	}{
		{[]string{"eval", "Lines[0].Name"}, "pen\n"},
		{[]string{"eval", "count(Lines, .Qty > 1)"}, "1\n"},
		{[]string{"eval", "-o", "json", "map(Lines, .Qty)"}, "[4,1]\n"},
		{[]string{"eval", "-o", "yaml", "Customer"}, "ada\n"},
	}

	for _, tt := range tests {
		t.Run(strings.Join(tt.args, " "), func(t *testing.T) {
			out, err := run(t, append([]string{"--model", path}, tt.args...)...)
			if err != nil {
				t.Fatalf("Run() error = %v", err)
			}

			if got := strings.ReplaceAll(out, " ", ""); got != tt.want {
				t.Errorf("output = %q, want %q", out, tt.want)
			}
		})
	}
}

func TestRun_FmtText(t *testing.T) {
	src := filepath.Join(t.TempDir(), "bindings.txt")

	err := os.WriteFile(src, []byte("# comment\n\n1+2*3\n"), 0o600)
	if err != nil {
		t.Fatal(err)
	}

	out, err := run(t, "--source", src, "fmt", "text", "a  ==  b")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if out != "(a == b)\n(1 + (2 * 3))\n" {
		t.Errorf("output = %q", out)
	}
}

func TestRun_Init(t *testing.T) {
	path := pkg.ConfigPath(baseConfig)
	t.Cleanup(func() { os.Remove(path) })

	if _, err := run(t, "--import", "time", "init"); err != nil {
		t.Fatalf("Run(init) error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	if !strings.Contains(string(data), "- time") {
		t.Errorf("config file %q does not record the import", data)
	}

	if _, err := run(t, "init"); !errors.Is(err, cmd.ErrWriteConfig) {
		t.Errorf("second init error = %v, want %v", err, cmd.ErrWriteConfig)
	}

	// The recorded import now applies without the flag.
	out, err := run(t, "--model", modelFile(t), "eval", "-t", "Duration", "Due")
	if err != nil {
		t.Fatalf("Run(eval) error = %v", err)
	}

	if out != "1h30m0s\n" {
		t.Errorf("output = %q, want %q", out, "1h30m0s\n")
	}
}
