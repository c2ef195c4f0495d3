package powershell_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/fwojciec/psagent/powershell"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// posixShell runs each command through sh -c so executor behaviour can be
// tested without PowerShell installed.
var posixShell = powershell.Interpreter{Path: "sh", Args: []string{"-c"}}

// fakeInterpreter writes body to a script and returns an interpreter that
// runs it with the generated PowerShell text as $1.
func fakeInterpreter(t *testing.T, body string) powershell.Interpreter {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fake-pwsh.sh")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return powershell.Interpreter{Path: "sh", Args: []string{path}}
}
