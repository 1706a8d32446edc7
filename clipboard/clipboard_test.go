package clipboard_test

import (
	"context"
	"errors"
	"os/exec"
	"runtime"
	"testing"

	"github.com/mickamy/boltcore/clipboard"
)

func TestCopy(t *testing.T) {
	t.Parallel()

	if runtime.GOOS != "darwin" && runtime.GOOS != "linux" {
		t.Skipf("clipboard copy is only exercised on darwin and linux, not %s", runtime.GOOS)
	}

	switch runtime.GOOS {
	case "darwin":
		if _, err := exec.LookPath("pbcopy"); err != nil {
			t.Skip("pbcopy not found")
		}
	case "linux":
		if _, err := exec.LookPath("xclip"); err != nil {
			if _, err := exec.LookPath("xsel"); err != nil {
				t.Skip("xclip/xsel not found")
			}
		}
	}

	if err := clipboard.Copy(context.Background(), "hello from test"); err != nil {
		t.Fatalf("Copy returned error: %v", err)
	}
}

func TestCopyUnsupportedPlatform(t *testing.T) {
	t.Parallel()

	if runtime.GOOS == "darwin" || runtime.GOOS == "linux" || runtime.GOOS == "windows" {
		t.Skipf("%s has a clipboard command, nothing to assert here", runtime.GOOS)
	}

	err := clipboard.Copy(context.Background(), "unreachable on this platform")
	if !errors.Is(err, clipboard.ErrUnsupportedPlatform) {
		t.Fatalf("Copy error = %v, want ErrUnsupportedPlatform", err)
	}
}
