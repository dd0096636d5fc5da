package output_test

import (
	"errors"
	"fmt"
	"os"

	"github.com/blackwell-systems/devboot/internal/output"
)

// Example showing the pipeline log written by a bootstrap run
func ExamplePrinter() {
	p := output.NewPrinter(os.Stdout)

	p.Step(1, 3, "Homebrew")
	p.Success("Homebrew already present, skipping")
	p.Step(2, 3, "conduitd")
	p.Success("conduitd installed")
	p.Step(3, 3, "services.json")
	p.Fail("services.json: installed but still not detected")
	p.Info("Remove ~/.conduit and rerun devboot")

	// Output:
	// Step 1/3: Homebrew
	//   ✓ Homebrew already present, skipping
	// Step 2/3: conduitd
	//   ✓ conduitd installed
	// Step 3/3: services.json
	//   ✗ services.json: installed but still not detected
	//   Remove ~/.conduit and rerun devboot
}

// Example showing how to drive a progress bar from a download
func ExampleProgressBar() {
	progress := output.NewProgress(0, "conduitd")
	progress.SetWriter(os.Stdout)

	// download.ProgressFunc has the same shape as Update.
	var report func(written, total int64) = progress.Update
	for written := int64(1024); written <= 4096; written += 1024 {
		report(written, 4096)
	}

	// Output:
	// [=======================================>] 100% conduitd (4 KB)
}

// Example showing how main reports a fatal error
func ExampleError() {
	os.Setenv("NO_COLOR", "1")
	defer os.Unsetenv("NO_COLOR")

	fmt.Println(output.Error(errors.New("unsupported platform")))

	// Output:
	// Error: unsupported platform
}
