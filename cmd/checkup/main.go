// Command checkup runs label-aware predictions with ONNX models.
package main

import (
	"fmt"
	"os"

	"github.com/lzoffoli-tg/checkupy/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
