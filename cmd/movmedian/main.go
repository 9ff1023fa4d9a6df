// Command movmedian prints the running or final median of values read one
// per line, over the whole stream or a sliding window, optionally per key.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
