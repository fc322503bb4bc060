//go:build !rp2040 && !rp2350

package main

import "os"

func main() {
	if err := Execute(); err != nil {
		os.Exit(1)
	}
}
