// Command issblh computes the position of the ISS (or any satellite with a
// two-line element set) as WGS-84 latitude, longitude and height.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
