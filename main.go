package main

import (
	"os"
)

func main() {
	if err := startChainsyncd(os.Args[1:]); err != nil {
		os.Exit(1)
	}
}
