package main

import (
	"os"

	"github.com/bnema/marketplace-cart/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
