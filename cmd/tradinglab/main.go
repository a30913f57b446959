package main

import (
	"os"

	"github.com/souloss/TradingLab/cmd/tradinglab/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
