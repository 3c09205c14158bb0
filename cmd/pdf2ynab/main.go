package main

import (
	"os"

	"github.com/JonMunkholm/pdf2ynab/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
