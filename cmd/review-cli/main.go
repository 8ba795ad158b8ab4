package main

import (
	"os"

	"yashubustudio/reviewdesk/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
