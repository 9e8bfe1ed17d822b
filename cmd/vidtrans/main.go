package main

import (
	"os"

	"github.com/hua1232/AI-video-translate-lear/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
