package main

import (
	"os"

	"github.com/Azunyan1111/go-webm-relay/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
