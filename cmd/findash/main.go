package main

import (
	"os"

	"github.com/wonny/findash/backend/cmd/findash/commands"
)

// main is the entry point for the findash CLI
// ⭐ 통합 CLI 진입점: go run ./cmd/findash [command]
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
