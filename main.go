// main is the entry point for the codepulse CLI.
package main

import (
	"fmt"
	"os"

	"github.com/huangsam/codepulse/cmd"
	"github.com/huangsam/codepulse/internal/store"
	"github.com/joho/godotenv"
)

func main() {
	// Local overrides first; godotenv never replaces variables that are already set
	_ = godotenv.Load(".env.local")
	_ = godotenv.Load(".env")

	err := cmd.Execute()
	store.CloseStores()
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
