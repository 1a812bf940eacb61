// Command moviedex manages a personal catalog of movies, documentaries and
// kids' movies from the command line or over HTTP.
package main

import (
	"os"

	"github.com/mesh-intelligence/moviedex/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
