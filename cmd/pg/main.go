package main

import (
	"os"

	"github.com/ohare93/pg/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
