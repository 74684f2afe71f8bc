// Package main is the raycheck command itself.
package main

import (
	"log"
	"os"

	"go.viam.com/raycorr/cli"
)

func main() {
	app := cli.NewApp(os.Stdout, os.Stderr)
	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
