// Package main is the nxtmotor command itself.
package main

import (
	"log"
	"os"

	"go.viam.com/bricktronics/cli"
)

func main() {
	app := cli.NewApp(os.Stdout, os.Stderr)
	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
