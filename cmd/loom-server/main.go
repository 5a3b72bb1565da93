// Package main is the entry point for the Loom server.
package main

import (
	"github.com/loomhq/loom/cmd/loom-server/app"
)

func main() {
	app.NewApp().Run()
}
