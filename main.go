package main

import (
	"log"

	"github.com/starbooks/monitoring-api/app"
)

func main() {
	// setup and run app
	if err := app.SetupAndRunServer(); err != nil {
		log.Fatal(err)
	}
}
