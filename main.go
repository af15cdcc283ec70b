package main

import (
	"log"

	"github.com/quirra-app/quirra-api/app"
)

func main() {
	if err := app.SetupAndRunServer(); err != nil {
		log.Fatal(err)
	}
}
