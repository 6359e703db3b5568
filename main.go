package main

import (
	"log"

	"github.com/jostincp/Encore-sub007/cmd"
)

func main() {
	if err := cmd.Start(); err != nil {
		log.Fatal(err)
	}
}
