package main

import (
	"context"
	"log"

	"github.com/waynefred/ocean-journal/internal/cli"
)

func main() {
	if err := cli.Execute(context.Background()); err != nil {
		log.Fatalf("ocean-journal: %v", err)
	}
}
