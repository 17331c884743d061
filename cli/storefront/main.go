package main

import (
	"context"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/viant/storefront/cli"
)

func main() {
	_ = godotenv.Load()
	if err := cli.Run(context.Background(), os.Args[1:], os.Stdout); err != nil {
		log.Fatal(err)
	}
}
