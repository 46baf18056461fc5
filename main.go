package main

import "github.com/rogpool/pool-service-api/cli"

func main() {
	cli.Execute()
}
