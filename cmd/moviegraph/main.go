package main

import "github.com/Clark-Hu/moviegraph/internal/cli"

func main() {
	cli.Execute()
}
