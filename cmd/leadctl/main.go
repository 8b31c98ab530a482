package main

import "github.com/fernandocalderan/IEI-Inmobiliario/internal/cli"

func main() {
	cli.Execute()
}
