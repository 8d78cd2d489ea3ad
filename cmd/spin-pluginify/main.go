package main

import "github.com/oshokin/spin-pluginify/cmd/spin-pluginify/cmd"

func main() {
	cmd.Execute()
}
