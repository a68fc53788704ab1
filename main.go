package main

import "trafficmix/cmd"

func main() {
	cmd.Execute()
}
