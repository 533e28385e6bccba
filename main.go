package main

import "photo-mapper/cli"

func main() {
	cli.Execute()
}
