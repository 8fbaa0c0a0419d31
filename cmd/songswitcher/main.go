package main

import "songswitcher/internal/cli"

func main() {
	cli.Execute()
}
