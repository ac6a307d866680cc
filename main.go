package main

import "github.com/marketintel/crawler/cmd"

func main() {
	cmd.Execute()
}
