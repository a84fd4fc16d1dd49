package main

import "github.com/KaramelBytes/cannalytics/cmd"

func main() {
	cmd.Execute()
}
