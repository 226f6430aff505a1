package main

import "marketplace-service/cmd/marketplace/commands"

func main() {
	commands.Execute()
}
