package main

import "github.com/kitenge/shop-backend/cmd"

func main() {
	cmd.Execute()
}
