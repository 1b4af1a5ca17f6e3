package main

import "github.com/chrisdamba/wooinsights/cmd"

func main() {
	cmd.Execute()
}
