package main

import (
	"fmt"

	"street-network/cmd"
)

func main() {
	fmt.Println("=== streetnet - 街道路网分析工具 ===")
	cmd.Execute()
}
