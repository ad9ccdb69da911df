//go:build ignore

package main

import (
	"fmt"

	"example.com/buckpal/account/adapter/out/persistence"
)

func main() {
	fmt.Println(persistence.TableName)
}
