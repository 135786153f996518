// Command gencode prints the derived check-in code for a delegate at an
// event. Useful when reprinting badges or verifying a code over the phone.
package main

import (
	"fmt"
	"os"

	"github.com/fgbmfisw7dsm-arry/fgbmfi-ng-rmm-app/internal/codes"
)

func main() {
	if len(os.Args) < 3 {
		fmt.Println("Usage: gencode <delegate-id> <event-id>")
		os.Exit(1)
	}

	code := codes.DeriveCode(os.Args[1], os.Args[2])
	fmt.Printf("Delegate %s @ event %s -> %s\n", os.Args[1], os.Args[2], code)
}
