// Command genhash prints a bcrypt hash for a password. Used to seed the
// first admin account before the user management screens are reachable.
package main

import (
	"fmt"
	"os"

	"golang.org/x/crypto/bcrypt"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: genhash <password>")
		os.Exit(1)
	}

	// Cost 12 matches the application's hashing cost.
	hash, err := bcrypt.GenerateFromPassword([]byte(os.Args[1]), 12)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(string(hash))
}
