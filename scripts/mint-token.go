package main

import (
	"fmt"
	"os"

	"github.com/candorapp/session-server-go/internal/util"
)

// Mints an access token and prints the hash to store in users.access_token_hash.
func main() {
	token, err := util.GenerateToken()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("token: %s\n", token)
	fmt.Printf("hash:  %s\n", util.HashToken(token))
}
