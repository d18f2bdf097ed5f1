// Command hash-generator prints password digests in the format stored in
// users.password, for seeding accounts directly in the database.
//
//	go run ./cmd/hash-generator -cost 12 secret1 secret2
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/phrazzld/marketplace-api/internal/service/auth"
	"golang.org/x/crypto/bcrypt"
)

func main() {
	cost := flag.Int("cost", bcrypt.DefaultCost, "bcrypt cost factor")
	flag.Parse()

	if flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "usage: hash-generator [-cost N] password...")
		os.Exit(2)
	}

	hasher := auth.NewBcryptHasher(*cost)
	for _, password := range flag.Args() {
		hash, err := hasher.Hash(password)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error hashing password: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(hash)
	}
}
