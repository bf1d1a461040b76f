// enc cifra un valor con la master key de secretbox, para pegarlo en el
// config YAML (client secrets, session secret, DSN).
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"

	sec "github.com/castward/castlink/internal/security/secretbox"
)

func main() {
	_ = godotenv.Load(".env")
	if !sec.Ready() {
		log.Fatal("SECRETBOX_MASTER_KEY not set")
	}
	if len(os.Args) < 2 {
		log.Fatal("usage: enc <value>")
	}
	out, err := sec.Encrypt(os.Args[1])
	if err != nil {
		log.Fatalf("encrypt: %v", err)
	}
	fmt.Println(out)
}
