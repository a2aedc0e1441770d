// tokengen mints a bearer token for a user id so the API and the
// websocket stream can be exercised from the command line. Development
// tooling; the identity subsystem issues real tokens.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"skilltrade/internal/pkg/jwt"
)

func main() {
	userRaw := flag.String("user", "", "user id (uuid) to mint a token for")
	expiresIn := flag.Duration("expires", 24*time.Hour, "token lifetime")
	flag.Parse()

	secret := strings.TrimSpace(os.Getenv("JWT_SECRET"))
	if secret == "" {
		log.Fatal("JWT_SECRET is not set")
	}

	userID, err := uuid.Parse(strings.TrimSpace(*userRaw))
	if err != nil {
		log.Fatalf("invalid -user: %v", err)
	}

	svc := jwt.NewHMACService(secret, *expiresIn)
	tok, err := svc.GenerateToken(userID)
	if err != nil {
		log.Fatalf("generate token: %v", err)
	}

	fmt.Println(tok)
}
