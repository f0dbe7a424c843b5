// Command token issues an access token for local testing of the API.
//
//	go run ./cmd/token -user u-9 -role employee
package main

import (
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/cmlabs-hris/attendance-workflow/internal/config"
	"github.com/cmlabs-hris/attendance-workflow/internal/domain/user"
	"github.com/cmlabs-hris/attendance-workflow/internal/pkg/jwt"
)

func main() {
	userID := flag.String("user", "", "user id placed in the user_id claim")
	role := flag.String("role", string(user.RoleEmployee), "role claim")
	flag.Parse()

	if *userID == "" {
		log.Fatal("-user is required")
	}
	if !user.Role(*role).Valid() {
		log.Fatalf("unknown role %q", *role)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	token, expiresAt, err := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiration).
		GenerateAccessToken(*userID, user.Role(*role))
	if err != nil {
		log.Fatalf("generate token: %v", err)
	}

	fmt.Println(token)
	log.Printf("expires at %s", time.Unix(expiresAt, 0).Format(time.RFC3339))
}
