// Command token mints a bearer token for the write routes.
package main

import (
	"flag"
	"fmt"
	"os"
	"slices"
	"time"

	"bookshelf/internal/auth"
	"bookshelf/internal/config"
)

func main() {
	var (
		sub  = flag.String("sub", "", "Token subject")
		role = flag.String("role", auth.RoleEditor, "Role: ADMIN or EDITOR")
		ttl  = flag.Duration("ttl", 24*time.Hour, "Token lifetime")
	)
	flag.Parse()

	config.LoadEnvFiles()
	token, err := mint(os.Getenv("JWT_SECRET"), *sub, *role, *ttl)
	if err != nil {
		fmt.Fprintf(os.Stderr, "token: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(token)
}

func mint(secret, sub, role string, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", fmt.Errorf("JWT_SECRET is not set")
	}
	if sub == "" {
		return "", fmt.Errorf("-sub is required")
	}
	if !slices.Contains([]string{auth.RoleAdmin, auth.RoleEditor}, role) {
		return "", fmt.Errorf("unknown role %q", role)
	}
	if ttl <= 0 {
		return "", fmt.Errorf("-ttl must be positive")
	}
	token, _, err := auth.GenerateToken(secret, sub, role, ttl)
	return token, err
}
