// Command tokengen prints a bearer token for the mutating taskwatch routes,
// signed with the configured auth.jwt_secret.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/phrazzld/taskwatch/internal/config"
	"github.com/phrazzld/taskwatch/internal/service/auth"
)

func main() {
	subject := flag.String("subject", "operator", "subject claim of the token")
	flag.Parse()

	token, err := generate(*subject)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error generating token: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(token)
}

func generate(subject string) (string, error) {
	cfg, err := config.Load()
	if err != nil {
		return "", fmt.Errorf("failed to load configuration: %w", err)
	}
	if !cfg.Auth.AuthEnabled() {
		return "", fmt.Errorf("auth.jwt_secret is not set; authentication is disabled")
	}

	svc, err := auth.NewJWTService(cfg.Auth)
	if err != nil {
		return "", err
	}
	return svc.GenerateToken(context.Background(), subject)
}
