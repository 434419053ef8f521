// cmd/gentoken/main.go — Genera un JWT de prueba para la API.
// Uso: JWT_SECRET=... go run ./cmd/gentoken [rol]
package main

import (
	"fmt"
	"os"
	"time"

	"abasto/internal/middleware"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

func main() {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		fmt.Fprintln(os.Stderr, "JWT_SECRET requerido")
		os.Exit(1)
	}

	rol := middleware.RolAdministrador
	if len(os.Args) > 1 {
		rol = os.Args[1]
	}

	claims := middleware.JWTClaims{
		UserID:   uuid.NewString(),
		Username: "demo@abasto.local",
		Rol:      rol,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		fmt.Fprintf(os.Stderr, "sign error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(token)
}
