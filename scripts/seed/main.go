// Seed adds demo tasks through the local API. Run from project root:
// go run ./scripts/seed
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func main() {
	base := os.Getenv("TASKSYNC_URL")
	if base == "" {
		base = "http://localhost:8080"
	}

	token := ""
	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		now := time.Now()
		t := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
			Subject:   "seed",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		})
		signed, err := t.SignedString([]byte(secret))
		if err != nil {
			fmt.Fprintln(os.Stderr, "Sign token failed:", err)
			os.Exit(1)
		}
		token = signed
	}

	const total = 25
	client := &http.Client{Timeout: 10 * time.Second}
	for i := 1; i <= total; i++ {
		body, _ := json.Marshal(map[string]interface{}{
			"title":       fmt.Sprintf("Task %d", i),
			"description": fmt.Sprintf("Seeded task %d", i),
			"datetime":    time.Now().Add(time.Duration(i) * time.Hour).Format(time.RFC3339),
			"location":    "Office",
		})
		req, err := http.NewRequest(http.MethodPost, base+"/tasks", bytes.NewReader(body))
		if err != nil {
			fmt.Fprintln(os.Stderr, "Build request failed:", err)
			os.Exit(1)
		}
		req.Header.Set("Content-Type", "application/json")
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		resp, err := client.Do(req)
		if err != nil {
			fmt.Fprintln(os.Stderr, "Request failed:", err)
			os.Exit(1)
		}
		resp.Body.Close()
		if resp.StatusCode >= 300 {
			fmt.Fprintf(os.Stderr, "Seed %d rejected: %d\n", i, resp.StatusCode)
			os.Exit(1)
		}
		fmt.Printf("\rSeeded %d / %d", i, total)
	}
	fmt.Println("\nDone")
}
