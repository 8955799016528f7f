package config

import (
	"log"
	"os"
	"strconv"

	"github.com/golang-jwt/jwt/v4"
	"github.com/joho/godotenv"
)

// JWT_KEY signs operator session tokens. Loaded once at startup.
var JWT_KEY []byte

// JWTClaims is the payload carried inside an operator token.
type JWTClaims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

func init() {
	// .env only exists in local development; in deployment every value
	// comes from the process environment, so the load error is ignored.
	if err := godotenv.Load(); err != nil {
		log.Println("config: no .env file, using system environment")
	}

	key := os.Getenv("JWT_KEY")
	if key == "" {
		log.Fatal("config: JWT_KEY is not set in the environment")
	}
	JWT_KEY = []byte(key)
}

// MatchTolerance is the maximum embedding distance for a face match.
func MatchTolerance() float64 {
	return envFloat("MATCH_TOLERANCE", 0.6)
}

// MinConfidence is the acceptance policy applied on top of the matcher:
// matches below it are treated as "no match". Call-site policy, not part
// of the matcher itself.
func MinConfidence() float64 {
	return envFloat("MIN_CONFIDENCE", 0.5)
}

// PreWindowMinutes is how long before class start check-ins open.
func PreWindowMinutes() int {
	return envInt("PRE_WINDOW_MIN", 5)
}

// LateThresholdMinutes is the grace period after class start before a
// check-in counts as late.
func LateThresholdMinutes() int {
	return envInt("LATE_THRESHOLD_MIN", 5)
}

func envFloat(key string, def float64) float64 {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		log.Printf("config: invalid %s=%q, using default %v", key, raw, def)
		return def
	}
	return v
}

func envInt(key string, def int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		log.Printf("config: invalid %s=%q, using default %v", key, raw, def)
		return def
	}
	return v
}
