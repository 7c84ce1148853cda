// Command devtoken mints a session token signed with JWT_SECRET for local
// testing against the API.
//
//	go run ./cmd/devtoken -sub u1 -name "Pat Neighbor"
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/tbourn/briar-chapel-connect/internal/auth"
	"github.com/tbourn/briar-chapel-connect/internal/config"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}

	sub := flag.String("sub", "", "user id (token subject)")
	name := flag.String("name", "", "display name")
	ttl := flag.Duration("ttl", cfg.Auth.TokenTTL, "token lifetime")
	flag.Parse()

	if *sub == "" {
		fmt.Fprintln(os.Stderr, "devtoken: -sub is required")
		flag.Usage()
		os.Exit(2)
	}

	p := auth.NewJWTProvider(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.Audience)
	tok, err := p.Issue(auth.Identity{UserID: *sub, DisplayName: *name}, *ttl)
	if err != nil {
		log.Fatal().Err(err).Msg("sign token")
	}
	fmt.Println(tok)
}
