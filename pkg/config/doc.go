// Package config loads typed configuration structs from environment
// variables via github.com/caarlos0/env, with optional .env support through
// github.com/joho/godotenv for local development.
//
// Every component in this module (token issuer, providers, database and
// redis connectors, the client controller) declares its own Config struct
// with `env` tags and sensible envDefault values, and is wired up with:
//
//	var cfg tokens.Config
//	config.MustLoad(&cfg)
package config
