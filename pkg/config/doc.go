// Package config loads typed configuration structs from environment
// variables, with optional .env file support for local development.
//
// Each component of the realtime core declares its own Config struct with
// `env` tags and loads it through config.Load or config.MustLoad at startup.
package config
