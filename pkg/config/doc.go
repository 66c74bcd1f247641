// Package config loads typed configuration structs from environment
// variables, with optional .env file support for local development.
//
// Each component of the application declares its own Config struct with
// `env:` tags and loads it at startup:
//
//	var cfg httpserver.Config
//	config.MustLoad(&cfg)
//
// Parsed configurations are cached per type, so repeated loads of the same
// struct are cheap and consistent.
package config
