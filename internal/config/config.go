// Package config handles loading and parsing of configuration: the
// environment (usually populated from a .env file) and the mapping and
// schema files.
package config

import (
	"errors"
	"os"
)

// Config holds all configuration for the application,
// typically loaded from environment variables.
type Config struct {
	MeasurementID string
	APISecret     string
	EventName     string

	SQLConnString     string
	MongoConnString   string
	MongoDatabase     string
	StagingCollection string
}

// LoadConfig loads application settings from environment variables
// (which should be populated by the .env file in main.go).
func LoadConfig() (*Config, error) {
	measurementID := os.Getenv("MP_MEASUREMENT_ID")
	if measurementID == "" {
		return nil, errors.New("MP_MEASUREMENT_ID environment variable not set")
	}

	apiSecret := os.Getenv("MP_API_SECRET")
	if apiSecret == "" {
		return nil, errors.New("MP_API_SECRET environment variable not set")
	}

	return &Config{
		MeasurementID:     measurementID,
		APISecret:         apiSecret,
		EventName:         os.Getenv("MP_EVENT_NAME"),
		SQLConnString:     os.Getenv("SQL_CONNECTION_STRING"),
		MongoConnString:   os.Getenv("MONGO_CONNECTION_STRING"),
		MongoDatabase:     getenvDefault("MONGO_DATABASE", "ga_mp_uploader"),
		StagingCollection: getenvDefault("MONGO_STAGING_COLLECTION", "staging"),
	}, nil
}

func getenvDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
