package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// LoadENV loads variables from .env unless GO_ENV points at a deployed environment.
func LoadENV() error {
	goEnv := os.Getenv("GO_ENV")

	if goEnv == "" || goEnv == "development" {
		err := godotenv.Load()
		if err != nil {
			return err
		}
	}

	return nil
}

type EnviornmentVariable struct {
	GO_ENV       string
	DB_USER_NAME string
	DB_PASSWORD  string
	DB_NAME      string
	DB_HOST      string
	DB_PORT      string
	DB_SSL_MODE  string
	PORT         int
	// JWT Configuration
	JWT_SECRET string
	JWT_ISSUER string
	// Redis Configuration
	REDIS_URL      string
	REDIS_PASSWORD string
	REDIS_DB       string
	// LLM provider configuration
	OPENROUTER_API_KEY string
	OPENAI_API_KEY     string
	LLM_BASE_URL       string
	LLM_MODEL          string
	// Public base URL used when building share links
	SHARE_BASE_URL string
}

func Get() (*EnviornmentVariable, error) {

	port, err := strconv.Atoi(os.Getenv("PORT"))
	if err != nil {
		port = 8080
	}

	// Database defaults
	dbHost := os.Getenv("DB_HOST")
	if dbHost == "" {
		dbHost = "localhost"
	}

	dbPort := os.Getenv("DB_PORT")
	if dbPort == "" {
		dbPort = "5432"
	}

	shareBaseURL := os.Getenv("SHARE_BASE_URL")
	if shareBaseURL == "" {
		shareBaseURL = "https://quirra.app"
	}

	envVariables := &EnviornmentVariable{
		GO_ENV:       os.Getenv("GO_ENV"),
		DB_USER_NAME: os.Getenv("DB_USER_NAME"),
		DB_PASSWORD:  os.Getenv("DB_PASSWORD"),
		DB_NAME:      os.Getenv("DB_NAME"),
		DB_HOST:      dbHost,
		DB_PORT:      dbPort,
		DB_SSL_MODE:  os.Getenv("DB_SSL_MODE"),
		PORT:         port,
		// JWT
		JWT_SECRET: os.Getenv("JWT_SECRET"),
		JWT_ISSUER: os.Getenv("JWT_ISSUER"),
		// Redis
		REDIS_URL:      os.Getenv("REDIS_URL"),
		REDIS_PASSWORD: os.Getenv("REDIS_PASSWORD"),
		REDIS_DB:       os.Getenv("REDIS_DB"),
		// LLM provider
		OPENROUTER_API_KEY: os.Getenv("OPENROUTER_API_KEY"),
		OPENAI_API_KEY:     os.Getenv("OPENAI_API_KEY"),
		LLM_BASE_URL:       os.Getenv("LLM_BASE_URL"),
		LLM_MODEL:          os.Getenv("LLM_MODEL"),
		SHARE_BASE_URL:     shareBaseURL,
	}

	return envVariables, nil
}

// LLMAPIKey resolves the provider key. OpenRouter takes precedence over
// OpenAI; empty when neither is configured.
func (e *EnviornmentVariable) LLMAPIKey() string {
	if e.OPENROUTER_API_KEY != "" {
		return e.OPENROUTER_API_KEY
	}
	return e.OPENAI_API_KEY
}
