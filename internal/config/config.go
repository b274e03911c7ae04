package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all configuration for the gateway service
type Config struct {
	Server      ServerConfig
	Database    DatabaseConfig
	Gateway     GatewayConfig
	Chain       ChainConfig
	Attestation AttestationConfig
	Admin       AdminConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port int
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// GatewayConfig holds the fixed gateway parameters
type GatewayConfig struct {
	Address     string // This gateway's address
	Counterpart string // Paired gateway on the other chain
	Owner       string // May reconfigure the burn/mint messengers
	Router      string // Optional indirection contract; empty disables

	L1Token string // Local token address
	L2Token string // Counterpart token address

	DestinationDomain uint32 // Burn/mint system's id for the destination chain
	FinalizeGasLimit  uint32 // Default relay gas budget
	MinGasLimit       uint32 // Lower clamp for caller-chosen budgets
	MaxGasLimit       uint32 // Upper clamp for caller-chosen budgets
}

// ChainConfig holds the local EVM chain configuration
type ChainConfig struct {
	RPCEndpoint               string
	OperatorPrivateKey        string
	TokenMessengerAddress     string // Burn side of the attested burn/mint system
	MessageTransmitterAddress string // Attestation submission endpoint
	DomainMessengerAddress    string // Generic cross-domain messenger
}

// AttestationConfig holds the attestation API configuration
type AttestationConfig struct {
	Endpoint     string
	SourceDomain uint32 // Burn/mint domain id of the counterpart chain
	PollInterval time.Duration
}

// AdminConfig holds credentials for owner-restricted endpoints
type AdminConfig struct {
	Token string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port: getEnvInt("SERVER_PORT", 8080),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "usdc_gateway"),
			SSLMode:  getEnv("DB_SSL_MODE", "disable"),
		},
		Gateway: GatewayConfig{
			Address:           getEnv("GATEWAY_ADDRESS", ""),
			Counterpart:       getEnv("GATEWAY_COUNTERPART", ""),
			Owner:             getEnv("GATEWAY_OWNER", ""),
			Router:            getEnv("GATEWAY_ROUTER", ""),
			L1Token:           getEnv("GATEWAY_L1_TOKEN", ""),
			L2Token:           getEnv("GATEWAY_L2_TOKEN", ""),
			DestinationDomain: uint32(getEnvInt("GATEWAY_DESTINATION_DOMAIN", 0)),
			FinalizeGasLimit:  uint32(getEnvInt("GATEWAY_FINALIZE_GAS_LIMIT", 200000)),
			MinGasLimit:       uint32(getEnvInt("GATEWAY_MIN_GAS_LIMIT", 100000)),
			MaxGasLimit:       uint32(getEnvInt("GATEWAY_MAX_GAS_LIMIT", 2000000)),
		},
		Chain: ChainConfig{
			RPCEndpoint:               getEnv("CHAIN_RPC_ENDPOINT", ""),
			OperatorPrivateKey:        getEnv("CHAIN_OPERATOR_PRIVATE_KEY", ""),
			TokenMessengerAddress:     getEnv("CHAIN_TOKEN_MESSENGER", ""),
			MessageTransmitterAddress: getEnv("CHAIN_MESSAGE_TRANSMITTER", ""),
			DomainMessengerAddress:    getEnv("CHAIN_DOMAIN_MESSENGER", ""),
		},
		Attestation: AttestationConfig{
			Endpoint:     getEnv("ATTESTATION_API_ENDPOINT", "https://iris-api.circle.com"),
			SourceDomain: uint32(getEnvInt("ATTESTATION_SOURCE_DOMAIN", 0)),
			PollInterval: time.Duration(getEnvInt("ATTESTATION_POLL_INTERVAL_SECONDS", 30)) * time.Second,
		},
		Admin: AdminConfig{
			Token: getEnv("ADMIN_TOKEN", ""),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}

	if c.Gateway.Address == "" {
		return fmt.Errorf("GATEWAY_ADDRESS is required")
	}
	if c.Gateway.Counterpart == "" {
		return fmt.Errorf("GATEWAY_COUNTERPART is required")
	}
	if c.Gateway.Owner == "" {
		return fmt.Errorf("GATEWAY_OWNER is required")
	}
	if c.Gateway.L1Token == "" || c.Gateway.L2Token == "" {
		return fmt.Errorf("GATEWAY_L1_TOKEN and GATEWAY_L2_TOKEN are required")
	}
	if c.Gateway.MinGasLimit > c.Gateway.MaxGasLimit {
		return fmt.Errorf("min gas limit %d exceeds max %d", c.Gateway.MinGasLimit, c.Gateway.MaxGasLimit)
	}

	if c.Chain.RPCEndpoint == "" {
		return fmt.Errorf("CHAIN_RPC_ENDPOINT is required")
	}
	if c.Chain.OperatorPrivateKey == "" {
		return fmt.Errorf("CHAIN_OPERATOR_PRIVATE_KEY is required")
	}
	if c.Chain.TokenMessengerAddress == "" || c.Chain.MessageTransmitterAddress == "" {
		return fmt.Errorf("burn/mint messenger addresses are required")
	}
	if c.Chain.DomainMessengerAddress == "" {
		return fmt.Errorf("CHAIN_DOMAIN_MESSENGER is required")
	}

	return nil
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
