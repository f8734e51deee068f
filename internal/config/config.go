package config

import (
	"flag"
	"log"
	"os"
	"path/filepath"
	"strconv"
)

// Config holds all application configuration.
type Config struct {
	Addr      string // HTTP server address; empty disables the server
	DBPath    string // SQLite audit database; empty disables persistence
	PcapPath  string // capture file; empty disables tracing
	LLT       uint   // link loss timeout in 32µs blocks
	Band      string // target band of the transfer: "2.4GHz", "4.9GHz" or "60GHz"
	DelayUs   uint   // one-way frame delivery delay in microseconds
	TrafficUs uint   // background traffic interval in microseconds; 0 for none
	Debug     bool
}

// Load parses command line flags and environment variables to populate Config.
// Flags take precedence over environment variables.
func Load() *Config {
	cfg := &Config{}

	// Defaults and Environment Variables
	cfg.Addr = getEnv("FSTSIM_ADDR", "")
	cfg.DBPath = getEnv("FSTSIM_DB", getDefaultDBPath())
	cfg.PcapPath = getEnv("FSTSIM_PCAP", "")
	cfg.LLT = getEnvUint("FSTSIM_LLT", 10)
	cfg.Band = getEnv("FSTSIM_BAND", "4.9GHz")
	cfg.Debug = getEnvBool("FSTSIM_DEBUG", false)

	// Command Line Flags (Override Env)
	flag.StringVar(&cfg.Addr, "addr", cfg.Addr, "HTTP status server address (empty to disable)")
	flag.StringVar(&cfg.DBPath, "db", cfg.DBPath, "Path to SQLite audit database (empty to disable)")
	flag.StringVar(&cfg.PcapPath, "pcap", cfg.PcapPath, "Path to save PCAP file (empty to disable)")
	flag.UintVar(&cfg.LLT, "llt", cfg.LLT, "Link loss timeout in 32µs blocks (0 switches immediately)")
	flag.StringVar(&cfg.Band, "band", cfg.Band, "Target band of the transfer (2.4GHz, 4.9GHz, 60GHz)")
	flag.UintVar(&cfg.DelayUs, "delay", 10, "One-way frame delivery delay in microseconds")
	flag.UintVar(&cfg.TrafficUs, "traffic", 0, "Background traffic interval in microseconds (0 for none)")
	flag.BoolVar(&cfg.Debug, "debug", cfg.Debug, "Enable verbose debug logging")

	flag.Parse()

	return cfg
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvUint(key string, fallback uint) uint {
	if value, ok := os.LookupEnv(key); ok {
		if n, err := strconv.ParseUint(value, 10, 32); err == nil {
			return uint(n)
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

// getDefaultDBPath returns the default database path in user's home directory.
// Creates the directory if it doesn't exist.
func getDefaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		log.Printf("Warning: Could not get user home directory, using current dir: %v", err)
		return "fstsim.db"
	}

	dir := filepath.Join(home, ".fstsim")
	if err := os.MkdirAll(dir, 0755); err != nil {
		log.Printf("Warning: Could not create .fstsim directory, using current dir: %v", err)
		return "fstsim.db"
	}

	return filepath.Join(dir, "fstsim.db")
}
