// Package config loads the node's layered configuration: file defaults,
// NEO_*-prefixed environment overrides and finally CLI flags, which the
// caller applies on top of what LoadFile returns.
package config

import (
	"bytes"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/n3-core/node/pkg/config/netmode"
	"gopkg.in/yaml.v3"
)

// Config is the top-level document: protocol rules (consensus-critical,
// shared by every node on the network) plus this node's own local
// application settings.
type Config struct {
	ProtocolConfiguration    ProtocolConfiguration    `yaml:"ProtocolConfiguration"`
	ApplicationConfiguration ApplicationConfiguration `yaml:"ApplicationConfiguration"`
}

// ProtocolConfiguration is the consensus-critical rule set every node on
// a given network must apply identically.
type ProtocolConfiguration struct {
	Magic                       netmode.Magic     `yaml:"Magic"`
	MillisecondsPerBlock        int               `yaml:"MillisecondsPerBlock"`
	MaxTransactionsPerBlock     int               `yaml:"MaxTransactionsPerBlock"`
	MaxBlockSize                int               `yaml:"MaxBlockSize"`
	MaxBlockSystemFee           int64             `yaml:"MaxBlockSystemFee"`
	MaxValidUntilBlockIncrement uint32            `yaml:"MaxValidUntilBlockIncrement"`
	MemPoolSize                 int               `yaml:"MemPoolSize"`
	ValidatorsCount             int               `yaml:"ValidatorsCount"`
	CommitteeSize               int               `yaml:"CommitteeSize"`
	StandbyCommittee            []string          `yaml:"StandbyCommittee"`
	SeedList                    []string          `yaml:"SeedList"`
	AddressVersion              byte              `yaml:"AddressVersion"`
	InitialGASSupply            int64             `yaml:"InitialGASSupply"`
	Hardforks                   map[string]uint32 `yaml:"Hardforks"`
}

// StandbyValidators is the prefix of StandbyCommittee that produces
// blocks (the top ValidatorsCount entries), per spec §4.E.4.
func (p ProtocolConfiguration) StandbyValidators() []string {
	n := p.ValidatorsCount
	if n > len(p.StandbyCommittee) {
		n = len(p.StandbyCommittee)
	}
	return p.StandbyCommittee[:n]
}

// HardforkActive reports whether name's activation height is at or
// before index (spec §6.4: hardforks apply identically across the
// network starting at their configured height).
func (p ProtocolConfiguration) HardforkActive(name string, index uint32) bool {
	h, ok := p.Hardforks[name]
	return ok && index >= h
}

// ApplicationConfiguration is this node's own local settings: none of it
// is consensus-critical, and two honest nodes may disagree on any of it.
type ApplicationConfiguration struct {
	DataDirectoryPath string                  `yaml:"DataDirectoryPath"`
	LogPath           string                  `yaml:"LogPath"`
	P2P               P2P                     `yaml:"P2P"`
	Storage           Storage                 `yaml:"Storage"`
	RPC               RPC                     `yaml:"RPC"`
	Consensus         Consensus               `yaml:"Consensus"`
	Log               Log                     `yaml:"Log"`
}

// P2P is the "network" section of spec §6.3.
type P2P struct {
	MaxPeers          int    `yaml:"MaxPeers"`
	MinPeers          int    `yaml:"MinPeers"`
	TCPPort           uint16 `yaml:"TCPPort"`
	WSPort            uint16 `yaml:"WSPort"`
	EnableCompression bool   `yaml:"EnableCompression"`
	DialTimeoutMS     int    `yaml:"DialTimeoutMS"`
	PingIntervalS     int    `yaml:"PingIntervalS"`
	PingTimeoutS      int    `yaml:"PingTimeoutS"`
}

// Storage is the "storage" section of spec §6.3.
type Storage struct {
	Provider string `yaml:"Provider"` // memory|leveldb|boltdb
	Path     string `yaml:"Path"`
}

// RPC is the "rpc" section of spec §6.3.
type RPC struct {
	Enabled           bool     `yaml:"Enabled"`
	Address           string   `yaml:"Address"`
	Port              uint16   `yaml:"Port"`
	MaxConcurrent     int      `yaml:"MaxConcurrentRequests"`
	RequestTimeoutS   int      `yaml:"RequestTimeoutSeconds"`
	EnableCORS        bool     `yaml:"EnableCORS"`
	AllowedOrigins    []string `yaml:"AllowedOrigins"`
	MaxIteratorItems  int      `yaml:"MaxIteratorResultItems"`
	MaxFindItems      int      `yaml:"MaxFindResultItems"`
}

// Consensus is the "consensus" section of spec §6.3.
type Consensus struct {
	Enabled        bool   `yaml:"Enabled"`
	AutoStart      bool   `yaml:"AutoStart"`
	WalletPath     string `yaml:"WalletPath"`
	WalletPassword string `yaml:"WalletPassword"`
}

// Log is the "log" section of spec §6.3.
type Log struct {
	Level    string `yaml:"Level"`
	File     string `yaml:"File"`
	MaxFiles int    `yaml:"MaxFiles"`
	MaxSizeMB int   `yaml:"MaxSizeMB"`
	Async    bool   `yaml:"Async"`
}

// Default returns a configuration usable as-is for a private network:
// one validator, in-memory storage, RPC and consensus disabled.
func Default() Config {
	return Config{
		ProtocolConfiguration: ProtocolConfiguration{
			Magic:                       netmode.PrivNet,
			MillisecondsPerBlock:        15000,
			MaxTransactionsPerBlock:     512,
			MaxBlockSize:                262144,
			MaxBlockSystemFee:           900_000_000_00000000,
			MaxValidUntilBlockIncrement: 5760,
			MemPoolSize:                 50_000,
			ValidatorsCount:             1,
			CommitteeSize:               1,
			AddressVersion:              0x35,
			InitialGASSupply:            52_000_000_00000000,
			Hardforks:                   map[string]uint32{},
		},
		ApplicationConfiguration: ApplicationConfiguration{
			DataDirectoryPath: "./chains/privnet",
			P2P: P2P{
				MaxPeers:          100,
				MinPeers:          5,
				TCPPort:           20333,
				EnableCompression: true,
				PingIntervalS:     30,
				PingTimeoutS:      90,
			},
			Storage: Storage{Provider: "memory"},
			RPC: RPC{
				Address:          "127.0.0.1",
				Port:             10332,
				MaxConcurrent:    40,
				RequestTimeoutS:  10,
				MaxIteratorItems: 100,
				MaxFindItems:     100,
			},
			Log: Log{Level: "info"},
		},
	}
}

// LoadFile reads and decodes the YAML document at path, layering it
// over Default() so an incomplete file still yields sane values, then
// applies NEO_*-prefixed environment variable overrides (spec §6.3
// precedence: command-line > env vars > file > defaults; CLI flag
// application is the caller's responsibility, applied after LoadFile
// returns).
func LoadFile(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
		dec := yaml.NewDecoder(bytes.NewReader(data))
		if err := dec.Decode(&cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}
	applyEnv(&cfg)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects a configuration that would make the node behave
// incorrectly rather than simply sub-optimally.
func (c Config) Validate() error {
	if c.ProtocolConfiguration.ValidatorsCount <= 0 {
		return fmt.Errorf("config: ValidatorsCount must be positive")
	}
	if c.ProtocolConfiguration.ValidatorsCount > len(c.ProtocolConfiguration.StandbyCommittee) &&
		len(c.ProtocolConfiguration.StandbyCommittee) > 0 {
		return fmt.Errorf("config: ValidatorsCount exceeds StandbyCommittee size")
	}
	switch c.ApplicationConfiguration.Storage.Provider {
	case "memory", "leveldb", "boltdb", "":
	default:
		return fmt.Errorf("config: unknown storage provider %q", c.ApplicationConfiguration.Storage.Provider)
	}
	return nil
}

// applyEnv sets config fields from NEO_* environment variables, applied
// after file decoding and before validation (spec §6.3 precedence). Each
// variable is checked explicitly rather than through reflection so the
// override surface is auditable at a glance.
func applyEnv(cfg *Config) {
	if v, ok := os.LookupEnv("NEO_RPC_PORT"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.ApplicationConfiguration.RPC.Port = uint16(n)
		}
	}
	if v, ok := os.LookupEnv("NEO_P2P_PORT"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.ApplicationConfiguration.P2P.TCPPort = uint16(n)
		}
	}
	if v, ok := os.LookupEnv("NEO_DATA_DIR"); ok {
		cfg.ApplicationConfiguration.DataDirectoryPath = v
	}
	if v, ok := os.LookupEnv("NEO_LOG_LEVEL"); ok {
		cfg.ApplicationConfiguration.Log.Level = strings.ToLower(v)
	}
	if v, ok := os.LookupEnv("NEO_SEED_LIST"); ok && v != "" {
		cfg.ProtocolConfiguration.SeedList = strings.Split(v, ",")
	}
	if _, ok := os.LookupEnv("NEO_NO_CONSENSUS"); ok {
		cfg.ApplicationConfiguration.Consensus.Enabled = false
	}
}
