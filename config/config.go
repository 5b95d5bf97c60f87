// Package config loads transport/provider/stream defaults from the
// environment and an optional .env file via viper (no YAML or other
// config file is read), generalizing the
// teacher's internal/config env-var-with-default helpers into a single
// bound struct.
package config

import (
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/NethermindEth/starknet-go-client/transport"
	"github.com/NethermindEth/starknet-go-client/txstream"
)

// Config holds every recognised option from the library's defaults
// table: transport timeout/retry/batch, WebSocket lifecycle, and
// stream poll/confirmation/dedup parameters.
type Config struct {
	Timeout    time.Duration
	Retries    int
	RetryDelay time.Duration

	BatchWait time.Duration
	BatchSize int

	Reconnect            bool
	ReconnectDelay       time.Duration
	MaxReconnectAttempts int
	KeepAlive            time.Duration

	Rank bool

	PollInterval        time.Duration
	Confirmations       uint64
	MaxSeenTransactions int
	MaxPendingPolls     int
}

// Load reads RpcURL-independent library configuration from environment
// variables (optionally backed by a .env file at envPath, loaded first
// if non-empty) bound through viper with the STARKNET_ prefix, falling
// back to the package defaults for anything unset.
func Load(envPath string) (Config, error) {
	if envPath != "" {
		if err := godotenv.Load(envPath); err != nil {
			return Config{}, err
		}
	}

	v := viper.New()
	v.SetEnvPrefix("STARKNET")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("timeout_ms", 30000)
	v.SetDefault("retries", 0)
	v.SetDefault("retry_delay_ms", 1000)
	v.SetDefault("batch_wait_ms", 0)
	v.SetDefault("batch_size", 100)
	v.SetDefault("reconnect", true)
	v.SetDefault("reconnect_delay_ms", 5000)
	v.SetDefault("max_reconnect_attempts", 0)
	v.SetDefault("keep_alive_ms", 30000)
	v.SetDefault("rank", false)
	v.SetDefault("poll_interval_ms", 3000)
	v.SetDefault("confirmations", 1)
	v.SetDefault("max_seen_transactions", 20000)
	v.SetDefault("max_pending_polls", 0)

	return Config{
		Timeout:              time.Duration(v.GetInt64("timeout_ms")) * time.Millisecond,
		Retries:              v.GetInt("retries"),
		RetryDelay:           time.Duration(v.GetInt64("retry_delay_ms")) * time.Millisecond,
		BatchWait:            time.Duration(v.GetInt64("batch_wait_ms")) * time.Millisecond,
		BatchSize:            v.GetInt("batch_size"),
		Reconnect:            v.GetBool("reconnect"),
		ReconnectDelay:       time.Duration(v.GetInt64("reconnect_delay_ms")) * time.Millisecond,
		MaxReconnectAttempts: v.GetInt("max_reconnect_attempts"),
		KeepAlive:            time.Duration(v.GetInt64("keep_alive_ms")) * time.Millisecond,
		Rank:                 v.GetBool("rank"),
		PollInterval:         time.Duration(v.GetInt64("poll_interval_ms")) * time.Millisecond,
		Confirmations:        uint64(v.GetInt64("confirmations")),
		MaxSeenTransactions:  v.GetInt("max_seen_transactions"),
		MaxPendingPolls:      v.GetInt("max_pending_polls"),
	}, nil
}

// TransportOptions renders the HTTP/WebSocket transport slice of c as
// transport.Options, whose Timeout/RetryDelay are millisecond counts.
func (c Config) TransportOptions() transport.Options {
	opts := transport.Options{
		Timeout:    c.Timeout.Milliseconds(),
		Retries:    c.Retries,
		RetryDelay: c.RetryDelay.Milliseconds(),
	}
	if c.BatchSize > 0 {
		opts.Batch = &transport.BatchOptions{
			BatchWait: c.BatchWait.Milliseconds(),
			BatchSize: c.BatchSize,
		}
	}
	return opts
}

// WSOptions renders the WebSocket lifecycle slice of c as
// transport.WSOptions, whose delay fields are millisecond counts.
func (c Config) WSOptions() transport.WSOptions {
	return transport.WSOptions{
		Reconnect:            c.Reconnect,
		ReconnectDelay:       c.ReconnectDelay.Milliseconds(),
		MaxReconnectAttempts: c.MaxReconnectAttempts,
		KeepAlive:            c.KeepAlive.Milliseconds(),
	}
}

// PendingOptions renders c's stream slice as txstream.PendingOptions.
func (c Config) PendingOptions() txstream.PendingOptions {
	return txstream.PendingOptions{
		PollInterval:        c.PollInterval,
		MaxSeenTransactions: c.MaxSeenTransactions,
	}
}

// ConfirmedOptions renders c's stream slice as txstream.ConfirmedOptions.
func (c Config) ConfirmedOptions() txstream.ConfirmedOptions {
	return txstream.ConfirmedOptions{
		PollInterval:        c.PollInterval,
		Confirmations:       c.Confirmations,
		MaxSeenTransactions: c.MaxSeenTransactions,
	}
}

// TrackOptions renders c's stream slice as txstream.TrackOptions.
func (c Config) TrackOptions() txstream.TrackOptions {
	return txstream.TrackOptions{
		PollInterval:    c.PollInterval,
		Confirmations:   c.Confirmations,
		MaxPendingPolls: c.MaxPendingPolls,
	}
}
