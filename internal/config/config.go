// Package config loads and hot-reloads the TCP protocol module's runtime
// knobs. Structure and loading mechanics follow the teacher's
// internal/config/config.go + loader.go + watcher.go: a struct tree
// unmarshalled by viper from a YAML document, environment-variable
// overrides, and an fsnotify watcher that re-loads on change.
package config

import "time"

// TCPConfig holds every knob spec §6 names as external configuration.
type TCPConfig struct {
	// Secure selects the anti-flood transition table (internal/fsm's
	// secure table) instead of the normal one.
	Secure bool `yaml:"secure" mapstructure:"secure"`

	// DropEntry, when true, drops ingress segments for virtual services
	// this balancer does not recognize (the stray-VIP shield) rather than
	// forwarding them anywhere else.
	DropEntry bool `yaml:"tcp_drop_entry" mapstructure:"tcp_drop_entry"`

	// LogStrayVIP enables the rate-limited warning when DropEntry fires.
	LogStrayVIP bool `yaml:"log_stray_vip" mapstructure:"log_stray_vip"`

	// MSSAdjustEntry and MSSDelta configure the MSS clamp FullNAT ingress
	// applies (spec §4.2). MSSDelta is typically the length of the
	// client-address option this module may insert.
	MSSAdjustEntry bool   `yaml:"mss_adjust_entry" mapstructure:"mss_adjust_entry"`
	MSSDelta       uint16 `yaml:"mss_delta" mapstructure:"mss_delta"`

	// TimestampRemoveEntry erases the TCP timestamp option on the FullNAT
	// ingress leg, where two independent clocks would otherwise leak
	// across the proxy boundary.
	TimestampRemoveEntry bool `yaml:"timestamp_remove_entry" mapstructure:"timestamp_remove_entry"`

	// TOAEntry enables one-shot client-address option insertion.
	TOAEntry bool `yaml:"toa_entry" mapstructure:"toa_entry"`

	// ConnExpireTCPRst enables RST synthesis on flow expiry (C7); when
	// false, expired flows are simply dropped from the flow table with no
	// parting packets.
	ConnExpireTCPRst bool `yaml:"conn_expire_tcp_rst" mapstructure:"conn_expire_tcp_rst"`

	// ConnReuseEntry allows a flow in a closing state to be reused by a
	// fresh SYN instead of waiting out its timeout (internal/seqxlat.Init's
	// reuse path).
	ConnReuseEntry bool `yaml:"conn_reused_entry" mapstructure:"conn_reused_entry"`

	// SynProxyEnabled gates the scheduling gate's ack_rcv first-refusal
	// rule (internal/schedule).
	SynProxyEnabled bool `yaml:"syn_proxy_enabled" mapstructure:"syn_proxy_enabled"`

	// Timeouts overrides the default per-state idle timeout vector
	// (internal/fsm.DefaultTimeouts); a zero entry means "use the default".
	// Indexed the same way as flow.State.
	Timeouts [11]time.Duration `yaml:"tcp_timeouts" mapstructure:"tcp_timeouts"`
}

// Config is the top-level document; it only has one section today, but
// mirrors the teacher's Config struct shape (a tree of named sections) so
// adding a sibling module's config later is a one-field addition, not a
// restructuring.
type Config struct {
	TCP TCPConfig `yaml:"tcp" mapstructure:"tcp"`
}

// Default returns the stock configuration: normal table, no MSS clamp, no
// TOA insertion, RST synthesis on expiry enabled, reuse allowed.
func Default() *Config {
	return &Config{
		TCP: TCPConfig{
			ConnExpireTCPRst: true,
			ConnReuseEntry:   true,
			LogStrayVIP:      true,
			DropEntry:        true,
		},
	}
}
