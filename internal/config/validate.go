package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateQueue(); err != nil {
		return err
	}
	if err := c.validateContext(); err != nil {
		return err
	}
	if err := c.validateProvider(); err != nil {
		return err
	}
	if err := c.validateAcoustic(); err != nil {
		return err
	}
	if err := c.validateRPC(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateQueue() error {
	if c.Queue.DesiredLength < 0 {
		return errors.New("queue.desired_length must be >= 0 (seconds)")
	}
	if c.Queue.Number <= 0 {
		return errors.New("queue.number must be positive")
	}
	if c.Queue.BlockHours <= 0 {
		return errors.New("queue.block_hours must be positive")
	}
	return nil
}

func (c *Config) validateContext() error {
	for _, entry := range strings.Split(c.Context.Birthdays, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		name, date, ok := strings.Cut(entry, ":")
		if !ok || strings.TrimSpace(name) == "" {
			return fmt.Errorf("context.birthdays entry %q must look like \"name: YYYY-MM-DD\"", entry)
		}
		date = strings.ReplaceAll(strings.TrimSpace(date), "/", "-")
		if _, err := time.Parse("2006-1-2", date); err != nil {
			return fmt.Errorf("context.birthdays entry %q has an unparseable date", entry)
		}
	}
	return nil
}

func (c *Config) validateProvider() error {
	if !c.Provider.Enabled {
		return nil
	}
	if c.Provider.BaseURL == "" {
		return errors.New("provider.base_url must be set when provider.enabled is true")
	}
	if err := ensurePositiveMap(map[string]int{
		"provider.throttle_ms":     c.Provider.ThrottleMillis,
		"provider.cache_days":      c.Provider.CacheDays,
		"provider.timeout_seconds": c.Provider.TimeoutSeconds,
	}); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateAcoustic() error {
	if c.Acoustic.Enabled && c.Acoustic.Neighbours <= 0 {
		return errors.New("acoustic.neighbours must be positive when acoustic.enabled is true")
	}
	return nil
}

func (c *Config) validateRPC() error {
	if c.RPC.TimeoutMillis <= 0 {
		return errors.New("rpc.timeout_ms must be positive")
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
