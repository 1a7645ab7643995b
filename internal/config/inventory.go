package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// RoomConfig describes one bookable project room.
type RoomConfig struct {
	ID       string `yaml:"id"`
	Name     string `yaml:"name"`
	Capacity int    `yaml:"capacity"`
	IsActive bool   `yaml:"is_active"`
}

// InventoryConfig is the root of inventory.yaml: the bookable rooms and
// the personal seat count.
type InventoryConfig struct {
	Rooms []RoomConfig `yaml:"rooms"`
	Seats struct {
		Count int `yaml:"count"`
	} `yaml:"seats"`
}

// LoadInventory loads and validates the inventory configuration.
func LoadInventory(path string) (*InventoryConfig, error) {
	if path == "" {
		path = "configs/inventory.yaml"
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read inventory config: %w", err)
	}

	var cfg InventoryConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse inventory config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate inventory config: %w", err)
	}
	return &cfg, nil
}

// Validate checks the inventory for errors.
func (c *InventoryConfig) Validate() error {
	if len(c.Rooms) == 0 {
		return fmt.Errorf("no rooms defined")
	}

	ids := make(map[string]bool)
	for i, room := range c.Rooms {
		if room.ID == "" {
			return fmt.Errorf("room[%d]: id is required", i)
		}
		if ids[room.ID] {
			return fmt.Errorf("room[%d]: duplicate id %q", i, room.ID)
		}
		ids[room.ID] = true
		if room.Capacity < 0 {
			return fmt.Errorf("room[%d]: capacity cannot be negative", i)
		}
	}

	if c.Seats.Count < 1 {
		return fmt.Errorf("seats.count must be at least 1")
	}
	return nil
}

// ActiveRoomIDs returns the ids of rooms open for booking.
func (c *InventoryConfig) ActiveRoomIDs() []string {
	var ids []string
	for _, room := range c.Rooms {
		if room.IsActive {
			ids = append(ids, room.ID)
		}
	}
	return ids
}

// SeatIDs returns the seat numbers as strings, "1".."N".
func (c *InventoryConfig) SeatIDs() []string {
	ids := make([]string, 0, c.Seats.Count)
	for i := 1; i <= c.Seats.Count; i++ {
		ids = append(ids, strconv.Itoa(i))
	}
	return ids
}

// WatchInventory reloads inventory.yaml on change and calls onUpdate with
// the latest config. It performs an initial load before entering the
// watch loop.
func WatchInventory(ctx context.Context, path string, interval time.Duration, onUpdate func(*InventoryConfig)) error {
	if path == "" {
		path = "configs/inventory.yaml"
	}
	if interval <= 0 {
		interval = 30 * time.Second
	}

	cfg, err := LoadInventory(path)
	if err != nil {
		return err
	}
	if onUpdate != nil {
		onUpdate(cfg)
	}

	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	lastMod := info.ModTime()

	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				info, err := os.Stat(path)
				if err != nil {
					continue // transient errors
				}
				if !info.ModTime().After(lastMod) {
					continue
				}
				cfg, err := LoadInventory(path)
				if err != nil {
					continue
				}
				lastMod = info.ModTime()
				if onUpdate != nil {
					onUpdate(cfg)
				}
			}
		}
	}()

	return nil
}
