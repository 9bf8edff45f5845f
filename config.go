// Copyright © 2025-2026 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package nxgpio

import (
	"fmt"
	"sort"
)

// BankConfig locates one register block. A zero Width selects the bank
// default: 32 for ordinary banks and the variant pin count for ALIVE.
type BankConfig struct {
	Name  string
	Base  uintptr
	Width uint
}

// DeviceConfig names a pin to export as a misc device.
type DeviceConfig struct {
	Name string
	// Pin is a global number or BANK.BIT.
	Pin string
	// PadFunc is the alternate function recorded for the pad.
	PadFunc uint
	// Trigger is empty or rising, falling or both.
	Trigger string
	// Toggle names a device whose level flips on every Trigger event.
	Toggle string
}

type Config struct {
	Variant Variant
	Banks   []BankConfig
	Devices []DeviceConfig
	// Kinds override ALIVE register kinds by field name.
	Kinds map[string]Kind
	// Input selects the ALIVE pad level field, Pad or PadRead.
	Input string
}

// Physical base addresses of the s5p4418 GPIO controllers.
const (
	GpioABase uintptr = 0xc001a000
	GpioBBase uintptr = 0xc001b000
	GpioCBase uintptr = 0xc001c000
	GpioDBase uintptr = 0xc001d000
	GpioEBase uintptr = 0xc001e000
	AliveBase uintptr = 0xc0010800
)

func DefaultConfig() Config {
	return Config{
		Variant: Legacy,
		Banks: []BankConfig{
			{Name: "gpioa", Base: GpioABase},
			{Name: "gpiob", Base: GpioBBase},
			{Name: "gpioc", Base: GpioCBase},
			{Name: "gpiod", Base: GpioDBase},
			{Name: "gpioe", Base: GpioEBase},
			{Name: AliveName, Base: AliveBase},
		},
		Input: Pad,
	}
}

// SetBank replaces the bank of the same name or adds it.
func (cfg *Config) SetBank(bc BankConfig) {
	for i := range cfg.Banks {
		if cfg.Banks[i].Name == bc.Name {
			cfg.Banks[i] = bc
			return
		}
	}
	cfg.Banks = append(cfg.Banks, bc)
}

// BankAt returns the configured bank with the given base address.
func (cfg *Config) BankAt(base uintptr) (BankConfig, bool) {
	for _, bc := range cfg.Banks {
		if bc.Base == base {
			return bc, true
		}
	}
	return BankConfig{}, false
}

// Validate checks names and references without touching hardware.
func (cfg *Config) Validate() error {
	if cfg.Variant.AlivePins == 0 || cfg.Variant.AlivePins > RegWidth {
		return fmt.Errorf("variant %q: %w", cfg.Variant.Name, ErrConfig)
	}
	if _, err := AliveLayout().WithKinds(cfg.Kinds); err != nil {
		return fmt.Errorf("%w: %v", ErrConfig, err)
	}
	if cfg.Input != "" && cfg.Input != Pad && cfg.Input != PadRead {
		return fmt.Errorf("input %q: %w", cfg.Input, ErrConfig)
	}
	seen := make(map[uint]string)
	for _, bc := range cfg.Banks {
		id, err := ParseBankName(bc.Name)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrConfig, err)
		}
		if prev, found := seen[id.Index]; found {
			return fmt.Errorf("%s and %s: %w, same bank",
				prev, bc.Name, ErrConfig)
		}
		seen[id.Index] = bc.Name
		if bc.Base == 0 {
			return fmt.Errorf("%s: %w, no base address",
				bc.Name, ErrConfig)
		}
		if bc.Width > RegWidth {
			return fmt.Errorf("%s: width %d: %w",
				bc.Name, bc.Width, ErrConfig)
		}
	}
	names := make(map[string]bool)
	for _, dc := range cfg.Devices {
		if dc.Name == "" {
			return fmt.Errorf("device pin %q: %w, no name",
				dc.Pin, ErrConfig)
		}
		if names[dc.Name] {
			return fmt.Errorf("%s: %w, duplicate device",
				dc.Name, ErrConfig)
		}
		names[dc.Name] = true
		id, _, err := ParsePin(dc.Pin)
		if err != nil {
			return fmt.Errorf("%s: %w: %v", dc.Name, ErrConfig, err)
		}
		if _, found := seen[id.Index]; !found {
			return fmt.Errorf("%s: %s: %w, bank not configured",
				dc.Name, id, ErrConfig)
		}
	}
	for _, dc := range cfg.Devices {
		if dc.Toggle != "" && !names[dc.Toggle] {
			return fmt.Errorf("%s: toggle %q: %w, no such device",
				dc.Name, dc.Toggle, ErrConfig)
		}
	}
	return nil
}

// SortDevices orders devices by name.
func (cfg *Config) SortDevices() {
	sort.Slice(cfg.Devices, func(i, j int) bool {
		return cfg.Devices[i].Name < cfg.Devices[j].Name
	})
}
