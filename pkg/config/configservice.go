// Gamedex Core
// Copyright (c) 2026 The Gamedex Contributors.
// SPDX-License-Identifier: GPL-3.0-or-later
//
// This file is part of Gamedex Core.
//
// Gamedex Core is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Gamedex Core is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with Gamedex Core.  If not, see <http://www.gnu.org/licenses/>.

package config

import (
	"slices"
	"strconv"
)

const (
	DefaultAPIPort           = 7480
	DefaultRequestsPerMinute = 120
	DefaultRateBurst         = 20
)

type Service struct {
	APIPort        *int      `toml:"api_port,omitempty" validate:"omitempty,min=1,max=65535"`
	RateLimit      RateLimit `toml:"rate_limit,omitempty"`
	InstanceID     string    `toml:"instance_id"`
	APIListen      string    `toml:"api_listen,omitempty"`
	AllowedOrigins []string  `toml:"allowed_origins,omitempty"`
	// AdminAllowedIPs lists the IPs or CIDR ranges allowed to call admin
	// endpoints. Empty means loopback only.
	AdminAllowedIPs []string `toml:"admin_allowed_ips,omitempty"`
}

// RateLimit configures per-IP request limiting on the HTTP API.
type RateLimit struct {
	RequestsPerMinute *int `toml:"requests_per_minute,omitempty" validate:"omitempty,min=1"`
	Burst             *int `toml:"burst,omitempty" validate:"omitempty,min=1"`
}

func (c *Instance) APIPort() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.apiPortLocked()
}

// apiPortLocked returns the API port. Caller must hold mu (read or write).
func (c *Instance) apiPortLocked() int {
	if c.vals.Service.APIPort == nil {
		return DefaultAPIPort
	}
	return *c.vals.Service.APIPort
}

func (c *Instance) SetAPIPort(port int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vals.Service.APIPort = &port
}

// APIListen returns the listen address: the configured host (or all
// interfaces) with the API port.
func (c *Instance) APIListen() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.Service.APIListen + ":" + strconv.Itoa(c.apiPortLocked())
}

func (c *Instance) AllowedOrigins() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.Service.AllowedOrigins
}

func (c *Instance) AdminAllowedIPs() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.vals.Service.AdminAllowedIPs)
}

func (c *Instance) InstanceID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.Service.InstanceID
}

// RateLimit returns the per-IP request budget per minute and burst size.
func (c *Instance) RateLimit() (perMinute, burst int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	perMinute, burst = DefaultRequestsPerMinute, DefaultRateBurst
	if v := c.vals.Service.RateLimit.RequestsPerMinute; v != nil {
		perMinute = *v
	}
	if v := c.vals.Service.RateLimit.Burst; v != nil {
		burst = *v
	}
	return perMinute, burst
}
