// Copyright IBM Corp. All Rights Reserved.
//
// SPDX-License-Identifier: Apache-2.0
//

package relay

import (
	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"

	"github.com/crossnet-go/relay/pkg/api"
	"github.com/crossnet-go/relay/pkg/gateway"
	"github.com/crossnet-go/relay/pkg/types"
)

// FileConfig is the on-disk network configuration. Routes reference
// adapters by identity; the handles themselves are supplied in code when
// the config is applied.
type FileConfig struct {
	Gateway GatewayFileConfig  `toml:"gateway"`
	Routes  []RouteFileConfig  `toml:"route"`
	Tenants []TenantFileConfig `toml:"tenant"`
}

type GatewayFileConfig struct {
	PendingPoolSize int64  `toml:"pending_pool_size"`
	GasLimit        uint64 `toml:"gas_limit"`
}

type RouteFileConfig struct {
	Remote   uint64   `toml:"remote"`
	Tenant   string   `toml:"tenant"`
	Adapters []uint64 `toml:"adapters"`
	Quorum   int      `toml:"quorum"`
	Primary  int      `toml:"primary"`
}

type TenantFileConfig struct {
	ID             string `toml:"id"`
	InitialSubsidy uint64 `toml:"initial_subsidy"`
	RefundAddress  string `toml:"refund_address"`
}

// LoadConfig reads a TOML network configuration, filling gateway
// parameters from DefaultConfig where the file is silent.
func LoadConfig(path string) (FileConfig, error) {
	cfg := FileConfig{
		Gateway: GatewayFileConfig{
			PendingPoolSize: gateway.DefaultConfig.PendingPoolSize,
			GasLimit:        gateway.DefaultConfig.GasLimit,
		},
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return FileConfig{}, errors.Wrapf(err, "failed loading relay config from %s", path)
	}
	return cfg, nil
}

// GatewayConfig converts the file form into the gateway's config.
func (c FileConfig) GatewayConfig() gateway.Config {
	return gateway.Config{
		PendingPoolSize: c.Gateway.PendingPoolSize,
		GasLimit:        c.Gateway.GasLimit,
	}
}

// Apply installs the file's routes and tenants on an assembled Relay.
// adapters resolves the identities referenced by the file to transport
// handles; a route referencing an unknown identity fails the whole apply
// before any tenant funding happens.
func (r *Relay) Apply(cfg FileConfig, adapters map[types.AdapterID]api.Adapter) error {
	routes := make([]RouteConfig, 0, len(cfg.Routes))
	for _, rc := range cfg.Routes {
		route := RouteConfig{
			Remote:  types.NetworkID(rc.Remote),
			Tenant:  types.TenantID(rc.Tenant),
			Quorum:  rc.Quorum,
			Primary: rc.Primary,
		}
		for _, id := range rc.Adapters {
			adapter, ok := adapters[types.AdapterID(id)]
			if !ok {
				return errors.Errorf("route to network %d references unknown adapter %d", rc.Remote, id)
			}
			route.Adapters = append(route.Adapters, AdapterRegistration{ID: types.AdapterID(id), Adapter: adapter})
		}
		routes = append(routes, route)
	}
	for _, route := range routes {
		if err := r.SetRoute(route); err != nil {
			return errors.Wrapf(err, "failed installing route to network %d", route.Remote)
		}
	}
	for _, tc := range cfg.Tenants {
		tenant := types.TenantID(tc.ID)
		if tc.InitialSubsidy > 0 {
			r.Gateway.Deposit(tenant, tc.InitialSubsidy)
		}
		if tc.RefundAddress != "" {
			r.Treasury.SetRefundAddress(tenant, tc.RefundAddress)
		}
	}
	return nil
}
