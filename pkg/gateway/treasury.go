// Copyright IBM Corp. All Rights Reserved.
//
// SPDX-License-Identifier: Apache-2.0
//

package gateway

import (
	"github.com/pkg/errors"

	"github.com/crossnet-go/relay/pkg/types"
)

// Treasury is the authorized surface for moving subsidy funds out and for
// setting refund addresses. It is handed out once at construction;
// deposits stay open on the Gateway itself, while everything that can
// reduce or redirect funds goes through here.
type Treasury struct {
	gateway *Gateway
}

// Withdraw moves amount out of a tenant's subsidy. The balance never goes
// negative; an overdraft attempt is rejected outright.
func (t *Treasury) Withdraw(tenant types.TenantID, amount uint64) error {
	g := t.gateway
	g.lock.Lock()
	defer g.lock.Unlock()
	sub := g.subsidies[tenant]
	if sub == nil || sub.balance < amount {
		var balance uint64
		if sub != nil {
			balance = sub.balance
		}
		return errors.Errorf("tenant %q has %d, cannot withdraw %d", tenant, balance, amount)
	}
	sub.balance -= amount
	return nil
}

// SetRefundAddress sets where adapters should return unspent relay cost
// for a tenant's sends.
func (t *Treasury) SetRefundAddress(tenant types.TenantID, addr string) {
	g := t.gateway
	g.lock.Lock()
	defer g.lock.Unlock()
	sub := g.subsidies[tenant]
	if sub == nil {
		sub = &subsidy{}
		g.subsidies[tenant] = sub
	}
	sub.refundAddr = addr
}
