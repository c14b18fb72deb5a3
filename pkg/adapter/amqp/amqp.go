// Copyright IBM Corp. All Rights Reserved.
//
// SPDX-License-Identifier: Apache-2.0
//

// Package amqp is a reference transport binding over a RabbitMQ topic
// exchange. It exists to show how a binding satisfies the adapter
// contract: raw bytes out on Send, raw bytes handed to the router's
// inbound entry point on delivery, identity fixed at construction. A
// production deployment would bind each third-party relay network the
// same way.
package amqp

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	amqp091 "github.com/rabbitmq/amqp091-go"

	"github.com/crossnet-go/relay/pkg/api"
	"github.com/crossnet-go/relay/pkg/types"
)

const headerSourceNetwork = "x-source-network"

// Config holds the binding parameters.
type Config struct {
	// URL is the broker address.
	URL string
	// Exchange is the topic exchange relaying frames between networks.
	Exchange string
	// Queue is the consume queue for frames addressed to Self.
	Queue string
	// ID is the adapter identity this binding reports votes under; it must
	// match the identity registered in the route.
	ID types.AdapterID
	// Self is the local network the binding receives for.
	Self types.NetworkID
	// BaseCost and CostPerByte make up the flat relay cost quote.
	BaseCost    uint64
	CostPerByte uint64
}

// Adapter relays raw frames through RabbitMQ. Frames for network N travel
// with routing key "relay.net.N"; the source network rides in a header.
type Adapter struct {
	config  Config
	logger  api.Logger
	conn    *amqp091.Connection
	channel *amqp091.Channel
}

// New connects the binding and declares its exchange.
func New(config Config, logger api.Logger) (*Adapter, error) {
	conn, err := amqp091.Dial(config.URL)
	if err != nil {
		return nil, errors.Wrapf(err, "failed connecting to %s", config.URL)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, errors.Wrap(err, "failed opening channel")
	}
	if err := ch.ExchangeDeclare(config.Exchange, "topic", true, false, false, false, nil); err != nil {
		conn.Close()
		return nil, errors.Wrapf(err, "failed declaring exchange %s", config.Exchange)
	}
	return &Adapter{config: config, logger: logger, conn: conn, channel: ch}, nil
}

func routingKey(network types.NetworkID) string {
	return fmt.Sprintf("relay.net.%d", network)
}

// Send publishes payload for the remote network. The gas limit and refund
// address ride as headers for the far side's executor; this binding's cost
// model does not consume them.
func (a *Adapter) Send(remote types.NetworkID, payload []byte, gasLimit uint64, refundAddr string) (types.Receipt, error) {
	receipt := uuid.NewString()
	err := a.channel.PublishWithContext(
		context.Background(), a.config.Exchange, routingKey(remote), false, false,
		amqp091.Publishing{
			ContentType:  "application/octet-stream",
			DeliveryMode: amqp091.Persistent,
			MessageId:    receipt,
			Headers: amqp091.Table{
				headerSourceNetwork: uint64(a.config.Self),
				"x-gas-limit":       gasLimit,
				"x-refund-address":  refundAddr,
			},
			Body: payload,
		},
	)
	if err != nil {
		return "", errors.Wrapf(err, "failed publishing %d bytes for network %d", len(payload), remote)
	}
	return types.Receipt(receipt), nil
}

// Estimate quotes a flat base plus per-byte cost.
func (a *Adapter) Estimate(remote types.NetworkID, payload []byte, gasLimit uint64) (uint64, error) {
	return a.config.BaseCost + a.config.CostPerByte*uint64(len(payload)), nil
}

// Consume binds the queue to frames addressed to Self and feeds every
// delivery into the router's inbound entry point under this binding's
// identity. It blocks until ctx is done or the delivery stream closes.
func (a *Adapter) Consume(ctx context.Context, inbound api.Inbound) error {
	queue, err := a.channel.QueueDeclare(a.config.Queue, true, false, false, false, nil)
	if err != nil {
		return errors.Wrapf(err, "failed declaring queue %s", a.config.Queue)
	}
	if err := a.channel.QueueBind(queue.Name, routingKey(a.config.Self), a.config.Exchange, false, nil); err != nil {
		return errors.Wrapf(err, "failed binding queue %s", queue.Name)
	}
	deliveries, err := a.channel.Consume(queue.Name, "", false, false, false, false, nil)
	if err != nil {
		return errors.Wrapf(err, "failed consuming from queue %s", queue.Name)
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-deliveries:
			if !ok {
				return errors.New("delivery stream closed")
			}
			a.handleDelivery(inbound, d)
		}
	}
}

func (a *Adapter) handleDelivery(inbound api.Inbound, d amqp091.Delivery) {
	source, ok := sourceNetwork(d.Headers)
	if !ok {
		a.logger.Warnf("Dropping delivery %s without source network header", d.MessageId)
		_ = d.Reject(false)
		return
	}
	if err := inbound.OnReceive(source, a.config.ID, d.Body); err != nil {
		a.logger.Warnf("Router rejected delivery %s from network %d: %v", d.MessageId, source, err)
		_ = d.Reject(false)
		return
	}
	_ = d.Ack(false)
}

func sourceNetwork(headers amqp091.Table) (types.NetworkID, bool) {
	raw, ok := headers[headerSourceNetwork]
	if !ok {
		return 0, false
	}
	switch v := raw.(type) {
	case uint64:
		return types.NetworkID(v), true
	case int64:
		if v < 0 {
			return 0, false
		}
		return types.NetworkID(v), true
	case int32:
		if v < 0 {
			return 0, false
		}
		return types.NetworkID(v), true
	default:
		return 0, false
	}
}

// Close tears down the channel and connection.
func (a *Adapter) Close() error {
	if err := a.channel.Close(); err != nil {
		a.conn.Close()
		return err
	}
	return a.conn.Close()
}
