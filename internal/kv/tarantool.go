package kv

import (
	"context"
	"fmt"

	"github.com/tarantool/go-tarantool"
)

const tarantoolSpace = "roulette_kv"

// TarantoolChannel keeps the shared keys in a tarantool space with tuples of
// the form {key, value}.
type TarantoolChannel struct {
	conn *tarantool.Connection
}

func NewTarantoolChannel(conn *tarantool.Connection) *TarantoolChannel {
	return &TarantoolChannel{conn: conn}
}

func (c *TarantoolChannel) Put(_ context.Context, key, value string) error {
	_, err := c.conn.Replace(tarantoolSpace, []interface{}{key, value})
	if err != nil {
		return fmt.Errorf("tarantool replace: %w", err)
	}
	return nil
}

func (c *TarantoolChannel) Get(_ context.Context, key string) (string, bool, error) {
	resp, err := c.conn.Select(tarantoolSpace, "primary", 0, 1, tarantool.IterEq, []interface{}{key})
	if err != nil {
		return "", false, fmt.Errorf("tarantool select: %w", err)
	}
	if len(resp.Data) == 0 {
		return "", false, nil
	}
	tuple, ok := resp.Data[0].([]interface{})
	if !ok || len(tuple) < 2 {
		return "", false, fmt.Errorf("tarantool select: malformed tuple for key %q", key)
	}
	value, ok := tuple[1].(string)
	if !ok {
		return "", false, fmt.Errorf("tarantool select: non-string value for key %q", key)
	}
	return value, true, nil
}

func (c *TarantoolChannel) Delete(_ context.Context, key string) error {
	_, err := c.conn.Delete(tarantoolSpace, "primary", []interface{}{key})
	if err != nil {
		return fmt.Errorf("tarantool delete: %w", err)
	}
	return nil
}
