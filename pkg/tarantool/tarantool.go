package tarantool

import (
	"fmt"

	"github.com/tarantool/go-tarantool"
)

type Config struct {
	Host     string
	Port     string
	Username string
	Password string
}

// New opens a connection to the Tarantool instance holding the shared
// overlay channel space.
func New(config Config) (*tarantool.Connection, error) {
	conn, err := tarantool.Connect(config.Host+":"+config.Port, tarantool.Opts{
		User: config.Username,
		Pass: config.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("connect to tarantool: %w", err)
	}
	return conn, nil
}
