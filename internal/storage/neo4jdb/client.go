package neo4jdb

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/sandevgo/vrmentor/internal/config"
	"github.com/sandevgo/vrmentor/pkg/log"
)

type Client struct {
	Driver   neo4j.DriverWithContext
	Database string
}

func NewClient(ctx context.Context, cfg *config.GraphConfig) (*Client, error) {
	auth := neo4j.BasicAuth(cfg.Neo4jUser, cfg.Neo4jPassword, "")
	driver, err := neo4j.NewDriverWithContext(cfg.Neo4jURI, auth, func(c *neo4j.Config) {
		c.MaxConnectionPoolSize = cfg.Neo4jMaxPoolSize
		c.SocketConnectTimeout = cfg.Neo4jTimeout
	})
	if err != nil {
		return nil, fmt.Errorf("neo4j: init driver: %w", err)
	}

	verifyCtx, cancel := context.WithTimeout(ctx, cfg.Neo4jTimeout)
	defer cancel()
	if err := driver.VerifyConnectivity(verifyCtx); err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("neo4j: verify connectivity: %w", err)
	}

	log.FromCtx(ctx).Info().Str("uri", cfg.Neo4jURI).Msg("connected to neo4j")
	return &Client{Driver: driver, Database: cfg.Neo4jDatabase}, nil
}

func (c *Client) Close(ctx context.Context) error {
	if c == nil || c.Driver == nil {
		return nil
	}
	err := c.Driver.Close(ctx)
	c.Driver = nil
	return err
}
