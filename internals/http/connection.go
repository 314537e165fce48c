package http

import (
	"github.com/GyroTools/prms-connector-go/internals/credentials"
)

type Auth struct {
	Key   string
	Value string
}

type Connection interface {
	auth() (*Auth, error)
	clear() error
	getUrl() string
	verifyCertificate() bool
}

// BearerConnection reads the session token from a credential store on every
// request, so a login or logout is picked up without rebuilding the client.
type BearerConnection struct {
	url        string
	verifyCert bool
	store      credentials.Store
}

func (c *BearerConnection) auth() (*Auth, error) {
	if c.store == nil {
		return nil, nil
	}
	token, ok, err := c.store.Load()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return &Auth{Key: "Authorization", Value: "Bearer " + token}, nil
}

func (c *BearerConnection) clear() error {
	if c.store == nil {
		return nil
	}
	return c.store.Clear()
}

func (c *BearerConnection) getUrl() string {
	return c.url
}

func (c *BearerConnection) verifyCertificate() bool {
	return c.verifyCert
}
