package prms

import (
	"errors"

	"github.com/GyroTools/prms-connector-go/internals/http"
	"github.com/GyroTools/prms-connector-go/prms/models"
)

var (
	// ErrUnauthorized means the server rejected the session. The stored
	// credential is already gone when this is returned.
	ErrUnauthorized = http.ErrUnauthorized

	ErrInProgress = errors.New("operation already in progress")
	ErrClosed     = errors.New("view is closed")
	ErrNotEditing = errors.New("patient is not being edited")
	ErrNotLoaded  = errors.New("patient is not loaded")

	ErrLoginFailed = errors.New("login failed, please try again")
)

type (
	RequestError    = http.RequestError
	TransportError  = http.TransportError
	ValidationError = models.ValidationError
)
