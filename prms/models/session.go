package models

import "strings"

const LoginURL = "login"

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (r LoginRequest) Validate() error {
	if len(strings.TrimSpace(r.Username)) == 0 || len(r.Password) == 0 {
		return invalid("Username and password are required")
	}
	return nil
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
}
