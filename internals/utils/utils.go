package utils

import (
	"errors"
	"net/url"
	"strings"
)

// ValidateURL normalises the base url of the PRMS api. A missing scheme
// defaults to https and the path is kept, always ending with a slash so that
// relative endpoints resolve below it.
func ValidateURL(urlString string) (string, error) {
	urlString = strings.TrimSpace(urlString)
	if len(urlString) == 0 {
		return "", errors.New("url is empty")
	}
	if !strings.Contains(urlString, "://") {
		urlString = "https://" + urlString
	}

	u, err := url.Parse(urlString)
	if err != nil {
		return "", err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", errors.New("unsupported scheme " + u.Scheme)
	}
	if len(u.Host) == 0 {
		return "", errors.New("url has no host")
	}

	u.RawQuery = ""
	u.Fragment = ""
	if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	return u.String(), nil
}

// Origin returns scheme://host[:port] of the url.
func Origin(urlString string) (string, error) {
	u, err := url.Parse(urlString)
	if err != nil {
		return "", err
	}
	if len(u.Scheme) == 0 || len(u.Host) == 0 {
		return "", errors.New("url is not absolute")
	}
	return u.Scheme + "://" + u.Host, nil
}
