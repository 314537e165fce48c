package utils

import (
	"testing"

	"gotest.tools/v3/assert"
)

func TestValidateURL(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"http://localhost:5001/api", "http://localhost:5001/api/"},
		{"http://localhost:5001/api/", "http://localhost:5001/api/"},
		{"localhost:5001/api", "https://localhost:5001/api/"},
		{"prms.example.org", "https://prms.example.org/"},
		{" https://prms.example.org/api?x=1 ", "https://prms.example.org/api/"},
	}
	for _, c := range cases {
		got, err := ValidateURL(c.in)
		assert.NilError(t, err, c.in)
		assert.Equal(t, got, c.want, c.in)
	}
}

func TestValidateURLRejects(t *testing.T) {
	for _, in := range []string{"", "ftp://example.org", "http://"} {
		_, err := ValidateURL(in)
		assert.Assert(t, err != nil, "expected error for %q", in)
	}
}

func TestOrigin(t *testing.T) {
	origin, err := Origin("http://localhost:5001/api/")
	assert.NilError(t, err)
	assert.Equal(t, origin, "http://localhost:5001")

	_, err = Origin("/api")
	assert.ErrorContains(t, err, "not absolute")
}
