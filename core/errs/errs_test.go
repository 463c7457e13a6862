package errs_test

import (
	"errors"
	"strings"
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/talentbridge/crmsync/core/errs"
)

func TestWrap(t *testing.T) {
	c := qt.New(t)

	cause := errors.New("connection refused")
	err := errs.Wrap(cause, errs.ErrAuth, "token request failed")

	c.Assert(errors.Is(err, errs.ErrAuth), qt.IsTrue)
	c.Assert(errors.Is(err, errs.ErrAPI), qt.IsFalse)
	c.Assert(err.Error(), qt.Contains, "token request failed")
	c.Assert(err.Error(), qt.Contains, "connection refused")
}

func TestAPIError(t *testing.T) {
	c := qt.New(t)

	err := &errs.APIError{StatusCode: 502, Body: "bad gateway"}

	c.Assert(errors.Is(err, errs.ErrAPI), qt.IsTrue)
	c.Assert(err.Error(), qt.Contains, "status 502")

	var apiErr *errs.APIError
	c.Assert(errors.As(error(err), &apiErr), qt.IsTrue)
	c.Assert(apiErr.StatusCode, qt.Equals, 502)
}

func TestAPIError_TruncatesBody(t *testing.T) {
	c := qt.New(t)

	err := &errs.APIError{StatusCode: 500, Body: strings.Repeat("x", 1024)}

	msg := err.Error()
	c.Assert(len(msg) < 320, qt.IsTrue)
	c.Assert(strings.HasSuffix(msg, "..."), qt.IsTrue)
}
