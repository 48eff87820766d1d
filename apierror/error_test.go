package apierror_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/sashell/go-libsap/apierror"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	err := apierror.New(errors.New("test error"), 0)
	require.Equal(t, "test error", err.Error())

	err = apierror.New(nil, http.StatusNotFound)
	require.Equal(t, fmt.Sprintf("%d %s", http.StatusNotFound, http.StatusText(http.StatusNotFound)), err.Error())

	err = apierror.New(nil, 0)
	require.Equal(t, "", err.Error())

	err = apierror.New(nil, 999)
	require.Equal(t, "999", err.Error())
}

func TestFromResponse(t *testing.T) {
	err := apierror.FromResponse(0, []byte(" upstream broke\n"))
	require.Equal(t, "upstream broke", err.Error())

	err = apierror.FromResponse(http.StatusTeapot, []byte(" upstream broke\n"))
	require.Equal(t, "upstream broke", err.Error())

	ae, ok := err.(*apierror.Error)
	require.True(t, ok)
	require.Equal(t, http.StatusTeapot, ae.Status())

	err = apierror.FromResponse(http.StatusTeapot, nil)
	require.Equal(t, fmt.Sprintf("%d %s", http.StatusTeapot, http.StatusText(http.StatusTeapot)), err.Error())
}

func TestEncodeError(t *testing.T) {
	require.Nil(t, apierror.EncodeError(nil))

	data := apierror.EncodeError(apierror.New(errors.New("unauthorized"), http.StatusUnauthorized))
	var msg apierror.ErrorMessage
	require.NoError(t, json.Unmarshal(data, &msg))
	require.Equal(t, "unauthorized", msg.Error)
	require.Equal(t, http.StatusUnauthorized, msg.Status)

	// Wrapped *Error still contributes its status.
	wrapped := fmt.Errorf("refresh: %w", apierror.New(errors.New("nope"), http.StatusForbidden))
	require.NoError(t, json.Unmarshal(apierror.EncodeError(wrapped), &msg))
	require.Equal(t, http.StatusForbidden, msg.Status)
}
