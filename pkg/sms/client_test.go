package sms

import (
	"context"
	"encoding/xml"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storelinehq/storeline-backend/pkg/config"
	pkgerrors "github.com/storelinehq/storeline-backend/pkg/errors"
)

func testConfig(url string) config.SMSConfig {
	return config.SMSConfig{
		GatewayURL: url,
		Username:   "store",
		Password:   "secret",
		Originator: "5000",
		Timeout:    2 * time.Second,
		CodeDigits: 5,
	}
}

func TestSendPostsXMLEnvelope(t *testing.T) {
	var captured smsEnvelope
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Contains(t, r.Header.Get("Content-Type"), "text/xml")
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.NoError(t, xml.Unmarshal(body, &captured))
		_, _ = w.Write([]byte(`<smsResponse><status>ok</status></smsResponse>`))
	}))
	defer server.Close()

	client, err := NewClient(testConfig(server.URL))
	require.NoError(t, err)

	err = client.SendActivationCode(context.Background(), "09120000000", "48213")
	require.NoError(t, err)

	assert.Equal(t, "store", captured.Username)
	assert.Equal(t, "09120000000", captured.Recipient)
	assert.Contains(t, captured.Body, "48213")
}

func TestSendGatewayRejection(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<smsResponse><status>error</status><message>insufficient credit</message></smsResponse>`))
	}))
	defer server.Close()

	client, err := NewClient(testConfig(server.URL))
	require.NoError(t, err)

	err = client.Send(context.Background(), "09120000000", "hello")
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeDependency, pkgerrors.As(err).Code())
	assert.Contains(t, err.Error(), "insufficient credit")
}

func TestSendGatewayHTTPFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer server.Close()

	client, err := NewClient(testConfig(server.URL))
	require.NoError(t, err)

	err = client.Send(context.Background(), "09120000000", "hello")
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeDependency, pkgerrors.As(err).Code())
}

func TestSendValidation(t *testing.T) {
	client, err := NewClient(testConfig("http://gateway.local/sms"))
	require.NoError(t, err)

	err = client.Send(context.Background(), "", "hello")
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())

	err = client.Send(context.Background(), "09120000000", "  ")
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestNewClientValidation(t *testing.T) {
	_, err := NewClient(config.SMSConfig{Username: "u", Password: "p"})
	require.Error(t, err)

	_, err = NewClient(config.SMSConfig{GatewayURL: "http://gateway.local"})
	require.Error(t, err)
}

func TestNewCode(t *testing.T) {
	client, err := NewClient(testConfig("http://gateway.local/sms"))
	require.NoError(t, err)

	code, err := client.NewCode()
	require.NoError(t, err)
	assert.Len(t, code, 5)
	assert.Equal(t, "", strings.Trim(code, "0123456789"))
}
