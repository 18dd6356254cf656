package api

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/Jigsaw-Code/outline-sdk/x/configurl"
)

// newHTTPClient builds the client used for every API call. When a
// transport config string is given, the TCP dial path goes through the
// stream dialer it describes; an empty string dials directly.
//
// The client deliberately carries no overall timeout: the check
// response is a long-lived stream and the only way to end it early is
// caller cancellation.
func newHTTPClient(transport string) (*http.Client, error) {
	if transport == "" {
		return &http.Client{}, nil
	}

	dialer, err := configurl.NewDefaultConfigToDialer().NewStreamDialer(transport)
	if err != nil {
		return nil, fmt.Errorf("could not create dialer: %w", err)
	}

	dialContext := func(ctx context.Context, network, addr string) (net.Conn, error) {
		if !strings.HasPrefix(network, "tcp") {
			return nil, fmt.Errorf("protocol not supported: %v", network)
		}
		return dialer.DialStream(ctx, addr)
	}

	return &http.Client{
		Transport: &http.Transport{DialContext: dialContext},
	}, nil
}
