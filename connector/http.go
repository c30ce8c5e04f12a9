package connector

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
)

type (
	// HTTPTransport talks to a yubihsm-connector instance over HTTP: Send
	// buffers the outgoing frame, and Recv performs the actual POST and
	// returns the response body, since the connector's wire model is a
	// single request/response round trip per frame rather than a persistent
	// duplex stream.
	HTTPTransport struct {
		URL    string
		Client *http.Client

		mu      sync.Mutex
		pending []byte
	}

	Status         string
	StatusResponse struct {
		Status  Status
		Serial  string
		Version string
		Pid     string
		Address string
		Port    string
	}
)

func NewHTTPTransport(url string) *HTTPTransport {
	return &HTTPTransport{
		URL:    url,
		Client: http.DefaultClient,
	}
}

func (c *HTTPTransport) Send(frame []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending = append([]byte(nil), frame...)
	return nil
}

func (c *HTTPTransport) Recv() ([]byte, error) {
	c.mu.Lock()
	pending := c.pending
	c.pending = nil
	c.mu.Unlock()

	if pending == nil {
		return nil, fmt.Errorf("connector: Recv called without a pending Send")
	}

	res, err := c.Client.Post("http://"+c.URL+"/connector/api", "application/octet-stream", bytes.NewReader(pending))
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("connector: server returned non-OK status code %d", res.StatusCode)
	}

	data, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, err
	}

	return data, nil
}

// GetStatus queries the connector's own status endpoint. This is a
// connector-management operation, not part of the Transport contract, so it
// lives only on the concrete HTTPTransport.
func (c *HTTPTransport) GetStatus() (*StatusResponse, error) {
	res, err := c.Client.Get("http://" + c.URL + "/connector/status")
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	data, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, err
	}
	bodyString := string(data)
	pairs := strings.Split(bodyString, "\n")

	var values []string
	for _, pair := range pairs {
		values = append(values, strings.Split(pair, "=")...)
	}
	if len(values) < 12 {
		return nil, fmt.Errorf("connector: malformed status response")
	}

	status := &StatusResponse{}
	status.Status = Status(values[1])
	status.Serial = values[3]
	status.Version = values[5]
	status.Pid = values[7]
	status.Address = values[9]
	status.Port = values[11]

	return status, nil
}
