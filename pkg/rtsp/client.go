package rtsp

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/tauraamui/xerror"
)

const defaultPort = "554"

var probeTimeout = 10 * time.Second

// Client checks whether an RTSP server answers before a capture is
// opened against it, OpenCV blocks for a long time on dead hosts.
type Client struct {
	address string
	target  string
}

func NewClient(address string) (*Client, error) {
	c := Client{}
	if err := c.validateAndProcessAddr(address); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Client) validateAndProcessAddr(address string) error {
	parsedURL, err := url.Parse(address)
	if err != nil {
		return err
	}

	if s := parsedURL.Scheme; s != "rtsp" {
		return fmt.Errorf("unsupported scheme: %s ('rtsp' is the only supported scheme)", s)
	}

	c.address = parsedURL.Host
	if len(parsedURL.Port()) == 0 {
		c.address = net.JoinHostPort(parsedURL.Hostname(), defaultPort)
	}

	parsedURL.User = nil
	c.target = parsedURL.String()
	return nil
}

func (c *Client) Address() string { return c.address }

// Probe sends an OPTIONS request and succeeds on any RTSP reply that
// is not a server error, an auth challenge still means the stream exists.
func (c *Client) Probe(cancel context.Context) error {
	var d net.Dialer
	ctx, ccancel := context.WithTimeout(cancel, probeTimeout)
	defer ccancel()

	conn, err := d.DialContext(ctx, "tcp", c.address)
	if err != nil {
		return xerror.Errorf("unable to reach rtsp server %s: %w", c.address, err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		conn.SetDeadline(deadline) //nolint
	}

	req := fmt.Sprintf("OPTIONS %s RTSP/1.0\r\nCSeq: 1\r\nUser-Agent: scandaemon\r\n\r\n", c.target)
	if _, err := conn.Write([]byte(req)); err != nil {
		return xerror.Errorf("unable to send rtsp options request: %w", err)
	}

	status, err := bufio.NewReader(conn).ReadString('\n')
	if err != nil {
		return xerror.Errorf("unable to read rtsp options response: %w", err)
	}

	code, err := parseStatusLine(status)
	if err != nil {
		return err
	}
	if code >= 500 {
		return xerror.Errorf("rtsp server %s replied with status %d", c.address, code)
	}
	return nil
}

func parseStatusLine(line string) (int, error) {
	fields := strings.Fields(line)
	if len(fields) < 2 || !strings.HasPrefix(fields[0], "RTSP/") {
		return 0, xerror.Errorf("malformed rtsp status line: %q", strings.TrimSpace(line))
	}
	code, err := strconv.Atoi(fields[1])
	if err != nil {
		return 0, xerror.Errorf("malformed rtsp status code: %q", fields[1])
	}
	return code, nil
}
