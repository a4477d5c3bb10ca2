package netup

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type call struct {
	name string
	args []string
}

func (c call) String() string {
	return c.name + " " + strings.Join(c.args, " ")
}

// fakeRunner answers commands by their first matching argument prefix.
type fakeRunner struct {
	calls   []call
	results map[string]result
}

type result struct {
	out string
	err error
}

func (r *fakeRunner) Run(_ context.Context, name string, args ...string) ([]byte, error) {
	c := call{name: name, args: args}
	r.calls = append(r.calls, c)

	joined := strings.Join(args, " ")
	for prefix, res := range r.results {
		if strings.HasPrefix(joined, prefix) {
			return []byte(res.out), res.err
		}
	}
	return nil, nil
}

func (r *fakeRunner) find(prefix string) (call, bool) {
	for _, c := range r.calls {
		if strings.HasPrefix(strings.Join(c.args, " "), prefix) {
			return c, true
		}
	}
	return call{}, false
}

type captureLogger struct {
	messages []string
	fields   map[string]any
}

func (l *captureLogger) record(msg string, args ...any) {
	l.messages = append(l.messages, msg)
	if l.fields == nil {
		l.fields = map[string]any{}
	}
	for i := 0; i+1 < len(args); i += 2 {
		l.fields[fmt.Sprint(args[i])] = args[i+1]
	}
}

func (l *captureLogger) Debug(msg string, args ...any) { l.record(msg, args...) }
func (l *captureLogger) Info(msg string, args ...any)  { l.record(msg, args...) }
func (l *captureLogger) Warn(msg string, args ...any)  { l.record(msg, args...) }

func TestConnect_DHCP(t *testing.T) {
	runner := &fakeRunner{results: map[string]result{
		"-t -f": {out: "IP4.ADDRESS[1]:192.168.1.40/24\nIP4.GATEWAY:192.168.1.1\nGENERAL.STATE:100 (connected)\n"},
	}}
	logger := &captureLogger{}
	m := New(runner)
	m.SetLogger(logger)

	ok, err := m.Connect(context.Background(), Params{SSID: "home", Key: "hunter22", Timeout: 10 * time.Second})
	require.NoError(t, err)
	assert.True(t, ok)

	require.Len(t, runner.calls, 4)
	assert.Equal(t, "nmcli connection delete alarm", runner.calls[0].String())
	assert.Equal(t,
		"nmcli connection add type wifi con-name alarm ifname wlan0 ssid home wifi-sec.key-mgmt wpa-psk wifi-sec.psk hunter22",
		runner.calls[1].String())
	assert.Equal(t, "nmcli --wait 10 connection up alarm", runner.calls[2].String())
	assert.Equal(t, "nmcli -t -f IP4.ADDRESS,IP4.GATEWAY,GENERAL.STATE device show wlan0", runner.calls[3].String())

	assert.Contains(t, logger.messages, "network config")
	assert.Equal(t, "192.168.1.40/24", logger.fields["ip4.address[1]"])
	for k, v := range logger.fields {
		assert.NotEqual(t, "hunter22", v, "key logged under %s", k)
	}
}

func TestConnect_Static(t *testing.T) {
	runner := &fakeRunner{}
	m := New(runner)

	ok, err := m.Connect(context.Background(), Params{
		SSID:      "home",
		Key:       "secret",
		Timeout:   3 * time.Second,
		Static:    true,
		Addr:      "10.0.0.9",
		Mask:      "255.255.255.0",
		Gateway:   "10.0.0.1",
		Interface: "wlp2s0",
		Command:   "/usr/bin/nmcli",
	})
	require.NoError(t, err)
	assert.True(t, ok)

	add, found := runner.find("connection add")
	require.True(t, found)
	assert.Equal(t, "/usr/bin/nmcli", add.name)
	assert.Equal(t, []string{
		"connection", "add", "type", "wifi", "con-name", "alarm", "ifname", "wlp2s0", "ssid", "home",
		"wifi-sec.key-mgmt", "wpa-psk", "wifi-sec.psk", "secret",
		"ipv4.method", "manual",
		"ipv4.addresses", "10.0.0.9/24",
		"ipv4.gateway", "10.0.0.1",
		"ipv4.dns", "127.0.0.1",
	}, add.args)

	up, found := runner.find("--wait")
	require.True(t, found)
	assert.Equal(t, []string{"--wait", "3", "connection", "up", "alarm"}, up.args)
}

func TestConnect_StaticIPv6(t *testing.T) {
	runner := &fakeRunner{}

	ok, err := New(runner).Connect(context.Background(), Params{
		SSID:    "home",
		Static:  true,
		IPv6:    true,
		Addr:    "fd00::9",
		Mask:    "64",
		Gateway: "fd00::1",
	})
	require.NoError(t, err)
	assert.True(t, ok)

	add, _ := runner.find("connection add")
	assert.Contains(t, add.String(), "ipv6.addresses fd00::9/64")
	assert.NotContains(t, add.String(), "wifi-sec", "open network")

	show, _ := runner.find("-t -f")
	assert.Contains(t, show.String(), "IP6.ADDRESS")
}

func TestConnect_JoinFails(t *testing.T) {
	runner := &fakeRunner{results: map[string]result{
		"--wait": {out: "Error: Connection activation failed: Secrets were required", err: errors.New("exit status 4")},
	}}

	ok, err := New(runner).Connect(context.Background(), Params{SSID: "home", Key: "wrong"})
	require.NoError(t, err)
	assert.False(t, ok)

	_, shown := runner.find("-t -f")
	assert.False(t, shown, "interface not queried after a failed join")
}

func TestConnect_ProfileAddFails(t *testing.T) {
	runner := &fakeRunner{results: map[string]result{
		"connection add": {out: "Error: invalid ssid", err: errors.New("exit status 2")},
	}}

	ok, err := New(runner).Connect(context.Background(), Params{SSID: "home"})
	assert.False(t, ok)
	assert.ErrorIs(t, err, ErrCommandFailed)
	assert.Contains(t, err.Error(), "invalid ssid")
}

func TestConnect_CommandMissing(t *testing.T) {
	runner := &fakeRunner{results: map[string]result{
		"connection delete": {err: &exec.Error{Name: "nmcli", Err: exec.ErrNotFound}},
	}}

	ok, err := New(runner).Connect(context.Background(), Params{SSID: "home"})
	assert.False(t, ok)
	assert.ErrorIs(t, err, ErrCommandFailed)
	assert.ErrorIs(t, err, exec.ErrNotFound)
}

func TestConnect_MissingProfileIgnored(t *testing.T) {
	runner := &fakeRunner{results: map[string]result{
		"connection delete": {out: "Error: unknown connection 'alarm'.", err: errors.New("exit status 10")},
	}}

	ok, err := New(runner).Connect(context.Background(), Params{SSID: "home"})
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestConnect_InvalidParams(t *testing.T) {
	tests := []struct {
		name string
		p    Params
		want error
	}{
		{name: "no ssid", p: Params{}, want: ErrMissingSSID},
		{name: "static without gateway", p: Params{SSID: "x", Static: true, Addr: "10.0.0.2", Mask: "24"}, want: ErrIncompleteStatic},
		{name: "bad mask", p: Params{SSID: "x", Static: true, Addr: "10.0.0.2", Mask: "255.0.255.0", Gateway: "10.0.0.1"}, want: ErrInvalidMask},
		{name: "prefix out of range", p: Params{SSID: "x", Static: true, Addr: "10.0.0.2", Mask: "33", Gateway: "10.0.0.1"}, want: ErrInvalidMask},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := &fakeRunner{}
			ok, err := New(runner).Connect(context.Background(), tt.p)
			assert.False(t, ok)
			assert.ErrorIs(t, err, tt.want)
			assert.Empty(t, runner.calls, "nothing run for invalid parameters")
		})
	}
}

func TestPrefixLength(t *testing.T) {
	tests := []struct {
		mask string
		ipv6 bool
		want int
	}{
		{mask: "255.255.255.0", want: 24},
		{mask: "255.255.0.0", want: 16},
		{mask: "255.255.255.255", want: 32},
		{mask: "24", want: 24},
		{mask: "64", ipv6: true, want: 64},
	}
	for _, tt := range tests {
		got, err := prefixLength(tt.mask, tt.ipv6)
		require.NoError(t, err, tt.mask)
		assert.Equal(t, tt.want, got, tt.mask)
	}

	_, err := prefixLength("ffff:ffff::", true)
	assert.ErrorIs(t, err, ErrInvalidMask)
}
