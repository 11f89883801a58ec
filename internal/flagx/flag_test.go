package flagx

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

var (
	serverFlags = []string{"-a", "-m", "-d", "-q", "-f", "-x", "-i", "-l"}
	clientFlags = []string{"-a", "-o", "-l", "-k", "-f"}
	configFlags = []string{"-c", "-config"}
)

func TestFilterArgs(t *testing.T) {
	tests := []struct {
		name         string
		args         []string
		allowedFlags []string
		want         []string
	}{
		{
			name:         "server keeps its flags and drops config path",
			args:         []string{"-c", "/etc/gophchat.json", "-a", ":11111", "-q", "16", "-x", "2m"},
			allowedFlags: serverFlags,
			want:         []string{"-a", ":11111", "-q", "16", "-x", "2m"},
		},
		{
			name:         "server drops client-only flags",
			args:         []string{"-o", "./data", "-k", "secret", "-m", "100", "-f", "1024"},
			allowedFlags: serverFlags,
			want:         []string{"-m", "100", "-f", "1024"},
		},
		{
			name:         "client drops server-only flags",
			args:         []string{"-a", "10.0.0.1:11111", "-d", "pgx://db", "-i", "5s", "-k", "secret"},
			allowedFlags: clientFlags,
			want:         []string{"-a", "10.0.0.1:11111", "-k", "secret"},
		},
		{
			name:         "equals form for config and chat flags",
			args:         []string{"-c=/etc/gophchat.json", "-a=:2000", "-q=8", "-o=/tmp/in"},
			allowedFlags: serverFlags,
			want:         []string{"-a=:2000", "-q=8"},
		},
		{
			name:         "config path only",
			args:         []string{"-a", ":11111", "-c=/etc/gophchat.json", "-l", "debug"},
			allowedFlags: configFlags,
			want:         []string{"-c=/etc/gophchat.json"},
		},
		{
			name:         "flag without value at end is kept as-is",
			args:         []string{"-k"},
			allowedFlags: clientFlags,
			want:         []string{"-k"},
		},
		{
			name:         "next dash-starting token is not taken as value",
			args:         []string{"-l", "-a", ":11111"},
			allowedFlags: clientFlags,
			want:         []string{"-l", "-a", ":11111"},
		},
		{
			name:         "positional arguments ignored",
			args:         []string{"chat", "-f", "2048", "extra"},
			allowedFlags: clientFlags,
			want:         []string{"-f", "2048"},
		},
		{
			name:         "repeated flag preserved in order",
			args:         []string{"-q", "4", "-q", "32"},
			allowedFlags: serverFlags,
			want:         []string{"-q", "4", "-q", "32"},
		},
		{
			name:         "empty args",
			args:         []string{},
			allowedFlags: serverFlags,
			want:         []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FilterArgs(tt.args, tt.allowedFlags))
		})
	}
}

func TestConfigPath(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{name: "short -c with value", args: []string{"-c", "/path/short.json"}, want: "/path/short.json"},
		{name: "long -config with value", args: []string{"-config", "/path/long.json"}, want: "/path/long.json"},
		{name: "equals form", args: []string{"-config=/path/eq.json", "-a", ":1"}, want: "/path/eq.json"},
		{name: "unknown flags are ignored", args: []string{"-x", "1", "-y", "2"}, want: ""},
		{name: "last wins", args: []string{"-c", "/path/1.json", "-config", "/path/2.json"}, want: "/path/2.json"},
		{name: "short equals among server flags", args: []string{"-a", ":11111", "-c=/etc/gophchat.json", "-q", "16"}, want: "/etc/gophchat.json"},
		{name: "among client flags", args: []string{"-k", "secret", "-o", "./data", "-c", "client.json", "-f", "1024"}, want: "client.json"},
		{name: "chat flags only", args: []string{"-a", ":11111", "-m", "100", "-x", "2m"}, want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ConfigPath(tt.args))
		})
	}
}

func TestJsonConfigFlags_ReadsProcessArgs(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	os.Args = []string{"testbin", "-a", ":11111", "-c", "/etc/gophchat.json"}
	assert.Equal(t, "/etc/gophchat.json", JsonConfigFlags())
}
