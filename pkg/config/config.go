package config

import (
	goflag "flag"

	flag "github.com/spf13/pflag"
)

type (
	Config struct {
		Signaler Signaler
		Version  bool `fig:"-"`
	}
	Signaler struct {
		Debug      bool
		Origin     string `fig:"origin" default:"*"`
		Server     Server
		Monitoring Monitoring
	}
	Server struct {
		Address string `fig:"address" default:":8000"`
		Https   bool
		Tls     Tls
	}
	Tls struct {
		Address   string `fig:"address" default:":443"`
		Domain    string
		HttpsCert string
		HttpsKey  string
	}
	Monitoring struct {
		Port             int    `fig:"port" default:"6601"`
		URLPrefix        string `fig:"urlPrefix" default:"/signaler"`
		MetricEnabled    bool
		ProfilingEnabled bool
	}
)

func (m *Monitoring) IsEnabled() bool { return m.MetricEnabled || m.ProfilingEnabled }

// NewConfig loads the config file (if any) overridden by the env vars.
func NewConfig() (conf Config) {
	if err := LoadConfig(&conf, ""); err != nil {
		panic(err)
	}
	return
}

func (c *Config) ParseFlags() {
	c.AddFlags(flag.CommandLine)
	flag.CommandLine.AddGoFlagSet(goflag.CommandLine)
	flag.Parse()
}

func (c *Config) AddFlags(fs *flag.FlagSet) *Config {
	fs.BoolVarP(&c.Signaler.Debug, "debug", "d", c.Signaler.Debug, "Enable debug logging")
	fs.StringVar(&c.Signaler.Server.Address, "address", c.Signaler.Server.Address, "HTTP server address")
	fs.BoolVarP(&c.Version, "version", "v", false, "Print application version")
	return c
}
