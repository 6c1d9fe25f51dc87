package fetch

import (
	"github.com/viant/tokenrefresh"
)

type Options struct {
	URLs        []string `yaml:"urls" short:"u" long:"url" description:"resource URL, repeatable"`
	Concurrency int      `yaml:"concurrency,omitempty" short:"n" long:"concurrency" description:"max concurrent requests"`
	ConfigURL   string   `yaml:"-" short:"c" long:"config" description:"YAML config file URL"`
	EnvFile     string   `yaml:"-" short:"e" long:"env" description:".env file, ./.env when present"`

	tokenrefresh.ClientOptions `yaml:",inline"`
}

func (o *Options) Init() {
	if o.Concurrency <= 0 {
		o.Concurrency = 4
	}
	o.ClientOptions.Init()
}

// Inherit fills unset options from other.
func (o *Options) Inherit(other *Options) {
	if len(o.URLs) == 0 {
		o.URLs = other.URLs
	}
	if o.Concurrency == 0 {
		o.Concurrency = other.Concurrency
	}
	o.ClientOptions.Inherit(&other.ClientOptions)
}
