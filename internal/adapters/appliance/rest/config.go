package rest

import "time"

const (
	DefaultBasePath          = "mgmt/tm"
	DefaultTimeout           = 30 * time.Second
	DefaultRequestsPerSecond = 10
)

// Config describes how to reach the appliance's management API.
type Config struct {
	// Address is host[:port] or a full base URL such as https://10.0.0.1:8443.
	Address            string        `mapstructure:"address" yaml:"address"`
	Username           string        `mapstructure:"username" yaml:"username"`
	Password           string        `mapstructure:"password" yaml:"password"`
	Token              string        `mapstructure:"token" yaml:"token"`
	BasePath           string        `mapstructure:"base_path" yaml:"base_path"`
	InsecureSkipVerify bool          `mapstructure:"insecure_skip_verify" yaml:"insecure_skip_verify"`
	Timeout            time.Duration `mapstructure:"timeout" yaml:"timeout"`
	RequestsPerSecond  int           `mapstructure:"requests_per_second" yaml:"requests_per_second" validate:"gte=0,lte=100"`
}
