package mongo

import (
	"fmt"
	"time"

	"github.com/Sokol111/ecommerce-product-sync/pkg/core/config"
	"github.com/spf13/viper"
)

type Config struct {
	ConnectionString string
	Host             string
	Port             int
	ReplicaSet       string
	Username         string
	Password         string
	Database         string
	DirectConnection bool

	MaxPoolSize         uint64
	MinPoolSize         uint64
	MaxConnIdleTime     time.Duration
	ConnectTimeout      time.Duration
	ServerSelectTimeout time.Duration

	// QueryTimeout bounds every single collection call.
	QueryTimeout time.Duration
}

func (c Config) Validate() error {
	if c.Database == "" {
		return config.Missing("mongo.database")
	}
	if c.ConnectionString == "" && (c.Host == "" || c.Port == 0) {
		return config.Missing("mongo.connection-string or mongo.host/mongo.port")
	}
	return nil
}

func (c Config) URI() string {
	if c.ConnectionString != "" {
		return c.ConnectionString
	}

	auth := ""
	if c.Username != "" {
		auth = fmt.Sprintf("%s:%s@", c.Username, c.Password)
	}
	uri := fmt.Sprintf("mongodb://%s%s:%d/%s", auth, c.Host, c.Port, c.Database)

	sep := "?"
	if c.ReplicaSet != "" {
		uri += sep + "replicaSet=" + c.ReplicaSet
		sep = "&"
	}
	if c.DirectConnection {
		uri += sep + "directConnection=true"
	}
	return uri
}

func newConfig(v *viper.Viper) (Config, error) {
	v.SetDefault("mongo.max-pool-size", 100)
	v.SetDefault("mongo.min-pool-size", 5)
	v.SetDefault("mongo.max-conn-idle-time", 5*time.Minute)
	v.SetDefault("mongo.connect-timeout", 10*time.Second)
	v.SetDefault("mongo.server-select-timeout", 30*time.Second)
	v.SetDefault("mongo.query-timeout", 10*time.Second)

	cfg := Config{
		ConnectionString:    v.GetString("mongo.connection-string"),
		Host:                v.GetString("mongo.host"),
		Port:                v.GetInt("mongo.port"),
		ReplicaSet:          v.GetString("mongo.replica-set"),
		Username:            v.GetString("mongo.username"),
		Password:            v.GetString("mongo.password"),
		Database:            v.GetString("mongo.database"),
		DirectConnection:    v.GetBool("mongo.direct-connection"),
		MaxPoolSize:         v.GetUint64("mongo.max-pool-size"),
		MinPoolSize:         v.GetUint64("mongo.min-pool-size"),
		MaxConnIdleTime:     v.GetDuration("mongo.max-conn-idle-time"),
		ConnectTimeout:      v.GetDuration("mongo.connect-timeout"),
		ServerSelectTimeout: v.GetDuration("mongo.server-select-timeout"),
		QueryTimeout:        v.GetDuration("mongo.query-timeout"),
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
