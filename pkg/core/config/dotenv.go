package config

import (
	"github.com/joho/godotenv"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// NewDotEnvModule loads variables from the given .env file (".env" when
// path is empty). A missing file is not an error. Loading happens when the
// module is built so that other modules see the variables.
func NewDotEnvModule(path string) fx.Option {
	if path == "" {
		path = ".env"
	}
	err := godotenv.Load(path)

	return fx.Module("dotenv",
		fx.Invoke(func(log *zap.Logger) {
			if err != nil {
				log.Debug("no .env file loaded", zap.String("path", path))
				return
			}
			log.Info("loaded .env file", zap.String("path", path))
		}),
	)
}
