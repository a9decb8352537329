package config

type ServerConfig struct {
	HTTPAddr string `yaml:"http-addr"`
}

func loadServer(base ServerConfig) ServerConfig {
	return ServerConfig{
		HTTPAddr: getenv("HTTP_ADDR", or(base.HTTPAddr, ":8080")),
	}
}

func or(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
