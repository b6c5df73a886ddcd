package config

import (
	"flag"
	"strings"
)

func parseFlags(cfg *Config) {
	flag.StringVar(&cfg.Addr, "a", cfg.Addr, "HTTP listen address")
	flag.StringVar(&cfg.MongoURI, "m", cfg.MongoURI, "MongoDB connection URI")
	flag.StringVar(&cfg.Database, "db", cfg.Database, "MongoDB database name")
	flag.StringVar(&cfg.SecretKey, "k", cfg.SecretKey, "token signing secret")
	flag.DurationVar(&cfg.TokenValidity, "t", cfg.TokenValidity, "session token validity")
	flag.IntVar(&cfg.HashIterations, "i", cfg.HashIterations, "password hash iterations")

	origins := flag.String("o", strings.Join(cfg.AllowedOrigins, ","), "comma-separated allowed CORS origins")
	flag.Parse()
	cfg.AllowedOrigins = strings.Split(*origins, ",")
}
