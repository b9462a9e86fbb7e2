package main

import (
	"crelay/internal/api"
	"crelay/internal/config"
)

func withClient(cfg *config.Config, fn func(*api.Client) error) error {
	return fn(api.NewClient(cfg.APIURL))
}
