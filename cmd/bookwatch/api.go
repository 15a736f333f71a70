package main

import (
	"github.com/jackzampolin/bookwatch/internal/api"
	"github.com/jackzampolin/bookwatch/internal/server/endpoints"
)

func init() {
	registry := api.NewRegistry()
	for _, ep := range endpoints.All(endpoints.Config{}) {
		registry.Register(ep)
	}
	rootCmd.AddCommand(registry.BuildCommands(getServerURL))
}
