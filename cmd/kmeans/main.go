package main

import (
	"github.com/Mazurkevichkv/k-means/cmd/handlers"
	"github.com/Mazurkevichkv/k-means/internal/logger"
)

func main() {
	logger.Init() // Initialize the logger
	handlers.Execute()
}
