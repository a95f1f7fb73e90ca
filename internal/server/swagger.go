package server

//go:generate swag init -g internal/server/server.go -o docs/swagger

// @title Astral API
// @version 0.1
// @description Interactive documentation for the astral report generation and comparison API surface.
// @contact.name Astral Maintainers
// @contact.url https://github.com/astralhq/astral
// @BasePath /
