//go:build !debug

package api

import "github.com/gin-gonic/gin"

func registerDebugRoutes(*gin.RouterGroup, *APIHandler) {}
