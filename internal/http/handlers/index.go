package handlers

import (
	"net/http"
	"sort"

	"github.com/gin-gonic/gin"
)

type RouteInfo struct {
	Method string `json:"method"`
	Path   string `json:"path"`
}

// Index lists the engine's routes, read at request time so it always matches the router.
func Index(service string, routes func() gin.RoutesInfo) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		info := routes()

		out := make([]RouteInfo, 0, len(info))
		for _, r := range info {
			out = append(out, RouteInfo{Method: r.Method, Path: r.Path})
		}

		sort.Slice(out, func(i, j int) bool {
			if out[i].Path == out[j].Path {
				return out[i].Method < out[j].Method
			}
			return out[i].Path < out[j].Path
		})

		ctx.JSON(http.StatusOK, gin.H{
			"service": service,
			"routes":  out,
		})
	}
}
