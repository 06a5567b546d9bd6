// Command huffmind is the HTTP front end for the block pipeline: it
// exposes /compress and /decompress as multipart file uploads, kept
// from the original Echo-based service and adapted to drive the
// concurrent pipeline instead of a single in-memory pass.
package main

import (
	"flag"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"
	echoware "github.com/labstack/echo/v4/middleware"

	"github.com/d4s/chw/internal/routes"
)

func main() {
	addr := flag.String("addr", ":6969", "address to listen on")
	flag.Parse()

	e := echo.New()
	e.Use(echoware.Logger())
	e.Use(echoware.Recover())
	e.Use(echoware.CORSWithConfig(echoware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost},
	}))

	e.POST("/compress", func(c echo.Context) error {
		return routes.CompressFile(c)
	})

	e.POST("/decompress", func(c echo.Context) error {
		return routes.DecompressFile(c)
	})

	if err := e.Start(*addr); err != nil {
		log.Fatalf("Server error: %v\n", err)
	}
}
