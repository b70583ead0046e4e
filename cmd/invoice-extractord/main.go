// invoice-extractord serves the extraction pipeline over HTTP.
package main

import (
	"flag"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/insightdelivered/invoice-extractor/internal/api"
)

func main() {
	addr := flag.String("addr", ":8080", "Listen address")
	flag.Parse()

	app := fiber.New(fiber.Config{
		AppName:   "invoice-extractord",
		BodyLimit: 32 << 20,
	})
	app.Use(recover.New())
	app.Use(cors.New())

	app.Get("/api/health", api.HandleHealth)
	app.Post("/api/convert", api.HandleConvert)

	log.Printf("invoice-extractord listening on %s", *addr)
	if err := app.Listen(*addr); err != nil {
		log.Fatal(err)
	}
}
